package devserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/yndnr/minipay-go/internal/core/domain"
)

// Response details, worded like the backend the CLI was built against.
const (
	detailBadCredentials = "No active account found with the given credentials"
	detailNoCredentials  = "Authentication credentials were not provided."
	detailTokenInvalid   = "Given token not valid for any token type"
	detailForbidden      = "You do not have permission to perform this action."
	detailNotFound       = "Not found."
	detailRequired       = "This field is required."
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// Handler serves the backend API.
type Handler struct {
	users  *Users
	issuer *Issuer
	store  *Store
	log    *slog.Logger
	now    func() time.Time
	mux    *http.ServeMux
}

// NewHandler creates a Handler with its routes registered.
func NewHandler(users *Users, issuer *Issuer, store *Store, log *slog.Logger) *Handler {
	h := &Handler{
		users:  users,
		issuer: issuer,
		store:  store,
		log:    log,
		now:    time.Now,
		mux:    http.NewServeMux(),
	}
	h.registerRoutes()
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) registerRoutes() {
	h.mux.HandleFunc("GET /health", h.handleHealth)
	h.mux.HandleFunc("POST /api/token/", h.handleToken)
	h.mux.HandleFunc("POST /api/transactions/", h.handleCreateTransaction)
	h.mux.HandleFunc("GET /api/transactions/", h.handleListTransactions)
	h.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeDetail(w, http.StatusNotFound, detailNotFound)
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":       "healthy",
		"time":         h.now().UTC().Format(time.RFC3339),
		"transactions": h.store.Len(),
	})
}

type tokenRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// handleToken handles POST /api/token/.
func (h *Handler) handleToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if !h.decode(w, r, &req) {
		return
	}

	fields := make(map[string][]string)
	if strings.TrimSpace(req.Username) == "" {
		fields["username"] = []string{detailRequired}
	}
	if req.Password == "" {
		fields["password"] = []string{detailRequired}
	}
	if len(fields) > 0 {
		writeJSON(w, http.StatusBadRequest, fields)
		return
	}

	user, err := h.users.Authenticate(req.Username, req.Password)
	if err != nil {
		h.log.Info("token request rejected", "username", req.Username)
		writeDetail(w, http.StatusUnauthorized, detailBadCredentials)
		return
	}

	pair, err := h.issuer.Issue(user)
	if err != nil {
		h.log.Error("issue token failed", "username", user.Username, "error", err)
		writeDetail(w, http.StatusInternalServerError, "A server error occurred.")
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

// transactionInput accepts the amount as a JSON number or string.
type transactionInput struct {
	Amount         any    `json:"amount"`
	Description    string `json:"description"`
	Name           string `json:"name"`
	DocumentType   string `json:"document_type"`
	DocumentNumber string `json:"document_number"`
	CardNumber     string `json:"card_number"`
	ExpirationDate string `json:"expiration_date"`
	SecurityCode   string `json:"security_code"`
}

func (in transactionInput) submission() domain.TransactionSubmission {
	return domain.TransactionSubmission{
		Amount:         amountText(in.Amount),
		Description:    in.Description,
		Name:           in.Name,
		DocumentType:   domain.DocumentType(in.DocumentType),
		DocumentNumber: in.DocumentNumber,
		CardNumber:     in.CardNumber,
		ExpirationDate: in.ExpirationDate,
		SecurityCode:   in.SecurityCode,
	}
}

func amountText(v any) string {
	switch a := v.(type) {
	case string:
		return a
	case float64:
		return strconv.FormatFloat(a, 'f', -1, 64)
	default:
		return ""
	}
}

// handleCreateTransaction handles POST /api/transactions/. Field errors are
// answered with 400 and a field to messages map.
func (h *Handler) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var in transactionInput
	if !h.decode(w, r, &in) {
		return
	}

	req, err := in.submission().Validate(h.now())
	if err != nil {
		var derr *domain.Error
		if errors.As(err, &derr) && len(derr.Payload.Fields) > 0 {
			writeJSON(w, http.StatusBadRequest, derr.Payload.Fields)
			return
		}
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}

	tx := h.store.Create(req)
	h.log.Info("transaction created", "id", tx.ID, "amount", tx.Amount.Float64())
	writeJSON(w, http.StatusCreated, tx)
}

// handleListTransactions handles GET /api/transactions/. Missing or invalid
// tokens get 401, valid tokens of non-admin users get 403.
func (h *Handler) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	raw, ok := bearer(r)
	if !ok {
		writeDetail(w, http.StatusUnauthorized, detailNoCredentials)
		return
	}
	claims, err := h.issuer.Verify(raw)
	if err != nil {
		h.log.Debug("token rejected", "error", err)
		writeJSON(w, http.StatusUnauthorized, map[string]string{
			"detail": detailTokenInvalid,
			"code":   "token_not_valid",
		})
		return
	}
	setClaims(r.Context(), claims)

	user, ok := h.users.Lookup(claims.Subject)
	if !ok || !user.Admin {
		writeDetail(w, http.StatusForbidden, detailForbidden)
		return
	}
	writeJSON(w, http.StatusOK, h.store.List())
}

// decode reads a JSON body. On failure it writes a 400 and returns false.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeDetail(w, http.StatusBadRequest, fmt.Sprintf("JSON parse error - %v", err))
		return false
	}
	return true
}

// bearer extracts the token of an "Authorization: Bearer" header.
func bearer(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
