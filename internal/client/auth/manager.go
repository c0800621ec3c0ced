// Package auth owns the login/logout state machine.
//
// The Manager is the only writer of the session store. Its state is derived
// from the store at construction (a stored token counts as authenticated
// without verification) and changes only through Login and Logout.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/yndnr/minipay-go/internal/cli/connection"
	"github.com/yndnr/minipay-go/internal/client/session"
	"github.com/yndnr/minipay-go/internal/core/domain"
	"github.com/yndnr/minipay-go/internal/telemetry/logger"
	"github.com/yndnr/minipay-go/internal/telemetry/metric"
)

// TokenPath is the token issuance endpoint.
const TokenPath = "/api/token/"

// State is the authentication state.
type State int

const (
	Unauthenticated State = iota
	Authenticated
)

func (s State) String() string {
	if s == Authenticated {
		return "authenticated"
	}
	return "unauthenticated"
}

// Transition reasons reported in Change.
const (
	ReasonLogin  = "login"
	ReasonUser   = metric.ReasonUser
	ReasonForced = metric.ReasonForced
)

// Change describes one state transition.
type Change struct {
	From   State
	To     State
	Reason string
}

// Poster sends JSON requests to the backend.
type Poster interface {
	Post(ctx context.Context, path string, body any, opts ...connection.RequestOption) (*connection.Response, error)
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh,omitempty"`
}

// Manager exchanges credentials for a token and tracks the resulting state.
type Manager struct {
	store     *session.Store
	transport Poster
	metrics   *metric.Registry
	logger    logger.Logger

	mu        sync.RWMutex
	state     State
	observers map[int]func(Change)
	nextID    int
}

// Option configures a Manager.
type Option func(*Manager)

// WithMetrics records logins and logouts in r.
func WithMetrics(r *metric.Registry) Option {
	return func(m *Manager) { m.metrics = r }
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// NewManager creates a manager whose initial state reflects whether store
// holds a token.
func NewManager(store *session.Store, transport Poster, opts ...Option) *Manager {
	m := &Manager{
		store:     store,
		transport: transport,
		logger:    logger.Default(),
		observers: make(map[int]func(Change)),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With("component", "auth")
	if _, ok := store.Get(); ok {
		m.state = Authenticated
	}
	return m
}

// State returns the current state.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Authenticated reports whether the state is Authenticated.
func (m *Manager) Authenticated() bool {
	return m.State() == Authenticated
}

// Tokens returns the read-only view of the session store for resource calls.
// It reports no token while the manager is unauthenticated, so a token left
// behind by a failed clear is never sent.
func (m *Manager) Tokens() session.TokenSource {
	return gatedTokens{m: m, src: m.store.ReadOnly()}
}

type gatedTokens struct {
	m   *Manager
	src session.TokenSource
}

func (g gatedTokens) Get() (string, bool) {
	if !g.m.Authenticated() {
		return "", false
	}
	return g.src.Get()
}

// Login exchanges username and password for an access token. It returns nil
// on success. On failure the store is not written, the state is unchanged and
// the error carries the taxonomy kind; callers showing a single generic
// message may ignore it.
func (m *Manager) Login(ctx context.Context, username, password string) error {
	err := m.login(ctx, username, password)
	m.metrics.ObserveLogin(err)
	if err != nil {
		m.logger.Info("login failed", "username", username, "code", domain.CodeOf(err))
		return err
	}
	m.logger.Info("login succeeded", "username", username)
	m.transition(Authenticated, ReasonLogin)
	return nil
}

func (m *Manager) login(ctx context.Context, username, password string) error {
	resp, err := m.transport.Post(ctx, TokenPath, credentials{Username: username, Password: password})
	if err != nil {
		return domain.ErrNetwork.Wrap(err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusUnauthorized:
		return domain.ErrInvalidCredentials.WithStatus(resp.StatusCode).WithPayload(domain.ParsePayload(resp.Body))
	default:
		return domain.FromStatus(resp.StatusCode, resp.Body)
	}

	var tok tokenResponse
	if err := resp.Decode(&tok); err != nil {
		return domain.ErrMalformedResponse.WithStatus(resp.StatusCode).WithCause(err)
	}
	if tok.Access == "" {
		return domain.ErrMalformedResponse.WithStatus(resp.StatusCode).WithCause(errors.New("response has no access token"))
	}
	if err := m.store.Set(tok.Access); err != nil {
		return domain.ErrUnexpected.WithCause(fmt.Errorf("persist session: %w", err))
	}
	return nil
}

// Logout clears the session. It is safe to call when already logged out.
func (m *Manager) Logout() {
	m.logout(ReasonUser)
}

// logout always ends in Unauthenticated. If the store cannot be cleared the
// token stays on disk but Tokens and TokenInfo stop reporting it; the next
// Logout or Login retries the write.
func (m *Manager) logout(reason string) {
	if err := m.store.Clear(); err != nil {
		m.logger.Error("clearing session failed", "reason", reason, "error", err)
	}
	m.metrics.ObserveLogout(reason)
	m.logger.Info("logged out", "reason", reason)
	m.transition(Unauthenticated, reason)
}

// Terminator returns a handle whose Logout is recorded as a forced logout.
// It is handed to callers of protected resources.
func (m *Manager) Terminator() Terminator {
	return Terminator{m: m}
}

// Terminator ends the session on behalf of a rejected protected call.
type Terminator struct {
	m *Manager
}

// Logout clears the session with reason "forced".
func (t Terminator) Logout() {
	t.m.logout(ReasonForced)
}

func (m *Manager) transition(to State, reason string) {
	m.mu.Lock()
	from := m.state
	m.state = to
	observers := make([]func(Change), 0, len(m.observers))
	for _, fn := range m.observers {
		observers = append(observers, fn)
	}
	m.mu.Unlock()

	if from == to {
		return
	}
	c := Change{From: from, To: to, Reason: reason}
	for _, fn := range observers {
		fn(c)
	}
}

// Subscribe registers fn to be called synchronously after every state
// change. The returned function removes the subscription.
func (m *Manager) Subscribe(fn func(Change)) (unsubscribe func()) {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.observers[id] = fn
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.observers, id)
			m.mu.Unlock()
		})
	}
}

// TokenInfo is the unverified content of the stored access token.
type TokenInfo struct {
	Subject   string
	UserID    string
	TokenType string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Expired reports whether the token carries an expiry before now.
func (i TokenInfo) Expired(now time.Time) bool {
	return !i.ExpiresAt.IsZero() && now.After(i.ExpiresAt)
}

// ErrNoToken is returned by TokenInfo when no session is stored.
var ErrNoToken = errors.New("auth: no stored token")

// TokenInfo decodes the stored token's claims without verifying the
// signature. It is informational only and never changes state.
func (m *Manager) TokenInfo() (TokenInfo, error) {
	raw, ok := m.Tokens().Get()
	if !ok {
		return TokenInfo{}, ErrNoToken
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return TokenInfo{}, fmt.Errorf("auth: decode token: %w", err)
	}

	var info TokenInfo
	info.Subject, _ = claims.GetSubject()
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		info.ExpiresAt = exp.Time
	}
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		info.IssuedAt = iat.Time
	}
	info.TokenType, _ = claims["token_type"].(string)
	switch v := claims["user_id"].(type) {
	case string:
		info.UserID = v
	case float64:
		info.UserID = fmt.Sprintf("%.0f", v)
	}
	return info, nil
}
