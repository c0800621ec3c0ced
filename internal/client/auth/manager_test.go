package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/yndnr/minipay-go/internal/cli/connection"
	"github.com/yndnr/minipay-go/internal/client/session"
	"github.com/yndnr/minipay-go/internal/core/domain"
	"github.com/yndnr/minipay-go/internal/storage"
	"github.com/yndnr/minipay-go/internal/telemetry/logger"
	"github.com/yndnr/minipay-go/internal/telemetry/metric"
)

// tokenServer answers /api/token/ with status and body.
func tokenServer(t *testing.T, status int, body string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.Method != http.MethodPost || r.URL.Path != TokenPath {
			http.NotFound(w, r)
			return
		}
		var c credentials
		if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
			t.Errorf("decode credentials: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func newManager(t *testing.T, serverURL string, kv storage.KV, opts ...Option) (*Manager, *session.Store) {
	t.Helper()
	conn, err := connection.NewHTTPClient(connection.Config{Server: serverURL}, logger.Discard())
	if err != nil {
		t.Fatal(err)
	}
	store := session.NewStore(kv, logger.Discard())
	opts = append([]Option{WithLogger(logger.Discard())}, opts...)
	return NewManager(store, conn, opts...), store
}

func TestNewManager_InitialState(t *testing.T) {
	kv := storage.NewMemoryKV()
	m, _ := newManager(t, "http://127.0.0.1:1", kv)
	if m.State() != Unauthenticated {
		t.Errorf("empty store: State() = %v, want unauthenticated", m.State())
	}

	_ = kv.Set(context.Background(), session.AccessTokenKey, []byte("stale"))
	m, _ = newManager(t, "http://127.0.0.1:1", kv)
	if !m.Authenticated() {
		t.Error("stored token should start authenticated without verification")
	}
}

func TestLogin_Success(t *testing.T) {
	srv, _ := tokenServer(t, http.StatusOK, `{"access":"abc","refresh":"r1"}`)
	kv := storage.NewMemoryKV()
	reg := metric.NewRegistry(false)
	m, store := newManager(t, srv.URL, kv, WithMetrics(reg))

	if err := m.Login(context.Background(), "valid", "valid"); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if m.State() != Authenticated {
		t.Errorf("State() = %v, want authenticated", m.State())
	}
	if got, ok := store.Get(); !ok || got != "abc" {
		t.Errorf("store.Get() = %q, %v; want abc", got, ok)
	}
	if _, err := kv.Get(context.Background(), session.RefreshTokenKey); !errors.Is(err, storage.ErrKeyNotFound) {
		t.Error("refresh token must not be persisted")
	}
	if got := testutil.ToFloat64(reg.LoginsTotal.WithLabelValues("success")); got != 1 {
		t.Errorf("logins success = %v", got)
	}
}

func TestLogin_Failures(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantKind error
		wantCode string
	}{
		{"bad credentials", http.StatusUnauthorized, `{"detail":"No active account found with the given credentials"}`, domain.ErrAuthentication, "MP-AUTH-4010"},
		{"missing access", http.StatusOK, `{"refresh":"r"}`, domain.ErrUnexpected, "MP-SYS-0001"},
		{"empty access", http.StatusOK, `{"access":""}`, domain.ErrUnexpected, "MP-SYS-0001"},
		{"malformed body", http.StatusOK, `not json`, domain.ErrUnexpected, "MP-SYS-0001"},
		{"validation", http.StatusBadRequest, `{"username":["This field is required."]}`, domain.ErrValidation, "MP-VAL-4001"},
		{"server error", http.StatusInternalServerError, ``, domain.ErrServer, "MP-SYS-5000"},
		{"forbidden", http.StatusForbidden, ``, domain.ErrUnexpected, "MP-SYS-0000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := tokenServer(t, tt.status, tt.body)
			kv := storage.NewMemoryKV()
			m, store := newManager(t, srv.URL, kv)

			err := m.Login(context.Background(), "bad", "bad")
			if !errors.Is(err, tt.wantKind) {
				t.Fatalf("Login() error = %v, want kind %v", err, domain.KindOf(tt.wantKind))
			}
			if !domain.IsCode(err, tt.wantCode) {
				t.Errorf("code = %s, want %s", domain.CodeOf(err), tt.wantCode)
			}
			if m.State() != Unauthenticated {
				t.Errorf("State() = %v, want unauthenticated", m.State())
			}
			if _, ok := store.Get(); ok {
				t.Error("store written on failed login")
			}
			if kv.Len() != 0 {
				t.Errorf("kv has %d keys, want 0", kv.Len())
			}
		})
	}
}

func TestLogin_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	m, store := newManager(t, url, storage.NewMemoryKV())
	err := m.Login(context.Background(), "u", "p")
	if !errors.Is(err, domain.ErrNetwork) {
		t.Fatalf("Login() error = %v, want network error", err)
	}
	if m.Authenticated() {
		t.Error("should stay unauthenticated")
	}
	if _, ok := store.Get(); ok {
		t.Error("store written on network failure")
	}
}

// failingKV accepts reads but rejects writes.
type failingKV struct {
	*storage.MemoryKV
}

func (f failingKV) Set(context.Context, string, []byte) error {
	return errors.New("disk full")
}

func TestLogin_StoreWriteFailure(t *testing.T) {
	srv, _ := tokenServer(t, http.StatusOK, `{"access":"abc"}`)
	m, _ := newManager(t, srv.URL, failingKV{storage.NewMemoryKV()})

	err := m.Login(context.Background(), "u", "p")
	if !errors.Is(err, domain.ErrUnexpected) {
		t.Fatalf("Login() error = %v, want unexpected", err)
	}
	if m.Authenticated() {
		t.Error("state must not change when the token cannot be stored")
	}
}

func TestLogout(t *testing.T) {
	kv := storage.NewMemoryKV()
	ctx := context.Background()
	_ = kv.Set(ctx, session.AccessTokenKey, []byte("abc"))
	_ = kv.Set(ctx, session.RefreshTokenKey, []byte("r"))

	reg := metric.NewRegistry(false)
	m, store := newManager(t, "http://127.0.0.1:1", kv, WithMetrics(reg))
	m.Logout()

	if m.Authenticated() {
		t.Error("still authenticated after Logout")
	}
	if _, ok := store.Get(); ok {
		t.Error("token still stored")
	}
	if kv.Len() != 0 {
		t.Errorf("kv has %d keys after logout", kv.Len())
	}

	// Idempotent.
	m.Logout()
	if m.Authenticated() {
		t.Error("second Logout changed state")
	}
	if got := testutil.ToFloat64(reg.LogoutsTotal.WithLabelValues(ReasonUser)); got != 2 {
		t.Errorf("user logouts = %v, want 2", got)
	}
}

// stuckKV refuses every write, so a stored token cannot be removed.
type stuckKV struct {
	*storage.MemoryKV
}

func (stuckKV) Set(context.Context, string, []byte) error { return errors.New("read-only disk") }
func (stuckKV) Delete(context.Context, ...string) error   { return errors.New("read-only disk") }

func TestLogout_ClearFailureHidesToken(t *testing.T) {
	mem := storage.NewMemoryKV()
	_ = mem.Set(context.Background(), session.AccessTokenKey, []byte("abc"))
	srv, _ := tokenServer(t, http.StatusUnauthorized, `{"detail":"No active account found with the given credentials"}`)
	m, store := newManager(t, srv.URL, stuckKV{mem})

	if !m.Authenticated() {
		t.Fatal("stored token should start authenticated")
	}
	m.Logout()

	if m.Authenticated() {
		t.Error("still authenticated after Logout")
	}
	if _, ok := store.Get(); !ok {
		t.Fatal("setup: token should remain in the stuck store")
	}
	if tok, ok := m.Tokens().Get(); ok {
		t.Errorf("Tokens().Get() = %q, want absent while unauthenticated", tok)
	}
	if _, err := m.TokenInfo(); !errors.Is(err, ErrNoToken) {
		t.Errorf("TokenInfo() error = %v, want ErrNoToken", err)
	}

	// A failed login must not bring the leftover token back.
	if err := m.Login(context.Background(), "bad", "bad"); err == nil {
		t.Fatal("Login() error = nil, want failure")
	}
	if m.Authenticated() {
		t.Error("failed login restored the leftover session")
	}
}

func TestTerminator_IsForcedLogout(t *testing.T) {
	kv := storage.NewMemoryKV()
	_ = kv.Set(context.Background(), session.AccessTokenKey, []byte("abc"))
	reg := metric.NewRegistry(false)
	m, _ := newManager(t, "http://127.0.0.1:1", kv, WithMetrics(reg))

	var got []Change
	m.Subscribe(func(c Change) { got = append(got, c) })

	m.Terminator().Logout()

	if m.Authenticated() {
		t.Error("still authenticated")
	}
	if len(got) != 1 || got[0].Reason != ReasonForced || got[0].From != Authenticated {
		t.Errorf("changes = %+v", got)
	}
	if v := testutil.ToFloat64(reg.LogoutsTotal.WithLabelValues(ReasonForced)); v != 1 {
		t.Errorf("forced logouts = %v", v)
	}
}

func TestSubscribe(t *testing.T) {
	srv, _ := tokenServer(t, http.StatusOK, `{"access":"abc"}`)
	m, _ := newManager(t, srv.URL, storage.NewMemoryKV())

	var changes []Change
	unsubscribe := m.Subscribe(func(c Change) {
		// Observers run after the state is updated.
		if m.State() != c.To {
			t.Errorf("observer saw State() = %v during change to %v", m.State(), c.To)
		}
		changes = append(changes, c)
	})

	if err := m.Login(context.Background(), "u", "p"); err != nil {
		t.Fatal(err)
	}
	m.Logout()
	m.Logout() // no transition, no notification

	want := []Change{
		{From: Unauthenticated, To: Authenticated, Reason: ReasonLogin},
		{From: Authenticated, To: Unauthenticated, Reason: ReasonUser},
	}
	if len(changes) != len(want) {
		t.Fatalf("got %d changes, want %d: %+v", len(changes), len(want), changes)
	}
	for i := range want {
		if changes[i] != want[i] {
			t.Errorf("change[%d] = %+v, want %+v", i, changes[i], want[i])
		}
	}

	unsubscribe()
	unsubscribe()
	if err := m.Login(context.Background(), "u", "p"); err != nil {
		t.Fatal(err)
	}
	if len(changes) != 2 {
		t.Error("observer called after unsubscribe")
	}
}

func TestTokenInfo(t *testing.T) {
	kv := storage.NewMemoryKV()
	m, store := newManager(t, "http://127.0.0.1:1", kv)

	if _, err := m.TokenInfo(); !errors.Is(err, ErrNoToken) {
		t.Fatalf("TokenInfo() error = %v, want ErrNoToken", err)
	}

	exp := time.Now().Add(-time.Minute).Truncate(time.Second)
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":        "admin",
		"user_id":    7,
		"token_type": "access",
		"exp":        exp.Unix(),
		"iat":        exp.Add(-5 * time.Minute).Unix(),
	})
	signed, err := tok.SignedString([]byte("anything"))
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Set(signed); err != nil {
		t.Fatal(err)
	}

	info, err := m.TokenInfo()
	if err != nil {
		t.Fatalf("TokenInfo() error = %v", err)
	}
	if info.Subject != "admin" || info.UserID != "7" || info.TokenType != "access" {
		t.Errorf("info = %+v", info)
	}
	if !info.ExpiresAt.Equal(exp) {
		t.Errorf("ExpiresAt = %v, want %v", info.ExpiresAt, exp)
	}
	if !info.Expired(time.Now()) {
		t.Error("token should report expired")
	}
	if m.State() != Unauthenticated {
		t.Error("TokenInfo must not change state")
	}

	_ = store.Set("opaque-token")
	if _, err := m.TokenInfo(); err == nil {
		t.Error("expected decode error for opaque token")
	}
}
