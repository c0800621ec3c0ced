package command

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// mockServer creates a test HTTP server with custom handlers.
type mockServer struct {
	*httptest.Server
	mu       sync.Mutex
	handlers map[string]http.HandlerFunc
	calls    map[string]int
}

// newMockServer creates a new mock server closed with the test.
func newMockServer(t *testing.T) *mockServer {
	t.Helper()
	m := &mockServer{
		handlers: make(map[string]http.HandlerFunc),
		calls:    make(map[string]int),
	}
	m.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		m.mu.Lock()
		m.calls[key]++
		h, ok := m.handlers[key]
		m.mu.Unlock()
		if !ok {
			http.NotFound(w, r)
			return
		}
		h(w, r)
	}))
	t.Cleanup(m.Close)
	return m
}

// handle registers a handler for "METHOD /path".
func (m *mockServer) handle(pattern string, handler http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[pattern] = handler
}

func (m *mockServer) count(pattern string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[pattern]
}

// jsonResponse writes a JSON response.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// signedToken returns an HS256 access token for user.
func signedToken(t *testing.T, user string) string {
	t.Helper()
	now := time.Now()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":        user,
		"user_id":    float64(1),
		"token_type": "access",
		"iat":        now.Unix(),
		"exp":        now.Add(time.Hour).Unix(),
	}).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatal(err)
	}
	return tok
}

// tokenHandler accepts admin/secret.
func tokenHandler(t *testing.T) http.HandlerFunc {
	token := signedToken(t, "admin")
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.Username != "admin" || body.Password != "secret" {
			jsonResponse(w, http.StatusUnauthorized, map[string]string{"detail": "No active account found with the given credentials"})
			return
		}
		jsonResponse(w, http.StatusOK, map[string]string{"access": token, "refresh": "refresh-token"})
	}
}

// cliEnv is an isolated home and state directory for one test.
type cliEnv struct {
	server   *mockServer
	stateDir string
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	for _, k := range []string{"MINIPAY_SERVER", "MINIPAY_OUTPUT", "MINIPAY_LOCALE", "MINIPAY_CONFIG", "MINIPAY_PASSWORD"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
	return &cliEnv{server: newMockServer(t), stateDir: t.TempDir()}
}

// run executes the CLI with the test server and state directory, feeding
// stdin and capturing stdout and stderr.
func (e *cliEnv) run(stdin string, args ...string) (string, string, error) {
	var stdout, stderr bytes.Buffer
	app := App()
	app.Reader = strings.NewReader(stdin)
	app.Writer = &stdout
	app.ErrWriter = &stderr

	full := []string{"minipay-cli", "--server", e.server.URL, "--state-dir", e.stateDir, "--locale", "en"}
	full = append(full, args...)
	err := app.RunContext(context.Background(), full)
	return stdout.String(), stderr.String(), err
}
