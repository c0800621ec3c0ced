package command

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/yndnr/minipay-go/internal/core/domain"
	"github.com/yndnr/minipay-go/internal/storage"
)

const listBody = `[{"id":7,"currency":"COP","amount":"150000.50","description":"Coffee",
"name":"Ana Gomez","document_type":"CC","document_number":"1020304050",
"card_number":"4111111111111111","expiration_date":"12/27",
"transaction_date":"2025-06-15T12:00:00Z"}]`

func listHandler(w http.ResponseWriter, r *http.Request) {
	if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
		jsonResponse(w, http.StatusUnauthorized, map[string]string{"detail": "Authentication credentials were not provided."})
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(listBody))
}

func TestAdminCommand_Structure(t *testing.T) {
	cmd := AdminCommand()
	subs := make(map[string][]string)
	for _, sub := range cmd.Subcommands {
		subs[sub.Name] = sub.Aliases
	}
	for _, name := range []string{"login", "logout", "transactions", "status"} {
		if _, ok := subs[name]; !ok {
			t.Errorf("missing subcommand %s", name)
		}
	}
	if a := subs["transactions"]; len(a) == 0 || a[0] != "list" {
		t.Errorf("transactions aliases = %v, want list", a)
	}
}

func TestAdmin_LoginListLogout(t *testing.T) {
	env := newCLIEnv(t)
	env.server.handle("POST /api/token/", tokenHandler(t))
	env.server.handle("GET /api/transactions/", listHandler)

	out, _, err := env.run("", "admin", "login", "-u", "admin", "-p", "secret")
	if err != nil {
		t.Fatalf("login error = %v", err)
	}
	if !strings.Contains(out, domain.MsgLoginSucceeded) {
		t.Errorf("login output = %q", out)
	}

	// The session persists in the state directory across invocations.
	out, _, err = env.run("", "admin", "list")
	if err != nil {
		t.Fatalf("list error = %v", err)
	}
	for _, want := range []string{"****1111", "CC-1020304050", "Coffee", "1 transaction(s)"} {
		if !strings.Contains(out, want) {
			t.Errorf("list output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "4111111111111111") {
		t.Error("full card number printed")
	}

	out, _, err = env.run("", "-o", "json", "admin", "transactions")
	if err != nil {
		t.Fatalf("json list error = %v", err)
	}
	if !strings.Contains(out, `"card_number": "****1111"`) {
		t.Errorf("json output not masked:\n%s", out)
	}

	if _, _, err := env.run("", "admin", "logout"); err != nil {
		t.Fatalf("logout error = %v", err)
	}
	_, _, err = env.run("", "admin", "list")
	if !errors.Is(err, domain.ErrAuthorizationRequired) {
		t.Errorf("list after logout err = %v, want authorization required", err)
	}
	if n := env.server.count("GET /api/transactions/"); n != 2 {
		t.Errorf("listing calls = %d, want 2", n)
	}
}

func TestAdmin_LoginPrompts(t *testing.T) {
	env := newCLIEnv(t)
	env.server.handle("POST /api/token/", tokenHandler(t))

	out, _, err := env.run("admin\nsecret\n", "admin", "login")
	if err != nil {
		t.Fatalf("login error = %v", err)
	}
	if !strings.Contains(out, "Username: ") || !strings.Contains(out, "Password: ") {
		t.Errorf("prompts missing:\n%s", out)
	}
}

func TestAdmin_LoginRejected(t *testing.T) {
	env := newCLIEnv(t)
	env.server.handle("POST /api/token/", tokenHandler(t))

	_, _, err := env.run("", "admin", "login", "-u", "admin", "-p", "wrong")
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("err = %v, want invalid credentials", err)
	}
	if err.Error() != domain.MsgInvalidCredentials {
		t.Errorf("message = %q", err.Error())
	}
	if _, err := os.Stat(filepath.Join(env.stateDir, storage.SealedFileName)); err == nil {
		t.Error("session written after rejected login")
	}
}

func TestAdmin_ListForcedLogout(t *testing.T) {
	env := newCLIEnv(t)
	env.server.handle("POST /api/token/", tokenHandler(t))
	env.server.handle("GET /api/transactions/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	if _, _, err := env.run("", "admin", "login", "-u", "admin", "-p", "secret"); err != nil {
		t.Fatal(err)
	}
	_, _, err := env.run("", "admin", "list")
	if !errors.Is(err, domain.ErrSessionExpired) {
		t.Fatalf("err = %v, want session expired", err)
	}

	out, _, err := env.run("", "admin", "status")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, domain.MsgNotAuthenticated) {
		t.Errorf("status after forced logout:\n%s", out)
	}
}

func TestAdmin_ListServerError(t *testing.T) {
	env := newCLIEnv(t)
	env.server.handle("POST /api/token/", tokenHandler(t))
	env.server.handle("GET /api/transactions/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	if _, _, err := env.run("", "admin", "login", "-u", "admin", "-p", "secret"); err != nil {
		t.Fatal(err)
	}
	_, _, err := env.run("", "admin", "list")
	if err == nil || err.Error() != domain.MsgListingFailed {
		t.Errorf("err = %v, want generic listing message", err)
	}

	// The session survives non-authentication failures.
	out, _, _ := env.run("", "admin", "status")
	if !strings.Contains(out, domain.MsgAuthenticated) {
		t.Errorf("session lost:\n%s", out)
	}
}

func TestAdmin_Status(t *testing.T) {
	env := newCLIEnv(t)
	env.server.handle("POST /api/token/", tokenHandler(t))

	out, _, err := env.run("", "admin", "status")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, domain.MsgNotAuthenticated) {
		t.Errorf("status:\n%s", out)
	}

	if _, _, err := env.run("", "admin", "login", "-u", "admin", "-p", "secret"); err != nil {
		t.Fatal(err)
	}
	out, _, err = env.run("", "-o", "json", "admin", "status")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{`"subject": "admin"`, `"user_id": "1"`, `"expired": "false"`, `"state": "Authenticated"`} {
		if !strings.Contains(out, want) {
			t.Errorf("status missing %s:\n%s", want, out)
		}
	}
}

func TestAdmin_EphemeralSessionDoesNotPersist(t *testing.T) {
	env := newCLIEnv(t)
	env.server.handle("POST /api/token/", tokenHandler(t))

	if _, _, err := env.run("", "--ephemeral", "admin", "login", "-u", "admin", "-p", "secret"); err != nil {
		t.Fatal(err)
	}
	_, _, err := env.run("", "admin", "list")
	if !errors.Is(err, domain.ErrAuthorizationRequired) {
		t.Errorf("err = %v, want authorization required", err)
	}
}
