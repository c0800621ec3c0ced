package command

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestConfigCommand_Structure(t *testing.T) {
	names := make(map[string]bool)
	for _, sub := range ConfigCommand().Subcommands {
		names[sub.Name] = true
	}
	for _, n := range []string{"show", "validate", "init"} {
		if !names[n] {
			t.Errorf("missing subcommand %s", n)
		}
	}
}

func TestConfigShow(t *testing.T) {
	env := newCLIEnv(t)

	out, _, err := env.run("", "--timeout", "5s", "config", "show")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"# file: ", "server: " + env.server.URL, "timeout: 5s", "locale: en", "dir: " + env.stateDir} {
		if !strings.Contains(out, want) {
			t.Errorf("config show missing %q:\n%s", want, out)
		}
	}

	out, _, err = env.run("", "-o", "json", "config", "show")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, `"backend": "file"`) {
		t.Errorf("json config:\n%s", out)
	}
}

func TestConfigInitAndValidate(t *testing.T) {
	env := newCLIEnv(t)
	path := filepath.Join(t.TempDir(), "cli.yaml")

	out, _, err := env.run("", "--config", path, "config", "init")
	if err == nil {
		t.Fatalf("explicit missing config should fail before init, got %q", out)
	}

	// Without --config the default location may be absent.
	out, _, err = env.run("", "config", "init")
	if err != nil {
		t.Fatalf("init error = %v", err)
	}
	home, _ := os.UserHomeDir()
	written := filepath.Join(home, ".minipay", "cli.yaml")
	if !strings.Contains(out, written) {
		t.Errorf("init output = %q, want %s", out, written)
	}
	if _, _, err := env.run("", "config", "init"); err == nil {
		t.Error("second init should refuse to overwrite")
	}
	if _, _, err := env.run("", "config", "init", "--force"); err != nil {
		t.Errorf("init --force error = %v", err)
	}

	out, _, err = env.run("", "config", "validate", written)
	if err != nil || !strings.Contains(out, "configuration is valid") {
		t.Errorf("validate = %q, %v", out, err)
	}

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(bad, []byte("output: xml\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, _, err := env.run("", "config", "validate", bad); err == nil || !strings.Contains(err.Error(), "output") {
		t.Errorf("validate bad = %v", err)
	}
}

func TestConfigFileAndEnvLayers(t *testing.T) {
	env := newCLIEnv(t)
	path := filepath.Join(t.TempDir(), "cli.yaml")
	if err := os.WriteFile(path, []byte("output: yaml\nlocale: es-CO\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("MINIPAY_OUTPUT", "json")

	out, _, err := env.run("", "--config", path, "config", "show")
	if err != nil {
		t.Fatal(err)
	}
	// env beats file, flags (--locale en from the helper) beat both.
	if !strings.Contains(out, `"output": "json"`) || !strings.Contains(out, `"locale": "en"`) {
		t.Errorf("layering:\n%s", out)
	}
}

func TestVersion(t *testing.T) {
	env := newCLIEnv(t)
	out, _, err := env.run("", "version")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"version", "commit", "go_version"} {
		if !strings.Contains(out, want) {
			t.Errorf("version output missing %q:\n%s", want, out)
		}
	}
}

func TestMetricsFileWrittenAtExit(t *testing.T) {
	env := newCLIEnv(t)
	file := filepath.Join(t.TempDir(), "minipay.prom")

	if _, _, err := env.run("", "--metrics-file", file, "admin", "logout"); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(file)
	if err != nil {
		t.Fatalf("metrics file not written: %v", err)
	}
	if !strings.Contains(string(data), "minipay_build_info") || !strings.Contains(string(data), "minipay_client_session_active 0") {
		t.Errorf("metrics file:\n%s", data)
	}
}
