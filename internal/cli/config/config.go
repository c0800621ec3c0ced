package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/yndnr/minipay-go/internal/infra/confloader"
	"github.com/yndnr/minipay-go/internal/storage"
)

// Output formats.
var OutputFormats = []string{"table", "json", "yaml"}

// CLIConfig is the configuration for minipay-cli.
type CLIConfig struct {
	Server  string        `koanf:"server" json:"server" yaml:"server" validate:"required"`
	Output  string        `koanf:"output" json:"output" yaml:"output" validate:"oneof=table json yaml"`
	Locale  string        `koanf:"locale" json:"locale" yaml:"locale" validate:"required,bcp47_language_tag"`
	Timeout time.Duration `koanf:"timeout" json:"timeout" yaml:"timeout" validate:"gt=0"`

	TLS     TLSConfig     `koanf:"tls" json:"tls" yaml:"tls"`
	Session SessionConfig `koanf:"session" json:"session" yaml:"session"`
	Log     LogConfig     `koanf:"log" json:"log" yaml:"log"`
	Metrics MetricsConfig `koanf:"metrics" json:"metrics" yaml:"metrics"`
}

// TLSConfig configures trust for HTTPS backends.
type TLSConfig struct {
	// CA is an extra PEM bundle, e.g. for a self-signed development backend.
	CA string `koanf:"ca" json:"ca,omitempty" yaml:"ca,omitempty" validate:"omitempty,file"`
}

// SessionConfig selects where the access token is kept.
type SessionConfig struct {
	Backend string `koanf:"backend" json:"backend" yaml:"backend" validate:"oneof=file badger memory"`
	Dir     string `koanf:"dir" json:"dir" yaml:"dir"`
}

// LogConfig configures diagnostic logging on stderr.
type LogConfig struct {
	Level  string `koanf:"level" json:"level" yaml:"level" validate:"oneof=debug info warn error"`
	Format string `koanf:"format" json:"format" yaml:"format" validate:"oneof=text json"`
}

// MetricsConfig configures the metrics textfile written at exit.
type MetricsConfig struct {
	File string `koanf:"file" json:"file,omitempty" yaml:"file,omitempty"`
}

// DefaultServer is the development backend address.
const DefaultServer = "http://localhost:8000"

// DefaultConfigPath returns ~/.minipay/cli.yaml.
func DefaultConfigPath() string {
	return filepath.Join(homeDir(), ".minipay", "cli.yaml")
}

// DefaultStateDir returns ~/.minipay/state.
func DefaultStateDir() string {
	return filepath.Join(homeDir(), ".minipay", "state")
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return home
}

// Default returns the default CLI configuration.
func Default() *CLIConfig {
	return &CLIConfig{
		Server:  DefaultServer,
		Output:  "table",
		Locale:  "es-CO",
		Timeout: 30 * time.Second,
		Session: SessionConfig{
			Backend: storage.BackendFile,
			Dir:     DefaultStateDir(),
		},
		Log: LogConfig{Level: "warn", Format: "text"},
	}
}

// defaultMap is Default in koanf dot notation.
func defaultMap() map[string]any {
	d := Default()
	return map[string]any{
		"server":          d.Server,
		"output":          d.Output,
		"locale":          d.Locale,
		"timeout":         d.Timeout.String(),
		"session.backend": d.Session.Backend,
		"session.dir":     d.Session.Dir,
		"log.level":       d.Log.Level,
		"log.format":      d.Log.Format,
	}
}

// NewLoader returns a loader for path layered over the defaults, MINIPAY_*
// variables and overrides. An empty path means the default location, which
// may be absent; an explicit path must exist.
func NewLoader(path string, overrides map[string]any) *confloader.Loader {
	opts := []confloader.Option{
		confloader.WithDefaults(defaultMap()),
		confloader.WithOverrides(overrides),
	}
	if path == "" {
		opts = append(opts, confloader.WithConfigFile(DefaultConfigPath()), confloader.WithOptionalFile())
	} else {
		opts = append(opts, confloader.WithConfigFile(path))
	}
	return confloader.NewLoader(opts...)
}

// Load reads the configuration through l and validates it.
func Load(l *confloader.Loader) (*CLIConfig, error) {
	cfg := &CLIConfig{}
	if err := l.Load(cfg); err != nil {
		return nil, err
	}
	cfg.Session.Dir = expandHome(cfg.Session.Dir)
	cfg.TLS.CA = expandHome(cfg.TLS.CA)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field values.
func (c *CLIConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s: failed %q (value %v)", fieldPath(fe.Namespace()), fe.Tag(), fe.Value()))
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.Session.Backend != storage.BackendMemory && c.Session.Dir == "" {
		return fmt.Errorf("invalid configuration: session.dir is required for the %s backend", c.Session.Backend)
	}
	return nil
}

// fieldPath turns "CLIConfig.Session.Backend" into "session.backend".
func fieldPath(ns string) string {
	parts := strings.Split(ns, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	return strings.ToLower(strings.Join(parts, "."))
}

// ValidOutput reports whether format is a known output format.
func ValidOutput(format string) bool {
	return slices.Contains(OutputFormats, format)
}

// StorageConfig maps the session settings onto the storage layer.
func (c *CLIConfig) StorageConfig() storage.Config {
	sc := storage.DefaultConfig(c.Session.Dir)
	sc.Backend = c.Session.Backend
	return sc
}

// YAML renders the configuration as a YAML document.
func (c *CLIConfig) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}

// Save writes cfg to path with mode 0600, creating the directory.
func Save(cfg *CLIConfig, path string) error {
	if path == "" {
		path = DefaultConfigPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	data, err := cfg.YAML()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func expandHome(p string) string {
	if p == "~" {
		return homeDir()
	}
	if strings.HasPrefix(p, "~/") {
		return filepath.Join(homeDir(), p[2:])
	}
	return p
}
