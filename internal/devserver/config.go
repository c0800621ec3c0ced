package devserver

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/yndnr/minipay-go/internal/infra/confloader"
)

// EnvPrefix is the environment prefix of devserver settings:
// MINIPAY_DEV_TOKEN_SECRET sets token.secret.
const EnvPrefix = "MINIPAY_DEV_"

// Config is the devserver configuration.
type Config struct {
	Addr  string      `koanf:"addr" yaml:"addr" validate:"required,hostname_port"`
	TLS   TLSConfig   `koanf:"tls" yaml:"tls"`
	Token TokenConfig `koanf:"token" yaml:"token"`
	Rate  RateConfig  `koanf:"rate" yaml:"rate"`
	Users []UserEntry `koanf:"users" yaml:"users" validate:"dive"`
	Log   LogConfig   `koanf:"log" yaml:"log"`
}

// TLSConfig enables HTTPS when both files are set.
type TLSConfig struct {
	Cert string `koanf:"cert" yaml:"cert" validate:"omitempty,file"`
	Key  string `koanf:"key" yaml:"key" validate:"omitempty,file"`
}

// Enabled reports whether a certificate pair is configured.
func (c TLSConfig) Enabled() bool {
	return c.Cert != "" && c.Key != ""
}

// TokenConfig configures JWT issuance.
type TokenConfig struct {
	// Secret signs tokens with HS256. Empty means a random per-process key.
	Secret  string        `koanf:"secret" yaml:"secret" validate:"omitempty,min=16"`
	Access  time.Duration `koanf:"access" yaml:"access" validate:"gt=0"`
	Refresh time.Duration `koanf:"refresh" yaml:"refresh" validate:"gt=0"`
}

// RateConfig configures per-client rate limiting. A zero limit disables it.
type RateConfig struct {
	Limit float64 `koanf:"limit" yaml:"limit" validate:"gte=0"`
	Burst int     `koanf:"burst" yaml:"burst" validate:"gte=0"`
}

// UserEntry is one account allowed to obtain tokens. Admin accounts may list
// transactions.
type UserEntry struct {
	Username string `koanf:"username" yaml:"username" validate:"required"`
	Password string `koanf:"password" yaml:"password" validate:"required"`
	Admin    bool   `koanf:"admin" yaml:"admin"`
}

// LogConfig configures the request log.
type LogConfig struct {
	Level  string `koanf:"level" yaml:"level" validate:"oneof=debug info warn error"`
	Format string `koanf:"format" yaml:"format" validate:"oneof=text json"`
}

// DefaultConfig returns settings suitable for a local run.
func DefaultConfig() *Config {
	return &Config{
		Addr: "localhost:8000",
		Token: TokenConfig{
			Access:  5 * time.Minute,
			Refresh: 24 * time.Hour,
		},
		Rate: RateConfig{Limit: 20, Burst: 40},
		Users: []UserEntry{
			{Username: "admin", Password: "admin", Admin: true},
		},
		Log: LogConfig{Level: "info", Format: "text"},
	}
}

func defaultMap() map[string]any {
	d := DefaultConfig()
	users := make([]map[string]any, 0, len(d.Users))
	for _, u := range d.Users {
		users = append(users, map[string]any{"username": u.Username, "password": u.Password, "admin": u.Admin})
	}
	return map[string]any{
		"addr":          d.Addr,
		"token.access":  d.Token.Access.String(),
		"token.refresh": d.Token.Refresh.String(),
		"rate.limit":    d.Rate.Limit,
		"rate.burst":    d.Rate.Burst,
		"users":         users,
		"log.level":     d.Log.Level,
		"log.format":    d.Log.Format,
	}
}

// LoadConfig layers defaults, the optional YAML file at path, MINIPAY_DEV_*
// variables and overrides, then validates the result.
func LoadConfig(path string, overrides map[string]any) (*Config, error) {
	opts := []confloader.Option{
		confloader.WithEnvPrefix(EnvPrefix),
		confloader.WithDefaults(defaultMap()),
		confloader.WithOverrides(overrides),
	}
	if path != "" {
		opts = append(opts, confloader.WithConfigFile(path))
	}

	cfg := &Config{}
	if err := confloader.NewLoader(opts...).Load(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field values.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s: failed %q", strings.ToLower(fe.Namespace()), fe.Tag()))
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if (c.TLS.Cert == "") != (c.TLS.Key == "") {
		return fmt.Errorf("invalid configuration: tls.cert and tls.key must be set together")
	}
	seen := make(map[string]bool, len(c.Users))
	for _, u := range c.Users {
		if seen[u.Username] {
			return fmt.Errorf("invalid configuration: duplicate user %q", u.Username)
		}
		seen[u.Username] = true
	}
	return nil
}
