package command

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/minipay-go/internal/infra/buildinfo"
)

// runtimeKey is the App.Metadata key of the per-invocation Runtime.
const runtimeKey = "runtime"

// App creates the CLI application.
func App() *cli.App {
	info := buildinfo.Get()
	app := &cli.App{
		Name:    "minipay-cli",
		Usage:   "Simulate payments and administer transactions",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", info.Version, info.Commit, info.BuildTime),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			PayCommand(),
			AdminCommand(),
			ConfigCommand(),
			ReplCommand(),
			VersionCommand(),
		},
		Action:  replAction,
		Before:  before,
		After:   after,
		Suggest: true,
	}
	return app
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "server",
			Aliases: []string{"s"},
			Usage:   "Backend base URL (e.g., http://localhost:8000)",
		},
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Configuration file (default ~/.minipay/cli.yaml)",
			EnvVars: []string{"MINIPAY_CONFIG"},
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json, yaml",
		},
		&cli.StringFlag{
			Name:  "locale",
			Usage: "Message and number locale (e.g., es-CO, en)",
		},
		&cli.StringFlag{
			Name:  "state-dir",
			Usage: "Directory holding the session store",
		},
		&cli.StringFlag{
			Name:  "session-backend",
			Usage: "Session store backend: file, badger, memory",
		},
		&cli.BoolFlag{
			Name:  "ephemeral",
			Usage: "Keep the session in memory only",
		},
		&cli.StringFlag{
			Name:  "ca-file",
			Usage: "Extra PEM bundle to trust for HTTPS backends",
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "Request timeout",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"V"},
			Usage:   "Enable debug logging on stderr",
		},
		&cli.StringFlag{
			Name:  "metrics-file",
			Usage: "Write client metrics in Prometheus text format at exit",
		},
	}
}

// overrides maps the global flags the user set onto configuration keys.
// Unset flags leave the file and environment values in place.
func overrides(c *cli.Context) map[string]any {
	m := make(map[string]any)
	str := map[string]string{
		"server":          "server",
		"output":          "output",
		"locale":          "locale",
		"state-dir":       "session.dir",
		"session-backend": "session.backend",
		"ca-file":         "tls.ca",
		"metrics-file":    "metrics.file",
	}
	for flag, key := range str {
		if c.IsSet(flag) {
			m[key] = c.String(flag)
		}
	}
	if c.IsSet("timeout") {
		m["timeout"] = c.Duration("timeout").String()
	}
	if c.Bool("ephemeral") {
		m["session.backend"] = "memory"
	}
	if c.Bool("verbose") {
		m["log.level"] = "debug"
	}
	return m
}

func before(c *cli.Context) error {
	rt, err := newRuntime(c)
	if err != nil {
		return err
	}
	if c.App.Metadata == nil {
		c.App.Metadata = make(map[string]any)
	}
	c.App.Metadata[runtimeKey] = rt
	return nil
}

func after(c *cli.Context) error {
	if rt := runtimeFrom(c); rt != nil {
		return rt.Close()
	}
	return nil
}

// runtimeFrom returns the Runtime created by before, or nil.
func runtimeFrom(c *cli.Context) *Runtime {
	rt, _ := c.App.Metadata[runtimeKey].(*Runtime)
	return rt
}

// mustRuntime is runtimeFrom for actions, which always run after before.
func mustRuntime(c *cli.Context) (*Runtime, error) {
	rt := runtimeFrom(c)
	if rt == nil {
		return nil, fmt.Errorf("command runtime not initialized")
	}
	return rt, nil
}
