package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/minipay-go/internal/devserver"
	"github.com/yndnr/minipay-go/internal/infra/buildinfo"
	"github.com/yndnr/minipay-go/internal/infra/shutdown"
	"github.com/yndnr/minipay-go/internal/telemetry/logger"
	"github.com/yndnr/minipay-go/internal/telemetry/metric"
)

func main() {
	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	if err := app().RunContext(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		cancel()
		os.Exit(1)
	}
}

func app() *cli.App {
	info := buildinfo.Get()
	return &cli.App{
		Name:    "minipay-devserver",
		Usage:   "Run a local minipay backend",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", info.Version, info.Commit, info.BuildTime),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Configuration file",
				EnvVars: []string{"MINIPAY_DEV_CONFIG"},
			},
			&cli.StringFlag{Name: "addr", Usage: "Listen address (default localhost:8000)"},
			&cli.StringFlag{Name: "tls-cert", Usage: "TLS certificate file"},
			&cli.StringFlag{Name: "tls-key", Usage: "TLS private key file"},
			&cli.StringFlag{Name: "log-level", Usage: "Log level: debug, info, warn, error"},
			&cli.StringFlag{Name: "log-format", Usage: "Log format: text, json"},
			&cli.Float64Flag{Name: "rate-limit", Usage: "Requests per second per client, 0 disables"},
		},
		Action: run,
	}
}

func overrides(c *cli.Context) map[string]any {
	m := make(map[string]any)
	for flag, key := range map[string]string{
		"addr":       "addr",
		"tls-cert":   "tls.cert",
		"tls-key":    "tls.key",
		"log-level":  "log.level",
		"log-format": "log.format",
	} {
		if c.IsSet(flag) {
			m[key] = c.String(flag)
		}
	}
	if c.IsSet("rate-limit") {
		m["rate.limit"] = c.Float64("rate-limit")
	}
	return m
}

func run(c *cli.Context) error {
	cfg, err := devserver.LoadConfig(c.String("config"), overrides(c))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stdout,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logger.SetDefault(log)

	info := buildinfo.Get()
	reg := metric.NewRegistry(true)
	reg.SetBuildInfo(info.Version, info.Commit)

	srv, err := devserver.New(cfg, log, reg)
	if err != nil {
		return err
	}

	log.Info("starting minipay-devserver", "version", info.Version, "commit", info.Commit, "config", c.String("config"))

	sh := shutdown.NewHandler(shutdown.DefaultTimeout)
	sh.OnShutdown(func(ctx context.Context) error {
		log.Info("shutting down HTTP server")
		return srv.Shutdown(ctx)
	})

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		if err != nil {
			_ = sh.Shutdown()
			return err
		}
	case <-c.Context.Done():
	}

	if err := sh.Wait(c.Context); err != nil {
		log.Error("shutdown error", "error", err)
		return err
	}
	log.Info("server stopped gracefully")
	return nil
}
