package command

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/urfave/cli/v2"
	"golang.org/x/text/language"

	"github.com/yndnr/minipay-go/internal/cli/config"
	"github.com/yndnr/minipay-go/internal/cli/connection"
	"github.com/yndnr/minipay-go/internal/cli/output"
	"github.com/yndnr/minipay-go/internal/cli/repl"
	"github.com/yndnr/minipay-go/internal/client/auth"
	"github.com/yndnr/minipay-go/internal/client/resource"
	"github.com/yndnr/minipay-go/internal/client/session"
	"github.com/yndnr/minipay-go/internal/core/domain"
	"github.com/yndnr/minipay-go/internal/infra/buildinfo"
	"github.com/yndnr/minipay-go/internal/infra/confloader"
	"github.com/yndnr/minipay-go/internal/infra/shutdown"
	"github.com/yndnr/minipay-go/internal/storage"
	"github.com/yndnr/minipay-go/internal/telemetry/logger"
	"github.com/yndnr/minipay-go/internal/telemetry/metric"
)

// Runtime holds what one CLI invocation needs. The session store and the
// backend clients are opened on first use so that commands like
// "config show" never touch them.
type Runtime struct {
	Config  *config.CLIConfig
	Logger  logger.Logger
	Metrics *metric.Registry
	Locale  language.Tag
	Format  output.Format
	Out     io.Writer
	In      io.Reader

	configFlag string
	overrides  map[string]any
	loader     *confloader.Loader
	shutdown   *shutdown.Handler
	input      *bufio.Reader

	once    sync.Once
	openErr error
	manager *auth.Manager
	client  *resource.Client
}

func newRuntime(c *cli.Context) (*Runtime, error) {
	path := c.String("config")
	ov := overrides(c)
	loader := config.NewLoader(path, ov)
	cfg, err := config.Load(loader)
	if err != nil {
		return nil, err
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: c.App.ErrWriter,
	})
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	logger.SetDefault(log)

	format, err := output.ParseFormat(cfg.Output)
	if err != nil {
		return nil, err
	}

	info := buildinfo.Get()
	reg := metric.NewRegistry(false)
	reg.SetBuildInfo(info.Version, info.Commit)

	log.Debug("configuration loaded", "file", loader.FilePath(), "file_loaded", loader.FileLoaded(),
		"server", cfg.Server, "session_backend", cfg.Session.Backend)

	return &Runtime{
		Config:     cfg,
		Logger:     log,
		Metrics:    reg,
		Locale:     domain.ParseLocale(cfg.Locale),
		Format:     format,
		Out:        c.App.Writer,
		In:         c.App.Reader,
		configFlag: path,
		overrides:  ov,
		loader:     loader,
		shutdown:   shutdown.NewHandler(shutdown.DefaultTimeout),
	}, nil
}

// Clients opens the session store and returns the auth manager and the
// transactions client sharing it.
func (rt *Runtime) Clients() (*auth.Manager, *resource.Client, error) {
	rt.once.Do(func() { rt.openErr = rt.open() })
	return rt.manager, rt.client, rt.openErr
}

func (rt *Runtime) open() error {
	kv, err := storage.Open(rt.Config.StorageConfig(), logger.Slog(rt.Logger))
	if err != nil {
		return fmt.Errorf("open session store: %w", err)
	}
	rt.shutdown.OnShutdown(func(context.Context) error { return kv.Close() })
	if b, ok := kv.(*storage.BadgerKV); ok {
		b.RegisterMetrics(rt.Metrics.Registerer())
	}

	conn, err := connection.NewHTTPClient(connection.Config{
		Server:    rt.Config.Server,
		Timeout:   rt.Config.Timeout,
		CAFile:    rt.Config.TLS.CA,
		UserAgent: buildinfo.UserAgent("minipay-cli"),
	}, rt.Logger)
	if err != nil {
		return err
	}

	store := session.NewStore(kv, rt.Logger)
	rt.manager = auth.NewManager(store, conn, auth.WithMetrics(rt.Metrics), auth.WithLogger(rt.Logger))
	rt.Metrics.Registerer().MustRegister(metric.NewSessionCollector(rt.manager.Authenticated))
	rt.client = resource.NewClient(conn, rt.manager.Tokens(), rt.manager.Terminator(),
		resource.WithMetrics(rt.Metrics),
		resource.WithLogger(rt.Logger),
	)
	return nil
}

// Close writes the metrics textfile when configured, then runs the
// shutdown hooks.
func (rt *Runtime) Close() error {
	var errs []error
	if file := rt.Config.Metrics.File; file != "" {
		if err := rt.Metrics.WriteTextfile(file); err != nil {
			errs = append(errs, fmt.Errorf("write metrics: %w", err))
		}
	}
	if err := rt.shutdown.Shutdown(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Print writes data in the configured output format.
func (rt *Runtime) Print(data any) error {
	return output.NewFormatter(rt.Format).Format(rt.Out, data)
}

// Println writes a localized message line.
func (rt *Runtime) Println(key string, args ...any) {
	fmt.Fprintln(rt.Out, domain.Text(rt.Locale, key, args...))
}

// Ask prints label and reads one line of input.
func (rt *Runtime) Ask(label string) (string, error) {
	if rt.input == nil {
		in := rt.In
		if in == nil {
			in = os.Stdin
		}
		rt.input = bufio.NewReader(in)
	}
	fmt.Fprint(rt.Out, label)
	line, err := rt.input.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// Fail turns a taxonomy error into a user-facing error in the current
// locale. errors.Is still sees the original.
func (rt *Runtime) Fail(err error) error {
	return &userError{msg: domain.TranslateError(err, rt.Locale), err: err}
}

// Settings returns the REPL presentation settings.
func (rt *Runtime) Settings() repl.Settings {
	return repl.Settings{Format: rt.Format, Locale: rt.Locale}
}

// ReloadSettings re-reads the configuration with the same flags and
// returns the new presentation settings. The log level follows too.
func (rt *Runtime) ReloadSettings() (repl.Settings, error) {
	cfg, err := config.Load(config.NewLoader(rt.configFlag, rt.overrides))
	if err != nil {
		return repl.Settings{}, err
	}
	logger.SetLevel(cfg.Log.Level)
	format, err := output.ParseFormat(cfg.Output)
	if err != nil {
		return repl.Settings{}, err
	}
	return repl.Settings{Format: format, Locale: domain.ParseLocale(cfg.Locale)}, nil
}

// ConfigFile returns the configuration file path in effect.
func (rt *Runtime) ConfigFile() string {
	return rt.loader.FilePath()
}

// HistoryFile returns where the REPL keeps its history. Ephemeral sessions
// keep none.
func (rt *Runtime) HistoryFile() string {
	if rt.Config.Session.Backend == storage.BackendMemory || rt.Config.Session.Dir == "" {
		return ""
	}
	return filepath.Join(rt.Config.Session.Dir, "history")
}

// OnShutdown registers a cleanup hook run by Close.
func (rt *Runtime) OnShutdown(hook func(context.Context) error) {
	rt.shutdown.OnShutdown(hook)
}

// userError carries a translated message while keeping the taxonomy error
// for errors.Is.
type userError struct {
	msg string
	err error
}

func (e *userError) Error() string { return e.msg }
func (e *userError) Unwrap() error { return e.err }
