package command

import (
	"context"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/minipay-go/internal/cli/repl"
	"github.com/yndnr/minipay-go/internal/infra/confloader"
	"github.com/yndnr/minipay-go/internal/telemetry/logger"
)

// ReplCommand returns the interactive mode command. It is also the action
// run when no command is given.
func ReplCommand() *cli.Command {
	return &cli.Command{
		Name:    "repl",
		Aliases: []string{"shell"},
		Usage:   "Start interactive mode",
		Action:  replAction,
	}
}

func replAction(c *cli.Context) error {
	rt, err := mustRuntime(c)
	if err != nil {
		return err
	}
	m, client, err := rt.Clients()
	if err != nil {
		return err
	}

	history := repl.NewHistory(rt.HistoryFile())
	if err := history.Load(); err != nil {
		rt.Logger.Warn("history not loaded", "error", err)
	}
	rt.OnShutdown(func(context.Context) error { return history.Save() })

	r := repl.New(m, client, rt.Settings(), repl.Options{
		In:      rt.In,
		Out:     rt.Out,
		History: history,
		Logger:  rt.Logger,
		Spinner: isTerminal(rt.Out),
	})

	if path := rt.ConfigFile(); path != "" {
		w, err := confloader.NewWatcher(path, confloader.WithWatcherLogger(logger.Slog(rt.Logger)))
		if err != nil {
			rt.Logger.Debug("config watcher disabled", "path", path, "error", err)
		} else {
			w.OnChange(r.Reload(rt.ReloadSettings))
			w.StartAsync()
			defer w.Stop()
		}
	}

	return r.Run(c.Context)
}

// isTerminal reports whether w is a character device.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	return err == nil && info.Mode()&os.ModeCharDevice != 0
}
