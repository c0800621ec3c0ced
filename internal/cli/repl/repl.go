package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync/atomic"

	"golang.org/x/text/language"

	"github.com/yndnr/minipay-go/internal/cli/output"
	"github.com/yndnr/minipay-go/internal/client/auth"
	"github.com/yndnr/minipay-go/internal/client/guard"
	"github.com/yndnr/minipay-go/internal/core/domain"
	"github.com/yndnr/minipay-go/internal/telemetry/logger"
)

// Session is the authentication surface the REPL drives.
type Session interface {
	Authenticated() bool
	Login(ctx context.Context, username, password string) error
	Logout()
	Subscribe(fn func(auth.Change)) (unsubscribe func())
}

// Transactions is the resource surface the REPL drives.
type Transactions interface {
	SubmitTransaction(ctx context.Context, in domain.TransactionSubmission) (domain.Transaction, error)
	ListTransactions(ctx context.Context) ([]domain.Transaction, error)
}

// Settings are the reloadable presentation settings.
type Settings struct {
	Format output.Format
	Locale language.Tag
}

// Options configures a REPL.
type Options struct {
	In      io.Reader
	Out     io.Writer
	History *History
	Logger  logger.Logger
	// Spinner animates the dashboard while the listing loads.
	Spinner bool
}

// maxSettle bounds consecutive renders after one command.
const maxSettle = 3

// errAborted is returned by prompts when input ends.
var errAborted = errors.New("input closed")

// REPL represents the Read-Eval-Print Loop.
type REPL struct {
	in        *bufio.Reader
	out       io.Writer
	session   Session
	txs       Transactions
	nav       *guard.Navigator
	router    *guard.Router
	completer *Completer
	history   *History
	log       logger.Logger
	spinner   bool

	settings atomic.Pointer[Settings]
	// mount counts route activations; a view result is kept only while the
	// mount it started under is still current.
	mount atomic.Uint64
	dirty atomic.Bool
}

// New creates a REPL starting at the payment route.
func New(session Session, txs Transactions, settings Settings, opts Options) *REPL {
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.History == nil {
		opts.History = NewHistory("")
	}
	if opts.Logger == nil {
		opts.Logger = logger.Default()
	}

	r := &REPL{
		in:        bufio.NewReader(opts.In),
		out:       opts.Out,
		session:   session,
		txs:       txs,
		nav:       guard.NewNavigator(guard.PaymentPath),
		completer: NewCompleter(),
		history:   opts.History,
		log:       opts.Logger.With("component", "repl"),
		spinner:   opts.Spinner,
	}
	r.Apply(settings)

	r.router = guard.NewRouter(r.nav, r.notFoundView)
	g := guard.New(session, r.nav)
	r.router.Handle(guard.PaymentPath, guard.ViewFunc(r.paymentView))
	r.router.Handle(guard.LoginPath, guard.ViewFunc(r.loginView))
	r.router.Handle(guard.DashboardPath, g.Protect(&dashboard{r: r}))
	return r
}

// Settings returns the current presentation settings.
func (r *REPL) Settings() Settings {
	return *r.settings.Load()
}

// Apply replaces the presentation settings. It is safe to call from another
// goroutine; the next render uses the new values.
func (r *REPL) Apply(s Settings) {
	if s.Format == "" {
		s.Format = output.FormatTable
	}
	r.settings.Store(&s)
}

// Reload returns a config watcher callback that re-reads settings with load
// and applies them. Failed reloads keep the previous settings.
func (r *REPL) Reload(load func() (Settings, error)) func(path string) {
	return func(path string) {
		s, err := load()
		if err != nil {
			r.log.Warn("config reload failed", "path", path, "error", err)
			return
		}
		r.Apply(s)
		r.log.Info("config reloaded", "path", path, "output", s.Format, "locale", s.Locale.String())
	}
}

// Navigator exposes the navigation history.
func (r *REPL) Navigator() *guard.Navigator {
	return r.nav
}

// Run starts the loop. It returns when input ends, on exit or quit, or when
// ctx is cancelled.
func (r *REPL) Run(ctx context.Context) error {
	unsubscribe := r.session.Subscribe(func(auth.Change) { r.dirty.Store(true) })
	defer unsubscribe()

	r.dirty.Store(true)
	r.settle(ctx)
	for {
		fmt.Fprint(r.out, r.prompt())

		line, err := r.in.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		eof := errors.Is(err, io.EOF)

		line = strings.TrimSpace(line)
		if line == "" {
			if eof {
				fmt.Fprintln(r.out)
				return nil
			}
			continue
		}

		r.history.Add(line)
		quit := r.execute(ctx, line)
		if ctx.Err() != nil {
			return nil
		}
		r.settle(ctx)
		if quit || eof {
			return nil
		}
	}
}

func (r *REPL) prompt() string {
	return "minipay:" + r.nav.Current() + "> "
}

// execute runs one command line and reports whether the loop should end.
func (r *REPL) execute(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "exit", "quit":
		return true
	case "help":
		r.printHelp()
	case "open":
		if len(args) != 1 {
			fmt.Fprintln(r.out, "usage: open <route>")
			return false
		}
		r.navigate(guard.Clean(args[0]), false)
	case "back":
		if _, ok := r.nav.Back(); !ok {
			fmt.Fprintln(r.out, "already at the first page")
			return false
		}
		r.remount()
	case "history":
		r.printNavigation()
	case "refresh":
		r.remount()
	case "login":
		r.login(ctx)
	case "logout":
		r.session.Logout()
		fmt.Fprintln(r.out, r.text(domain.MsgLoggedOut))
	case "pay":
		r.pay(ctx)
	default:
		fmt.Fprintf(r.out, "unknown command %q", cmd)
		if s := r.completer.Suggest(cmd); len(s) > 0 {
			fmt.Fprintf(r.out, ", did you mean: %s", strings.Join(s, ", "))
		}
		fmt.Fprintln(r.out, " (type 'help')")
	}
	return false
}

// navigate moves to path and schedules a render.
func (r *REPL) navigate(path string, replace bool) {
	if replace {
		r.nav.Replace(path)
	} else {
		r.nav.Push(path)
	}
	r.remount()
}

// remount starts a new mount of the current route.
func (r *REPL) remount() {
	r.mount.Add(1)
	r.dirty.Store(true)
}

// mounted reports whether the mount gen of path is still on screen.
func (r *REPL) mounted(gen uint64, path string) bool {
	return r.mount.Load() == gen && guard.Clean(r.nav.Current()) == path
}

// settle renders until no command or auth change is pending. A render can
// itself change the auth state (forced logout), which needs one more pass.
func (r *REPL) settle(ctx context.Context) {
	for range maxSettle {
		if !r.dirty.Swap(false) {
			return
		}
		r.render(ctx)
	}
}

func (r *REPL) render(ctx context.Context) {
	if err := r.router.Render(ctx, r.out); err != nil {
		r.log.Error("render failed", "route", r.nav.Current(), "error", err)
		fmt.Fprintf(r.out, "error: %v\n", err)
	}
}

func (r *REPL) text(key string, args ...any) string {
	return domain.Text(r.Settings().Locale, key, args...)
}

// ask prints label and reads one line.
func (r *REPL) ask(label string) (string, error) {
	fmt.Fprint(r.out, label)
	line, err := r.in.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		fmt.Fprintln(r.out)
		return "", errAborted
	}
	return strings.TrimSpace(line), nil
}

func (r *REPL) login(ctx context.Context) {
	username, err := r.ask(r.text(domain.MsgUsernamePrompt))
	if err != nil {
		return
	}
	password, err := r.ask(r.text(domain.MsgPasswordPrompt))
	if err != nil {
		return
	}

	if err := r.session.Login(ctx, username, password); err != nil {
		r.log.Debug("login failed", "error", err)
		fmt.Fprintln(r.out, r.text(domain.MsgInvalidCredentials))
		return
	}
	fmt.Fprintln(r.out, r.text(domain.MsgLoginSucceeded))
	r.navigate(guard.DashboardPath, guard.Clean(r.nav.Current()) == guard.LoginPath)
}

// field is one answer collected by a prompt sequence.
type field struct {
	label string
	dst   *string
}

func (r *REPL) pay(ctx context.Context) {
	var in domain.TransactionSubmission
	var docType string
	fields := []field{
		{"Amount: ", &in.Amount},
		{"Description: ", &in.Description},
		{"Name: ", &in.Name},
		{"Document type (CC/PP): ", &docType},
		{"Document number: ", &in.DocumentNumber},
		{"Card number: ", &in.CardNumber},
		{"Expiration (MM/YY): ", &in.ExpirationDate},
		{"Security code: ", &in.SecurityCode},
	}
	for _, f := range fields {
		v, err := r.ask(f.label)
		if err != nil {
			return
		}
		*f.dst = v
	}
	in.DocumentType = domain.DocumentType(strings.ToUpper(docType))

	tx, err := r.txs.SubmitTransaction(ctx, in)
	if err != nil {
		fmt.Fprintln(r.out, domain.TranslateError(err, r.Settings().Locale))
		return
	}
	fmt.Fprintln(r.out, r.text(domain.MsgPaymentCreated, strconv.FormatInt(tx.ID, 10)))
}

func (r *REPL) printNavigation() {
	entries := r.nav.History()
	for i, e := range entries {
		marker := " "
		if i == len(entries)-1 {
			marker = "*"
		}
		fmt.Fprintf(r.out, "%s %d %s\n", marker, i+1, e)
	}
}

func (r *REPL) printHelp() {
	fmt.Fprint(r.out, `Commands:
  open <route>   go to a route (/, /admin/login, /admin/dashboard)
  back           return to the previous route
  history        show the navigation history
  login          sign in as administrator
  logout         close the session
  pay            simulate a payment
  refresh        reload the current view
  help           show this help
  exit, quit     leave the REPL
`)
}
