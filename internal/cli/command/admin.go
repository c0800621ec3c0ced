package command

import (
	"errors"
	"strconv"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/minipay-go/internal/cli/output"
	"github.com/yndnr/minipay-go/internal/client/auth"
	"github.com/yndnr/minipay-go/internal/client/guard"
	"github.com/yndnr/minipay-go/internal/core/domain"
)

// AdminCommand returns the administrator command group.
func AdminCommand() *cli.Command {
	return &cli.Command{
		Name:  "admin",
		Usage: "Administrator session and transaction listing",
		Subcommands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Sign in and store the access token",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "username", Aliases: []string{"u"}, Usage: "Username (prompted when missing)"},
					&cli.StringFlag{Name: "password", Aliases: []string{"p"}, Usage: "Password (prompted when missing)", EnvVars: []string{"MINIPAY_PASSWORD"}},
				},
				Action: adminLogin,
			},
			{
				Name:   "logout",
				Usage:  "Remove the stored session",
				Action: adminLogout,
			},
			{
				Name:    "transactions",
				Aliases: []string{"list"},
				Usage:   "List transactions (requires a session)",
				Action:  adminTransactions,
			},
			{
				Name:   "status",
				Usage:  "Show the session state and token claims",
				Action: adminStatus,
			},
		},
	}
}

func adminLogin(c *cli.Context) error {
	rt, err := mustRuntime(c)
	if err != nil {
		return err
	}
	m, _, err := rt.Clients()
	if err != nil {
		return err
	}

	username := c.String("username")
	if username == "" {
		if username, err = rt.Ask(domain.Text(rt.Locale, domain.MsgUsernamePrompt)); err != nil {
			return err
		}
	}
	password := c.String("password")
	if password == "" {
		if password, err = rt.Ask(domain.Text(rt.Locale, domain.MsgPasswordPrompt)); err != nil {
			return err
		}
	}

	if err := m.Login(c.Context, username, password); err != nil {
		rt.Logger.Debug("login failed", "error", err)
		return &userError{msg: domain.Text(rt.Locale, domain.MsgInvalidCredentials), err: err}
	}
	rt.Println(domain.MsgLoginSucceeded)
	return nil
}

func adminLogout(c *cli.Context) error {
	rt, err := mustRuntime(c)
	if err != nil {
		return err
	}
	m, _, err := rt.Clients()
	if err != nil {
		return err
	}
	m.Logout()
	rt.Println(domain.MsgLoggedOut)
	return nil
}

func adminTransactions(c *cli.Context) error {
	rt, err := mustRuntime(c)
	if err != nil {
		return err
	}
	m, client, err := rt.Clients()
	if err != nil {
		return err
	}

	if d := guard.Evaluate(m.Authenticated(), guard.DashboardPath); !d.Allow {
		return rt.Fail(domain.ErrAuthorizationRequired)
	}

	txs, err := client.ListTransactions(c.Context)
	if err != nil {
		return &userError{msg: domain.TranslateListError(err, rt.Locale), err: err}
	}

	if rt.Format != output.FormatTable {
		return rt.Print(output.TransactionList{Items: txs, Locale: rt.Locale})
	}
	if len(txs) == 0 {
		rt.Println(domain.MsgNoTransactions)
		return nil
	}
	if err := rt.Print(output.TransactionList{Items: txs, Locale: rt.Locale}); err != nil {
		return err
	}
	rt.Println(domain.MsgTransactionCount, strconv.Itoa(len(txs)))
	return nil
}

func adminStatus(c *cli.Context) error {
	rt, err := mustRuntime(c)
	if err != nil {
		return err
	}
	m, _, err := rt.Clients()
	if err != nil {
		return err
	}

	status := map[string]string{
		"server":  rt.Config.Server,
		"backend": rt.Config.Session.Backend,
		"state":   domain.Text(rt.Locale, domain.MsgNotAuthenticated),
	}
	if m.Authenticated() {
		status["state"] = domain.Text(rt.Locale, domain.MsgAuthenticated)
	}

	info, err := m.TokenInfo()
	switch {
	case errors.Is(err, auth.ErrNoToken):
	case err != nil:
		rt.Logger.Warn("stored token is not a readable JWT", "error", err)
		status["token"] = "opaque"
	default:
		status["subject"] = info.Subject
		status["user_id"] = info.UserID
		status["token_type"] = info.TokenType
		if !info.IssuedAt.IsZero() {
			status["issued_at"] = info.IssuedAt.Format(time.RFC3339)
		}
		if !info.ExpiresAt.IsZero() {
			status["expires_at"] = info.ExpiresAt.Format(time.RFC3339)
			status["expired"] = strconv.FormatBool(info.Expired(time.Now()))
		}
	}
	return rt.Print(status)
}
