// Package guard decides whether a protected view may render.
//
// The decision is recomputed on every render from the live authentication
// state; nothing is cached. A denied render replaces the current history
// entry with the login route, so going back never lands on the view that
// redirected.
package guard

import (
	"context"
	"errors"
	"io"
)

// Well-known routes.
const (
	PaymentPath   = "/"
	LoginPath     = "/admin/login"
	DashboardPath = "/admin/dashboard"
)

// Decision is the outcome of Evaluate. A denied decision always replaces
// the current history entry with Redirect.
type Decision struct {
	Allow    bool
	Redirect string
}

// Evaluate decides whether target may be shown. It is pure.
func Evaluate(authenticated bool, target string) Decision {
	if !authenticated {
		return Decision{Allow: false, Redirect: LoginPath}
	}
	return Decision{Allow: true}
}

// AuthState reports the current authentication state.
type AuthState interface {
	Authenticated() bool
}

// View renders one screen.
type View interface {
	Render(ctx context.Context, out io.Writer) error
}

// ViewFunc adapts a function to View.
type ViewFunc func(ctx context.Context, out io.Writer) error

// Render calls f.
func (f ViewFunc) Render(ctx context.Context, out io.Writer) error {
	return f(ctx, out)
}

// ErrRedirected is returned by a protected view that navigated away instead
// of rendering. The navigator already points at the new route.
var ErrRedirected = errors.New("guard: redirected")

// Guard protects views against unauthenticated access.
type Guard struct {
	auth AuthState
	nav  *Navigator
}

// New creates a guard reading auth and redirecting through nav.
func New(auth AuthState, nav *Navigator) *Guard {
	return &Guard{auth: auth, nav: nav}
}

// Protect wraps v so that each render first consults Evaluate.
func (g *Guard) Protect(v View) View {
	return &protected{g: g, view: v}
}

type protected struct {
	g    *Guard
	view View
}

func (p *protected) Render(ctx context.Context, out io.Writer) error {
	d := Evaluate(p.g.auth.Authenticated(), p.g.nav.Current())
	if d.Allow {
		return p.view.Render(ctx, out)
	}
	p.g.nav.Replace(d.Redirect)
	return ErrRedirected
}
