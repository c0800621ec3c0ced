package guard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// maxRedirects bounds redirect chains within one Render.
const maxRedirects = 4

// Router maps routes to views and renders the navigator's current route.
type Router struct {
	nav      *Navigator
	routes   map[string]View
	notFound func(path string) View
}

// NewRouter creates a router over nav. notFound builds the view shown for
// unknown routes.
func NewRouter(nav *Navigator, notFound func(path string) View) *Router {
	return &Router{nav: nav, routes: make(map[string]View), notFound: notFound}
}

// Handle registers v for path.
func (r *Router) Handle(path string, v View) {
	r.routes[Clean(path)] = v
}

// Known reports whether path has a registered view.
func (r *Router) Known(path string) bool {
	_, ok := r.routes[Clean(path)]
	return ok
}

// Navigator returns the router's navigator.
func (r *Router) Navigator() *Navigator {
	return r.nav
}

// Render renders the current route, following guard redirects.
func (r *Router) Render(ctx context.Context, out io.Writer) error {
	for range maxRedirects {
		path := r.nav.Current()
		v, ok := r.routes[Clean(path)]
		if !ok {
			v = r.notFound(path)
		}
		err := v.Render(ctx, out)
		if !errors.Is(err, ErrRedirected) {
			return err
		}
	}
	return fmt.Errorf("guard: too many redirects at %s", r.nav.Current())
}

// Clean normalizes a route: leading slash, no trailing slash except for root.
func Clean(path string) string {
	path = strings.TrimSpace(path)
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
		if path == "" {
			path = "/"
		}
	}
	return path
}
