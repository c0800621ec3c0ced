// Package repl provides the interactive mode of minipay-cli.
//
// The REPL keeps a navigation history of routes and renders the current
// route after every command that changes it or the authentication state:
//
//   - repl.go: loop, command dispatch and settings reload
//   - views.go: payment, login, dashboard and not-found views
//   - completer.go: command suggestions
//   - history.go: command history persistence
//
// The dashboard is guard-protected. It fetches the listing once per mount
// and drops results that arrive after the route changed.
package repl
