// Package command defines the minipay-cli commands using urfave/cli/v2:
//
//   - root.go: application, global flags and their configuration keys
//   - runtime.go: per-invocation configuration, logger, metrics and clients
//   - pay.go: payment simulation
//   - admin.go: login, logout, transaction listing and session status
//   - config.go: show, validate and init the configuration
//   - repl.go: interactive mode, also the default action
//   - version.go: build information
//
// Actions return errors in the user's locale; main prints them to stderr and
// exits with status 1.
package command
