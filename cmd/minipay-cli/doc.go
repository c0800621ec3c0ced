// Package main provides the entry point for minipay-cli.
//
// minipay-cli simulates payments against the minipay backend and lets an
// administrator sign in and list transactions:
//
//   - pay: submit a payment simulation
//   - admin login, logout, status, transactions
//   - config show, validate, init
//   - repl: interactive mode with routes and a guarded dashboard
//
// Usage:
//
//	minipay-cli [global flags] [command] [flags]
//	minipay-cli --server http://localhost:8000 admin login -u admin
//	minipay-cli -o json admin transactions
//
// Without a command the CLI starts the REPL.
package main
