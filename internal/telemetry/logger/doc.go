// Package logger provides structured logging for minipay.
//
// This package wraps log/slog:
//
//   - logger.go: Logger interface, configuration and dynamic levels
//   - context.go: Context-aware logging with request IDs
//   - redact.go: Credential and card data redaction
//
// Every handler created by New runs attributes through the redactor, so
// passwords, tokens and card data never reach the log output in clear.
package logger
