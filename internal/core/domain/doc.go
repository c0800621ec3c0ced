// Package domain defines the core domain models for minipay.
//
// Domain models are pure value objects without any IO dependencies or
// framework coupling. This package contains:
//
//   - Transaction: read-only view model returned by the backend
//   - TransactionSubmission: write-only input with local pre-checks
//   - Error: the error taxonomy surfaced to callers (kind + code)
//   - Payload: backend error bodies normalized to field/general messages
//   - Translate: mapping from taxonomy values to localized user text
//
// Nothing in this package performs network or storage I/O, so every rule
// here is testable without a stub server.
package domain
