// Package devserver is a local stand-in for the payment backend.
//
// It serves the same HTTP contract the CLI talks to:
//
//	POST /api/token/          exchange username and password for a JWT pair
//	POST /api/transactions/   create a transaction (public)
//	GET  /api/transactions/   list transactions (Bearer token, admin users)
//	GET  /health              liveness
//	GET  /metrics             Prometheus metrics
//
// Transactions live in memory and are lost on restart.
package devserver
