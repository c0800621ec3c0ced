// Package resource calls the transactions API.
//
// Submitting a transaction is public and validated locally before any
// request is sent. Listing is protected: it needs a stored token, and a
// 401/403 answer ends the session through the injected SessionTerminator
// before the error is returned. The client never writes the session itself.
package resource

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/yndnr/minipay-go/internal/cli/connection"
	"github.com/yndnr/minipay-go/internal/client/session"
	"github.com/yndnr/minipay-go/internal/core/domain"
	"github.com/yndnr/minipay-go/internal/telemetry/logger"
	"github.com/yndnr/minipay-go/internal/telemetry/metric"
)

// TransactionsPath is the transactions collection endpoint.
const TransactionsPath = "/api/transactions/"

// Operation labels used in metrics and logs.
const (
	OpSubmitTransaction = "submit_transaction"
	OpListTransactions  = "list_transactions"
)

// Transport sends requests to the backend.
type Transport interface {
	Get(ctx context.Context, path string, opts ...connection.RequestOption) (*connection.Response, error)
	Post(ctx context.Context, path string, body any, opts ...connection.RequestOption) (*connection.Response, error)
}

// SessionTerminator ends the current session. Listing calls it when the
// backend rejects the stored token.
type SessionTerminator interface {
	Logout()
}

// Client is the transactions API client.
type Client struct {
	transport  Transport
	tokens     session.TokenSource
	terminator SessionTerminator
	metrics    *metric.Registry
	logger     logger.Logger
	now        func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithMetrics records every operation in r.
func WithMetrics(r *metric.Registry) Option {
	return func(c *Client) { c.metrics = r }
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithClock sets the clock used for card expiry checks.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// NewClient creates a client. tokens supplies the bearer credential for
// protected calls and terminator is invoked when that credential is rejected.
func NewClient(transport Transport, tokens session.TokenSource, terminator SessionTerminator, opts ...Option) *Client {
	c := &Client{
		transport:  transport,
		tokens:     tokens,
		terminator: terminator,
		logger:     logger.Default(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "resource")
	return c
}

// SubmitTransaction validates in and posts it. Validation failures return a
// KindValidation error without touching the network.
func (c *Client) SubmitTransaction(ctx context.Context, in domain.TransactionSubmission) (tx domain.Transaction, err error) {
	start := time.Now()
	defer func() { c.observe(OpSubmitTransaction, err, start) }()

	req, err := in.Validate(c.now())
	if err != nil {
		return domain.Transaction{}, err
	}

	resp, err := c.transport.Post(ctx, TransactionsPath, req)
	if err != nil {
		return domain.Transaction{}, transportError(err)
	}

	switch resp.StatusCode {
	case http.StatusCreated, http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden:
		return domain.Transaction{}, domain.ErrForbidden.WithStatus(resp.StatusCode)
	default:
		return domain.Transaction{}, domain.FromStatus(resp.StatusCode, resp.Body)
	}

	if err := resp.Decode(&tx); err != nil {
		return domain.Transaction{}, domain.ErrMalformedResponse.WithStatus(resp.StatusCode).WithCause(err)
	}
	c.logger.Info("transaction created", "id", tx.ID, "request_id", resp.RequestID)
	return tx, nil
}

// ListTransactions returns the stored transactions. Without a stored token
// it fails with KindAuthorizationRequired and sends nothing. A 401/403
// answer logs the session out and returns ErrSessionExpired.
func (c *Client) ListTransactions(ctx context.Context) (txs []domain.Transaction, err error) {
	start := time.Now()
	defer func() { c.observe(OpListTransactions, err, start) }()

	token, ok := c.tokens.Get()
	if !ok {
		return nil, domain.ErrAuthorizationRequired
	}

	resp, err := c.transport.Get(ctx, TransactionsPath, connection.WithBearer(token))
	if err != nil {
		return nil, transportError(err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden:
		c.logger.Warn("session rejected, logging out", "status", resp.StatusCode, "request_id", resp.RequestID)
		c.terminator.Logout()
		return nil, domain.ErrSessionExpired.WithStatus(resp.StatusCode)
	default:
		return nil, domain.FromStatus(resp.StatusCode, resp.Body)
	}

	if err := resp.Decode(&txs); err != nil {
		return nil, domain.ErrMalformedResponse.WithStatus(resp.StatusCode).WithCause(err)
	}
	if txs == nil {
		txs = []domain.Transaction{}
	}
	return txs, nil
}

// transportError classifies a failed round trip. An oversized body did get
// a response, so it is not a network error.
func transportError(err error) error {
	if errors.Is(err, connection.ErrResponseTooLarge) {
		return domain.ErrUnexpected.WithCause(err)
	}
	return domain.ErrNetwork.Wrap(err)
}

func (c *Client) observe(op string, err error, start time.Time) {
	elapsed := time.Since(start)
	c.metrics.ObserveRequest(op, err, elapsed)
	if err != nil {
		c.logger.Debug("operation failed", "operation", op, "code", domain.CodeOf(err), "elapsed", elapsed)
	}
}
