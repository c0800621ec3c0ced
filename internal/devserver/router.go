package devserver

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/yndnr/minipay-go/internal/telemetry/metric"
)

// RouterConfig holds configuration for the HTTP router.
type RouterConfig struct {
	Handler http.Handler
	Metrics *metric.Registry
	Logger  *slog.Logger

	// RateLimit is requests per second per client IP; zero disables it.
	RateLimit float64
	RateBurst int

	// CORSAllowedOrigins is the list of allowed origins (empty = allow all).
	CORSAllowedOrigins []string
}

// NewRouter wraps the API handler in the middleware chain and mounts
// /metrics beside it. ctx bounds the rate limiter's cleanup goroutine.
//
// Order: Recover -> RequestID -> CORS -> RateLimit -> Audit -> Instrument -> Handler.
func NewRouter(ctx context.Context, cfg RouterConfig) http.Handler {
	api := Chain(cfg.Handler,
		Recover(cfg.Logger),
		RequestID(),
		CORS(cfg.CORSAllowedOrigins),
		RateLimit(ctx, cfg.RateLimit, cfg.RateBurst),
		Audit(cfg.Logger),
		// Innermost, so the pattern the API mux sets is visible to it.
		cfg.Metrics.Instrument,
	)

	mux := http.NewServeMux()
	mux.Handle("GET /metrics", Chain(cfg.Metrics.Handler(), Recover(cfg.Logger)))
	mux.Handle("/", api)
	return mux
}
