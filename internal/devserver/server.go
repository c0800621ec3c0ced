package devserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/yndnr/minipay-go/internal/telemetry/logger"
	"github.com/yndnr/minipay-go/internal/telemetry/metric"
)

// Server is the devserver HTTP server.
type Server struct {
	cfg        *Config
	log        logger.Logger
	httpServer *http.Server
	store      *Store
	cancel     context.CancelFunc
}

// Option configures a Server.
type Option func(*options)

type options struct {
	bcryptCost int
	now        func() time.Time
}

// WithBcryptCost overrides the password hashing cost, for tests.
func WithBcryptCost(cost int) Option {
	return func(o *options) { o.bcryptCost = cost }
}

// WithClock overrides the clock used for expiry checks and timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// New builds the server from cfg. Metrics are recorded into reg.
func New(cfg *Config, log logger.Logger, reg *metric.Registry, opts ...Option) (*Server, error) {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	users, err := NewUsers(cfg.Users, o.bcryptCost)
	if err != nil {
		return nil, err
	}
	issuer, err := NewIssuer(cfg.Token)
	if err != nil {
		return nil, err
	}
	issuer.now = o.now
	if cfg.Token.Secret == "" {
		log.Warn("no token secret configured, tokens will not survive a restart")
	}

	store := NewStore()
	store.now = o.now
	h := NewHandler(users, issuer, store, logger.Slog(log))
	h.now = o.now

	ctx, cancel := context.WithCancel(context.Background())
	router := NewRouter(ctx, RouterConfig{
		Handler:   h,
		Metrics:   reg,
		Logger:    logger.Slog(log),
		RateLimit: cfg.Rate.Limit,
		RateBurst: cfg.Rate.Burst,
	})

	return &Server{
		cfg: cfg,
		log: log,
		httpServer: &http.Server{
			Addr:              cfg.Addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		store:  store,
		cancel: cancel,
	}, nil
}

// Handler returns the root handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Store returns the transaction store.
func (s *Server) Store() *Store {
	return s.store
}

// ListenAndServe listens on the configured address, with TLS when a
// certificate pair is configured. It returns nil after Shutdown.
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln.
func (s *Server) Serve(ln net.Listener) error {
	scheme := "http"
	if s.cfg.TLS.Enabled() {
		scheme = "https"
	}
	s.log.Info("devserver listening", "url", scheme+"://"+ln.Addr().String(), "users", len(s.cfg.Users))

	var err error
	if s.cfg.TLS.Enabled() {
		err = s.httpServer.ServeTLS(ln, s.cfg.TLS.Cert, s.cfg.TLS.Key)
	} else {
		err = s.httpServer.Serve(ln)
	}
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	s.cancel()
	return s.httpServer.Shutdown(ctx)
}
