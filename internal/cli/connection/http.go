package connection

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/yndnr/minipay-go/internal/infra/tlsroots"
	"github.com/yndnr/minipay-go/internal/telemetry/logger"
)

// HeaderRequestID carries the per-request correlation ID.
const HeaderRequestID = "X-Request-ID"

// DefaultTimeout is used when Config.Timeout is zero.
const DefaultTimeout = 30 * time.Second

// maxBodySize caps how much of a response body is read.
const maxBodySize = 4 << 20

// ErrResponseTooLarge is returned when a response body exceeds maxBodySize.
var ErrResponseTooLarge = errors.New("response body too large")

// Config configures an HTTPClient.
type Config struct {
	// Server is the backend base URL. A missing scheme defaults to http.
	Server string
	// Timeout bounds each request including reading the body.
	Timeout time.Duration
	// CAFile is an optional PEM bundle trusted in addition to system roots.
	CAFile string
	// UserAgent overrides the default User-Agent header.
	UserAgent string
}

// HTTPClient provides HTTP communication with the backend.
type HTTPClient struct {
	baseURL   string
	client    *http.Client
	userAgent string
	logger    logger.Logger
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	RequestID  string
}

// Decode unmarshals the JSON body into target.
func (r *Response) Decode(target any) error {
	if err := json.Unmarshal(r.Body, target); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

// RequestOption adjusts an outgoing request.
type RequestOption func(*http.Request)

// WithBearer sets the Authorization header to a bearer credential.
func WithBearer(token string) RequestOption {
	return func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+token)
	}
}

// WithRequestID sets the correlation ID instead of generating one.
func WithRequestID(id string) RequestOption {
	return func(r *http.Request) {
		r.Header.Set(HeaderRequestID, id)
	}
}

// NormalizeServer adds the default scheme and strips trailing slashes.
func NormalizeServer(server string) string {
	server = strings.TrimSpace(server)
	if !strings.HasPrefix(server, "http://") && !strings.HasPrefix(server, "https://") {
		server = "http://" + server
	}
	return strings.TrimRight(server, "/")
}

// NewHTTPClient creates a client for cfg.
func NewHTTPClient(cfg Config, log logger.Logger) (*HTTPClient, error) {
	if strings.TrimSpace(cfg.Server) == "" {
		return nil, fmt.Errorf("connection: server address is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "minipay-cli/1.0"
	}
	if log == nil {
		log = logger.Default()
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	tlsCfg, err := tlsroots.ClientConfigFor(cfg.CAFile)
	if err != nil {
		return nil, fmt.Errorf("connection: %w", err)
	}
	if tlsCfg != nil {
		transport.TLSClientConfig = tlsCfg
	}

	return &HTTPClient{
		baseURL:   NormalizeServer(cfg.Server),
		userAgent: cfg.UserAgent,
		logger:    log.With("component", "connection"),
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
	}, nil
}

// Get performs a GET request.
func (c *HTTPClient) Get(ctx context.Context, path string, opts ...RequestOption) (*Response, error) {
	return c.do(ctx, http.MethodGet, path, nil, opts)
}

// Post performs a POST request with a JSON body. A nil body sends none.
func (c *HTTPClient) Post(ctx context.Context, path string, body any, opts ...RequestOption) (*Response, error) {
	return c.do(ctx, http.MethodPost, path, body, opts)
}

// BaseURL returns the base URL of the client.
func (c *HTTPClient) BaseURL() string {
	return c.baseURL
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body any, opts []RequestOption) (*Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, opt := range opts {
		opt(req)
	}
	if req.Header.Get(HeaderRequestID) == "" {
		req.Header.Set(HeaderRequestID, ulid.Make().String())
	}
	requestID := req.Header.Get(HeaderRequestID)

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Debug("request failed", "method", method, "path", path, "request_id", requestID, "error", err)
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("%s %s: read body: %w", method, path, err)
	}
	if len(data) > maxBodySize {
		c.logger.Warn("response too large", "method", method, "path", path, "limit", maxBodySize, "request_id", requestID)
		return nil, fmt.Errorf("%s %s: %w (limit %d bytes)", method, path, ErrResponseTooLarge, maxBodySize)
	}

	c.logger.Debug("request",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"request_id", requestID,
		"elapsed", time.Since(start),
	)
	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       data,
		RequestID:  requestID,
	}, nil
}
