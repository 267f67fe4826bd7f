package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"github.com/dukerupert/academy/internal/auth"
)

const maxBodyBytes = 10 << 20

// Config holds API client configuration.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
	RetryBase  time.Duration
	UserAgent  string
	HTTPClient *http.Client
}

// Client talks to the platform REST backend. It holds no global state: the
// token source is injected per client.
type Client struct {
	cfg        Config
	base       *url.URL
	httpClient *http.Client
	tokens     auth.TokenSource
	logger     *slog.Logger
	newID      func() string
}

// New creates a client for cfg.BaseURL.
func New(cfg Config, tokens auth.TokenSource, logger *slog.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("api: base URL is required")
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("api: base URL %q must be http or https", cfg.BaseURL)
	}
	if tokens == nil {
		return nil, errors.New("api: token source is required")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.RetryBase == 0 {
		cfg.RetryBase = 200 * time.Millisecond
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "academy-client/1"
	}
	if logger == nil {
		logger = slog.Default()
	}

	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}

	return &Client{
		cfg:        cfg,
		base:       base,
		httpClient: hc,
		tokens:     tokens,
		logger:     logger,
		newID:      uuid.NewString,
	}, nil
}

type response struct {
	status    int
	body      []byte
	requestID string
}

// do performs one request. Idempotent GETs are retried on transport errors
// and 5xx responses when MaxRetries is set.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload any) (*response, error) {
	if method != http.MethodGet || c.cfg.MaxRetries <= 0 {
		return c.once(ctx, method, path, query, payload)
	}

	var resp *response
	backoff := retry.WithMaxRetries(uint64(c.cfg.MaxRetries), retry.NewExponential(c.cfg.RetryBase))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		r, err := c.once(ctx, method, path, query, payload)
		if err != nil {
			var apiErr *Error
			if errors.As(err, &apiErr) && (apiErr.Kind == KindTransport || apiErr.StatusCode >= 500) {
				return retry.RetryableError(err)
			}
			return err
		}
		resp = r
		return nil
	})
	if err != nil {
		var apiErr *Error
		if !errors.As(err, &apiErr) && ctx.Err() != nil {
			// Cancelled while waiting between attempts.
			return nil, &Error{Kind: KindTransport, Method: method, Path: path, Err: err}
		}
		return nil, err
	}
	return resp, nil
}

func (c *Client) once(ctx context.Context, method, path string, query url.Values, payload any) (*response, error) {
	requestID := c.newID()
	fail := func(kind Kind, status int, msg string, err error) *Error {
		return &Error{Kind: kind, Method: method, Path: path, StatusCode: status, Message: msg, RequestID: requestID, Err: err}
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, fail(KindUnauthorized, 0, "", err)
	}

	u := *c.base
	escaped := c.base.EscapedPath() + path
	if u.Path, err = url.PathUnescape(escaped); err != nil {
		return nil, fmt.Errorf("build path: %w", err)
	}
	u.RawPath = escaped
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("X-Request-ID", requestID)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	logger := c.logger.With("method", method, "path", path, "request_id", requestID)
	if s, ok := auth.FromContext(ctx); ok && s.Subject != "" {
		logger = logger.With("subject", s.Subject)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Warn("request failed", "error", err, "duration", time.Since(start))
		return nil, fail(KindTransport, 0, "", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		logger.Warn("read response failed", "error", err)
		return nil, fail(KindTransport, resp.StatusCode, "", fmt.Errorf("read response: %w", err))
	}
	logger.Debug("request", "status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		kind := KindServer
		switch resp.StatusCode {
		case http.StatusNotFound:
			kind = KindNotFound
		case http.StatusUnauthorized, http.StatusForbidden:
			kind = KindUnauthorized
		}
		msg := serverMessage(data)
		logger.Warn("request rejected", "status", resp.StatusCode, "message", msg)
		return nil, fail(kind, resp.StatusCode, msg, fmt.Errorf("status %d", resp.StatusCode))
	}

	return &response{status: resp.StatusCode, body: data, requestID: requestID}, nil
}
