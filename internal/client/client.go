package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"maker/internal/common"

	"github.com/gorilla/schema"
	"go.uber.org/zap"
)

const (
	DefaultTimeout = 30 * time.Second

	maxErrorBody = 4 << 10
)

// APIError is a non-2xx answer of the API. It unwraps to the matching
// common.Err* kind.
type APIError struct {
	Op         string
	StatusCode int
	Body       string
	Kind       error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %v (status %d): %s", e.Op, e.Kind, e.StatusCode, e.Body)
}

func (e *APIError) Unwrap() error {
	return e.Kind
}

// Client talks to a Fusion+ compatible quoter/relayer/orders API. It never
// retries a request.
type Client struct {
	baseURL string
	authKey string
	http    *http.Client
	logger  *zap.Logger
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

func New(baseURL, authKey string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		authKey: authKey,
		http:    &http.Client{Timeout: DefaultTimeout},
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(zap.String("module", "fusion-client"))
	return c
}

var encoder = schema.NewEncoder()

func (c *Client) buildURL(path string, query any) (string, error) {
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return "", err
	}

	if query != nil {
		values := url.Values{}
		if err := encoder.Encode(query, values); err != nil {
			return "", err
		}
		u.RawQuery = values.Encode()
	}
	return u.String(), nil
}

type classifier func(status int) error

func (c *Client) do(ctx context.Context, op, method, path string, query, body, out any, classify classifier) error {
	urlString, err := c.buildURL(path, query)
	if err != nil {
		return fmt.Errorf("%s: invalid request url: %w", op, err)
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: failed to encode body: %w", op, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, urlString, reader)
	if err != nil {
		return fmt.Errorf("%s: failed to create HTTP request: %w", op, err)
	}
	if c.authKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.authKey)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	c.logger.Debug("request", zap.String("op", op), zap.String("method", method), zap.String("path", path))

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w: %w", op, common.ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		apiErr := &APIError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(raw)),
			Kind:       classify(resp.StatusCode),
		}
		c.logger.Warn("request failed", zap.String("op", op), zap.Int("status", resp.StatusCode), zap.Error(apiErr.Kind))
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: failed to decode response: %w: %w", op, common.ErrNetwork, err)
	}
	return nil
}

func classifyQuote(status int) error {
	switch {
	case status == http.StatusTooManyRequests:
		return common.ErrRateLimited
	case status >= 400 && status < 500:
		return common.ErrQuoteUnavailable
	default:
		return common.ErrNetwork
	}
}

func classifySubmit(status int) error {
	switch {
	case status == http.StatusTooManyRequests:
		return common.ErrRateLimited
	case status >= 400 && status < 500:
		return common.ErrSubmissionRejected
	default:
		return common.ErrNetwork
	}
}

func classifyQuery(status int) error {
	switch status {
	case http.StatusTooManyRequests:
		return common.ErrRateLimited
	case http.StatusNotFound:
		return common.ErrOrderNotFound
	default:
		return common.ErrNetwork
	}
}
