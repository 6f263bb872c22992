package zru

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

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	DefaultBaseURL      = "https://www.zrupay.com/api/v1"
	DefaultTimeout      = 30 * time.Second
	DefaultMaxRetries   = 2
	DefaultRetryBackoff = 500 * time.Millisecond
)

// Options configures the transport. Zero values fall back to the defaults,
// except MaxRetries where 0 means a single attempt.
type Options struct {
	BaseURL      string
	Timeout      time.Duration
	MaxRetries   int
	RetryBackoff time.Duration
	HTTPClient   *http.Client
	Logger       *zap.Logger
}

func (o Options) withDefaults() Options {
	if o.BaseURL == "" {
		o.BaseURL = DefaultBaseURL
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	}
	if o.RetryBackoff <= 0 {
		o.RetryBackoff = DefaultRetryBackoff
	}
	if o.HTTPClient == nil {
		o.HTTPClient = &http.Client{Timeout: o.Timeout}
	}
	if o.Logger == nil {
		o.Logger = zap.L()
	}
	return o
}

// APIRequest performs authenticated JSON calls against the ZRU API.
type APIRequest struct {
	apiKey     string
	secretKey  string
	base       *url.URL
	httpClient *http.Client
	maxRetries int
	backoff    time.Duration
	logger     *zap.Logger
}

func NewAPIRequest(apiKey, secretKey string, opts Options) (*APIRequest, error) {
	opts = opts.withDefaults()

	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("invalid ZRU base URL %q: %w", opts.BaseURL, err)
	}

	return &APIRequest{
		apiKey:     apiKey,
		secretKey:  secretKey,
		base:       base,
		httpClient: opts.HTTPClient,
		maxRetries: opts.MaxRetries,
		backoff:    opts.RetryBackoff,
		logger:     opts.Logger,
	}, nil
}

// SecretKey is also the key notifications are signed with.
func (r *APIRequest) SecretKey() string {
	return r.secretKey
}

// fromBaseURL resolves a route like "/sale/<id>/" against the base URL.
// Absolute URLs, as found in pagination links, are returned unchanged.
func (r *APIRequest) fromBaseURL(route string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimLeft(route, "/"))
	if err != nil {
		return nil, err
	}
	return r.base.ResolveReference(u), nil
}

func (r *APIRequest) Get(ctx context.Context, route string, query url.Values, result any) error {
	u, err := r.fromBaseURL(route)
	if err != nil {
		return err
	}
	if len(query) > 0 {
		q := u.Query()
		for k, vs := range query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}
	return r.do(ctx, http.MethodGet, u, nil, result)
}

func (r *APIRequest) Post(ctx context.Context, route string, body any, result any) error {
	u, err := r.fromBaseURL(route)
	if err != nil {
		return err
	}
	return r.do(ctx, http.MethodPost, u, body, result)
}

func (r *APIRequest) Patch(ctx context.Context, route string, body any, result any) error {
	u, err := r.fromBaseURL(route)
	if err != nil {
		return err
	}
	return r.do(ctx, http.MethodPatch, u, body, result)
}

func (r *APIRequest) Delete(ctx context.Context, route string) error {
	u, err := r.fromBaseURL(route)
	if err != nil {
		return err
	}
	return r.do(ctx, http.MethodDelete, u, nil, nil)
}

// do sends the request, retrying GETs that failed for a transient reason.
func (r *APIRequest) do(ctx context.Context, method string, u *url.URL, body any, result any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
	}

	attempts := 1
	if method == http.MethodGet {
		attempts += r.maxRetries
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = r.send(ctx, method, u, payload, result)
		if err == nil || !isRetryable(err) || attempt == attempts {
			return err
		}

		r.logger.Warn("retrying ZRU request",
			zap.String("method", method),
			zap.String("path", u.Path),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(r.backoff * time.Duration(attempt)):
		}
	}
	return err
}

func (r *APIRequest) send(ctx context.Context, method string, u *url.URL, payload []byte, result any) error {
	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), bodyReader)
	if err != nil {
		return err
	}
	requestID := uuid.NewString()
	req.Header.Set("key", r.apiKey)
	req.Header.Set("secret", r.secretKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("zru: %s %s: %w", method, u.Path, err)
	}
	defer resp.Body.Close()

	r.logger.Debug("ZRU request",
		zap.String("request_id", requestID),
		zap.String("method", method),
		zap.String("path", u.Path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return &APIError{
			StatusCode: resp.StatusCode,
			Method:     method,
			Path:       u.Path,
			Body:       string(respBody),
		}
	}

	if result == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode ZRU response: %w", err)
	}
	return nil
}
