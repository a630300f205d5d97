package feishu

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultBase is the open-platform API root for feishu.cn tenants.
const DefaultBase = "https://open.feishu.cn/open-apis"

const maxAttempts = 3

// TokenSource yields the bearer token for each request. Implementations
// are expected to cache and refresh as needed.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a TokenSource for a fixed token.
type StaticToken string

func (s StaticToken) Token(context.Context) (string, error) { return string(s), nil }

// Envelope is the uniform response wrapper: code 0 means success, any
// other code is an application error carrying msg.
type Envelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Err converts a non-zero envelope into an APIError.
func (e *Envelope) Err() error {
	if e.Code != 0 {
		return &APIError{Code: e.Code, Msg: e.Msg}
	}
	return nil
}

// Client calls the open-platform API with rate-limit retries.
type Client struct {
	base    string
	http    *http.Client
	tokens  TokenSource
	backoff func(attempt int) time.Duration
}

// Option adjusts a Client.
type Option func(*Client)

// WithHTTPClient swaps the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithBackoff replaces the retry delay schedule.
func WithBackoff(f func(attempt int) time.Duration) Option {
	return func(c *Client) { c.backoff = f }
}

// NewClient builds a client for the given API base URL.
func NewClient(base string, tokens TokenSource, opts ...Option) *Client {
	if base == "" {
		base = DefaultBase
	}
	c := &Client{
		base:   strings.TrimRight(base, "/"),
		http:   &http.Client{Timeout: 60 * time.Second},
		tokens: tokens,
		// Linear backoff: 2s after the first rejection, 4s after the
		// second.
		backoff: func(attempt int) time.Duration {
			return time.Duration(attempt) * 2 * time.Second
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Call performs one API request, retrying up to three attempts when the
// transport or the envelope signals a rate limit. Any other failure is
// returned immediately as the decoded envelope; transport errors are
// returned as plain errors.
func (c *Client) Call(ctx context.Context, method, path string, body any) (*Envelope, error) {
	var payload []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		payload = b
	}

	var env *Envelope
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		var retryable bool
		var err error
		env, retryable, err = c.do(ctx, method, path, payload)
		if err != nil {
			return nil, err
		}
		if retryable && attempt < maxAttempts {
			select {
			case <-time.After(c.backoff(attempt)):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			continue
		}
		break
	}
	return env, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte) (*Envelope, bool, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("acquire token: %w", err)
	}

	var rd io.Reader
	if payload != nil {
		rd = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return nil, false, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json; charset=utf-8")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, fmt.Errorf("read response: %w", err)
	}

	env := &Envelope{}
	if jsonErr := json.Unmarshal(raw, env); jsonErr != nil || (resp.StatusCode >= 400 && env.Code == 0) {
		// Error bodies are not always enveloped; carry the HTTP status
		// as the code so callers still get a structured failure.
		env = &Envelope{Code: resp.StatusCode, Msg: strings.TrimSpace(string(raw))}
	}
	retryable := resp.StatusCode == http.StatusTooManyRequests || env.Code == CodeRateLimited
	return env, retryable, nil
}
