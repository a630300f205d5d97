package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

const (
	// tenantTokenTTL keeps the cached tenant token well inside its two
	// hour server-side lifetime.
	tenantTokenTTL = 90 * time.Minute
	// userTokenSlack refreshes the user token this long before it
	// actually expires.
	userTokenSlack = 5 * time.Minute
)

// ErrReauthRequired means the stored user grant is unusable and the
// user must authorize the app again.
var ErrReauthRequired = errors.New("user authorization expired, re-authorize the app and store fresh tokens")

// Provider hands out bearer tokens for API calls. With user tokens in
// the store it refreshes and returns those; otherwise it falls back to
// the app's tenant token. Token endpoints are called with a plain HTTP
// client because they run before any bearer token exists.
type Provider struct {
	appID     string
	appSecret string
	base      string
	store     Store
	http      *http.Client
	now       func() time.Time

	mu sync.Mutex
}

// Option adjusts a Provider.
type Option func(*Provider)

// WithHTTPClient swaps the HTTP client used for token endpoints.
func WithHTTPClient(h *http.Client) Option {
	return func(p *Provider) { p.http = h }
}

// WithClock replaces the time source.
func WithClock(now func() time.Time) Option {
	return func(p *Provider) { p.now = now }
}

// NewProvider builds a token provider against the given API base URL.
func NewProvider(appID, appSecret, base string, store Store, opts ...Option) *Provider {
	p := &Provider{
		appID:     appID,
		appSecret: appSecret,
		base:      strings.TrimRight(base, "/"),
		store:     store,
		http:      &http.Client{Timeout: 30 * time.Second},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Token returns a valid bearer token, fetching or refreshing as needed.
func (p *Provider) Token(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	creds, err := p.store.Load()
	if err != nil {
		return "", fmt.Errorf("load credentials: %w", err)
	}
	if creds == nil {
		creds = &Credentials{}
	}
	if creds.HasUserTokens() {
		return p.userToken(ctx, creds)
	}
	return p.tenantToken(ctx, creds)
}

// SeedUserTokens stores a token pair supplied out of band, e.g. from
// the config file. It refuses to clobber an existing grant; logout
// first to replace one. The seeded access token's expiry is unknown,
// so the first use goes through a refresh.
func (p *Provider) SeedUserTokens(access, refresh string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	creds, err := p.store.Load()
	if err != nil {
		return fmt.Errorf("load credentials: %w", err)
	}
	if creds.HasUserTokens() {
		return nil
	}
	if creds == nil {
		creds = &Credentials{}
	}
	creds.AccessToken = access
	creds.RefreshToken = refresh
	creds.ExpiresAt = time.Time{}
	return p.store.Save(creds)
}

// Logout drops all stored credentials.
func (p *Provider) Logout() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.store.Clear()
}

func (p *Provider) userToken(ctx context.Context, creds *Credentials) (string, error) {
	if creds.AccessToken != "" && p.now().Before(creds.ExpiresAt.Add(-userTokenSlack)) {
		return creds.AccessToken, nil
	}
	if creds.RefreshToken == "" {
		return "", ErrReauthRequired
	}

	appToken, err := p.appAccessToken(ctx)
	if err != nil {
		return "", err
	}

	var out struct {
		Code int    `json:"code"`
		Msg  string `json:"msg"`
		Data struct {
			AccessToken  string `json:"access_token"`
			RefreshToken string `json:"refresh_token"`
			ExpiresIn    int    `json:"expires_in"`
		} `json:"data"`
	}
	body := map[string]string{
		"grant_type":    "refresh_token",
		"refresh_token": creds.RefreshToken,
	}
	if err := p.post(ctx, "/authen/v1/oidc/refresh_access_token", appToken, body, &out); err != nil {
		return "", err
	}
	if out.Code != 0 || out.Data.AccessToken == "" {
		return "", fmt.Errorf("%w: refresh rejected with code %d: %s", ErrReauthRequired, out.Code, out.Msg)
	}

	creds.AccessToken = out.Data.AccessToken
	if out.Data.RefreshToken != "" {
		creds.RefreshToken = out.Data.RefreshToken
	}
	creds.ExpiresAt = p.now().Add(time.Duration(out.Data.ExpiresIn) * time.Second)
	if err := p.store.Save(creds); err != nil {
		return "", fmt.Errorf("save credentials: %w", err)
	}
	return creds.AccessToken, nil
}

func (p *Provider) tenantToken(ctx context.Context, creds *Credentials) (string, error) {
	if creds.TenantToken != "" && p.now().Sub(creds.TenantFetchedAt) < tenantTokenTTL {
		return creds.TenantToken, nil
	}

	var out struct {
		Code              int    `json:"code"`
		Msg               string `json:"msg"`
		TenantAccessToken string `json:"tenant_access_token"`
	}
	body := map[string]string{"app_id": p.appID, "app_secret": p.appSecret}
	if err := p.post(ctx, "/auth/v3/tenant_access_token/internal", "", body, &out); err != nil {
		return "", err
	}
	if out.Code != 0 || out.TenantAccessToken == "" {
		return "", fmt.Errorf("tenant token request failed with code %d: %s", out.Code, out.Msg)
	}

	creds.TenantToken = out.TenantAccessToken
	creds.TenantFetchedAt = p.now()
	if err := p.store.Save(creds); err != nil {
		return "", fmt.Errorf("save credentials: %w", err)
	}
	return creds.TenantToken, nil
}

func (p *Provider) appAccessToken(ctx context.Context) (string, error) {
	var out struct {
		Code           int    `json:"code"`
		Msg            string `json:"msg"`
		AppAccessToken string `json:"app_access_token"`
	}
	body := map[string]string{"app_id": p.appID, "app_secret": p.appSecret}
	if err := p.post(ctx, "/auth/v3/app_access_token/internal", "", body, &out); err != nil {
		return "", err
	}
	if out.Code != 0 || out.AppAccessToken == "" {
		return "", fmt.Errorf("app token request failed with code %d: %s", out.Code, out.Msg)
	}
	return out.AppAccessToken, nil
}

func (p *Provider) post(ctx context.Context, path, bearer string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode token request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.base+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := p.http.Do(req)
	if err != nil {
		return fmt.Errorf("POST %s: %w", path, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read token response: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode token response (%d): %w", resp.StatusCode, err)
	}
	return nil
}
