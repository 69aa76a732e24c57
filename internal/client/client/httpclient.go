package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/tripkeeper/internal/client/models"
	"github.com/dmitrijs2005/tripkeeper/internal/client/repositories/metadata"
	"github.com/golang-jwt/jwt/v5"
)

const (
	AccessTokenKey  = "access_token"
	RefreshTokenKey = "refresh_token"
)

// HTTPClient talks to the backend over HTTP/JSON. It is safe for
// concurrent use; token refreshes are serialized.
type HTTPClient struct {
	baseURL string
	http    *http.Client
	store   metadata.Repository
	now     func() time.Time

	refreshMu sync.Mutex
}

func NewHTTPClient(baseURL string, timeout time.Duration, store metadata.Repository) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		store:   store,
		now:     time.Now,
	}
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (c *HTTPClient) Tokens(ctx context.Context) (*models.Tokens, error) {
	access, err := c.store.Get(ctx, AccessTokenKey)
	if err != nil {
		return nil, err
	}
	if len(access) == 0 {
		return nil, nil
	}
	refresh, err := c.store.Get(ctx, RefreshTokenKey)
	if err != nil {
		return nil, err
	}
	return &models.Tokens{AccessToken: string(access), RefreshToken: string(refresh)}, nil
}

func (c *HTTPClient) saveTokens(ctx context.Context, t *models.Tokens) error {
	if err := c.store.Set(ctx, AccessTokenKey, []byte(t.AccessToken)); err != nil {
		return err
	}
	return c.store.Set(ctx, RefreshTokenKey, []byte(t.RefreshToken))
}

func (c *HTTPClient) clearTokens(ctx context.Context) error {
	if err := c.store.Delete(ctx, AccessTokenKey); err != nil {
		return err
	}
	return c.store.Delete(ctx, RefreshTokenKey)
}

func (c *HTTPClient) Fetch(ctx context.Context, r Request) (*http.Response, error) {
	tokens, err := c.Tokens(ctx)
	if err != nil {
		return nil, err
	}
	if !tokens.Valid() {
		return nil, ErrNotAuthenticated
	}

	if c.expired(tokens.AccessToken) {
		tokens, err = c.refresh(ctx, tokens.AccessToken)
		if err != nil {
			return nil, err
		}
	}

	resp, err := c.do(ctx, r, tokens.AccessToken)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}

	// access token rejected, refresh and retry once
	drain(resp)
	tokens, err = c.refresh(ctx, tokens.AccessToken)
	if err != nil {
		return nil, err
	}
	return c.do(ctx, r, tokens.AccessToken)
}

func (c *HTTPClient) Send(ctx context.Context, r Request) (*http.Response, error) {
	return c.do(ctx, r, "")
}

func (c *HTTPClient) do(ctx context.Context, r Request, accessToken string) (*http.Response, error) {
	var body io.Reader
	if r.Body != nil {
		body = bytes.NewReader(r.Body)
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, c.baseURL+r.Path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	if r.ContentType != "" {
		req.Header.Set("Content-Type", r.ContentType)
	}
	req.Header.Set("Accept", "application/json")
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, mapTransportError(err)
	}
	return resp, nil
}

// refresh exchanges the refresh token for a new pair. stale is the access
// token the caller saw; when another goroutine has already replaced it the
// stored pair is returned as is.
func (c *HTTPClient) refresh(ctx context.Context, stale string) (*models.Tokens, error) {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	tokens, err := c.Tokens(ctx)
	if err != nil {
		return nil, err
	}
	if !tokens.Valid() {
		return nil, ErrNotAuthenticated
	}
	if tokens.AccessToken != stale && !c.expired(tokens.AccessToken) {
		return tokens, nil
	}
	if tokens.RefreshToken == "" {
		_ = c.clearTokens(ctx)
		return nil, ErrNotAuthenticated
	}

	body, _ := json.Marshal(refreshRequest{RefreshToken: tokens.RefreshToken})
	resp, err := c.do(ctx, Request{Method: http.MethodPost, Path: "/auth/refresh", Body: body, ContentType: "application/json"}, "")
	if err != nil {
		return nil, err
	}
	defer drain(resp)

	switch {
	case resp.StatusCode >= 500:
		return nil, &StatusError{Method: http.MethodPost, Path: "/auth/refresh", StatusCode: resp.StatusCode}
	case resp.StatusCode >= 300:
		if err := c.clearTokens(ctx); err != nil {
			return nil, err
		}
		return nil, ErrNotAuthenticated
	}

	var fresh models.Tokens
	if err := json.NewDecoder(resp.Body).Decode(&fresh); err != nil || fresh.AccessToken == "" {
		return nil, fmt.Errorf("%w: refresh response", ErrMalformedResponse)
	}
	if fresh.RefreshToken == "" {
		fresh.RefreshToken = tokens.RefreshToken
	}
	if err := c.saveTokens(ctx, &fresh); err != nil {
		return nil, err
	}
	return &fresh, nil
}

// expired reports whether token is a JWT whose exp lies in the past.
// Tokens that cannot be parsed are left for the server to judge.
func (c *HTTPClient) expired(token string) bool {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return false
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return !c.now().Before(claims.ExpiresAt.Time)
}

func (c *HTTPClient) Register(ctx context.Context, username, password string) error {
	return c.authenticate(ctx, "/auth/register", username, password)
}

func (c *HTTPClient) Login(ctx context.Context, username, password string) error {
	return c.authenticate(ctx, "/auth/login", username, password)
}

func (c *HTTPClient) authenticate(ctx context.Context, path, username, password string) error {
	body, err := json.Marshal(credentials{Username: username, Password: password})
	if err != nil {
		return err
	}

	resp, err := c.Send(ctx, Request{Method: http.MethodPost, Path: path, Body: body, ContentType: "application/json"})
	if err != nil {
		return err
	}
	defer drain(resp)

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
	case http.StatusUnauthorized:
		return ErrInvalidCredentials
	case http.StatusConflict:
		return ErrUserAlreadyExists
	default:
		return &StatusError{Method: http.MethodPost, Path: path, StatusCode: resp.StatusCode}
	}

	var tokens models.Tokens
	if err := json.NewDecoder(resp.Body).Decode(&tokens); err != nil || !tokens.Valid() {
		return fmt.Errorf("%w: token response", ErrMalformedResponse)
	}
	return c.saveTokens(ctx, &tokens)
}

// Logout forgets the local session.
func (c *HTTPClient) Logout(ctx context.Context) error {
	return c.clearTokens(ctx)
}

func (c *HTTPClient) Ping(ctx context.Context) error {
	resp, err := c.Send(ctx, Request{Method: http.MethodGet, Path: "/health"})
	if err != nil {
		return err
	}
	defer drain(resp)

	if resp.StatusCode != http.StatusOK {
		return &StatusError{Method: http.MethodGet, Path: "/health", StatusCode: resp.StatusCode}
	}
	return nil
}

// mapTransportError separates requests that never reached the server
// (dial and DNS failures) from failures after the request was sent.
func mapTransportError(err error) error {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return fmt.Errorf("%w: %w", ErrNetworkUnreachable, err)
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return fmt.Errorf("%w: %w", ErrNetworkUnreachable, err)
	}
	return fmt.Errorf("%w: %w", ErrRemoteRequestFailed, err)
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}
