package client

import (
	"context"
	"net/http"

	"github.com/dmitrijs2005/tripkeeper/internal/client/models"
)

// Request describes one call to the remote service. Path is relative to
// the configured base URL.
type Request struct {
	Method      string
	Path        string
	Body        []byte
	ContentType string
}

// AuthGateway is the authenticated request pipeline consumed by the trip
// repository and the sync engine.
type AuthGateway interface {
	// Tokens returns (nil, nil) when there is no session.
	Tokens(ctx context.Context) (*models.Tokens, error)
	// Fetch sends r with the session's bearer token, refreshing it when
	// needed. The caller closes the response body.
	Fetch(ctx context.Context, r Request) (*http.Response, error)
	// Send sends r without credentials.
	Send(ctx context.Context, r Request) (*http.Response, error)
}

// Client is the full remote API of the application.
type Client interface {
	AuthGateway
	Register(ctx context.Context, username, password string) error
	Login(ctx context.Context, username, password string) error
	Logout(ctx context.Context) error
	Ping(ctx context.Context) error
}
