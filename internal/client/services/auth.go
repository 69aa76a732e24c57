// Package services contains the application services of the tripkeeper
// client: the trip repository the host UI talks to, the sync engine that
// replays offline mutations, and the authentication service.
package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/tripkeeper/internal/client/client"
	"github.com/dmitrijs2005/tripkeeper/internal/client/repositories/cache"
)

// AuthService defines the session operations of the CLI.
//
// Contract:
//   - Register: create an account; the server signs the user in.
//   - Login: authenticate and persist the session tokens.
//   - Logout: forget the session and the cached trips of the user.
//   - Ping: check server liveness.
//   - IsAuthenticated: report whether a session is stored.
type AuthService interface {
	Register(ctx context.Context, username, password string) error
	Login(ctx context.Context, username, password string) error
	Logout(ctx context.Context) error
	Ping(ctx context.Context) error
	IsAuthenticated(ctx context.Context) (bool, error)
}

type authService struct {
	client client.Client
	cache  cache.Repository
}

// NewAuthService constructs an AuthService bound to the given API client
// and trip cache.
func NewAuthService(c client.Client, tripCache cache.Repository) AuthService {
	return &authService{client: c, cache: tripCache}
}

func (a *authService) Register(ctx context.Context, username, password string) error {
	if err := a.client.Register(ctx, username, password); err != nil {
		return fmt.Errorf("register error: %w", err)
	}
	return a.resetCache(ctx)
}

// Login signs in and drops the trip snapshot of any previous user.
func (a *authService) Login(ctx context.Context, username, password string) error {
	if err := a.client.Login(ctx, username, password); err != nil {
		return fmt.Errorf("login error: %w", err)
	}
	return a.resetCache(ctx)
}

func (a *authService) Logout(ctx context.Context) error {
	if err := a.client.Logout(ctx); err != nil {
		return fmt.Errorf("logout error: %w", err)
	}
	return a.resetCache(ctx)
}

func (a *authService) resetCache(ctx context.Context) error {
	if err := a.cache.Clear(ctx); err != nil {
		return fmt.Errorf("clearing trip cache: %w", err)
	}
	return nil
}

func (a *authService) Ping(ctx context.Context) error {
	return a.client.Ping(ctx)
}

func (a *authService) IsAuthenticated(ctx context.Context) (bool, error) {
	tokens, err := a.client.Tokens(ctx)
	if err != nil {
		return false, err
	}
	return tokens.Valid(), nil
}
