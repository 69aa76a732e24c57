// Package httpserver exposes the trip journal backend over HTTP/JSON.
package httpserver

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/tripkeeper/internal/logging"
	"github.com/dmitrijs2005/tripkeeper/internal/server/models"
	"github.com/dmitrijs2005/tripkeeper/internal/server/services"
)

const shutdownTimeout = 5 * time.Second

type UserService interface {
	Register(ctx context.Context, username, password string) (*services.TokenPair, error)
	Login(ctx context.Context, username, password string) (*services.TokenPair, error)
	RefreshToken(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	Authenticate(accessToken string) (string, error)
}

type TripService interface {
	List(ctx context.Context, userID string) ([]models.Trip, error)
	Create(ctx context.Context, userID string, trip models.Trip) (*models.Trip, error)
	Update(ctx context.Context, userID, id string, trip models.Trip) (*models.Trip, error)
	Delete(ctx context.Context, userID, id string) error
}

type ImageService interface {
	Upload(ctx context.Context, filename, contentType string, body io.Reader, size int64) (string, error)
}

type HTTPServer struct {
	address string
	users   UserService
	trips   TripService
	images  ImageService
	files   http.Handler
	logger  logging.Logger
}

// NewHTTPServer wires the handlers. files serves locally stored uploads
// under /files/ and may be nil when uploads live elsewhere.
func NewHTTPServer(address string, l logging.Logger, us UserService, ts TripService, is ImageService, files http.Handler) *HTTPServer {
	return &HTTPServer{
		address: address,
		users:   us,
		trips:   ts,
		images:  is,
		files:   files,
		logger:  l.With("module", "http_server"),
	}
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *HTTPServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "shutdown", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
