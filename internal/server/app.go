// Package server assembles the development backend: storage (PostgreSQL or
// process memory), the upload store (S3 or local disk) and the HTTP API.
package server

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/dmitrijs2005/tripkeeper/internal/logging"
	"github.com/dmitrijs2005/tripkeeper/internal/server/config"
	"github.com/dmitrijs2005/tripkeeper/internal/server/httpserver"
	"github.com/dmitrijs2005/tripkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/tripkeeper/internal/server/services"
	"github.com/dmitrijs2005/tripkeeper/internal/server/uploads"
)

type App struct {
	config       *config.Config
	logger       logging.Logger
	repomanager  repomanager.RepositoryManager
	userService  *services.UserService
	tripService  *services.TripService
	imageService *services.ImageService
	files        http.Handler
}

var openPostgres = repomanager.OpenPostgres

func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	rm, err := newRepositoryManager(ctx, c, logger)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	store, files, err := newUploadStore(ctx, c, logger)
	if err != nil {
		_ = rm.Close()
		return nil, fmt.Errorf("upload store init error: %w", err)
	}

	return &App{
		config:       c,
		logger:       logger,
		repomanager:  rm,
		userService:  services.NewUserService(rm, c),
		tripService:  services.NewTripService(rm),
		imageService: services.NewImageService(store),
		files:        files,
	}, nil
}

func newRepositoryManager(ctx context.Context, c *config.Config, logger logging.Logger) (repomanager.RepositoryManager, error) {
	if c.DatabaseDSN == "" {
		logger.Warn(ctx, "No database DSN configured, data is kept in memory")
		return repomanager.NewMemoryRepositoryManager(), nil
	}

	db, err := openPostgres(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, err
	}
	rm := repomanager.NewPostgresRepositoryManager(db)
	if err := rm.RunMigrations(ctx); err != nil {
		_ = rm.Close()
		return nil, err
	}
	return rm, nil
}

// newUploadStore picks S3 when a bucket is configured. The returned
// handler is non-nil only for the local store.
func newUploadStore(ctx context.Context, c *config.Config, logger logging.Logger) (uploads.Store, http.Handler, error) {
	if c.S3Bucket != "" {
		s, err := uploads.NewS3Store(ctx, uploads.S3Config{
			Bucket:       c.S3Bucket,
			Region:       c.S3Region,
			BaseEndpoint: c.S3BaseEndpoint,
			AccessKey:    c.S3RootUser,
			SecretKey:    c.S3RootPassword,
		})
		if err != nil {
			return nil, nil, err
		}
		logger.Info(ctx, "Uploads go to S3", "bucket", c.S3Bucket)
		return s, nil, nil
	}

	s, err := uploads.NewFileStore(c.UploadDir, c.PublicBaseURL)
	if err != nil {
		return nil, nil, err
	}
	logger.Info(ctx, "Uploads are stored on disk", "dir", c.UploadDir)
	return s, s.Handler(), nil
}

// Run serves HTTP until ctx is cancelled.
func (app *App) Run(ctx context.Context) error {
	defer func() {
		if err := app.repomanager.Close(); err != nil {
			app.logger.Error(ctx, "closing storage", "error", err)
		}
	}()

	app.logger.Info(ctx, "Starting app...", "pid", os.Getpid())

	s := httpserver.NewHTTPServer(app.config.Address, app.logger, app.userService, app.tripService, app.imageService, app.files)
	return s.Run(ctx)
}
