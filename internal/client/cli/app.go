package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/dmitrijs2005/tripkeeper/internal/client/client"
	"github.com/dmitrijs2005/tripkeeper/internal/client/config"
	"github.com/dmitrijs2005/tripkeeper/internal/client/models"
	"github.com/dmitrijs2005/tripkeeper/internal/client/network"
	"github.com/dmitrijs2005/tripkeeper/internal/client/repositories/cache"
	"github.com/dmitrijs2005/tripkeeper/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/tripkeeper/internal/client/repositories/queue"
	"github.com/dmitrijs2005/tripkeeper/internal/client/services"
	"github.com/dmitrijs2005/tripkeeper/internal/logging"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

// tripService is the part of services.TripRepository the commands use.
type tripService interface {
	GetTrips(ctx context.Context) []models.Trip
	GetUpcomingTrips(ctx context.Context) []models.Trip
	GetUserStats(ctx context.Context) models.UserStats
	CreateTrip(ctx context.Context, trip models.Trip) (models.Trip, error)
	DeleteTrip(ctx context.Context, id string) error
	UploadImage(ctx context.Context, localURI string) (string, error)
	Status(ctx context.Context) models.SyncStatus
	SyncNow(ctx context.Context) services.SyncReport
}

// connectivity is the part of network.Monitor the commands use.
type connectivity interface {
	IsOnline() bool
	Pin(online bool)
	Unpin()
	Pinned() bool
}

type App struct {
	config      *config.Config
	log         logging.Logger
	db          *sql.DB
	monitor     *network.Monitor
	engine      *services.SyncEngine
	authService services.AuthService
	trips       tripService
	conn        connectivity

	mu       sync.Mutex
	userName string
	Mode     Mode

	reader *bufio.Reader
	out    io.Writer
}

// NewApp opens the device database and wires the data layer.
func NewApp(ctx context.Context, c *config.Config, log logging.Logger) (*App, error) {
	db, err := client.InitDatabase(ctx, c.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("error initializing database: %w", err)
	}

	store := metadata.NewSQLiteRepository(db)
	tripCache := cache.NewSQLiteRepository(db)
	actions := queue.NewSQLiteRepository(db)

	apiClient := client.NewHTTPClient(c.ServerURL, c.RequestTimeout, store)
	monitor := network.NewMonitor(network.InterfaceProbe(ctx))
	engine := services.NewSyncEngine(actions, apiClient, store, monitor, log)
	repo := services.NewTripRepository(apiClient, monitor, tripCache, actions, engine, log)

	a := &App{
		config:      c,
		log:         log,
		db:          db,
		monitor:     monitor,
		engine:      engine,
		authService: services.NewAuthService(apiClient, tripCache),
		trips:       repo,
		conn:        monitor,
		reader:      bufio.NewReader(os.Stdin),
		out:         os.Stdout,
	}
	a.setMode(modeOf(monitor.IsOnline()))
	return a, nil
}

func modeOf(online bool) Mode {
	if online {
		return ModeOnline
	}
	return ModeOffline
}

func (a *App) setMode(mode Mode) {
	a.mu.Lock()
	changed := a.Mode != mode
	a.Mode = mode
	a.mu.Unlock()

	if changed {
		fmt.Fprintf(a.out, "Switched to %s mode\n", mode)
	}
}

func (a *App) isLoggedIn() bool {
	ok, err := a.authService.IsAuthenticated(context.Background())
	if err != nil {
		a.log.Warn(context.Background(), "cannot read session", "error", err)
		return false
	}
	return ok
}

// Run starts the connectivity watcher and the background sync, then blocks
// in the REPL until the user exits or ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	defer a.db.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	unsubscribe := a.monitor.Subscribe(func(online bool) { a.setMode(modeOf(online)) })
	defer unsubscribe()

	stopWatch := a.engine.Watch(ctx)
	defer stopWatch()

	stopEvents := a.engine.Subscribe(a.onSyncEvent)
	defer stopEvents()

	go a.monitor.Run(ctx, a.config.OnlineCheckInterval, network.InterfaceProbe)

	a.Root(ctx)
	return nil
}

func (a *App) onSyncEvent(ev services.Event) {
	switch ev.Kind {
	case services.EventDrainFinished:
		if ev.Delivered > 0 {
			fmt.Fprintf(a.out, "Synced %d pending change(s)\n", ev.Delivered)
		}
	case services.EventDrainHalted:
		fmt.Fprintf(a.out, "Sync stopped: %v\n", ev.Err)
	}
}
