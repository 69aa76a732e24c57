package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/tripkeeper/internal/client/client"
	"github.com/dmitrijs2005/tripkeeper/internal/client/models"
	"github.com/dmitrijs2005/tripkeeper/internal/client/network"
	"github.com/dmitrijs2005/tripkeeper/internal/client/repositories/cache"
	"github.com/dmitrijs2005/tripkeeper/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/tripkeeper/internal/client/repositories/queue"
	"github.com/dmitrijs2005/tripkeeper/internal/logging"
	"github.com/stretchr/testify/require"
)

const testAccessToken = "test-access"

// fakeBackend is a minimal in-memory trip service.
type fakeBackend struct {
	mu        sync.Mutex
	trips     []models.Trip
	nextID    int
	calls     []string
	failTitle string
	listBody  string

	// when set, POST /trips signals entered and waits for gate
	entered chan struct{}
	gate    chan struct{}

	uploadedName string
	uploadedType string

	srv *httptest.Server
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()
	b := &fakeBackend{}
	b.srv = httptest.NewServer(http.HandlerFunc(b.serve))
	t.Cleanup(b.srv.Close)
	return b
}

func (b *fakeBackend) URL() string { return b.srv.URL }

func (b *fakeBackend) callCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.calls)
}

func (b *fakeBackend) titles() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, 0, len(b.trips))
	for _, t := range b.trips {
		out = append(out, t.Title)
	}
	return out
}

func (b *fakeBackend) configure(fn func(b *fakeBackend)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fn(b)
}

func (b *fakeBackend) setTrips(trips ...models.Trip) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.trips = trips
}

func (b *fakeBackend) serve(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	b.calls = append(b.calls, r.Method+" "+r.URL.Path)
	b.mu.Unlock()

	if r.URL.Path == "/uploads" {
		b.upload(w, r)
		return
	}

	if r.Header.Get("Authorization") != "Bearer "+testAccessToken {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/trips":
		b.mu.Lock()
		body := b.listBody
		if body == "" {
			raw, _ := json.Marshal(b.trips)
			body = string(raw)
		}
		b.mu.Unlock()
		_, _ = io.WriteString(w, body)

	case r.Method == http.MethodPost && r.URL.Path == "/trips":
		b.mu.Lock()
		entered, gate := b.entered, b.gate
		b.mu.Unlock()
		if entered != nil {
			entered <- struct{}{}
		}
		if gate != nil {
			<-gate
		}
		var trip models.Trip
		if err := json.NewDecoder(r.Body).Decode(&trip); err != nil || trip.ID != "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		b.mu.Lock()
		if b.failTitle != "" && trip.Title == b.failTitle {
			b.mu.Unlock()
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		b.nextID++
		trip.ID = fmt.Sprintf("srv-%d", b.nextID)
		b.trips = append(b.trips, trip)
		b.mu.Unlock()
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(trip)

	case strings.HasPrefix(r.URL.Path, "/trips/"):
		id := strings.TrimPrefix(r.URL.Path, "/trips/")
		b.mu.Lock()
		defer b.mu.Unlock()
		for i := range b.trips {
			if b.trips[i].ID != id {
				continue
			}
			switch r.Method {
			case http.MethodPut:
				var trip models.Trip
				if err := json.NewDecoder(r.Body).Decode(&trip); err != nil {
					w.WriteHeader(http.StatusBadRequest)
					return
				}
				trip.ID = id
				b.trips[i] = trip
				_ = json.NewEncoder(w).Encode(trip)
			case http.MethodDelete:
				b.trips = append(b.trips[:i], b.trips[i+1:]...)
				w.WriteHeader(http.StatusNoContent)
			default:
				w.WriteHeader(http.StatusMethodNotAllowed)
			}
			return
		}
		w.WriteHeader(http.StatusNotFound)

	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (b *fakeBackend) upload(w http.ResponseWriter, r *http.Request) {
	f, h, err := r.FormFile("file")
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	defer f.Close()

	b.mu.Lock()
	b.uploadedName = h.Filename
	b.uploadedType = h.Header.Get("Content-Type")
	b.mu.Unlock()

	_ = json.NewEncoder(w).Encode(map[string]string{"url": "http://files.local/" + h.Filename})
}

type harness struct {
	db      *sql.DB
	monitor *network.Monitor
	gateway *client.HTTPClient
	store   *metadata.SQLiteRepository
	cache   *cache.SQLiteRepository
	queue   *queue.SQLiteRepository
	engine  *SyncEngine
	repo    *TripRepository
}

func newHarness(t *testing.T, baseURL string, online bool) *harness {
	t.Helper()
	ctx := context.Background()

	db, err := client.InitDatabase(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	h := &harness{
		db:      db,
		monitor: network.NewMonitor(online),
		store:   metadata.NewSQLiteRepository(db),
		cache:   cache.NewSQLiteRepository(db),
		queue:   queue.NewSQLiteRepository(db),
	}
	h.gateway = client.NewHTTPClient(baseURL, 2*time.Second, h.store)
	h.engine = NewSyncEngine(h.queue, h.gateway, h.store, h.monitor, logging.Nop())
	h.repo = NewTripRepository(h.gateway, h.monitor, h.cache, h.queue, h.engine, logging.Nop())
	return h
}

func (h *harness) signIn(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, h.store.Set(ctx, client.AccessTokenKey, []byte(testAccessToken)))
	require.NoError(t, h.store.Set(ctx, client.RefreshTokenKey, []byte("test-refresh")))
}

func (h *harness) pending(t *testing.T) []models.QueuedAction {
	t.Helper()
	actions, err := h.queue.PeekAll(context.Background())
	require.NoError(t, err)
	return actions
}

func newTrip(title, destination, start string, photos ...string) models.Trip {
	if photos == nil {
		photos = []string{}
	}
	return models.Trip{
		Title:       title,
		Destination: destination,
		StartDate:   start,
		EndDate:     start,
		Photos:      photos,
	}
}
