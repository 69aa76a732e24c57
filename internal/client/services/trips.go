package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/tripkeeper/internal/client/client"
	"github.com/dmitrijs2005/tripkeeper/internal/client/models"
	"github.com/dmitrijs2005/tripkeeper/internal/client/repositories/cache"
	"github.com/dmitrijs2005/tripkeeper/internal/client/repositories/queue"
	"github.com/dmitrijs2005/tripkeeper/internal/logging"
)

const (
	tripsPath       = "/trips"
	uploadsPath     = "/uploads"
	defaultFilename = "photo.jpg"
	defaultMIME     = "image/jpeg"
)

var imageMIMETypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".heic": "image/heic",
	".heif": "image/heif",
	".bmp":  "image/bmp",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
}

// TripRepository is the single entry point of the host UI. Reads never
// fail: they fall back to the cached snapshot. Writes go to the server
// when the device is online and are queued for the SyncEngine otherwise.
type TripRepository struct {
	gateway client.AuthGateway
	conn    Connectivity
	cache   cache.Repository
	queue   queue.Repository
	sync    *SyncEngine
	log     logging.Logger
	now     func() time.Time

	localMu   sync.Mutex
	lastLocal int64
}

func NewTripRepository(gw client.AuthGateway, conn Connectivity, c cache.Repository, q queue.Repository, s *SyncEngine, log logging.Logger) *TripRepository {
	return &TripRepository{
		gateway: gw,
		conn:    conn,
		cache:   c,
		queue:   q,
		sync:    s,
		log:     log.With("component", "trips"),
		now:     time.Now,
	}
}

// GetTrips returns the freshest trip list available. Online and signed in
// it fetches from the server and refreshes the cache; otherwise, and on
// any remote failure, it serves the cache. Without a session it returns
// an empty list without contacting the server.
func (r *TripRepository) GetTrips(ctx context.Context) []models.Trip {
	if !r.conn.IsOnline() {
		return r.cached(ctx)
	}

	tokens, err := r.gateway.Tokens(ctx)
	if err != nil {
		r.log.Warn(ctx, "cannot read session", "error", err)
		return r.cached(ctx)
	}
	if !tokens.Valid() {
		r.log.Debug(ctx, "not authenticated, returning no trips")
		return []models.Trip{}
	}

	resp, err := r.gateway.Fetch(ctx, client.Request{Method: http.MethodGet, Path: tripsPath})
	if errors.Is(err, client.ErrNotAuthenticated) {
		return []models.Trip{}
	}
	if err != nil {
		r.log.Warn(ctx, "fetch trips failed, serving cache", "error", err)
		return r.cached(ctx)
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		r.log.Warn(ctx, "fetch trips failed, serving cache", "status", resp.StatusCode)
		return r.cached(ctx)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		r.log.Warn(ctx, "reading trips failed, serving cache", "error", err)
		return r.cached(ctx)
	}

	trips, err := decodeTripList(body)
	var skipped *skippedTripsError
	switch {
	case errors.As(err, &skipped):
		r.log.Warn(ctx, "some trips could not be decoded", "error", err)
	case errors.Is(err, client.ErrMalformedResponse):
		r.log.Warn(ctx, "unknown trip list format, treating as empty", "error", err)
		trips = []models.Trip{}
	case err != nil:
		r.log.Warn(ctx, "invalid trip list, serving cache", "error", err)
		return r.cached(ctx)
	}

	if err := r.cache.Put(ctx, trips); err != nil {
		r.log.Error(ctx, "cannot update trip cache", "error", err)
	}
	return trips
}

func (r *TripRepository) cached(ctx context.Context) []models.Trip {
	trips, found, err := r.cache.Get(ctx)
	if err != nil {
		r.log.Warn(ctx, "cannot read trip cache", "error", err)
		return []models.Trip{}
	}
	if !found {
		return []models.Trip{}
	}
	return trips
}

type tripListShape int

const (
	shapeUnknown tripListShape = iota
	shapeArray
	shapeTripsField
	shapeDataField
)

type tripEnvelope struct {
	Trips json.RawMessage `json:"trips"`
	Data  json.RawMessage `json:"data"`
}

// classifyTripList tells which of the accepted list layouts body uses:
// a bare array, {"trips": [...]} or {"data": [...]}.
func classifyTripList(body []byte) (tripListShape, json.RawMessage) {
	body = bytes.TrimSpace(body)
	if isJSONArray(body) {
		return shapeArray, body
	}
	var env tripEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return shapeUnknown, nil
	}
	if isJSONArray(env.Trips) {
		return shapeTripsField, env.Trips
	}
	if isJSONArray(env.Data) {
		return shapeDataField, env.Data
	}
	return shapeUnknown, nil
}

func isJSONArray(raw []byte) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '['
}

// decodeTripList returns ErrMalformedResponse for well-formed JSON of an
// unknown layout and a plain error when body is not JSON at all. Elements
// that do not decode are dropped and reported with *skippedTripsError next
// to the rest of the list; if none decode the list is malformed.
func decodeTripList(body []byte) ([]models.Trip, error) {
	if !json.Valid(body) {
		return nil, errors.New("trip list is not valid JSON")
	}

	shape, list := classifyTripList(body)
	if shape == shapeUnknown {
		return nil, fmt.Errorf("%w: trip list", client.ErrMalformedResponse)
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(list, &elems); err != nil {
		return nil, fmt.Errorf("%w: trip list elements: %w", client.ErrMalformedResponse, err)
	}

	trips := make([]models.Trip, 0, len(elems))
	var firstErr error
	for _, raw := range elems {
		var t models.Trip
		if err := json.Unmarshal(raw, &t); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		trips = append(trips, t)
	}
	if len(trips) == 0 && firstErr != nil {
		return nil, fmt.Errorf("%w: trip list elements: %w", client.ErrMalformedResponse, firstErr)
	}
	if firstErr != nil {
		return trips, &skippedTripsError{skipped: len(elems) - len(trips), err: firstErr}
	}
	return trips, nil
}

// skippedTripsError reports list elements that could not be decoded while
// the rest of the list was usable.
type skippedTripsError struct {
	skipped int
	err     error
}

func (e *skippedTripsError) Error() string {
	return fmt.Sprintf("%d trip(s) skipped: %v", e.skipped, e.err)
}

func (e *skippedTripsError) Unwrap() error { return e.err }

// CreateTrip creates trip on the server, or queues the create and returns
// the trip under a fresh local id when the server cannot be reached.
func (r *TripRepository) CreateTrip(ctx context.Context, trip models.Trip) (models.Trip, error) {
	payload, err := json.Marshal(trip.WithoutID())
	if err != nil {
		return models.Trip{}, fmt.Errorf("%w: %w", client.ErrCreateFailed, err)
	}

	if !r.conn.IsOnline() {
		return r.queueCreate(ctx, trip, payload)
	}

	resp, err := r.gateway.Fetch(ctx, client.Request{
		Method: http.MethodPost, Path: tripsPath, Body: payload, ContentType: "application/json",
	})
	if errors.Is(err, client.ErrNetworkUnreachable) {
		r.log.Info(ctx, "server unreachable, queueing create", "error", err)
		return r.queueCreate(ctx, trip, payload)
	}
	if err != nil {
		return models.Trip{}, fmt.Errorf("%w: %w", client.ErrCreateFailed, err)
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		return models.Trip{}, fmt.Errorf("%w: %w", client.ErrCreateFailed,
			&client.StatusError{Method: http.MethodPost, Path: tripsPath, StatusCode: resp.StatusCode})
	}

	var created models.Trip
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return models.Trip{}, fmt.Errorf("%w: %w: %w", client.ErrCreateFailed, client.ErrMalformedResponse, err)
	}
	return created, nil
}

func (r *TripRepository) queueCreate(ctx context.Context, trip models.Trip, payload []byte) (models.Trip, error) {
	localID := r.newLocalID()
	err := r.queue.Enqueue(ctx, models.QueuedAction{
		Type:     models.ActionCreate,
		Endpoint: tripsPath,
		Method:   http.MethodPost,
		Payload:  payload,
		LocalID:  localID,
	})
	if err != nil {
		return models.Trip{}, fmt.Errorf("%w: %w", client.ErrCreateFailed, err)
	}
	trip.ID = localID
	return trip, nil
}

// newLocalID returns "local-<unix millis>", bumped when two creates land
// in the same millisecond.
func (r *TripRepository) newLocalID() string {
	r.localMu.Lock()
	defer r.localMu.Unlock()

	ms := r.now().UnixMilli()
	if ms <= r.lastLocal {
		ms = r.lastLocal + 1
	}
	r.lastLocal = ms
	return fmt.Sprintf("%s%d", models.LocalIDPrefix, ms)
}

// UpdateTrip replaces trip on the server. Offline, or while the trip's
// create is still queued, the update is queued behind it.
func (r *TripRepository) UpdateTrip(ctx context.Context, trip models.Trip) (models.Trip, error) {
	if trip.ID == "" {
		return models.Trip{}, fmt.Errorf("%w: trip has no id", client.ErrUpdateFailed)
	}
	id, err := r.sync.ResolveID(ctx, trip.ID)
	if err != nil {
		return models.Trip{}, fmt.Errorf("%w: %w", client.ErrUpdateFailed, err)
	}
	trip.ID = id

	payload, err := json.Marshal(trip.WithoutID())
	if err != nil {
		return models.Trip{}, fmt.Errorf("%w: %w", client.ErrUpdateFailed, err)
	}
	endpoint := tripsPath + "/" + id

	queueIt := func() (models.Trip, error) {
		err := r.queue.Enqueue(ctx, models.QueuedAction{
			Type: models.ActionUpdate, Endpoint: endpoint, Method: http.MethodPut, Payload: payload,
		})
		if err != nil {
			return models.Trip{}, fmt.Errorf("%w: %w", client.ErrUpdateFailed, err)
		}
		return trip, nil
	}

	if !r.conn.IsOnline() || models.IsLocalID(id) {
		return queueIt()
	}

	resp, err := r.gateway.Fetch(ctx, client.Request{
		Method: http.MethodPut, Path: endpoint, Body: payload, ContentType: "application/json",
	})
	if errors.Is(err, client.ErrNetworkUnreachable) {
		r.log.Info(ctx, "server unreachable, queueing update", "id", id, "error", err)
		return queueIt()
	}
	if err != nil {
		return models.Trip{}, fmt.Errorf("%w: %w", client.ErrUpdateFailed, err)
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		return models.Trip{}, fmt.Errorf("%w: %w", client.ErrUpdateFailed,
			&client.StatusError{Method: http.MethodPut, Path: endpoint, StatusCode: resp.StatusCode})
	}

	var updated models.Trip
	if err := json.NewDecoder(resp.Body).Decode(&updated); err != nil || updated.ID == "" {
		return trip, nil
	}
	return updated, nil
}

// DeleteTrip removes a trip, queueing the delete under the same rules as
// UpdateTrip.
func (r *TripRepository) DeleteTrip(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("%w: empty id", client.ErrDeleteFailed)
	}
	id, err := r.sync.ResolveID(ctx, id)
	if err != nil {
		return fmt.Errorf("%w: %w", client.ErrDeleteFailed, err)
	}
	endpoint := tripsPath + "/" + id

	queueIt := func() error {
		err := r.queue.Enqueue(ctx, models.QueuedAction{
			Type: models.ActionDelete, Endpoint: endpoint, Method: http.MethodDelete,
		})
		if err != nil {
			return fmt.Errorf("%w: %w", client.ErrDeleteFailed, err)
		}
		return nil
	}

	if !r.conn.IsOnline() || models.IsLocalID(id) {
		return queueIt()
	}

	resp, err := r.gateway.Fetch(ctx, client.Request{Method: http.MethodDelete, Path: endpoint})
	if errors.Is(err, client.ErrNetworkUnreachable) {
		r.log.Info(ctx, "server unreachable, queueing delete", "id", id, "error", err)
		return queueIt()
	}
	if err != nil {
		return fmt.Errorf("%w: %w", client.ErrDeleteFailed, err)
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		return fmt.Errorf("%w: %w", client.ErrDeleteFailed,
			&client.StatusError{Method: http.MethodDelete, Path: endpoint, StatusCode: resp.StatusCode})
	}
	return nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// UploadImage posts the image at localURI as multipart field "file" and
// returns the URL the server stored it under. It needs connectivity.
func (r *TripRepository) UploadImage(ctx context.Context, localURI string) (string, error) {
	if !r.conn.IsOnline() {
		return "", fmt.Errorf("%w: upload requires connectivity", client.ErrNetworkUnreachable)
	}

	filePath := strings.TrimPrefix(localURI, "file://")
	filename := uploadFilename(filePath)

	f, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("%w: %w", client.ErrUploadFailed, err)
	}
	defer f.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, quoteEscaper.Replace(filename)))
	h.Set("Content-Type", mimeFromFilename(filename))
	part, err := mw.CreatePart(h)
	if err != nil {
		return "", fmt.Errorf("%w: %w", client.ErrUploadFailed, err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return "", fmt.Errorf("%w: %w", client.ErrUploadFailed, err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("%w: %w", client.ErrUploadFailed, err)
	}

	resp, err := r.gateway.Send(ctx, client.Request{
		Method: http.MethodPost, Path: uploadsPath, Body: buf.Bytes(), ContentType: mw.FormDataContentType(),
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", client.ErrUploadFailed, err)
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		return "", fmt.Errorf("%w: %w", client.ErrUploadFailed,
			&client.StatusError{Method: http.MethodPost, Path: uploadsPath, StatusCode: resp.StatusCode})
	}

	var out struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil || out.URL == "" {
		return "", fmt.Errorf("%w: %w", client.ErrUploadFailed, client.ErrMalformedResponse)
	}
	return out.URL, nil
}

// uploadFilename is the last path segment, or photo.jpg when there is none.
func uploadFilename(p string) string {
	name := p[strings.LastIndex(p, "/")+1:]
	if name == "" {
		return defaultFilename
	}
	return name
}

func mimeFromFilename(name string) string {
	if t, ok := imageMIMETypes[strings.ToLower(path.Ext(name))]; ok {
		return t
	}
	return defaultMIME
}

// GetUserStats summarises the current trip list.
func (r *TripRepository) GetUserStats(ctx context.Context) models.UserStats {
	trips := r.GetTrips(ctx)

	stats := models.UserStats{Trips: len(trips)}
	countries := make(map[string]struct{})
	for _, t := range trips {
		stats.Photos += len(t.Photos)
		if c := t.Country(); c != "" {
			countries[c] = struct{}{}
		}
	}
	stats.Countries = len(countries)
	return stats
}

// GetUpcomingTrips returns trips starting strictly after now, soonest
// first. Trips with an unparseable start date are left out.
func (r *TripRepository) GetUpcomingTrips(ctx context.Context) []models.Trip {
	now := r.now()

	type dated struct {
		trip  models.Trip
		start time.Time
	}
	var upcoming []dated
	for _, t := range r.GetTrips(ctx) {
		start, ok := t.Start()
		if ok && start.After(now) {
			upcoming = append(upcoming, dated{trip: t, start: start})
		}
	}
	sort.SliceStable(upcoming, func(i, j int) bool { return upcoming[i].start.Before(upcoming[j].start) })

	result := make([]models.Trip, 0, len(upcoming))
	for _, d := range upcoming {
		result = append(result, d.trip)
	}
	return result
}

func (r *TripRepository) Status(ctx context.Context) models.SyncStatus {
	return r.sync.Status(ctx)
}

func (r *TripRepository) SyncNow(ctx context.Context) SyncReport {
	return r.sync.SyncNow(ctx)
}

func (r *TripRepository) ResolveID(ctx context.Context, id string) (string, error) {
	return r.sync.ResolveID(ctx, id)
}
