package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/tripkeeper/internal/client/client"
	"github.com/dmitrijs2005/tripkeeper/internal/client/models"
	"github.com/dmitrijs2005/tripkeeper/internal/client/network"
	"github.com/dmitrijs2005/tripkeeper/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/tripkeeper/internal/client/repositories/queue"
	"github.com/dmitrijs2005/tripkeeper/internal/logging"
)

// IDMapPrefix prefixes the metadata keys that map local trip ids to the
// ids assigned by the server.
const IDMapPrefix = "idmap:"

// Connectivity is the part of network.Monitor the data layer consults.
type Connectivity interface {
	IsOnline() bool
	Subscribe(fn network.Listener) (unsubscribe func())
}

type EventKind string

const (
	EventDrainStarted    EventKind = "drain_started"
	EventActionDelivered EventKind = "action_delivered"
	EventDrainHalted     EventKind = "drain_halted"
	EventDrainFinished   EventKind = "drain_finished"
	EventIDReconciled    EventKind = "id_reconciled"
)

// Event describes progress of a drain.
type Event struct {
	Kind      EventKind
	Action    *models.QueuedAction
	LocalID   string
	ServerID  string
	Delivered int
	Err       error
}

// SyncReport summarises one SyncNow call.
type SyncReport struct {
	// Started is false when another drain was running or the device is
	// offline; nothing was sent in that case.
	Started   bool
	Delivered int
	Remaining int
	Err       error
}

// SyncEngine replays queued actions against the remote service in FIFO
// order. At most one drain runs at a time.
type SyncEngine struct {
	queue   queue.Repository
	gateway client.AuthGateway
	ids     metadata.Repository
	conn    Connectivity
	log     logging.Logger
	now     func() time.Time

	draining atomic.Bool

	mu         sync.Mutex
	lastErr    string
	lastSyncAt time.Time

	subsMu sync.RWMutex
	nextID int
	subs   map[int]func(Event)
}

func NewSyncEngine(q queue.Repository, gw client.AuthGateway, ids metadata.Repository, conn Connectivity, log logging.Logger) *SyncEngine {
	return &SyncEngine{
		queue:   q,
		gateway: gw,
		ids:     ids,
		conn:    conn,
		log:     log.With("component", "sync"),
		now:     time.Now,
		subs:    make(map[int]func(Event)),
	}
}

// Subscribe registers fn for drain events. Events are delivered on the
// draining goroutine.
func (e *SyncEngine) Subscribe(fn func(Event)) (unsubscribe func()) {
	e.subsMu.Lock()
	id := e.nextID
	e.nextID++
	e.subs[id] = fn
	e.subsMu.Unlock()

	return func() {
		e.subsMu.Lock()
		delete(e.subs, id)
		e.subsMu.Unlock()
	}
}

func (e *SyncEngine) emit(ev Event) {
	e.subsMu.RLock()
	handlers := make([]func(Event), 0, len(e.subs))
	for _, h := range e.subs {
		handlers = append(handlers, h)
	}
	e.subsMu.RUnlock()

	for _, h := range handlers {
		func() {
			defer func() { _ = recover() }()
			h(ev)
		}()
	}
}

// Watch starts a drain whenever the device comes back online with work
// queued. The returned function stops watching.
func (e *SyncEngine) Watch(ctx context.Context) (stop func()) {
	return e.conn.Subscribe(func(online bool) {
		if !online {
			return
		}
		n, err := e.queue.Size(ctx)
		if err != nil {
			e.log.Warn(ctx, "cannot read queue size", "error", err)
			return
		}
		if n > 0 {
			go e.SyncNow(ctx)
		}
	})
}

// IsSyncing reports whether a drain is running.
func (e *SyncEngine) IsSyncing() bool {
	return e.draining.Load()
}

// Status returns the banner state.
func (e *SyncEngine) Status(ctx context.Context) models.SyncStatus {
	n, err := e.queue.Size(ctx)
	if err != nil {
		e.log.Warn(ctx, "cannot read queue size", "error", err)
	}

	mapped, err := e.ids.List(ctx, IDMapPrefix)
	if err != nil {
		e.log.Warn(ctx, "cannot read id mappings", "error", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return models.SyncStatus{
		PendingCount:  n,
		ReconciledIDs: len(mapped),
		IsSyncing:     e.draining.Load(),
		LastError:     e.lastErr,
		LastSyncAt:    e.lastSyncAt,
	}
}

// SyncNow drains the queue head-first until it is empty or a delivery
// fails. A failure stops the drain and leaves the failed action at the
// head; it is reported in the result and in Status, never retried here.
func (e *SyncEngine) SyncNow(ctx context.Context) SyncReport {
	if !e.conn.IsOnline() {
		return SyncReport{Err: client.ErrNetworkUnreachable}
	}
	if !e.draining.CompareAndSwap(false, true) {
		return SyncReport{}
	}
	defer e.draining.Store(false)

	e.log.Debug(ctx, "drain started")
	e.emit(Event{Kind: EventDrainStarted})

	report := SyncReport{Started: true}
	for {
		actions, err := e.queue.PeekAll(ctx)
		if err != nil {
			return e.halt(ctx, report, nil, fmt.Errorf("read queue: %w", err))
		}
		if len(actions) == 0 {
			break
		}

		for i := range actions {
			a := actions[i]
			if err := e.deliver(ctx, a); err != nil {
				return e.halt(ctx, report, &a, err)
			}
			if err := e.queue.DequeueHead(ctx); err != nil {
				return e.halt(ctx, report, &a, fmt.Errorf("dequeue: %w", err))
			}
			report.Delivered++
			e.emit(Event{Kind: EventActionDelivered, Action: &a, Delivered: report.Delivered})
		}
	}

	e.mu.Lock()
	e.lastErr = ""
	e.lastSyncAt = e.now()
	e.mu.Unlock()

	e.log.Info(ctx, "drain finished", "delivered", report.Delivered)
	e.emit(Event{Kind: EventDrainFinished, Delivered: report.Delivered})
	return report
}

func (e *SyncEngine) halt(ctx context.Context, report SyncReport, a *models.QueuedAction, err error) SyncReport {
	report.Err = err
	if n, sizeErr := e.queue.Size(ctx); sizeErr == nil {
		report.Remaining = n
	}

	e.mu.Lock()
	e.lastErr = err.Error()
	e.mu.Unlock()

	args := []any{"delivered", report.Delivered, "error", err}
	if a != nil {
		args = append(args, "action", a.ID, "method", a.Method, "endpoint", a.Endpoint)
	}
	e.log.Warn(ctx, "drain halted", args...)
	e.emit(Event{Kind: EventDrainHalted, Action: a, Delivered: report.Delivered, Err: err})
	return report
}

func (e *SyncEngine) deliver(ctx context.Context, a models.QueuedAction) error {
	endpoint, err := e.rewriteEndpoint(ctx, a.Endpoint)
	if err != nil {
		return err
	}

	req := client.Request{Method: a.Method, Path: endpoint}
	if len(a.Payload) > 0 {
		req.Body = a.Payload
		req.ContentType = "application/json"
	}

	resp, err := e.gateway.Fetch(ctx, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		_, _ = io.Copy(io.Discard, resp.Body)
		return &client.StatusError{Method: a.Method, Path: endpoint, StatusCode: resp.StatusCode}
	}

	if a.Type == models.ActionCreate && a.LocalID != "" {
		e.reconcile(ctx, a.LocalID, resp.Body)
	}
	return nil
}

// reconcile records the server id of a delivered create. The action is
// delivered either way; an unreadable body only loses the mapping.
func (e *SyncEngine) reconcile(ctx context.Context, localID string, body io.Reader) {
	var created struct {
		ID json.RawMessage `json:"id"`
	}
	if err := json.NewDecoder(body).Decode(&created); err != nil {
		e.log.Warn(ctx, "create response not decodable, id not reconciled", "local_id", localID, "error", err)
		return
	}
	serverID := rawID(created.ID)
	if serverID == "" {
		e.log.Warn(ctx, "create response has no id", "local_id", localID)
		return
	}

	if err := e.ids.Set(ctx, IDMapPrefix+localID, []byte(serverID)); err != nil {
		e.log.Error(ctx, "cannot persist id mapping", "local_id", localID, "error", err)
		return
	}
	e.log.Debug(ctx, "id reconciled", "local_id", localID, "server_id", serverID)
	e.emit(Event{Kind: EventIDReconciled, LocalID: localID, ServerID: serverID})
}

// rawID accepts both string and numeric ids.
func rawID(raw json.RawMessage) string {
	id, _ := models.DecodeID(raw)
	return id
}

// ResolveID maps a local id to its server id once the create has been
// delivered. Other ids, and local ids still pending, are returned as is.
func (e *SyncEngine) ResolveID(ctx context.Context, id string) (string, error) {
	if !models.IsLocalID(id) {
		return id, nil
	}
	v, err := e.ids.Get(ctx, IDMapPrefix+id)
	if err != nil {
		return "", fmt.Errorf("resolve id %s: %w", id, err)
	}
	if len(v) == 0 {
		return id, nil
	}
	return string(v), nil
}

func (e *SyncEngine) rewriteEndpoint(ctx context.Context, endpoint string) (string, error) {
	segments := strings.Split(endpoint, "/")
	for i, s := range segments {
		if !models.IsLocalID(s) {
			continue
		}
		resolved, err := e.ResolveID(ctx, s)
		if err != nil {
			return "", err
		}
		if resolved == s {
			// the create was delivered without a readable id, or is still queued
			e.log.Warn(ctx, "local id not reconciled, sending as is", "local_id", s, "endpoint", endpoint)
		}
		segments[i] = resolved
	}
	return strings.Join(segments, "/"), nil
}

func isSuccess(code int) bool {
	return code >= http.StatusOK && code < http.StatusMultipleChoices
}
