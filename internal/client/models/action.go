package models

import (
	"encoding/json"
	"time"
)

// ActionType classifies a queued mutation.
type ActionType string

const (
	ActionCreate ActionType = "CREATE"
	ActionUpdate ActionType = "UPDATE"
	ActionDelete ActionType = "DELETE"
)

// QueuedAction is a mutation recorded while offline and replayed, in
// enqueue order, once connectivity returns.
type QueuedAction struct {
	ID         string          `json:"id"`
	Type       ActionType      `json:"type"`
	Endpoint   string          `json:"endpoint"`
	Method     string          `json:"method"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	LocalID    string          `json:"localId,omitempty"`
	EnqueuedAt time.Time       `json:"enqueuedAt"`
}

// SyncStatus feeds the connectivity banner.
type SyncStatus struct {
	PendingCount int       `json:"pendingCount"`
	IsSyncing    bool      `json:"isSyncing"`
	LastError    string    `json:"lastError,omitempty"`
	LastSyncAt   time.Time `json:"lastSyncAt,omitempty"`

	// ReconciledIDs counts local ids mapped to server ids so far.
	ReconciledIDs int `json:"reconciledIds"`
}

// Tokens is the credential bundle of the current session.
type Tokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Valid reports whether the bundle can authenticate a request.
func (t *Tokens) Valid() bool {
	return t != nil && t.AccessToken != ""
}
