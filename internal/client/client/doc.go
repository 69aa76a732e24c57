// Package client contains the client-side plumbing that talks to the trip
// backend and bootstraps the device database.
//
// # Overview
//
// The package provides:
//  1. The AuthGateway contract used by the data layer: an authenticated
//     request pipeline plus a query for the current session tokens.
//  2. HTTPClient, the concrete implementation. It persists the session in
//     the metadata store, attaches the access token as a bearer header,
//     refreshes it proactively when its JWT exp has passed and reactively
//     on a 401 (one retry), and maps transport failures to sentinels.
//  3. Local persistence bootstrap (InitDatabase, RunMigrations) wiring an
//     SQLite database and applying the embedded goose migrations.
//
// # Error Handling
//
// Conditions are exposed as sentinel errors matched with errors.Is:
// ErrNotAuthenticated, ErrNetworkUnreachable, ErrRemoteRequestFailed and
// the per-operation ErrCreateFailed, ErrUpdateFailed, ErrDeleteFailed,
// ErrUploadFailed. A non-success status is described by *StatusError,
// which unwraps to ErrRemoteRequestFailed.
package client
