// Package cli provides the interactive tripkeeper command-line client.
//
// It wires configuration, the device database, the trip repository and the
// sync engine, and runs a REPL on top of them. A connectivity monitor
// switches the client between online and offline mode; trips created or
// changed while offline are queued and replayed when the device reconnects.
//
// Key features:
//   - Register / Login / Logout
//   - List trips, upcoming trips and profile statistics
//   - Add and delete trips, upload trip images
//   - Force offline/online mode and trigger a sync
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// See App, runREPL and network.Monitor for details.
package cli
