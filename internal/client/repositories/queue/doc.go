// Package queue persists mutations recorded while the device is offline.
//
// Actions are kept in the action_queue table in strict FIFO order given by
// an autoincrement sequence column. The queue is append-only apart from
// DequeueHead, which removes the oldest action once it has been delivered.
// Nothing is reordered or coalesced.
package queue
