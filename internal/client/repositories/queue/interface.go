package queue

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/tripkeeper/internal/client/models"
)

var ErrQueueEmpty = errors.New("action queue is empty")

type Repository interface {
	Enqueue(ctx context.Context, a models.QueuedAction) error
	// PeekAll returns the queue head to tail without removing anything.
	PeekAll(ctx context.Context) ([]models.QueuedAction, error)
	// DequeueHead removes the oldest action or returns ErrQueueEmpty.
	DequeueHead(ctx context.Context) error
	Size(ctx context.Context) (int, error)
}
