package cache

import (
	"context"

	"github.com/dmitrijs2005/tripkeeper/internal/client/models"
)

// Repository holds the last authoritative trip list.
type Repository interface {
	// Get returns found == false when nothing has been cached yet.
	Get(ctx context.Context) (trips []models.Trip, found bool, err error)
	// Put replaces the snapshot as a whole.
	Put(ctx context.Context, trips []models.Trip) error
	Clear(ctx context.Context) error
}
