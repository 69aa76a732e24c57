// Package trips stores the journal trips of the users. Every operation is
// scoped to one owner: a trip of another user behaves as if it did not
// exist.
package trips

import (
	"context"

	"github.com/dmitrijs2005/tripkeeper/internal/server/models"
)

type Repository interface {
	// List returns the trips of userID in creation order.
	List(ctx context.Context, userID string) ([]models.Trip, error)
	Get(ctx context.Context, userID, id string) (*models.Trip, error)
	// Create assigns the id and timestamps and stores the trip.
	Create(ctx context.Context, trip *models.Trip) (*models.Trip, error)
	// Update replaces the editable fields of an existing trip.
	Update(ctx context.Context, trip *models.Trip) (*models.Trip, error)
	Delete(ctx context.Context, userID, id string) error
}
