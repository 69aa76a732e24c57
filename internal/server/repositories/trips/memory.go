package trips

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/dmitrijs2005/tripkeeper/internal/common"
	"github.com/dmitrijs2005/tripkeeper/internal/server/models"
	"github.com/google/uuid"
)

// MemoryRepository keeps trips in insertion order.
type MemoryRepository struct {
	mu    sync.RWMutex
	trips []models.Trip
	now   func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{now: time.Now}
}

func clone(t models.Trip) models.Trip {
	t.Photos = slices.Clone(t.Photos)
	if t.Photos == nil {
		t.Photos = []string{}
	}
	return t
}

func (r *MemoryRepository) index(userID, id string) int {
	return slices.IndexFunc(r.trips, func(t models.Trip) bool {
		return t.ID == id && t.UserID == userID
	})
}

func (r *MemoryRepository) List(_ context.Context, userID string) ([]models.Trip, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := []models.Trip{}
	for _, t := range r.trips {
		if t.UserID == userID {
			result = append(result, clone(t))
		}
	}
	return result, nil
}

func (r *MemoryRepository) Get(_ context.Context, userID, id string) (*models.Trip, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i := r.index(userID, id)
	if i < 0 {
		return nil, common.ErrorNotFound
	}
	t := clone(r.trips[i])
	return &t, nil
}

func (r *MemoryRepository) Create(_ context.Context, trip *models.Trip) (*models.Trip, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t := clone(*trip)
	t.ID = uuid.NewString()
	t.CreatedAt = r.now().UTC()
	t.UpdatedAt = t.CreatedAt
	r.trips = append(r.trips, t)

	out := clone(t)
	return &out, nil
}

func (r *MemoryRepository) Update(_ context.Context, trip *models.Trip) (*models.Trip, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.index(trip.UserID, trip.ID)
	if i < 0 {
		return nil, common.ErrorNotFound
	}
	t := clone(*trip)
	t.CreatedAt = r.trips[i].CreatedAt
	t.UpdatedAt = r.now().UTC()
	r.trips[i] = t

	out := clone(t)
	return &out, nil
}

func (r *MemoryRepository) Delete(_ context.Context, userID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.index(userID, id)
	if i < 0 {
		return common.ErrorNotFound
	}
	r.trips = slices.Delete(r.trips, i, i+1)
	return nil
}
