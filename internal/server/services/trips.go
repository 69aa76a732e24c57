package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/tripkeeper/internal/common"
	"github.com/dmitrijs2005/tripkeeper/internal/server/models"
	"github.com/dmitrijs2005/tripkeeper/internal/server/repositories/repomanager"
)

// TripService exposes the trips of one user at a time.
type TripService struct {
	repomanager repomanager.RepositoryManager
}

func NewTripService(m repomanager.RepositoryManager) *TripService {
	return &TripService{repomanager: m}
}

func validateTrip(t *models.Trip) error {
	t.Title = strings.TrimSpace(t.Title)
	if t.Title == "" {
		return fmt.Errorf("%w: title is required", common.ErrorValidation)
	}
	if t.Photos == nil {
		t.Photos = []string{}
	}
	return nil
}

func (s *TripService) List(ctx context.Context, userID string) ([]models.Trip, error) {
	return s.repomanager.Trips(s.repomanager.DB()).List(ctx, userID)
}

// Create stores trip for userID. Any id sent by the client is replaced.
func (s *TripService) Create(ctx context.Context, userID string, trip models.Trip) (*models.Trip, error) {
	if err := validateTrip(&trip); err != nil {
		return nil, err
	}
	trip.UserID = userID
	trip.ID = ""
	return s.repomanager.Trips(s.repomanager.DB()).Create(ctx, &trip)
}

// Update replaces the trip with the given id. The id in the path wins over
// one in the body.
func (s *TripService) Update(ctx context.Context, userID, id string, trip models.Trip) (*models.Trip, error) {
	if err := validateTrip(&trip); err != nil {
		return nil, err
	}
	trip.UserID = userID
	trip.ID = id
	return s.repomanager.Trips(s.repomanager.DB()).Update(ctx, &trip)
}

func (s *TripService) Delete(ctx context.Context, userID, id string) error {
	return s.repomanager.Trips(s.repomanager.DB()).Delete(ctx, userID, id)
}
