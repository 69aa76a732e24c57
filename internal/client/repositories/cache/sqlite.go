package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/tripkeeper/internal/client/models"
	"github.com/dmitrijs2005/tripkeeper/internal/dbx"
)

// TripsKey is the slot holding the trip list.
const TripsKey = "trips"

// SQLiteRepository implements Repository on top of the trip_cache table.
type SQLiteRepository struct {
	db  dbx.DB
	now func() time.Time
}

// NewSQLiteRepository returns a repository bound to db.
func NewSQLiteRepository(db dbx.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db, now: time.Now}
}

func (r *SQLiteRepository) Get(ctx context.Context) ([]models.Trip, bool, error) {
	var payload []byte
	err := r.db.QueryRowContext(ctx, `SELECT payload FROM trip_cache WHERE cache_key = ?`, TripsKey).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read trip cache: %w", err)
	}

	trips := []models.Trip{}
	if err := json.Unmarshal(payload, &trips); err != nil {
		return nil, false, fmt.Errorf("failed to decode trip cache: %w", err)
	}
	return trips, true, nil
}

func (r *SQLiteRepository) Put(ctx context.Context, trips []models.Trip) error {
	if trips == nil {
		trips = []models.Trip{}
	}
	payload, err := json.Marshal(trips)
	if err != nil {
		return fmt.Errorf("failed to encode trip cache: %w", err)
	}

	err = dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM trip_cache WHERE cache_key = ?`, TripsKey); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO trip_cache (cache_key, payload, updated_at) VALUES (?, ?, ?)`,
			TripsKey, payload, r.now().UTC())
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to write trip cache: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM trip_cache`); err != nil {
		return fmt.Errorf("failed to clear trip cache: %w", err)
	}
	return nil
}
