package trips

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/tripkeeper/internal/common"
	"github.com/dmitrijs2005/tripkeeper/internal/dbx"
	"github.com/dmitrijs2005/tripkeeper/internal/server/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// invalidTextRepresentation is raised for ids that are not UUIDs.
const invalidTextRepresentation = "22P02"

const tripColumns = `id, user_id, title, destination, start_date, end_date, description, image, photos, created_at, updated_at`

type PostgresRepository struct {
	db  dbx.DBTX
	now func() time.Time
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db, now: time.Now}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTrip(row rowScanner) (*models.Trip, error) {
	var (
		t      models.Trip
		photos []byte
	)
	if err := row.Scan(&t.ID, &t.UserID, &t.Title, &t.Destination, &t.StartDate, &t.EndDate,
		&t.Description, &t.Image, &photos, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(photos, &t.Photos); err != nil {
		return nil, fmt.Errorf("decode photos: %w", err)
	}
	if t.Photos == nil {
		t.Photos = []string{}
	}
	return &t, nil
}

func encodePhotos(photos []string) ([]byte, error) {
	if photos == nil {
		photos = []string{}
	}
	return json.Marshal(photos)
}

func mapError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return common.ErrorNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == invalidTextRepresentation {
		return common.ErrorNotFound
	}
	return fmt.Errorf("db error: %w", err)
}

func (r *PostgresRepository) List(ctx context.Context, userID string) ([]models.Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips
		WHERE user_id = $1
		ORDER BY created_at, id`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	result := []models.Trip{}
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) Get(ctx context.Context, userID, id string) (*models.Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips
		WHERE id = $1 AND user_id = $2`

	t, err := scanTrip(r.db.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		return nil, mapError(err)
	}
	return t, nil
}

func (r *PostgresRepository) Create(ctx context.Context, trip *models.Trip) (*models.Trip, error) {
	photos, err := encodePhotos(trip.Photos)
	if err != nil {
		return nil, err
	}

	t := *trip
	t.ID = uuid.NewString()
	t.CreatedAt = r.now().UTC()
	t.UpdatedAt = t.CreatedAt
	if t.Photos == nil {
		t.Photos = []string{}
	}

	query := `INSERT INTO trips (` + tripColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	if _, err := r.db.ExecContext(ctx, query, t.ID, t.UserID, t.Title, t.Destination, t.StartDate, t.EndDate,
		t.Description, t.Image, photos, t.CreatedAt, t.UpdatedAt); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &t, nil
}

func (r *PostgresRepository) Update(ctx context.Context, trip *models.Trip) (*models.Trip, error) {
	photos, err := encodePhotos(trip.Photos)
	if err != nil {
		return nil, err
	}

	query := `UPDATE trips
		SET title = $3, destination = $4, start_date = $5, end_date = $6,
		    description = $7, image = $8, photos = $9, updated_at = $10
		WHERE id = $1 AND user_id = $2
		RETURNING ` + tripColumns

	t, err := scanTrip(r.db.QueryRowContext(ctx, query, trip.ID, trip.UserID, trip.Title, trip.Destination,
		trip.StartDate, trip.EndDate, trip.Description, trip.Image, photos, r.now().UTC()))
	if err != nil {
		return nil, mapError(err)
	}
	return t, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, userID, id string) error {
	query := `DELETE FROM trips WHERE id = $1 AND user_id = $2`

	res, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return mapError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
