package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/tripkeeper/internal/client/models"
	"github.com/dmitrijs2005/tripkeeper/internal/dbx"
	"github.com/google/uuid"
)

// SQLiteRepository implements Repository on top of the action_queue table.
type SQLiteRepository struct {
	db dbx.DB
}

func NewSQLiteRepository(db dbx.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Enqueue appends a at the tail. Missing ID and EnqueuedAt are filled in.
func (r *SQLiteRepository) Enqueue(ctx context.Context, a models.QueuedAction) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.EnqueuedAt.IsZero() {
		a.EnqueuedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO action_queue (id, type, endpoint, method, payload, local_id, enqueued_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, a.ID, string(a.Type), a.Endpoint, a.Method, []byte(a.Payload), a.LocalID, a.EnqueuedAt)
	if err != nil {
		return fmt.Errorf("failed to enqueue action: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) PeekAll(ctx context.Context) ([]models.QueuedAction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, type, endpoint, method, payload, local_id, enqueued_at
		FROM action_queue ORDER BY seq
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to select queued actions: %w", err)
	}
	defer rows.Close()

	var result []models.QueuedAction
	for rows.Next() {
		var (
			a       models.QueuedAction
			typ     string
			payload []byte
		)
		if err := rows.Scan(&a.ID, &typ, &a.Endpoint, &a.Method, &payload, &a.LocalID, &a.EnqueuedAt); err != nil {
			return nil, fmt.Errorf("failed to scan queued action: %w", err)
		}
		a.Type = models.ActionType(typ)
		if len(payload) > 0 {
			a.Payload = payload
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate queued actions: %w", err)
	}
	return result, nil
}

func (r *SQLiteRepository) DequeueHead(ctx context.Context) error {
	return dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var seq int64
		err := tx.QueryRowContext(ctx, `SELECT seq FROM action_queue ORDER BY seq LIMIT 1`).Scan(&seq)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrQueueEmpty
		}
		if err != nil {
			return fmt.Errorf("failed to find queue head: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM action_queue WHERE seq = ?`, seq); err != nil {
			return fmt.Errorf("failed to dequeue head: %w", err)
		}
		return nil
	})
}

func (r *SQLiteRepository) Size(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM action_queue`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count queued actions: %w", err)
	}
	return n, nil
}
