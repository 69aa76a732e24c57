package trips

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/tripkeeper/internal/common"
	"github.com/dmitrijs2005/tripkeeper/internal/server/models"
	"github.com/google/go-cmp/cmp"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	columns = []string{"id", "user_id", "title", "destination", "start_date", "end_date", "description", "image", "photos", "created_at", "updated_at"}
	created = time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	updated = time.Date(2025, 1, 2, 10, 0, 0, 0, time.UTC)
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	repo := NewPostgresRepository(db)
	repo.now = func() time.Time { return updated }
	return repo, mock
}

func tripRow(id, title string, photos string) []driver.Value {
	return []driver.Value{id, "u1", title, "Paris, France", "2025-05-01", "2025-05-03", "", "", []byte(photos), created, created}
}

func TestList(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	rows := sqlmock.NewRows(columns).
		AddRow(tripRow("t1", "First", `["a.jpg"]`)...).
		AddRow(tripRow("t2", "Second", `[]`)...)
	mock.ExpectQuery(`^SELECT id, user_id, .* FROM trips WHERE user_id = \$1 ORDER BY created_at, id$`).
		WithArgs("u1").
		WillReturnRows(rows)

	got, err := repo.List(context.Background(), "u1")
	require.NoError(t, err)

	want := []models.Trip{
		{ID: "t1", UserID: "u1", Title: "First", Destination: "Paris, France", StartDate: "2025-05-01", EndDate: "2025-05-03", Photos: []string{"a.jpg"}, CreatedAt: created, UpdatedAt: created},
		{ID: "t2", UserID: "u1", Title: "Second", Destination: "Paris, France", StartDate: "2025-05-01", EndDate: "2025-05-03", Photos: []string{}, CreatedAt: created, UpdatedAt: created},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("List mismatch (-want +got):\n%s", diff)
	}
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestList_EmptyIsNotNil(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectQuery(`^SELECT .* FROM trips`).WithArgs("u1").WillReturnRows(sqlmock.NewRows(columns))

	got, err := repo.List(context.Background(), "u1")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestList_Errors(t *testing.T) {
	t.Run("query", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(`^SELECT .* FROM trips`).WillReturnError(errors.New("db down"))

		_, err := repo.List(context.Background(), "u1")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "db error: db down")
	})

	t.Run("corrupt photos", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(`^SELECT .* FROM trips`).
			WillReturnRows(sqlmock.NewRows(columns).AddRow(tripRow("t1", "Bad", `{`)...))

		_, err := repo.List(context.Background(), "u1")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "decode photos")
	})
}

func TestGet(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantErr error
	}{
		{name: "found"},
		{name: "missing", err: sql.ErrNoRows, wantErr: common.ErrorNotFound},
		{name: "not a uuid", err: &pgconn.PgError{Code: "22P02"}, wantErr: common.ErrorNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newRepoWithMock(t)
			exp := mock.ExpectQuery(`^SELECT .* FROM trips WHERE id = \$1 AND user_id = \$2$`).WithArgs("t1", "u1")
			if tt.err != nil {
				exp.WillReturnError(tt.err)
			} else {
				exp.WillReturnRows(sqlmock.NewRows(columns).AddRow(tripRow("t1", "First", `[]`)...))
			}

			got, err := repo.Get(context.Background(), "u1", "t1")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "First", got.Title)
		})
	}
}

func TestCreate(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(`^INSERT INTO trips \(id, user_id, .*\) VALUES \(\$1, .*\$11\)$`).
		WithArgs(sqlmock.AnyArg(), "u1", "Rome", "Rome, Italy", "2025-06-01", "2025-06-04", "food", "", []byte(`[]`), updated, updated).
		WillReturnResult(sqlmock.NewResult(0, 1))

	in := &models.Trip{UserID: "u1", Title: "Rome", Destination: "Rome, Italy", StartDate: "2025-06-01", EndDate: "2025-06-04", Description: "food"}
	got, err := repo.Create(context.Background(), in)
	require.NoError(t, err)

	assert.Len(t, got.ID, 36)
	assert.Equal(t, updated, got.CreatedAt)
	assert.Equal(t, []string{}, got.Photos)
	assert.Empty(t, in.ID, "input is not modified")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectExec(`^INSERT INTO trips`).WillReturnError(errors.New("fk violation"))

	_, err := repo.Create(context.Background(), &models.Trip{UserID: "u1", Title: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db error: fk violation")
}

func TestUpdate(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	row := tripRow("t1", "Renamed", `["b.jpg"]`)
	row[10] = updated
	mock.ExpectQuery(`^UPDATE trips SET title = \$3, .* WHERE id = \$1 AND user_id = \$2 RETURNING id, user_id, .*$`).
		WithArgs("t1", "u1", "Renamed", "Paris, France", "2025-05-01", "2025-05-03", "", "", []byte(`["b.jpg"]`), updated).
		WillReturnRows(sqlmock.NewRows(columns).AddRow(row...))

	got, err := repo.Update(context.Background(), &models.Trip{
		ID: "t1", UserID: "u1", Title: "Renamed", Destination: "Paris, France",
		StartDate: "2025-05-01", EndDate: "2025-05-03", Photos: []string{"b.jpg"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Title)
	assert.Equal(t, created, got.CreatedAt)
	assert.Equal(t, updated, got.UpdatedAt)
}

func TestUpdate_NotFound(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectQuery(`^UPDATE trips`).WillReturnError(sql.ErrNoRows)

	_, err := repo.Update(context.Background(), &models.Trip{ID: "t9", UserID: "u1"})
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestDelete(t *testing.T) {
	tests := []struct {
		name    string
		result  driver.Result
		err     error
		wantErr error
	}{
		{name: "deleted", result: sqlmock.NewResult(0, 1)},
		{name: "no row", result: sqlmock.NewResult(0, 0), wantErr: common.ErrorNotFound},
		{name: "not a uuid", err: &pgconn.PgError{Code: "22P02"}, wantErr: common.ErrorNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newRepoWithMock(t)
			exp := mock.ExpectExec(`^DELETE FROM trips WHERE id = \$1 AND user_id = \$2$`).WithArgs("t1", "u1")
			if tt.err != nil {
				exp.WillReturnError(tt.err)
			} else {
				exp.WillReturnResult(tt.result)
			}

			err := repo.Delete(context.Background(), "u1", "t1")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}
