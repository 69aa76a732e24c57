// Package repomanager vends the server repositories bound to a storage
// backend: PostgreSQL when a DSN is configured, process memory otherwise.
package repomanager

import (
	"context"

	"github.com/dmitrijs2005/tripkeeper/internal/dbx"
	"github.com/dmitrijs2005/tripkeeper/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/tripkeeper/internal/server/repositories/trips"
	"github.com/dmitrijs2005/tripkeeper/internal/server/repositories/users"
)

// RepositoryManager builds repositories bound to a handle. DB returns the
// handle for single statements; WithTx passes a transactional one to fn.
type RepositoryManager interface {
	RunMigrations(ctx context.Context) error
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	Trips(db dbx.DBTX) trips.Repository
	DB() dbx.DBTX
	WithTx(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error
	Close() error
}
