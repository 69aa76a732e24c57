package services

import (
	"context"
	"time"

	"github.com/dmitrijs2005/tripkeeper/internal/dbx"
	"github.com/dmitrijs2005/tripkeeper/internal/server/models"
	"github.com/dmitrijs2005/tripkeeper/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/tripkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/tripkeeper/internal/server/repositories/users"
)

// failingUsers replaces the user repository of a memory manager.
type failingUsers struct{ err error }

func (f *failingUsers) Create(context.Context, *models.User) (*models.User, error) { return nil, f.err }
func (f *failingUsers) GetUserByLogin(context.Context, string) (*models.User, error) {
	return nil, f.err
}

type failingTokens struct{ err error }

func (f *failingTokens) Create(context.Context, string, string, time.Duration) error { return f.err }
func (f *failingTokens) Consume(context.Context, string) (*models.RefreshToken, error) {
	return nil, f.err
}

type fakeRepoManager struct {
	*repomanager.MemoryRepositoryManager
	users  users.Repository
	tokens refreshtokens.Repository
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{MemoryRepositoryManager: repomanager.NewMemoryRepositoryManager()}
}

func (m *fakeRepoManager) Users(db dbx.DBTX) users.Repository {
	if m.users != nil {
		return m.users
	}
	return m.MemoryRepositoryManager.Users(db)
}

func (m *fakeRepoManager) RefreshTokens(db dbx.DBTX) refreshtokens.Repository {
	if m.tokens != nil {
		return m.tokens
	}
	return m.MemoryRepositoryManager.RefreshTokens(db)
}
