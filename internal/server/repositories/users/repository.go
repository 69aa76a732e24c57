// Package users stores the accounts of the trip service.
package users

import (
	"context"

	"github.com/dmitrijs2005/tripkeeper/internal/server/models"
)

// Repository persists users. Create fails with common.ErrorAlreadyExists
// for a taken user name; GetUserByLogin returns common.ErrorNotFound for
// an unknown one.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByLogin(ctx context.Context, login string) (*models.User, error)
}
