// Package refreshtokens stores the opaque refresh tokens issued at login.
// A token is single use: refreshing consumes it and issues a new one.
package refreshtokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/tripkeeper/internal/server/models"
)

// Repository defines operations for issuing and redeeming refresh tokens.
type Repository interface {
	// Create stores a new refresh token for userID with an expiry of now+validity.
	Create(ctx context.Context, userID string, token string, validity time.Duration) error

	// Consume removes the token and returns what it was issued for. An
	// unknown or already consumed token yields common.ErrorNotFound, so two
	// concurrent refreshes with one token cannot both succeed.
	Consume(ctx context.Context, token string) (*models.RefreshToken, error)
}
