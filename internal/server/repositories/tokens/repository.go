// Package tokens stores the single-use, time-boxed tokens mailed out for
// password resets and email verification.
package tokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/server/models"
)

// Repository issues and redeems single-use tokens.
type Repository interface {
	// Create stores a fresh unused token for userID expiring after ttl and
	// returns its opaque value.
	Create(ctx context.Context, userID int64, kind models.TokenKind, ttl time.Duration) (string, error)

	// Redeem marks token used if it exists, is unused and has not expired,
	// and returns its owner. Every other case is common.ErrorNotFound.
	Redeem(ctx context.Context, token string, kind models.TokenKind) (int64, error)

	// CountActive counts unused, unexpired tokens of kind owned by userID.
	CountActive(ctx context.Context, userID int64, kind models.TokenKind) (int, error)
}
