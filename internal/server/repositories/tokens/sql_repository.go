package tokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/dbx"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
)

// newToken is a seam for tests.
var newToken = func() (string, error) {
	return common.MakeRandURLSafeString(common.TokenEntropyBytes)
}

// SQLRepository implements Repository over dbx.DBTX (*sql.DB or *sql.Tx).
type SQLRepository struct {
	db  dbx.DBTX
	now func() time.Time
}

// NewSQLRepository binds a repository to db. A nil now defaults to time.Now.
func NewSQLRepository(db dbx.DBTX, now func() time.Time) *SQLRepository {
	if now == nil {
		now = time.Now
	}
	return &SQLRepository{db: db, now: now}
}

func table(kind models.TokenKind) (string, error) {
	switch kind {
	case models.TokenKindPasswordReset:
		return "password_reset_tokens", nil
	case models.TokenKindEmailVerify:
		return "email_verify_tokens", nil
	}
	return "", fmt.Errorf("%w: %q", common.ErrUnknownTokenKind, kind)
}

func (r *SQLRepository) Create(ctx context.Context, userID int64, kind models.TokenKind, ttl time.Duration) (string, error) {
	t, err := table(kind)
	if err != nil {
		return "", err
	}

	token, err := newToken()
	if err != nil {
		return "", fmt.Errorf("%w: generate token: %w", common.ErrorInternal, err)
	}

	now := r.now().UTC()
	query := `INSERT INTO ` + t + ` (user_id, token, expires_at, used, created_at)
		VALUES ($1, $2, $3, FALSE, $4)`

	if _, err := r.db.ExecContext(ctx, query, userID, token, now.Add(ttl), now); err != nil {
		return "", fmt.Errorf("error performing sql request: %w", err)
	}
	return token, nil
}

// Redeem consumes token with a single conditional UPDATE, so two concurrent
// redemptions can never both succeed.
func (r *SQLRepository) Redeem(ctx context.Context, token string, kind models.TokenKind) (int64, error) {
	t, err := table(kind)
	if err != nil {
		return 0, err
	}

	query := `UPDATE ` + t + ` SET used = TRUE
		WHERE token = $1 AND used = FALSE AND expires_at > $2
		RETURNING user_id`

	var userID int64
	if err := r.db.QueryRowContext(ctx, query, token, r.now().UTC()).Scan(&userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, common.ErrorNotFound
		}
		return 0, fmt.Errorf("db error: %w", err)
	}
	return userID, nil
}

func (r *SQLRepository) CountActive(ctx context.Context, userID int64, kind models.TokenKind) (int, error) {
	t, err := table(kind)
	if err != nil {
		return 0, err
	}

	query := `SELECT COUNT(*) FROM ` + t + `
		WHERE user_id = $1 AND used = FALSE AND expires_at > $2`

	var n int
	if err := r.db.QueryRowContext(ctx, query, userID, r.now().UTC()).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
