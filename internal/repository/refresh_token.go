package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"vidtube/internal/model"
)

// Ledger statements. Rows are never updated except to revoke them; the
// janitor is the only thing that deletes.
const (
	insertRefreshTokenSQL = `
		INSERT INTO refresh_tokens (user_id, token_hash, expires_at, device_info, ip_address)
		VALUES (:user_id, :token_hash, :expires_at, :device_info, :ip_address)
		RETURNING id, created_at`

	selectRefreshTokenSQL = `
		SELECT id, user_id, token_hash, expires_at, created_at, revoked_at, replaced_by, device_info, ip_address
		FROM refresh_tokens
		WHERE token_hash = $1`

	revokeRefreshTokenSQL = `
		UPDATE refresh_tokens
		SET revoked_at = NOW(), replaced_by = COALESCE($2, replaced_by)
		WHERE id = $1 AND revoked_at IS NULL`

	revokeUserRefreshTokensSQL = `
		UPDATE refresh_tokens
		SET revoked_at = NOW()
		WHERE user_id = $1 AND revoked_at IS NULL`

	purgeRefreshTokensSQL = `
		DELETE FROM refresh_tokens
		WHERE expires_at < NOW() - make_interval(secs => $1)`
)

type refreshTokenRepository struct {
	db *sqlx.DB
}

func NewRefreshTokenRepository(db *sqlx.DB) RefreshTokenRepository {
	return &refreshTokenRepository{db: db}
}

// Create stores a session row and fills in the generated id and timestamp.
func (r *refreshTokenRepository) Create(ctx context.Context, token *model.RefreshToken) error {
	rows, err := r.db.NamedQueryContext(ctx, insertRefreshTokenSQL, token)
	if err != nil {
		return fmt.Errorf("insert refresh token: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return fmt.Errorf("insert refresh token: %w", err)
		}
		return errors.New("insert refresh token: no row returned")
	}
	if err := rows.Scan(&token.ID, &token.CreatedAt); err != nil {
		return fmt.Errorf("scan refresh token: %w", err)
	}
	return nil
}

func (r *refreshTokenRepository) FindByTokenHash(ctx context.Context, tokenHash string) (*model.RefreshToken, error) {
	var token model.RefreshToken
	if err := r.db.GetContext(ctx, &token, selectRefreshTokenSQL, tokenHash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrRefreshTokenNotFound
		}
		return nil, fmt.Errorf("find refresh token: %w", err)
	}
	return &token, nil
}

// Revoke is idempotent: an already revoked row keeps its first revocation
// time and replacement link.
func (r *refreshTokenRepository) Revoke(ctx context.Context, id string, replacedBy *string) error {
	if _, err := r.db.ExecContext(ctx, revokeRefreshTokenSQL, id, replacedBy); err != nil {
		return fmt.Errorf("revoke refresh token %s: %w", id, err)
	}
	return nil
}

func (r *refreshTokenRepository) RevokeAllForUser(ctx context.Context, userID string) error {
	if _, err := r.db.ExecContext(ctx, revokeUserRefreshTokensSQL, userID); err != nil {
		return fmt.Errorf("revoke sessions of %s: %w", userID, err)
	}
	return nil
}

// DeleteExpired removes rows whose expiry lies more than olderThan in the past.
func (r *refreshTokenRepository) DeleteExpired(ctx context.Context, olderThan time.Duration) (int64, error) {
	res, err := r.db.ExecContext(ctx, purgeRefreshTokensSQL, olderThan.Seconds())
	if err != nil {
		return 0, fmt.Errorf("purge refresh tokens: %w", err)
	}
	return res.RowsAffected()
}
