package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/chorus/internal/models"
	"github.com/desertthunder/chorus/internal/shared"
)

// TokenRepository persists provider credentials and in-flight PKCE
// authorization attempts.
type TokenRepository struct {
	db *sql.DB
}

// NewTokenRepository creates a new [TokenRepository] with the given database connection
func NewTokenRepository(db *sql.DB) *TokenRepository {
	return &TokenRepository{db: db}
}

// Get retrieves the stored credential for a (user, provider) pair.
func (r *TokenRepository) Get(userID string, provider models.Provider) (*models.TokenRecord, error) {
	var (
		record       models.TokenRecord
		refreshToken sql.NullString
	)

	err := r.db.QueryRow(`
		SELECT user_id, provider, access_token, refresh_token, expiry, created_at, updated_at
		FROM tokens WHERE user_id = ? AND provider = ?`,
		userID, string(provider),
	).Scan(&record.UserID, &record.Provider, &record.AccessToken, &refreshToken,
		&record.Expiry, &record.CreatedAt, &record.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s for user %s", shared.ErrNoConnection, provider, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query token: %w", err)
	}

	record.RefreshToken = refreshToken.String
	return &record, nil
}

// Put stores a credential, replacing any existing record for the pair.
func (r *TokenRepository) Put(record models.TokenRecord) error {
	if record.AccessToken == "" {
		return fmt.Errorf("%w: empty access token", shared.ErrValidation)
	}

	now := time.Now()

	var refreshToken any = record.RefreshToken
	if record.RefreshToken == "" {
		refreshToken = nil
	}

	_, err := r.db.Exec(`
		INSERT INTO tokens (user_id, provider, access_token, refresh_token, expiry, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, provider) DO UPDATE SET
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			expiry = excluded.expiry,
			updated_at = excluded.updated_at`,
		record.UserID, string(record.Provider), record.AccessToken, refreshToken,
		record.Expiry, now, now)
	if err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}

	return nil
}

// Replace swaps a credential for a new one only if the stored access
// token still matches the one the caller refreshed from. The old record
// stays valid until the swap lands, so a concurrent refresh that already
// replaced it is detected instead of overwritten.
func (r *TokenRepository) Replace(oldAccessToken string, record models.TokenRecord) (bool, error) {
	if record.AccessToken == "" {
		return false, fmt.Errorf("%w: empty access token", shared.ErrValidation)
	}

	var refreshToken any = record.RefreshToken
	if record.RefreshToken == "" {
		refreshToken = nil
	}

	result, err := r.db.Exec(`
		UPDATE tokens
		SET access_token = ?, refresh_token = ?, expiry = ?, updated_at = ?
		WHERE user_id = ? AND provider = ? AND access_token = ?`,
		record.AccessToken, refreshToken, record.Expiry, time.Now(),
		record.UserID, string(record.Provider), oldAccessToken)
	if err != nil {
		return false, fmt.Errorf("failed to replace token: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return rows > 0, nil
}

// Delete clears the stored credential unconditionally. A missing record
// is not an error.
func (r *TokenRepository) Delete(userID string, provider models.Provider) error {
	_, err := r.db.Exec(
		"DELETE FROM tokens WHERE user_id = ? AND provider = ?",
		userID, string(provider))
	if err != nil {
		return fmt.Errorf("failed to delete token: %w", err)
	}
	return nil
}

// SaveAttempt records an in-flight PKCE authorization keyed by state.
func (r *TokenRepository) SaveAttempt(attempt models.AuthAttempt) error {
	if attempt.State == "" || attempt.Verifier == "" {
		return fmt.Errorf("%w: attempt requires state and verifier", shared.ErrValidation)
	}

	_, err := r.db.Exec(`
		INSERT INTO auth_attempts (state, user_id, provider, verifier, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		attempt.State, attempt.UserID, string(attempt.Provider), attempt.Verifier, attempt.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save auth attempt: %w", err)
	}

	return nil
}

// TakeAttempt consumes the attempt for the given state: it is returned
// and deleted in one transaction, so an authorization code can only be
// exchanged once.
func (r *TokenRepository) TakeAttempt(state string) (*models.AuthAttempt, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var attempt models.AuthAttempt
	err = tx.QueryRow(`
		SELECT state, user_id, provider, verifier, created_at
		FROM auth_attempts WHERE state = ?`, state,
	).Scan(&attempt.State, &attempt.UserID, &attempt.Provider, &attempt.Verifier, &attempt.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: state %s", shared.ErrStaleExchange, state)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query auth attempt: %w", err)
	}

	if _, err := tx.Exec("DELETE FROM auth_attempts WHERE state = ?", state); err != nil {
		return nil, fmt.Errorf("failed to consume auth attempt: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit attempt consumption: %w", err)
	}

	return &attempt, nil
}
