package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/chorus/internal/models"
	"github.com/desertthunder/chorus/internal/repositories"
	"github.com/desertthunder/chorus/internal/shared"
)

// Grant is the result of a code or refresh exchange at a provider's
// token endpoint.
type Grant struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64 // seconds until expiry
}

// Exchanger is the slice of a provider client the token lifecycle needs:
// building the authorization URL and exchanging codes or refresh tokens.
type Exchanger interface {
	Provider() models.Provider
	AuthorizationURL(state, challenge string) string
	ExchangeCode(ctx context.Context, code, verifier string) (*Grant, error)
	ExchangeRefresh(ctx context.Context, refreshToken string) (*Grant, error)
}

// TokenManager drives the connection state machine for one provider:
// Disconnected -> PendingExchange -> Connected, with silent refresh at
// the point of use. Refresh is lazy rather than timer-driven; request
// volume against provider APIs is low and sessions are intermittent.
type TokenManager struct {
	tokens   *repositories.TokenRepository
	provider Exchanger
	logger   *log.Logger
	now      func() time.Time
}

// NewTokenManager creates a [TokenManager] for the given provider client.
func NewTokenManager(tokens *repositories.TokenRepository, provider Exchanger, logger *log.Logger) *TokenManager {
	return &TokenManager{
		tokens:   tokens,
		provider: provider,
		logger:   logger,
		now:      time.Now,
	}
}

// SetClock overrides the manager's time source. Used by tests to step
// across expiry boundaries.
func (m *TokenManager) SetClock(now func() time.Time) {
	m.now = now
}

// BeginAuthorization starts a PKCE flow for the user: generates a code
// verifier and state, persists them as an in-flight attempt, and returns
// the provider's authorization URL carrying the S256 challenge.
func (m *TokenManager) BeginAuthorization(userID string) (string, error) {
	verifier, err := GenerateVerifier(DefaultVerifierLength)
	if err != nil {
		return "", err
	}

	state, err := GenerateState()
	if err != nil {
		return "", err
	}

	attempt := models.AuthAttempt{
		State:     state,
		UserID:    userID,
		Provider:  m.provider.Provider(),
		Verifier:  verifier,
		CreatedAt: m.now(),
	}

	if err := m.tokens.SaveAttempt(attempt); err != nil {
		return "", err
	}

	return m.provider.AuthorizationURL(state, Challenge(verifier)), nil
}

// CompleteAuthorization exchanges the authorization code plus the held
// verifier for tokens and stores the credential with an absolute expiry.
// The attempt is consumed even when the exchange fails, so a code can
// only be tried once.
func (m *TokenManager) CompleteAuthorization(ctx context.Context, state, code string) (*models.TokenRecord, error) {
	attempt, err := m.tokens.TakeAttempt(state)
	if err != nil {
		return nil, err
	}

	grant, err := m.provider.ExchangeCode(ctx, code, attempt.Verifier)
	if err != nil {
		return nil, fmt.Errorf("code exchange failed: %w", err)
	}

	record := models.TokenRecord{
		UserID:       attempt.UserID,
		Provider:     attempt.Provider,
		AccessToken:  grant.AccessToken,
		RefreshToken: grant.RefreshToken,
		Expiry:       m.now().Unix() + grant.ExpiresIn,
	}

	if err := m.tokens.Put(record); err != nil {
		return nil, err
	}

	if m.logger != nil {
		m.logger.Info("provider connected", "user", attempt.UserID, "provider", attempt.Provider)
	}

	return &record, nil
}

// EnsureFresh returns a valid credential for the user, refreshing it
// first when expired. The unexpired path performs no network call.
//
// The old record stays stored until a replacement is obtained; it is
// swapped by compare-and-swap and cleared only on a confirmed refresh
// failure, in which case the connection is Disconnected and the caller
// must re-authorize.
func (m *TokenManager) EnsureFresh(ctx context.Context, userID string) (*models.TokenRecord, error) {
	record, err := m.tokens.Get(userID, m.provider.Provider())
	if err != nil {
		return nil, err
	}

	if !record.Expired(m.now()) {
		return record, nil
	}

	if record.RefreshToken == "" {
		if err := m.tokens.Delete(userID, m.provider.Provider()); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: no refresh token stored", shared.ErrRefreshFailed)
	}

	grant, err := m.provider.ExchangeRefresh(ctx, record.RefreshToken)
	if err != nil {
		// Confirmed failure: drop the stale record so the connection
		// reads as Disconnected rather than stale-but-looks-valid.
		if delErr := m.tokens.Delete(userID, m.provider.Provider()); delErr != nil {
			return nil, errors.Join(shared.ErrRefreshFailed, err, delErr)
		}
		if m.logger != nil {
			m.logger.Warn("token refresh failed, disconnecting", "user", userID, "provider", m.provider.Provider())
		}
		return nil, fmt.Errorf("%w: %v", shared.ErrRefreshFailed, err)
	}

	refreshed := models.TokenRecord{
		UserID:       userID,
		Provider:     record.Provider,
		AccessToken:  grant.AccessToken,
		RefreshToken: grant.RefreshToken,
		Expiry:       m.now().Unix() + grant.ExpiresIn,
	}
	if refreshed.RefreshToken == "" {
		// Providers may omit the refresh token on rotation; keep the old one.
		refreshed.RefreshToken = record.RefreshToken
	}

	swapped, err := m.tokens.Replace(record.AccessToken, refreshed)
	if err != nil {
		return nil, err
	}
	if !swapped {
		// A concurrent caller refreshed first; use whatever won.
		return m.tokens.Get(userID, m.provider.Provider())
	}

	if m.logger != nil {
		m.logger.Debug("token refreshed", "user", userID, "provider", record.Provider, "expiry", refreshed.Expiry)
	}

	return &refreshed, nil
}

// Disconnect clears the stored credential unconditionally.
func (m *TokenManager) Disconnect(userID string) error {
	return m.tokens.Delete(userID, m.provider.Provider())
}
