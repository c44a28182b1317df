// Package services implements clients for external music catalog APIs.
//
// Providers are treated as opaque HTTP services returning JSON; only the
// fields the core depends on (identifiers, names, track metadata, token
// expiry) are decoded. Every request is bounded by a timeout and failures
// wrap [shared.ErrExternalService] so callers can treat them as
// recoverable.
//
// [SpotifyClient] implements the full [Catalog] surface plus the
// [auth.Exchanger] token operations (PKCE code exchange, silent refresh).
// [AppleMusicClient] mints ES256 developer tokens for MusicKit.
package services
