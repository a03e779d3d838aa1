package provider

import (
	"context"

	"line-auth-web/internal/auth"
)

// OAuthProvider defines the contract every external auth provider
// must implement. Implementations return identity facts only and
// must not touch users or sessions.
type OAuthProvider interface {
	// Name returns the provider identifier used in routes (e.g. "line").
	Name() string

	// AuthCodeURL returns the authorization URL. State, nonce and the PKCE
	// challenge are generated by the caller.
	AuthCodeURL(state, nonce, codeChallenge string) string

	// ExchangeCode redeems the authorization code, verifies the ID token
	// against the expected nonce and returns the normalized profile.
	ExchangeCode(
		ctx context.Context,
		code string,
		codeVerifier string,
		nonce string,
	) (*auth.Profile, error)
}
