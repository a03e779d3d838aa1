package line

import (
	"context"
	"errors"
	"fmt"

	"line-auth-web/internal/auth"
	"line-auth-web/internal/logger"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

const (
	providerName = "line"

	// DefaultIssuer is the LINE Login OpenID Connect issuer.
	DefaultIssuer = "https://access.line.me"
)

var ErrNonceMismatch = errors.New("line id_token nonce mismatch")

// Provider implements LINE Login (OpenID Connect) with PKCE.
// It returns profile facts only; no user/session decisions are made here.
type Provider struct {
	oauthConfig *oauth2.Config
	verifier    *oidc.IDTokenVerifier
}

// New initializes the provider using discovery on issuer.
func New(
	ctx context.Context,
	issuer string,
	clientID string,
	clientSecret string,
	redirectURL string,
) (*Provider, error) {

	if clientID == "" || clientSecret == "" || redirectURL == "" {
		return nil, errors.New("line oauth config missing required fields")
	}
	if issuer == "" {
		issuer = DefaultIssuer
	}

	oidcProvider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to init line oidc provider: %w", err)
	}

	var meta struct {
		JWKSURL string `json:"jwks_uri"`
	}
	if err := oidcProvider.Claims(&meta); err != nil {
		return nil, fmt.Errorf("line discovery document unreadable: %w", err)
	}

	keys := &keySet{
		channelSecret: []byte(clientSecret),
		remote:        oidc.NewRemoteKeySet(ctx, meta.JWKSURL),
	}

	verifier := oidc.NewVerifier(issuer, keys, &oidc.Config{
		ClientID:             clientID,
		SupportedSigningAlgs: []string{hs256, oidc.ES256},
	})

	ep := oidcProvider.Endpoint()
	// LINE expects client credentials in the form body.
	ep.AuthStyle = oauth2.AuthStyleInParams

	oauthCfg := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Endpoint:     ep,
		Scopes: []string{
			oidc.ScopeOpenID,
			"profile",
			"email",
		},
	}

	return &Provider{
		oauthConfig: oauthCfg,
		verifier:    verifier,
	}, nil
}

// Name returns the provider identifier used by the registry.
func (p *Provider) Name() string {
	return providerName
}

// AuthCodeURL builds the authorization URL with nonce and PKCE parameters.
func (p *Provider) AuthCodeURL(state, nonce, codeChallenge string) string {
	return p.oauthConfig.AuthCodeURL(
		state,
		oidc.Nonce(nonce),
		oauth2.SetAuthURLParam("code_challenge", codeChallenge),
		oauth2.SetAuthURLParam("code_challenge_method", "S256"),
	)
}

// ExchangeCode exchanges the authorization code and returns the profile
// carried in the verified ID token.
func (p *Provider) ExchangeCode(
	ctx context.Context,
	code string,
	codeVerifier string,
	nonce string,
) (*auth.Profile, error) {

	token, err := p.oauthConfig.Exchange(
		ctx,
		code,
		oauth2.SetAuthURLParam("code_verifier", codeVerifier),
	)
	if err != nil {
		return nil, fmt.Errorf("line token exchange failed: %w", err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return nil, errors.New("line did not return id_token")
	}

	idToken, err := p.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("line id_token verification failed: %w", err)
	}

	if nonce == "" || idToken.Nonce != nonce {
		return nil, ErrNonceMismatch
	}

	var claims struct {
		Subject string `json:"sub"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
		Email   string `json:"email"`
	}

	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("line id_token claims parse failed: %w", err)
	}

	if claims.Subject == "" {
		return nil, errors.New("line id_token missing sub")
	}

	logger.Info("line oidc verified", map[string]any{
		"issuer":          idToken.Issuer,
		"name_present":    claims.Name != "",
		"email_present":   claims.Email != "",
		"picture_present": claims.Picture != "",
		"expiry_unix":     idToken.Expiry.Unix(),
	})

	return &auth.Profile{
		Provider: providerName,
		ID:       claims.Subject,
		Name:     claims.Name,
		Email:    claims.Email,
		Picture:  claims.Picture,
	}, nil
}
