package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"line-auth-web/internal/logger"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type Options struct {
	MaxAge    time.Duration // lifetime of an issued token
	UpdateAge time.Duration // minimum age before a token is re-issued
	Cookie    CookieOptions
}

// Manager owns the token lifecycle: issue on login, resolve and refresh on
// every request, revoke on logout.
type Manager struct {
	codec       *Codec
	revocations Revocations
	opts        Options
	now         func() time.Time
}

func NewManager(codec *Codec, revocations Revocations, opts Options) *Manager {
	opts.Cookie = opts.Cookie.normalize()
	return &Manager{
		codec:       codec,
		revocations: revocations,
		opts:        opts,
		now:         time.Now,
	}
}

// CookieName is the name of the session cookie this manager reads and writes.
func (m *Manager) CookieName() string {
	return m.opts.Cookie.Name
}

// Issue stamps the token lifetime, seals it and sets the session cookie.
// A token id is assigned once and kept across refreshes so a single
// revocation covers every copy of the session.
func (m *Manager) Issue(ctx context.Context, w http.ResponseWriter, t Token) (Token, error) {
	now := m.now()
	expiresAt := now.Add(m.opts.MaxAge)

	if t.RegisteredClaims.ID == "" {
		t.RegisteredClaims.ID = uuid.NewString()
	}
	t.IssuedAt = jwt.NewNumericDate(now)
	t.ExpiresAt = jwt.NewNumericDate(expiresAt)

	value, err := m.codec.Encode(t)
	if err != nil {
		return Token{}, err
	}

	SetCookie(w, value, expiresAt, m.opts.Cookie)
	return t, nil
}

// Resolve decodes the session cookie into a View. Any failure (no cookie,
// tampering, expiry, revocation) yields a nil view: the visitor is anonymous.
func (m *Manager) Resolve(r *http.Request) (*View, *Token) {
	cookie, err := r.Cookie(m.opts.Cookie.Name)
	if err != nil || cookie.Value == "" {
		return nil, nil
	}

	t, err := m.load(r.Context(), cookie.Value)
	if err != nil {
		if !errors.Is(err, ErrTokenExpired) {
			logger.Warn("session rejected", map[string]any{
				"error": err.Error(),
			})
		}
		return nil, nil
	}

	enriched := Enrich(*t, nil)
	v := Project(skeleton(enriched), enriched)
	return &v, &enriched
}

func (m *Manager) load(ctx context.Context, value string) (*Token, error) {
	t, err := m.codec.Decode(value)
	if err != nil {
		return nil, err
	}

	revoked, err := m.revocations.IsRevoked(ctx, t.TokenID())
	if err != nil {
		// fail closed
		return nil, err
	}
	if revoked {
		return nil, ErrTokenRevoked
	}

	return t, nil
}

// Refresh re-issues the cookie with a fresh expiry once the token is older
// than UpdateAge. It reports whether a new cookie was written.
func (m *Manager) Refresh(ctx context.Context, w http.ResponseWriter, t Token) (bool, error) {
	if t.IssuedAt == nil {
		return false, nil
	}
	if m.now().Sub(t.IssuedAt.Time) < m.opts.UpdateAge {
		return false, nil
	}

	if _, err := m.Issue(ctx, w, Enrich(t, nil)); err != nil {
		return false, fmt.Errorf("session: refresh: %w", err)
	}
	return true, nil
}

// Revoke signs the session out: the token id is remembered until every copy
// of it has expired and the cookie is cleared. A nil token only clears.
func (m *Manager) Revoke(ctx context.Context, w http.ResponseWriter, t *Token) error {
	var err error
	if t != nil {
		err = m.revocations.Revoke(ctx, t.TokenID(), m.now().Add(m.opts.MaxAge))
	}

	ClearCookie(w, m.opts.Cookie)
	return err
}
