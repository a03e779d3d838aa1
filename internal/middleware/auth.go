package middleware

import (
	"context"
	"net/http"

	"line-auth-web/internal/logger"
	"line-auth-web/internal/session"
)

// unexported, collision-proof context keys
type (
	viewContextKeyType  struct{}
	tokenContextKeyType struct{}
)

var (
	viewKey  = viewContextKeyType{}
	tokenKey = tokenContextKeyType{}
)

// ViewFromContext returns the Session View attached by LoadSession, or nil
// for anonymous visitors.
func ViewFromContext(ctx context.Context) *session.View {
	v, _ := ctx.Value(viewKey).(*session.View)
	return v
}

// WithView attaches v to ctx.
func WithView(ctx context.Context, v *session.View) context.Context {
	return context.WithValue(ctx, viewKey, v)
}

// TokenFromContext returns the decoded token behind the view, or nil.
func TokenFromContext(ctx context.Context) *session.Token {
	t, _ := ctx.Value(tokenKey).(*session.Token)
	return t
}

// WithToken attaches t to ctx.
func WithToken(ctx context.Context, t *session.Token) context.Context {
	return context.WithValue(ctx, tokenKey, t)
}

type AuthMiddleware struct {
	Sessions *session.Manager
}

func NewAuthMiddleware(sessions *session.Manager) *AuthMiddleware {
	return &AuthMiddleware{Sessions: sessions}
}

// LoadSession resolves the session once per request, refreshes the cookie
// when it is due, and attaches the view and token to the request context. It never
// rejects a request.
func (a *AuthMiddleware) LoadSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		view, tok := a.Sessions.Resolve(r)

		if tok != nil {
			if _, err := a.Sessions.Refresh(r.Context(), w, *tok); err != nil {
				logger.Warn("session refresh failed", map[string]any{
					"error": err.Error(),
				})
			}
		}

		ctx := WithToken(WithView(r.Context(), view), tok)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAuth runs the Access Gate before next. On a redirect decision next
// is never invoked.
func (a *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		decision := Authorize(ViewFromContext(r.Context()))
		if !decision.Allowed() {
			http.Redirect(w, r, decision.Target(), http.StatusFound)
			return
		}

		next.ServeHTTP(w, r)
	})
}
