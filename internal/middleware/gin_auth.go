package middleware

import (
	"net/http"

	"line-auth-web/internal/session"

	"github.com/gin-gonic/gin"
)

// bridge runs a net/http middleware inside the gin chain.
func bridge(mw func(http.Handler) http.Handler) gin.HandlerFunc {
	return func(c *gin.Context) {
		reached := false
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reached = true
			c.Request = r
			c.Next()
		})

		mw(next).ServeHTTP(c.Writer, c.Request)

		// the middleware answered on its own: stop the gin chain
		if !reached {
			c.Abort()
		}
	}
}

// GinLoadSession adapts LoadSession to gin.
func GinLoadSession(auth *AuthMiddleware) gin.HandlerFunc {
	return bridge(auth.LoadSession)
}

// GinRequireAuth adapts RequireAuth to gin. GinLoadSession must run earlier
// in the chain; without it every request is treated as anonymous.
func GinRequireAuth(auth *AuthMiddleware) gin.HandlerFunc {
	return bridge(auth.RequireAuth)
}

// GinView returns the Session View for the current gin request.
func GinView(c *gin.Context) *session.View {
	return ViewFromContext(c.Request.Context())
}

// GinToken returns the session token for the current gin request.
func GinToken(c *gin.Context) *session.Token {
	return TokenFromContext(c.Request.Context())
}
