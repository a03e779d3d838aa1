package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"line-auth-web/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSessions(t *testing.T) *session.Manager {
	t.Helper()
	codec, err := session.NewCodec("middleware-test-secret-middleware-test")
	require.NoError(t, err)
	return session.NewManager(codec, session.NewMemoryStore(), session.Options{
		MaxAge:    time.Hour,
		UpdateAge: time.Hour,
	})
}

func newRouter(sessions *session.Manager, protected gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	auth := NewAuthMiddleware(sessions)

	r := gin.New()
	r.Use(SecurityHeaders(LineAvatarHost), GinLoadSession(auth))

	r.GET("/public", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"anonymous": GinView(c) == nil})
	})

	web := r.Group("/")
	web.Use(GinRequireAuth(auth))
	web.GET("/", protected)
	return r
}

func issueCookie(t *testing.T, sessions *session.Manager, tok session.Token) *http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	_, err := sessions.Issue(context.Background(), rec, tok)
	require.NoError(t, err)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	return cookies[0]
}

func TestGinRequireAuth(t *testing.T) {
	t.Run("anonymous visitor redirected before content is built", func(t *testing.T) {
		sessions := newSessions(t)
		built := false
		r := newRouter(sessions, func(c *gin.Context) {
			built = true
			c.String(http.StatusOK, "secret")
		})

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/login", rec.Header().Get("Location"))
		assert.NotContains(t, rec.Body.String(), "secret")
		assert.False(t, built)
	})

	t.Run("authenticated visitor sees projected view", func(t *testing.T) {
		sessions := newSessions(t)
		var seen *session.View
		r := newRouter(sessions, func(c *gin.Context) {
			seen = GinView(c)
			c.String(http.StatusOK, "secret")
		})

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(issueCookie(t, sessions, session.Token{ID: "U1", Name: "Alice", Picture: "http://x/a.png"}))
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, seen)
		assert.Equal(t, session.User{ID: "U1", Name: "Alice", Image: "http://x/a.png"}, *seen.User)
	})

	t.Run("logged out visitor redirected", func(t *testing.T) {
		sessions := newSessions(t)
		r := newRouter(sessions, func(c *gin.Context) {
			c.String(http.StatusOK, "secret")
		})

		cookie := issueCookie(t, sessions, session.Token{ID: "U1"})

		probe := httptest.NewRequest(http.MethodGet, "/", nil)
		probe.AddCookie(cookie)
		_, tok := sessions.Resolve(probe)
		require.NotNil(t, tok)
		require.NoError(t, sessions.Revoke(context.Background(), httptest.NewRecorder(), tok))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(cookie)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/login", rec.Header().Get("Location"))
	})
}

func TestGinLoadSessionNeverBlocks(t *testing.T) {
	sessions := newSessions(t)
	r := newRouter(sessions, func(c *gin.Context) {})

	req := httptest.NewRequest(http.MethodGet, "/public", nil)
	req.AddCookie(&http.Cookie{Name: sessions.CookieName(), Value: "garbage"})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"anonymous":true}`, rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Security-Policy"), "img-src 'self' "+LineAvatarHost)
}
