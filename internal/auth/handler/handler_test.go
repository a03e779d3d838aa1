package handler

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"line-auth-web/internal/auth"
	"line-auth-web/internal/auth/provider"
	"line-auth-web/internal/auth/resolver"
	"line-auth-web/internal/middleware"
	"line-auth-web/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) Name() string { return "line" }

func (m *mockProvider) AuthCodeURL(state, nonce, codeChallenge string) string {
	q := url.Values{
		"state":          {state},
		"nonce":          {nonce},
		"code_challenge": {codeChallenge},
	}
	return "https://access.line.me/oauth2/v2.1/authorize?" + q.Encode()
}

func (m *mockProvider) ExchangeCode(ctx context.Context, code, codeVerifier, nonce string) (*auth.Profile, error) {
	args := m.Called(ctx, code, codeVerifier, nonce)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.Profile), args.Error(1)
}

type testEnv struct {
	router   *gin.Engine
	provider *mockProvider
	sessions *session.Manager
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	codec, err := session.NewCodec("handler-test-secret-handler-test-secret")
	require.NoError(t, err)

	sessions := session.NewManager(codec, session.NewMemoryStore(), session.Options{
		MaxAge:    time.Hour,
		UpdateAge: time.Minute,
	})

	p := new(mockProvider)
	h := NewHandler(provider.NewRegistry(p), sessions, resolver.ProfileResolver{}, false)

	r := gin.New()
	r.Use(middleware.GinLoadSession(middleware.NewAuthMiddleware(sessions)))
	h.RegisterRoutes(r)

	return &testEnv{router: r, provider: p, sessions: sessions}
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func cookieMap(rec *httptest.ResponseRecorder) map[string]*http.Cookie {
	out := make(map[string]*http.Cookie)
	for _, c := range rec.Result().Cookies() {
		out[c.Name] = c
	}
	return out
}

// signIn runs the first leg and returns the issued flow cookies and redirect query.
func (e *testEnv) signIn(t *testing.T) (map[string]*http.Cookie, url.Values) {
	t.Helper()

	rec := e.do(httptest.NewRequest(http.MethodGet, "/auth/signin/line", nil))
	require.Equal(t, http.StatusFound, rec.Code)

	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)

	return cookieMap(rec), loc.Query()
}

func callbackRequest(query url.Values, cookies map[string]*http.Cookie) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/auth/callback/line?"+query.Encode(), nil)
	for _, c := range cookies {
		req.AddCookie(&http.Cookie{Name: c.Name, Value: c.Value})
	}
	return req
}

func TestSignIn(t *testing.T) {
	e := newTestEnv(t)

	cookies, q := e.signIn(t)

	require.Contains(t, cookies, stateCookieName)
	require.Contains(t, cookies, nonceCookieName)
	require.Contains(t, cookies, pkceCookieName)

	assert.Equal(t, cookies[stateCookieName].Value, q.Get("state"))
	assert.Equal(t, cookies[nonceCookieName].Value, q.Get("nonce"))

	sum := sha256.Sum256([]byte(cookies[pkceCookieName].Value))
	assert.Equal(t, base64.RawURLEncoding.EncodeToString(sum[:]), q.Get("code_challenge"))

	for _, c := range cookies {
		assert.True(t, c.HttpOnly)
		assert.Equal(t, int(flowTTL.Seconds()), c.MaxAge)
	}
}

func TestSignInUnknownProvider(t *testing.T) {
	e := newTestEnv(t)
	rec := e.do(httptest.NewRequest(http.MethodGet, "/auth/signin/github", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCallbackSuccess(t *testing.T) {
	e := newTestEnv(t)
	cookies, q := e.signIn(t)

	e.provider.
		On("ExchangeCode", mock.Anything, "code-1", cookies[pkceCookieName].Value, cookies[nonceCookieName].Value).
		Return(&auth.Profile{Provider: "line", ID: "U1", Name: "Alice", Picture: "http://x/a.png"}, nil)

	rec := e.do(callbackRequest(url.Values{"state": {q.Get("state")}, "code": {"code-1"}}, cookies))

	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
	e.provider.AssertExpectations(t)

	got := cookieMap(rec)
	assert.Equal(t, -1, got[stateCookieName].MaxAge, "flow cookies are single use")
	require.Contains(t, got, e.sessions.CookieName())

	req := httptest.NewRequest(http.MethodGet, "/auth/session", nil)
	req.AddCookie(got[e.sessions.CookieName()])
	sess := e.do(req)
	require.Equal(t, http.StatusOK, sess.Code)

	var body struct {
		User map[string]string `json:"user"`
	}
	require.NoError(t, json.Unmarshal(sess.Body.Bytes(), &body))
	assert.Equal(t, map[string]string{"id": "U1", "name": "Alice", "image": "http://x/a.png"}, body.User)
}

func TestCallbackFailuresStayAnonymous(t *testing.T) {
	tests := []struct {
		name      string
		query     func(state string) url.Values
		exchange  error
		wantError string
	}{
		{
			name:      "state mismatch",
			query:     func(string) url.Values { return url.Values{"state": {"forged"}, "code": {"c"}} },
			wantError: errCallback,
		},
		{
			name: "consent denied",
			query: func(state string) url.Values {
				return url.Values{"state": {state}, "error": {"access_denied"}}
			},
			wantError: errAccessDenied,
		},
		{
			name:      "missing code",
			query:     func(state string) url.Values { return url.Values{"state": {state}} },
			wantError: errCallback,
		},
		{
			name:      "exchange fails",
			query:     func(state string) url.Values { return url.Values{"state": {state}, "code": {"c"}} },
			exchange:  errors.New("invalid_grant"),
			wantError: errCallback,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEnv(t)
			cookies, q := e.signIn(t)

			if tt.exchange != nil {
				e.provider.On("ExchangeCode", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
					Return(nil, tt.exchange)
			}

			rec := e.do(callbackRequest(tt.query(q.Get("state")), cookies))

			require.Equal(t, http.StatusFound, rec.Code)
			assert.Equal(t, LoginPath+"?error="+tt.wantError, rec.Header().Get("Location"))
			assert.NotContains(t, cookieMap(rec), e.sessions.CookieName())
		})
	}
}

func TestSignOut(t *testing.T) {
	e := newTestEnv(t)

	issue := httptest.NewRecorder()
	_, err := e.sessions.Issue(context.Background(), issue, session.Token{ID: "U1"})
	require.NoError(t, err)
	sessionCookie := cookieMap(issue)[e.sessions.CookieName()]

	req := httptest.NewRequest(http.MethodPost, "/auth/signout", nil)
	req.AddCookie(sessionCookie)
	rec := e.do(req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, LoginPath, rec.Header().Get("Location"))
	assert.Equal(t, -1, cookieMap(rec)[e.sessions.CookieName()].MaxAge)

	// replaying the old cookie resolves no session
	check := httptest.NewRequest(http.MethodGet, "/auth/session", nil)
	check.AddCookie(sessionCookie)
	sess := e.do(check)
	assert.JSONEq(t, `{}`, sess.Body.String())

	// signing out again is harmless
	again := e.do(httptest.NewRequest(http.MethodPost, "/auth/signout", nil))
	assert.Equal(t, http.StatusSeeOther, again.Code)
}

func TestSignOutRevokesLoadedToken(t *testing.T) {
	gin.SetMode(gin.TestMode)

	codec, err := session.NewCodec("handler-test-secret-handler-test-secret")
	require.NoError(t, err)
	sessions := session.NewManager(codec, session.NewMemoryStore(), session.Options{
		MaxAge:    time.Hour,
		UpdateAge: time.Hour,
	})

	issue := httptest.NewRecorder()
	tok, err := sessions.Issue(context.Background(), issue, session.Token{ID: "U1"})
	require.NoError(t, err)
	sessionCookie := cookieMap(issue)[sessions.CookieName()]

	h := NewHandler(provider.NewRegistry(new(mockProvider)), sessions, resolver.ProfileResolver{}, false)

	// the request carries no cookie: the handler must act on the token
	// already placed in the context
	r := gin.New()
	r.Use(func(c *gin.Context) {
		ctx := middleware.WithToken(c.Request.Context(), &tok)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	})
	h.RegisterRoutes(r)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/signout", nil))
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	check := httptest.NewRequest(http.MethodGet, "/", nil)
	check.AddCookie(sessionCookie)
	view, _ := sessions.Resolve(check)
	assert.Nil(t, view)
}

func TestSessionReadsLoadedView(t *testing.T) {
	e := newTestEnv(t)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		view := &session.View{User: &session.User{ID: "U9", Name: "Zed"}}
		c.Request = c.Request.WithContext(middleware.WithView(c.Request.Context(), view))
		c.Next()
	})
	NewHandler(provider.NewRegistry(e.provider), e.sessions, resolver.ProfileResolver{}, false).RegisterRoutes(r)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/session", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		User map[string]string `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, map[string]string{"id": "U9", "name": "Zed"}, body.User)
}
