package handler

import (
	"net/http"
	"net/url"

	"line-auth-web/internal/auth/provider"
	"line-auth-web/internal/auth/resolver"
	"line-auth-web/internal/logger"
	"line-auth-web/internal/middleware"
	"line-auth-web/internal/session"

	"github.com/gin-gonic/gin"
)

const (
	LoginPath        = "/login"
	afterLoginPath   = "/"
	loginErrorParam  = "error"
	errAccessDenied  = "AccessDenied"
	errCallback      = "Callback"
	errConfiguration = "Configuration"
)

type Handler struct {
	providers     *provider.Registry
	sessions      *session.Manager
	resolver      resolver.Resolver
	secureCookies bool
}

func NewHandler(
	registry *provider.Registry,
	sessions *session.Manager,
	resolver resolver.Resolver,
	secureCookies bool,
) *Handler {
	return &Handler{
		providers:     registry,
		sessions:      sessions,
		resolver:      resolver,
		secureCookies: secureCookies,
	}
}

func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.GET("/auth/signin/:provider", h.signIn)
	r.GET("/auth/callback/:provider", h.callback)
	r.POST("/auth/signout", h.SignOut)
	r.GET("/auth/session", h.Session)
}

// failLogin sends the visitor back to the login page. No token is issued,
// so the visitor stays anonymous.
func (h *Handler) failLogin(c *gin.Context, code string) {
	h.clearFlowCookies(c)
	c.Redirect(http.StatusFound, LoginPath+"?"+url.Values{loginErrorParam: {code}}.Encode())
}

func (h *Handler) signIn(c *gin.Context) {
	providerName := c.Param("provider")

	p, err := h.providers.Get(providerName)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "unknown oauth provider",
		})
		return
	}

	state, err := h.generateState(c)
	if err != nil {
		h.failLogin(c, errConfiguration)
		return
	}
	nonce, err := h.generateNonce(c)
	if err != nil {
		h.failLogin(c, errConfiguration)
		return
	}
	_, codeChallenge, err := h.generatePKCE(c)
	if err != nil {
		h.failLogin(c, errConfiguration)
		return
	}

	c.Redirect(http.StatusFound, p.AuthCodeURL(state, nonce, codeChallenge))
}

func (h *Handler) callback(c *gin.Context) {
	providerName := c.Param("provider")

	p, err := h.providers.Get(providerName)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "unknown oauth provider",
		})
		return
	}

	if !validateState(c) {
		logger.Warn("oauth callback state mismatch", map[string]any{
			"provider": providerName,
			"ip":       c.ClientIP(),
		})
		h.failLogin(c, errCallback)
		return
	}

	// CASE 1: provider returned an error (e.g. consent denied)
	if errParam := c.Query("error"); errParam != "" {
		logger.Warn("oauth callback returned error", map[string]any{
			"provider": providerName,
			"error":    errParam,
			"desc":     c.Query("error_description"),
		})
		h.failLogin(c, errAccessDenied)
		return
	}

	// CASE 2: normal callback
	code := c.Query("code")
	codeVerifier := getPKCEVerifier(c)
	nonce := readFlowCookie(c, nonceCookieName)
	if code == "" || codeVerifier == "" || nonce == "" {
		logger.Error("oauth callback missing code or flow cookies", map[string]any{
			"provider":      providerName,
			"code_present":  code != "",
			"pkce_present":  codeVerifier != "",
			"nonce_present": nonce != "",
		})
		h.failLogin(c, errCallback)
		return
	}

	profile, err := p.ExchangeCode(c.Request.Context(), code, codeVerifier, nonce)
	if err != nil {
		logger.Error("oauth code exchange failed", map[string]any{
			"provider": providerName,
			"error":    err.Error(),
		})
		h.failLogin(c, errCallback)
		return
	}

	userID, err := h.resolver.Resolve(c.Request.Context(), profile)
	if err != nil {
		logger.Error("failed to resolve user", map[string]any{
			"provider": providerName,
			"error":    err.Error(),
		})
		h.failLogin(c, errCallback)
		return
	}

	resolved := *profile
	resolved.ID = userID

	h.clearFlowCookies(c)

	tok, err := h.sessions.Issue(c.Request.Context(), c.Writer, session.Enrich(session.Token{}, &resolved))
	if err != nil {
		logger.Error("failed to issue session", map[string]any{
			"error": err.Error(),
		})
		h.failLogin(c, errConfiguration)
		return
	}

	logger.Info("login succeeded", map[string]any{
		"provider": providerName,
		"user_id":  userID,
		"jti":      tok.TokenID(),
		"ip":       c.ClientIP(),
	})

	c.Redirect(http.StatusFound, afterLoginPath)
}

// SignOut revokes the current token (if any) and clears the cookie. It is
// idempotent: signing out without a session still lands on the login page.
// The token is the one middleware.GinLoadSession resolved for this request.
func (h *Handler) SignOut(c *gin.Context) {
	tok := middleware.GinToken(c)

	if err := h.sessions.Revoke(c.Request.Context(), c.Writer, tok); err != nil {
		logger.Error("failed to revoke session", map[string]any{
			"error": err.Error(),
		})
	}

	if tok != nil {
		logger.Info("logout", map[string]any{
			"user_id": tok.ID,
			"jti":     tok.TokenID(),
			"ip":      c.ClientIP(),
		})
	}

	c.Redirect(http.StatusSeeOther, LoginPath)
}

// Session returns the current Session View, or an empty object when the
// visitor is anonymous.
func (h *Handler) Session(c *gin.Context) {
	view := middleware.GinView(c)
	if view == nil {
		c.JSON(http.StatusOK, gin.H{})
		return
	}
	c.JSON(http.StatusOK, view)
}
