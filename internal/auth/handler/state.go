package handler

import (
	"net/http"
	"time"

	"line-auth-web/internal/utils"

	"github.com/gin-gonic/gin"
)

const (
	stateCookieName = "__oauth_state"
	nonceCookieName = "__oauth_nonce"
	flowTTL         = 5 * time.Minute
)

// setFlowCookie stores a short-lived value needed to finish the OAuth round trip.
func (h *Handler) setFlowCookie(c *gin.Context, name, value string) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(flowTTL.Seconds()),
	})
}

func readFlowCookie(c *gin.Context, name string) string {
	cookie, err := c.Request.Cookie(name)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// clearFlowCookies drops state, nonce and PKCE cookies; each is single use.
func (h *Handler) clearFlowCookies(c *gin.Context) {
	for _, name := range []string{stateCookieName, nonceCookieName, pkceCookieName} {
		http.SetCookie(c.Writer, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			HttpOnly: true,
			Secure:   h.secureCookies,
			SameSite: http.SameSiteLaxMode,
			MaxAge:   -1,
		})
	}
}

func (h *Handler) generateState(c *gin.Context) (string, error) {
	state, err := utils.RandomString(32)
	if err != nil {
		return "", err
	}
	h.setFlowCookie(c, stateCookieName, state)
	return state, nil
}

func (h *Handler) generateNonce(c *gin.Context) (string, error) {
	nonce, err := utils.RandomString(32)
	if err != nil {
		return "", err
	}
	h.setFlowCookie(c, nonceCookieName, nonce)
	return nonce, nil
}

func validateState(c *gin.Context) bool {
	stateQuery := c.Query("state")
	if stateQuery == "" {
		return false
	}

	return readFlowCookie(c, stateCookieName) == stateQuery
}
