package handler

import (
	"crypto/sha256"
	"encoding/base64"

	"line-auth-web/internal/utils"

	"github.com/gin-gonic/gin"
)

const pkceCookieName = "__oauth_pkce"

func (h *Handler) generatePKCE(c *gin.Context) (verifier string, challenge string, err error) {
	verifier, err = utils.RandomString(32)
	if err != nil {
		return "", "", err
	}

	hash := sha256.Sum256([]byte(verifier))
	challenge = base64.RawURLEncoding.EncodeToString(hash[:])

	h.setFlowCookie(c, pkceCookieName, verifier)

	return verifier, challenge, nil
}

func getPKCEVerifier(c *gin.Context) string {
	return readFlowCookie(c, pkceCookieName)
}
