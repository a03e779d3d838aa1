package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token is the durable, client-held session record. It is sealed into the
// session cookie by Codec and never stored server-side.
type Token struct {
	ID      string `json:"id,omitempty"` // application user id
	Name    string `json:"name,omitempty"`
	Email   string `json:"email,omitempty"`
	Picture string `json:"picture,omitempty"`

	jwt.RegisteredClaims
}

// TokenID returns the jti used for revocation.
func (t Token) TokenID() string {
	return t.RegisteredClaims.ID
}

// View is the request-scoped projection of a Token handed to rendering code.
// A nil *View means no session could be resolved.
type View struct {
	User    *User     `json:"user,omitempty"`
	Expires time.Time `json:"expires"`
}

// User is the user portion of a View. Empty strings mean "not provided".
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Image string `json:"image,omitempty"`
}
