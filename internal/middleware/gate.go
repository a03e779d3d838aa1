package middleware

import "line-auth-web/internal/session"

// LoginPath is where the Access Gate sends anonymous visitors.
const LoginPath = "/login"

// Decision is the outcome of Authorize. The zero value is not meaningful;
// use Allow or Redirect.
type Decision struct {
	allow  bool
	target string
}

// Allow lets the request through to protected content.
func Allow() Decision { return Decision{allow: true} }

// Redirect sends the visitor to target instead of the protected content.
func Redirect(target string) Decision { return Decision{target: target} }

func (d Decision) Allowed() bool { return d.allow }

// Target is the redirect location; empty when allowed.
func (d Decision) Target() string { return d.target }

// Authorize is the Access Gate: only a resolved session with a user may see
// protected content.
func Authorize(v *session.View) Decision {
	if v == nil || v.User == nil {
		return Redirect(LoginPath)
	}
	return Allow()
}
