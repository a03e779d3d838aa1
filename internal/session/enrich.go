package session

import "line-auth-web/internal/auth"

// Enrich is the single point where provider data enters the token. With a
// nil profile (a refresh pass, no fresh login) the token is returned as-is.
func Enrich(t Token, p *auth.Profile) Token {
	if p == nil {
		return t
	}

	t.ID = p.ID
	t.Subject = p.ID
	t.Picture = p.Picture
	t.Name = p.Name
	t.Email = p.Email

	return t
}

// Project is the single point where token data leaves for the page layer.
// Views without a user are left untouched.
func Project(v View, t Token) View {
	if v.User == nil {
		return v
	}

	u := *v.User
	u.ID = t.ID
	u.Image = t.Picture
	v.User = &u

	return v
}

// skeleton builds the default view from the standard claims before Project
// applies the application fields.
func skeleton(t Token) View {
	v := View{
		User: &User{
			Name:  t.Name,
			Email: t.Email,
		},
	}
	if t.ExpiresAt != nil {
		v.Expires = t.ExpiresAt.Time
	}
	return v
}
