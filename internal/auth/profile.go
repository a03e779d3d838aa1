package auth

// Profile is the normalized identity returned by an OAuth provider after a
// successful login. It carries facts only, no decisions, and is never
// persisted as-is; the session layer copies the fields it needs.
type Profile struct {
	Provider string // e.g. "line"
	ID       string // provider-scoped unique user identifier (sub)
	Name     string
	Email    string
	Picture  string // avatar URL
}
