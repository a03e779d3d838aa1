package resolver

import (
	"context"
	"errors"

	"line-auth-web/internal/auth"
)

var ErrNilProfile = errors.New("profile is nil")

// Resolver determines which application user a provider profile belongs to.
// The returned id is what the session token carries as the user id.
type Resolver interface {
	Resolve(
		ctx context.Context,
		profile *auth.Profile,
	) (userID string, err error)
}

// ProfileResolver uses the provider-scoped id as the user id. It is the
// default when no database is configured.
type ProfileResolver struct{}

func (ProfileResolver) Resolve(_ context.Context, profile *auth.Profile) (string, error) {
	if profile == nil {
		return "", ErrNilProfile
	}
	if profile.ID == "" {
		return "", errors.New("profile has no id")
	}
	return profile.ID, nil
}
