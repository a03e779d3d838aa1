package resolver

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"line-auth-web/internal/auth"
	"line-auth-web/internal/db"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// DBResolver maps provider identities to rows in users/identities and keeps
// the stored display name and avatar current on every login.
type DBResolver struct {
	db *db.DB
}

func NewDBResolver(db *db.DB) *DBResolver {
	return &DBResolver{db: db}
}

// uniqueViolation is the PostgreSQL SQLSTATE for a unique constraint failure.
const uniqueViolation = "23505"

func (r *DBResolver) Resolve(
	ctx context.Context,
	profile *auth.Profile,
) (string, error) {

	if profile == nil {
		return "", ErrNilProfile
	}

	// 1. Known identity: refresh profile fields
	userID, err := r.refresh(ctx, profile)
	if err == nil {
		return userID, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", err
	}

	// 2. First login: create user + identity mapping together
	userID, err = r.create(ctx, profile)
	if err == nil {
		return userID, nil
	}

	// A concurrent first login for the same identity won the insert.
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return r.refresh(ctx, profile)
	}
	return "", err
}

// refresh looks up an existing identity and updates the stored profile.
// It returns sql.ErrNoRows when the identity is unknown.
func (r *DBResolver) refresh(ctx context.Context, profile *auth.Profile) (string, error) {
	var userID uuid.UUID
	err := r.db.QueryRowContext(ctx, `
		SELECT user_id
		FROM identities
		WHERE provider = $1
		  AND provider_user_id = $2
	`,
		profile.Provider,
		profile.ID,
	).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", err
	}
	if err != nil {
		return "", fmt.Errorf("resolver: lookup identity: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		UPDATE users
		SET display_name = $2, picture_url = $3, email = $4, updated_at = NOW()
		WHERE id = $1
	`,
		userID,
		profile.Name,
		profile.Picture,
		profile.Email,
	)
	if err != nil {
		return "", fmt.Errorf("resolver: refresh user: %w", err)
	}
	return userID.String(), nil
}

func (r *DBResolver) create(ctx context.Context, profile *auth.Profile) (string, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("resolver: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var userID uuid.UUID
	err = tx.QueryRowContext(ctx, `
		INSERT INTO users (display_name, picture_url, email)
		VALUES ($1, $2, $3)
		RETURNING id
	`,
		profile.Name,
		profile.Picture,
		profile.Email,
	).Scan(&userID)
	if err != nil {
		return "", fmt.Errorf("resolver: create user: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO identities (user_id, provider, provider_user_id)
		VALUES ($1, $2, $3)
	`,
		userID,
		profile.Provider,
		profile.ID,
	)
	if err != nil {
		return "", fmt.Errorf("resolver: create identity: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("resolver: commit: %w", err)
	}

	return userID.String(), nil
}
