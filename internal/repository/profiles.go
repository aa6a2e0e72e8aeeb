package repository

import (
	"context"
	"database/sql"

	"stagelink/internal/database"
	"stagelink/internal/models"
)

type ProfileRepository struct {
	db *database.DB
}

func NewProfileRepository(db *database.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

func (r *ProfileRepository) GetByUserID(ctx context.Context, userID string) (*models.Profile, error) {
	profile := &models.Profile{}
	query := `
		SELECT id, user_id, email, display_name, created_at
		FROM profiles
		WHERE user_id = $1`

	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&profile.ID,
		&profile.UserID,
		&profile.Email,
		&profile.DisplayName,
		&profile.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return profile, err
}

// GetByEmail supports ticket claiming for purchases made before signup.
func (r *ProfileRepository) GetByEmail(ctx context.Context, email string) (*models.Profile, error) {
	profile := &models.Profile{}
	query := `
		SELECT id, user_id, email, display_name, created_at
		FROM profiles
		WHERE email = $1`

	err := r.db.QueryRowContext(ctx, query, email).Scan(
		&profile.ID,
		&profile.UserID,
		&profile.Email,
		&profile.DisplayName,
		&profile.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return profile, err
}
