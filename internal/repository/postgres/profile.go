package postgres

import (
	"context"

	"github.com/abdulhamidalthaljy/CareConnect/internal/model"
	"github.com/abdulhamidalthaljy/CareConnect/internal/repository"
)

type profileRepository struct {
	BaseRepository
}

func NewProfileRepository(base BaseRepository) repository.ProfileRepository {
	return &profileRepository{base}
}

func (r *profileRepository) Get(ctx context.Context, userID int64) (*model.Profile, error) {
	query := `
		SELECT id, user_id, full_name, address, allergies, health_history
		FROM patient_profiles
		WHERE user_id = $1
	`

	var profile model.Profile
	if err := r.db.GetContext(ctx, &profile, query, userID); err != nil {
		return nil, wrap("get profile", err)
	}
	return &profile, nil
}

func (r *profileRepository) Upsert(ctx context.Context, profile *model.Profile) error {
	query := `
		INSERT INTO patient_profiles (user_id, full_name, address, allergies, health_history)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE SET
			full_name = EXCLUDED.full_name,
			address = EXCLUDED.address,
			allergies = EXCLUDED.allergies,
			health_history = EXCLUDED.health_history
		RETURNING id
	`

	row := r.db.QueryRowxContext(ctx, query,
		profile.UserID,
		profile.FullName,
		profile.Address,
		profile.Allergies,
		profile.HealthHistory,
	)
	return wrap("upsert profile", row.Scan(&profile.ID))
}
