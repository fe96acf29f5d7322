package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/sumire/firstissues/internal/domain"
)

// PreferenceRepository stores one preference row per user.
type PreferenceRepository struct {
	db *sqlx.DB
}

func NewPreferenceRepository(db *sqlx.DB) *PreferenceRepository {
	return &PreferenceRepository{db: db}
}

// FindByUserID returns the user's preferences or domain.ErrNotFound.
func (r *PreferenceRepository) FindByUserID(ctx context.Context, userID int64) (*domain.UserPreference, error) {
	var pref domain.UserPreference
	err := r.db.GetContext(ctx, &pref,
		`SELECT user_id, languages, categories, created_at, updated_at
		 FROM user_preferences WHERE user_id = $1`, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find preferences for user %d: %w", userID, err)
	}
	return &pref, nil
}

// Upsert replaces the user's preferences.
func (r *PreferenceRepository) Upsert(ctx context.Context, pref domain.UserPreference) (*domain.UserPreference, error) {
	var result domain.UserPreference
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO user_preferences (user_id, languages, categories)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (user_id)
		 DO UPDATE SET languages = EXCLUDED.languages,
		               categories = EXCLUDED.categories,
		               updated_at = NOW()
		 RETURNING user_id, languages, categories, created_at, updated_at`,
		pref.UserID, pref.Languages, pref.Categories,
	).StructScan(&result)
	if err != nil {
		return nil, fmt.Errorf("upsert preferences for user %d: %w", pref.UserID, err)
	}
	return &result, nil
}
