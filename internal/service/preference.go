package service

import (
	"context"
	"strings"

	"github.com/sumire/firstissues/internal/domain"
)

// PreferenceStore defines preference persistence consumed by PreferenceService.
type PreferenceStore interface {
	FindByUserID(ctx context.Context, userID int64) (*domain.UserPreference, error)
	Upsert(ctx context.Context, pref domain.UserPreference) (*domain.UserPreference, error)
}

// PreferenceService manages a user's language and category preferences.
type PreferenceService struct {
	store PreferenceStore
}

func NewPreferenceService(store PreferenceStore) *PreferenceService {
	return &PreferenceService{store: store}
}

// Get returns the stored preferences or domain.ErrNotFound.
func (s *PreferenceService) Get(ctx context.Context, userID int64) (*domain.UserPreference, error) {
	return s.store.FindByUserID(ctx, userID)
}

// Save replaces the preferences after trimming blanks and duplicates.
func (s *PreferenceService) Save(ctx context.Context, userID int64, languages, categories []string) (*domain.UserPreference, error) {
	return s.store.Upsert(ctx, domain.UserPreference{
		UserID:     userID,
		Languages:  normalizeList(languages),
		Categories: normalizeList(categories),
	})
}

// normalizeList trims entries and drops blanks and case-insensitive duplicates,
// keeping first occurrences in order.
func normalizeList(in []string) domain.StringList {
	out := domain.StringList{}
	seen := make(map[string]bool, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		key := strings.ToLower(v)
		if v == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, v)
	}
	return out
}
