package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sumire/firstissues/internal/domain"
)

// PreferenceService is the preference behavior used by PreferenceHandler.
type PreferenceService interface {
	PreferenceReader
	Save(ctx context.Context, userID int64, languages, categories []string) (*domain.UserPreference, error)
}

// PreferenceHandler serves the stored discovery preferences.
type PreferenceHandler struct {
	preferences PreferenceService
}

func NewPreferenceHandler(preferences PreferenceService) *PreferenceHandler {
	return &PreferenceHandler{preferences: preferences}
}

type savePreferencesRequest struct {
	Languages  []string `json:"languages" validate:"max=20,dive,max=50"`
	Categories []string `json:"categories" validate:"max=20,dive,max=50"`
}

// Get returns the caller's preferences, or 404 when none are stored.
func (h *PreferenceHandler) Get(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}

	pref, err := h.preferences.Get(c.Request().Context(), userID)
	if err != nil {
		return err
	}

	return JSON(c, http.StatusOK, pref)
}

// Save creates or replaces the caller's preferences.
func (h *PreferenceHandler) Save(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}

	var body savePreferencesRequest
	if err := c.Bind(&body); err != nil {
		return fmt.Errorf("%w: invalid request body", domain.ErrInvalidInput)
	}
	if err := c.Validate(&body); err != nil {
		return err
	}

	pref, err := h.preferences.Save(c.Request().Context(), userID, body.Languages, body.Categories)
	if err != nil {
		return err
	}

	return JSON(c, http.StatusOK, pref)
}
