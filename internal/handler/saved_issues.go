package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sumire/firstissues/internal/domain"
	"github.com/sumire/firstissues/internal/service"
)

// SavedIssueService is the bookmark behavior used by SavedIssueHandler.
type SavedIssueService interface {
	Save(ctx context.Context, userID int64, in service.SaveInput) (*domain.SavedIssue, error)
	List(ctx context.Context, userID int64) ([]domain.SavedIssue, error)
	Remove(ctx context.Context, userID int64, issueID string) error
}

// SavedIssueHandler serves the caller's bookmarked issues.
type SavedIssueHandler struct {
	saved SavedIssueService
}

func NewSavedIssueHandler(saved SavedIssueService) *SavedIssueHandler {
	return &SavedIssueHandler{saved: saved}
}

type saveIssueRequest struct {
	IssueID     string   `json:"issueId" validate:"required,max=100"`
	Title       string   `json:"title" validate:"required,max=500"`
	URL         string   `json:"url" validate:"required,url"`
	Tags        []string `json:"tags" validate:"max=20,dive,max=50"`
	Description string   `json:"description" validate:"max=10000"`
}

// Create bookmarks an issue. Saving the same issue twice is a conflict.
func (h *SavedIssueHandler) Create(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}

	var body saveIssueRequest
	if err := c.Bind(&body); err != nil {
		return fmt.Errorf("%w: invalid request body", domain.ErrInvalidInput)
	}
	if err := c.Validate(&body); err != nil {
		return err
	}

	saved, err := h.saved.Save(c.Request().Context(), userID, service.SaveInput{
		IssueID:     body.IssueID,
		Title:       body.Title,
		URL:         body.URL,
		Tags:        body.Tags,
		Description: body.Description,
	})
	if err != nil {
		return err
	}

	return JSON(c, http.StatusCreated, saved)
}

// List returns the caller's bookmarks, newest first.
func (h *SavedIssueHandler) List(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}

	issues, err := h.saved.List(c.Request().Context(), userID)
	if err != nil {
		return err
	}

	return JSON(c, http.StatusOK, issues)
}

// Delete removes a bookmark by its issue ID.
func (h *SavedIssueHandler) Delete(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}

	if err := h.saved.Remove(c.Request().Context(), userID, c.Param("issueId")); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}
