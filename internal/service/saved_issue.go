package service

import (
	"context"
	"strings"

	"github.com/sumire/firstissues/internal/domain"
)

// SavedIssueStore defines saved issue persistence consumed by SavedIssueService.
type SavedIssueStore interface {
	Create(ctx context.Context, issue domain.SavedIssue) (*domain.SavedIssue, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.SavedIssue, error)
	Delete(ctx context.Context, userID int64, issueID string) error
}

// SavedIssueService manages a user's bookmarked issues.
type SavedIssueService struct {
	store SavedIssueStore
}

func NewSavedIssueService(store SavedIssueStore) *SavedIssueService {
	return &SavedIssueService{store: store}
}

// SaveInput is a bookmark request.
type SaveInput struct {
	IssueID     string
	Title       string
	URL         string
	Tags        []string
	Description string
}

func (s *SavedIssueService) Save(ctx context.Context, userID int64, in SaveInput) (*domain.SavedIssue, error) {
	return s.store.Create(ctx, domain.SavedIssue{
		UserID:      userID,
		IssueID:     strings.TrimSpace(in.IssueID),
		Title:       strings.TrimSpace(in.Title),
		URL:         strings.TrimSpace(in.URL),
		Tags:        normalizeList(in.Tags),
		Description: in.Description,
	})
}

func (s *SavedIssueService) List(ctx context.Context, userID int64) ([]domain.SavedIssue, error) {
	return s.store.ListByUser(ctx, userID)
}

func (s *SavedIssueService) Remove(ctx context.Context, userID int64, issueID string) error {
	return s.store.Delete(ctx, userID, issueID)
}
