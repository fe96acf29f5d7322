package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"

	"github.com/sumire/firstissues/internal/domain"
)

const uniqueViolation = "23505"

// SavedIssueRepository handles a user's bookmarked issues.
type SavedIssueRepository struct {
	db *sqlx.DB
}

func NewSavedIssueRepository(db *sqlx.DB) *SavedIssueRepository {
	return &SavedIssueRepository{db: db}
}

// Create stores a saved issue. Saving the same issue twice is a conflict.
func (r *SavedIssueRepository) Create(ctx context.Context, issue domain.SavedIssue) (*domain.SavedIssue, error) {
	var result domain.SavedIssue
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO saved_issues (user_id, issue_id, title, url, tags, description)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, user_id, issue_id, title, url, tags, description, saved_at`,
		issue.UserID, issue.IssueID, issue.Title, issue.URL, issue.Tags, issue.Description,
	).StructScan(&result)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, domain.ErrConflict
		}
		return nil, fmt.Errorf("create saved issue: %w", err)
	}
	return &result, nil
}

// ListByUser returns the user's saved issues, newest first.
func (r *SavedIssueRepository) ListByUser(ctx context.Context, userID int64) ([]domain.SavedIssue, error) {
	issues := []domain.SavedIssue{}
	err := r.db.SelectContext(ctx, &issues,
		`SELECT id, user_id, issue_id, title, url, tags, description, saved_at
		 FROM saved_issues WHERE user_id = $1
		 ORDER BY saved_at DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list saved issues for user %d: %w", userID, err)
	}
	return issues, nil
}

// Delete removes a saved issue, returning domain.ErrNotFound when absent.
func (r *SavedIssueRepository) Delete(ctx context.Context, userID int64, issueID string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM saved_issues WHERE user_id = $1 AND issue_id = $2`, userID, issueID)
	if err != nil {
		return fmt.Errorf("delete saved issue %s: %w", issueID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete saved issue %s: %w", issueID, err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
