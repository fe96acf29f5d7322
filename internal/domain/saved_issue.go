package domain

import "time"

// SavedIssue is an issue a user bookmarked for later.
type SavedIssue struct {
	ID          int64      `json:"id" db:"id"`
	UserID      int64      `json:"user_id" db:"user_id"`
	IssueID     string     `json:"issue_id" db:"issue_id"`
	Title       string     `json:"title" db:"title"`
	URL         string     `json:"url" db:"url"`
	Tags        StringList `json:"tags" db:"tags"`
	Description string     `json:"description" db:"description"`
	SavedAt     time.Time  `json:"saved_at" db:"saved_at"`
}
