package domain

import (
	"fmt"
	"strings"
	"time"
)

// Difficulty is the expected effort tier of an issue.
type Difficulty string

const (
	DifficultyEasy        Difficulty = "Easy"
	DifficultyMedium      Difficulty = "Medium"
	DifficultyChallenging Difficulty = "Challenging"
)

// Defaults used when an enrichment step fails.
const (
	SummaryUnavailable = "Summary unavailable"
	UnknownRepository  = "Unknown Repository"
)

// ParseDifficulty accepts a difficulty name in any letter case.
// The empty string is valid and means "no difficulty filter".
func ParseDifficulty(s string) (Difficulty, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return "", nil
	case "easy":
		return DifficultyEasy, nil
	case "medium":
		return DifficultyMedium, nil
	case "challenging":
		return DifficultyChallenging, nil
	}
	return "", fmt.Errorf("%w: unknown difficulty %q", ErrInvalidInput, s)
}

// RawIssue is an issue as returned by the GitHub search API.
type RawIssue struct {
	ID            int64
	Number        int
	Title         string
	Body          *string
	Labels        []string
	HTMLURL       string
	RepositoryURL string
	CreatedAt     time.Time
}

// BodyText returns the body or the empty string when the issue has none.
func (i RawIssue) BodyText() string {
	if i.Body == nil {
		return ""
	}
	return *i.Body
}

// RepositoryMetadata holds popularity data for one repository.
type RepositoryMetadata struct {
	FullName string `json:"full_name"`
	Stars    int    `json:"stars"`
	Forks    int    `json:"forks"`
}

// EnrichedIssue is the response view of an issue after enrichment.
// Every field carries a real value or a documented default.
type EnrichedIssue struct {
	ID         int64      `json:"id"`
	Number     int        `json:"number"`
	Title      string     `json:"title"`
	URL        string     `json:"url"`
	Repository string     `json:"repository"`
	CreatedAt  time.Time  `json:"created_at"`
	Labels     []string   `json:"labels"`
	Stars      int        `json:"stars"`
	Forks      int        `json:"forks"`
	Summary    string     `json:"summary"`
	Difficulty Difficulty `json:"difficulty"`
}

// Popularity is the ranking score of an issue.
func (i EnrichedIssue) Popularity() int {
	return i.Stars + i.Forks
}

// DiscoveryRequest is the input of one issue discovery run.
type DiscoveryRequest struct {
	AccessToken         string
	PreferredLanguages  string
	PreferredCategories string
	Difficulty          Difficulty
	Page                int
	Limit               int
}
