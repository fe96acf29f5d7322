package discovery

import (
	"fmt"
	"strings"
	"time"

	"github.com/sumire/firstissues/internal/domain"
)

const (
	labelGoodFirstIssue = "good first issue"
	labelHelpWanted     = "help wanted"
)

// PlannerPolicy controls the search relaxation loop.
type PlannerPolicy struct {
	InitialStars      int
	InitialForks      int
	StarStep          int
	ForkStep          int
	RecencyMonths     int
	RecencyStepMonths int
	MaxAttempts       int
}

// DefaultPlannerPolicy starts at stars>100, forks>20 within six months and
// loosens by 20 stars, 5 forks and one year per attempt, five attempts max.
func DefaultPlannerPolicy() PlannerPolicy {
	return PlannerPolicy{
		InitialStars:      100,
		InitialForks:      20,
		StarStep:          20,
		ForkStep:          5,
		RecencyMonths:     6,
		RecencyStepMonths: 12,
		MaxAttempts:       5,
	}
}

// QueryState is the mutable part of the search query for one attempt.
type QueryState struct {
	Stars        int
	Forks        int
	CreatedAfter time.Time
	Attempt      int
}

// Initial returns the strictest state, for attempt 1.
func (p PlannerPolicy) Initial(now time.Time) QueryState {
	return QueryState{
		Stars:        p.InitialStars,
		Forks:        p.InitialForks,
		CreatedAfter: now.AddDate(0, -p.RecencyMonths, 0),
		Attempt:      1,
	}
}

// Relax returns the state for the next attempt. Thresholds never go below
// zero; the date window keeps widening after they do.
func (p PlannerPolicy) Relax(s QueryState) QueryState {
	return QueryState{
		Stars:        max(0, s.Stars-p.StarStep),
		Forks:        max(0, s.Forks-p.ForkStep),
		CreatedAfter: s.CreatedAfter.AddDate(0, -p.RecencyStepMonths, 0),
		Attempt:      s.Attempt + 1,
	}
}

// Exhausted reports whether s is the last attempt allowed.
func (p PlannerPolicy) Exhausted(s QueryState) bool {
	return s.Attempt >= p.MaxAttempts
}

// Sufficient reports whether a page of results satisfies the requested limit.
func Sufficient[T any](results []T, limit int) bool {
	return len(results) >= limit
}

// Filters are the user-driven, attempt-independent parts of a query.
type Filters struct {
	Difficulty domain.Difficulty
	Languages  []string
	Categories []string
}

// FiltersFrom extracts filters from a request; languages and categories
// are comma-separated lists.
func FiltersFrom(req domain.DiscoveryRequest) Filters {
	return Filters{
		Difficulty: req.Difficulty,
		Languages:  SplitList(req.PreferredLanguages),
		Categories: SplitList(req.PreferredCategories),
	}
}

// SplitList splits a comma-separated list, dropping blanks.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// BuildQuery renders filters and state as a GitHub issue search query.
func BuildQuery(f Filters, s QueryState) string {
	parts := []string{"is:issue", "is:open"}

	if label := difficultyLabel(f.Difficulty); label != "" {
		parts = append(parts, "label:"+quote(label))
	}
	for _, lang := range f.Languages {
		parts = append(parts, "language:"+quote(strings.ToLower(lang)))
	}
	if len(f.Categories) > 0 {
		quoted := make([]string, len(f.Categories))
		for i, c := range f.Categories {
			quoted[i] = quote(c)
		}
		parts = append(parts, "label:"+strings.Join(quoted, ","))
	}

	parts = append(parts,
		fmt.Sprintf("stars:>%d", s.Stars),
		fmt.Sprintf("forks:>%d", s.Forks),
		"created:>"+s.CreatedAfter.Format("2006-01-02"),
	)
	return strings.Join(parts, " ")
}

// difficultyLabel maps a difficulty filter to its conventional label.
// No filter behaves like Easy.
func difficultyLabel(d domain.Difficulty) string {
	switch d {
	case "", domain.DifficultyEasy:
		return labelGoodFirstIssue
	case domain.DifficultyMedium:
		return labelHelpWanted
	default:
		return ""
	}
}

func quote(s string) string {
	s = strings.ReplaceAll(s, `"`, "")
	if strings.ContainsAny(s, " \t") {
		return `"` + s + `"`
	}
	return s
}
