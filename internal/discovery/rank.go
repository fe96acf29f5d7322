package discovery

import (
	"cmp"
	"slices"

	"github.com/sumire/firstissues/internal/domain"
)

// RankPolicy sets the popularity floor and the backfill target.
type RankPolicy struct {
	PopularityFloor int
	MinResults      int
}

// DefaultRankPolicy keeps repositories with at least 5 stars and backfills
// up to 10 issues.
func DefaultRankPolicy() RankPolicy {
	return RankPolicy{PopularityFloor: 5, MinResults: 10}
}

// Rank keeps issues meeting the popularity floor, backfills from the rest in
// input order up to MinResults, and sorts by stars+forks descending. Ties
// keep input order. The input slice is not modified.
func Rank(issues []domain.EnrichedIssue, p RankPolicy) []domain.EnrichedIssue {
	selected := make([]domain.EnrichedIssue, 0, len(issues))
	var excluded []domain.EnrichedIssue

	for _, issue := range issues {
		if issue.Stars >= p.PopularityFloor {
			selected = append(selected, issue)
		} else {
			excluded = append(excluded, issue)
		}
	}

	for _, issue := range excluded {
		if len(selected) >= p.MinResults {
			break
		}
		selected = append(selected, issue)
	}

	slices.SortStableFunc(selected, func(a, b domain.EnrichedIssue) int {
		return cmp.Compare(b.Popularity(), a.Popularity())
	})
	return selected
}
