package discovery_test

import (
	"context"
	"errors"
	"fmt"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sumire/firstissues/internal/discovery"
	"github.com/sumire/firstissues/internal/domain"
	"github.com/sumire/firstissues/internal/github"
)

func rawIssues(n int) []domain.RawIssue {
	out := make([]domain.RawIssue, n)
	for i := range out {
		out[i] = domain.RawIssue{ID: int64(i + 1), Number: i + 1, Title: fmt.Sprintf("issue %d", i+1)}
	}
	return out
}

var _ = Describe("Planner", func() {
	var (
		ctx      context.Context
		searcher *mockSearcher
		planner  *discovery.Planner
		req      domain.DiscoveryRequest
	)

	now := time.Date(2024, time.July, 15, 0, 0, 0, 0, time.UTC)

	BeforeEach(func() {
		ctx = context.Background()
		searcher = &mockSearcher{}
		planner = discovery.NewPlanner(searcher, discovery.DefaultPlannerPolicy(), discovery.WithClock(func() time.Time { return now }))
		req = domain.DiscoveryRequest{
			AccessToken:        "gho_token",
			PreferredLanguages: "go",
			Page:               2,
			Limit:              10,
		}
	})

	It("stops after one attempt when the page is full", func() {
		searcher.searchFn = func(_ context.Context, token string, _ github.SearchParams) (*github.SearchResult, error) {
			Expect(token).To(Equal("gho_token"))
			return &github.SearchResult{Issues: rawIssues(10)}, nil
		}

		issues, err := planner.Fetch(ctx, req)

		Expect(err).NotTo(HaveOccurred())
		Expect(issues).To(HaveLen(10))
		calls := searcher.Calls()
		Expect(calls).To(HaveLen(1))
		Expect(calls[0].Page).To(Equal(2))
		Expect(calls[0].PerPage).To(Equal(10))
		Expect(calls[0].Order).To(Equal("desc"))
		Expect(calls[0].Query).To(ContainSubstring("language:go"))
	})

	It("relaxes exactly five times and returns the last batch when results stay short", func() {
		attempt := 0
		searcher.searchFn = func(context.Context, string, github.SearchParams) (*github.SearchResult, error) {
			attempt++
			return &github.SearchResult{Issues: rawIssues(attempt % 3)}, nil
		}

		issues, err := planner.Fetch(ctx, req)

		Expect(err).NotTo(HaveOccurred())
		Expect(issues).To(HaveLen(5 % 3))

		calls := searcher.Calls()
		Expect(calls).To(HaveLen(5))

		wantStars := []int{100, 80, 60, 40, 20}
		wantForks := []int{20, 15, 10, 5, 0}
		for i, c := range calls {
			Expect(c.Query).To(ContainSubstring(fmt.Sprintf("stars:>%d ", wantStars[i])))
			Expect(c.Query).To(ContainSubstring(fmt.Sprintf("forks:>%d ", wantForks[i])))
		}
		Expect(calls[0].Query).To(HaveSuffix("created:>2024-01-15"))
		Expect(calls[1].Query).To(HaveSuffix("created:>2023-01-15"))
		Expect(calls[4].Query).To(HaveSuffix("created:>2020-01-15"))
	})

	It("returns early once a relaxed attempt fills the page", func() {
		attempt := 0
		searcher.searchFn = func(context.Context, string, github.SearchParams) (*github.SearchResult, error) {
			attempt++
			if attempt == 3 {
				return &github.SearchResult{Issues: rawIssues(12)}, nil
			}
			return &github.SearchResult{}, nil
		}

		issues, err := planner.Fetch(ctx, req)

		Expect(err).NotTo(HaveOccurred())
		Expect(issues).To(HaveLen(12))
		Expect(searcher.Calls()).To(HaveLen(3))
	})

	It("aborts on a search failure", func() {
		attempt := 0
		searcher.searchFn = func(context.Context, string, github.SearchParams) (*github.SearchResult, error) {
			attempt++
			if attempt == 2 {
				return nil, &github.StatusError{StatusCode: 401, Method: "GET", URL: "/search/issues"}
			}
			return &github.SearchResult{}, nil
		}

		issues, err := planner.Fetch(ctx, req)

		Expect(issues).To(BeNil())
		Expect(errors.Is(err, domain.ErrUnauthorized)).To(BeTrue())
		Expect(err.Error()).To(ContainSubstring("search attempt 2"))
		Expect(searcher.Calls()).To(HaveLen(2))
	})
})
