package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/sumire/firstissues/internal/domain"
	"github.com/sumire/firstissues/internal/github"
)

const tracerName = "github.com/sumire/firstissues/internal/discovery"

// searchSort is GitHub's closest issue-level popularity ordering.
const searchSort = "reactions"

// IssueSearcher is the search endpoint of the GitHub gateway.
type IssueSearcher interface {
	SearchIssues(ctx context.Context, token string, p github.SearchParams) (*github.SearchResult, error)
}

// Planner fetches raw issues, relaxing the query until a page is full or
// the attempt ceiling is reached.
type Planner struct {
	search IssueSearcher
	policy PlannerPolicy
	now    func() time.Time
}

// PlannerOption configures a Planner.
type PlannerOption func(*Planner)

// WithClock replaces time.Now for the recency window.
func WithClock(now func() time.Time) PlannerOption {
	return func(p *Planner) {
		p.now = now
	}
}

// NewPlanner creates a Planner starting from the thresholds in policy.
func NewPlanner(search IssueSearcher, policy PlannerPolicy, opts ...PlannerOption) *Planner {
	p := &Planner{
		search: search,
		policy: policy,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Fetch runs the relaxation loop. Attempts are sequential; the last batch is
// returned even when short. A failed search aborts the whole fetch.
func (p *Planner) Fetch(ctx context.Context, req domain.DiscoveryRequest) ([]domain.RawIssue, error) {
	filters := FiltersFrom(req)
	state := p.policy.Initial(p.now())

	for {
		issues, err := p.attempt(ctx, req, filters, state)
		if err != nil {
			return nil, err
		}

		if Sufficient(issues, req.Limit) || p.policy.Exhausted(state) {
			slog.DebugContext(ctx, "issue search finished",
				"attempts", state.Attempt,
				"results", len(issues),
				"limit", req.Limit)
			return issues, nil
		}

		slog.DebugContext(ctx, "relaxing issue search",
			"attempt", state.Attempt,
			"results", len(issues),
			"limit", req.Limit)
		state = p.policy.Relax(state)
	}
}

func (p *Planner) attempt(ctx context.Context, req domain.DiscoveryRequest, f Filters, s QueryState) ([]domain.RawIssue, error) {
	query := BuildQuery(f, s)

	ctx, span := otel.Tracer(tracerName).Start(ctx, "discovery.search_attempt",
		trace.WithAttributes(
			attribute.Int("search.attempt", s.Attempt),
			attribute.String("search.query", query),
		))
	defer span.End()

	res, err := p.search.SearchIssues(ctx, req.AccessToken, github.SearchParams{
		Query:   query,
		Sort:    searchSort,
		Order:   "desc",
		Page:    req.Page,
		PerPage: req.Limit,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "search failed")
		return nil, fmt.Errorf("search attempt %d: %w", s.Attempt, err)
	}

	span.SetAttributes(attribute.Int("search.results", len(res.Issues)))
	return res.Issues, nil
}
