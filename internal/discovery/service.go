// Package discovery finds, enriches and ranks beginner-friendly GitHub issues.
package discovery

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sumire/firstissues/internal/domain"
	"github.com/sumire/firstissues/internal/logger"
)

// IssueFetcher loads a single issue from GitHub.
type IssueFetcher interface {
	Issue(ctx context.Context, token, repository string, number int) (*domain.RawIssue, error)
}

// Result is one page of ranked issues.
type Result struct {
	Issues []domain.EnrichedIssue
	// Fetched is the number of raw issues GitHub returned for the page.
	Fetched int
	HasNext bool
}

// Service composes the planner, enricher and ranker.
type Service struct {
	planner   *Planner
	enricher  *Enricher
	summaries *Summarizer
	issues    IssueFetcher
	rank      RankPolicy
}

// NewService wires the discovery pipeline.
func NewService(planner *Planner, enricher *Enricher, summaries *Summarizer, issues IssueFetcher, rank RankPolicy) *Service {
	return &Service{
		planner:   planner,
		enricher:  enricher,
		summaries: summaries,
		issues:    issues,
		rank:      rank,
	}
}

// Discover fetches, enriches and ranks one page of issues. Only gateway and
// authentication failures are returned.
func (s *Service) Discover(ctx context.Context, req domain.DiscoveryRequest) (*Result, error) {
	if req.AccessToken == "" {
		return nil, fmt.Errorf("discover issues: missing github token: %w", domain.ErrUnauthorized)
	}
	if req.Page < 1 || req.Limit < 1 {
		return nil, fmt.Errorf("%w: page and limit must be at least 1", domain.ErrInvalidInput)
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{Component: "discovery"})

	raw, err := s.planner.Fetch(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("discover issues: %w", err)
	}

	enriched := s.enricher.Enrich(ctx, raw, req.AccessToken)
	ranked := Rank(enriched, s.rank)

	slog.InfoContext(ctx, "issues discovered",
		"fetched", len(raw),
		"returned", len(ranked),
		"page", req.Page,
		"limit", req.Limit)

	return &Result{
		Issues:  ranked,
		Fetched: len(raw),
		HasNext: len(raw) >= req.Limit,
	}, nil
}

// IssueDetail loads and enriches a single issue.
func (s *Service) IssueDetail(ctx context.Context, token, repository string, number int) (*domain.EnrichedIssue, error) {
	raw, err := s.loadIssue(ctx, token, repository, number)
	if err != nil {
		return nil, err
	}

	enriched := s.enricher.Enrich(ctx, []domain.RawIssue{*raw}, token)
	return &enriched[0], nil
}

// DebugTips generates debugging advice for a single issue.
func (s *Service) DebugTips(ctx context.Context, token, repository string, number int) (string, error) {
	raw, err := s.loadIssue(ctx, token, repository, number)
	if err != nil {
		return "", err
	}
	return s.summaries.DebugTips(ctx, raw.Title, raw.BodyText())
}

// SummarizeDescription summarizes free text supplied by the client.
func (s *Service) SummarizeDescription(ctx context.Context, description string) (string, error) {
	if description == "" {
		return "", fmt.Errorf("%w: description is required", domain.ErrInvalidInput)
	}
	return s.summaries.SummarizeDescription(ctx, description)
}

func (s *Service) loadIssue(ctx context.Context, token, repository string, number int) (*domain.RawIssue, error) {
	if token == "" {
		return nil, fmt.Errorf("load issue: missing github token: %w", domain.ErrUnauthorized)
	}
	if number < 1 {
		return nil, fmt.Errorf("%w: issue number must be positive", domain.ErrInvalidInput)
	}
	raw, err := s.issues.Issue(ctx, token, repository, number)
	if err != nil {
		return nil, fmt.Errorf("load issue: %w", err)
	}
	return raw, nil
}
