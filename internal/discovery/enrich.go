package discovery

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/sumire/firstissues/internal/domain"
)

// DifficultyClassifier resolves a difficulty tier without failing.
type DifficultyClassifier interface {
	Classify(ctx context.Context, title, body string, labels []string) domain.Difficulty
}

// RepositoryLookup returns popularity metadata for a repository URL.
type RepositoryLookup interface {
	Get(ctx context.Context, repositoryURL, token string) (domain.RepositoryMetadata, error)
}

// IssueSummarizer produces a synopsis without failing.
type IssueSummarizer interface {
	Summarize(ctx context.Context, title, body string) string
}

var unknownRepository = domain.RepositoryMetadata{FullName: domain.UnknownRepository}

// Enricher turns raw issues into enriched issues.
type Enricher struct {
	classifier  DifficultyClassifier
	repos       RepositoryLookup
	summaries   IssueSummarizer
	concurrency int
}

// NewEnricher creates an Enricher processing at most concurrency issues at once.
func NewEnricher(classifier DifficultyClassifier, repos RepositoryLookup, summaries IssueSummarizer, concurrency int) *Enricher {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Enricher{
		classifier:  classifier,
		repos:       repos,
		summaries:   summaries,
		concurrency: concurrency,
	}
}

// Enrich returns one enriched issue per input, in input order, once every
// issue is done. Step failures fall back to defaults and never fail the batch.
func (e *Enricher) Enrich(ctx context.Context, issues []domain.RawIssue, token string) []domain.EnrichedIssue {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "discovery.enrich")
	span.SetAttributes(attribute.Int("enrich.issues", len(issues)))
	defer span.End()

	out := make([]domain.EnrichedIssue, len(issues))

	var g errgroup.Group
	g.SetLimit(e.concurrency)
	for i, issue := range issues {
		g.Go(func() error {
			out[i] = e.enrichOne(ctx, issue, token)
			return nil
		})
	}
	_ = g.Wait()

	return out
}

func (e *Enricher) enrichOne(ctx context.Context, issue domain.RawIssue, token string) domain.EnrichedIssue {
	body := issue.BodyText()

	var (
		wg         sync.WaitGroup
		difficulty = domain.DifficultyMedium
		repo       = unknownRepository
		summary    = domain.SummaryUnavailable
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		difficulty = withFallback(ctx, "classify", domain.DifficultyMedium,
			func(ctx context.Context) (domain.Difficulty, error) {
				return e.classifier.Classify(ctx, issue.Title, body, issue.Labels), nil
			})
	}()
	go func() {
		defer wg.Done()
		repo = withFallback(ctx, "repository", unknownRepository,
			func(ctx context.Context) (domain.RepositoryMetadata, error) {
				return e.repos.Get(ctx, issue.RepositoryURL, token)
			})
	}()
	if body != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			summary = withFallback(ctx, "summary", domain.SummaryUnavailable,
				func(ctx context.Context) (string, error) {
					return e.summaries.Summarize(ctx, issue.Title, body), nil
				})
		}()
	}
	wg.Wait()

	if repo.FullName == "" {
		repo.FullName = domain.UnknownRepository
	}
	if difficulty == "" {
		difficulty = domain.DifficultyMedium
	}
	if summary == "" {
		summary = domain.SummaryUnavailable
	}

	labels := make([]string, len(issue.Labels))
	copy(labels, issue.Labels)

	return domain.EnrichedIssue{
		ID:         issue.ID,
		Number:     issue.Number,
		Title:      issue.Title,
		URL:        issue.HTMLURL,
		Repository: repo.FullName,
		CreatedAt:  issue.CreatedAt,
		Labels:     labels,
		Stars:      repo.Stars,
		Forks:      repo.Forks,
		Summary:    summary,
		Difficulty: difficulty,
	}
}
