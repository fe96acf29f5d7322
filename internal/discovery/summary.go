package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sumire/firstissues/internal/ai"
	"github.com/sumire/firstissues/internal/cache"
	"github.com/sumire/firstissues/internal/domain"
	"github.com/sumire/firstissues/internal/logger"
)

const (
	summarySystemPrompt = "You summarize GitHub issues. Give a clear and concise summary of the problem " +
		"and a suggested resolution. Keep it actionable and easy to understand for developers."
	debugTipsSystemPrompt = "You help developers debug GitHub issues. " +
		"Give clear, practical debugging tips for the following issue."
	descriptionSystemPrompt = "Summarize the following GitHub issue description for a beginner developer."

	noTipsAvailable = "No tips available."
)

// Summarizer generates issue synopses and debugging tips.
type Summarizer struct {
	ai             ai.Completer
	cache          cache.Cache[string]
	cacheNegatives bool
}

// NewSummarizer creates a Summarizer. With cacheNegatives a failed call
// caches SummaryUnavailable for that content.
func NewSummarizer(completer ai.Completer, c cache.Cache[string], cacheNegatives bool) *Summarizer {
	return &Summarizer{ai: completer, cache: c, cacheNegatives: cacheNegatives}
}

// Summarize returns a short synopsis, or domain.SummaryUnavailable.
func (s *Summarizer) Summarize(ctx context.Context, title, body string) string {
	key := cache.ContentKey(title, body)
	if v, ok := s.cache.Get(ctx, key); ok {
		return v
	}

	text, err := s.ai.Complete(ctx, ai.Prompt{
		System:      summarySystemPrompt,
		User:        fmt.Sprintf("Title: %s\n\nDescription: %s", title, body),
		MaxTokens:   200,
		Temperature: ai.Temp(0.3),
	})
	text = strings.TrimSpace(text)

	switch {
	case err != nil:
		slog.WarnContext(ctx, "summary generation failed", "title", logger.Truncate(title, 80), "error", err)
	case text == "":
		slog.WarnContext(ctx, "summary generation returned no text", "title", logger.Truncate(title, 80))
	default:
		s.cache.Set(ctx, key, text)
		return text
	}

	if s.cacheNegatives {
		s.cache.Set(ctx, key, domain.SummaryUnavailable)
	}
	return domain.SummaryUnavailable
}

// DebugTips asks for debugging advice. Unlike Summarize, failures are
// returned to the caller and nothing is cached.
func (s *Summarizer) DebugTips(ctx context.Context, title, body string) (string, error) {
	text, err := s.ai.Complete(ctx, ai.Prompt{
		System:      debugTipsSystemPrompt,
		User:        fmt.Sprintf("Title: %s\n\nDescription: %s", title, body),
		MaxTokens:   200,
		Temperature: ai.Temp(0.5),
	})
	if err != nil {
		return "", fmt.Errorf("generate debugging tips: %w: %w", domain.ErrUpstream, err)
	}
	if text = strings.TrimSpace(text); text == "" {
		return noTipsAvailable, nil
	}
	return text, nil
}

// SummarizeDescription summarizes free text supplied by the client.
func (s *Summarizer) SummarizeDescription(ctx context.Context, description string) (string, error) {
	text, err := s.ai.Complete(ctx, ai.Prompt{
		System:      descriptionSystemPrompt,
		User:        description,
		MaxTokens:   100,
		Temperature: ai.Temp(0.7),
	})
	if err != nil {
		return "", fmt.Errorf("summarize description: %w: %w", domain.ErrUpstream, err)
	}
	return strings.TrimSpace(text), nil
}
