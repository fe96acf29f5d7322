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

const classifySystemPrompt = "You classify GitHub issues for beginner developers. " +
	"Answer with exactly one word: Easy, Medium, or Challenging."

// Classifier assigns a difficulty tier to an issue. Labels decide when they
// can; otherwise the AI answer is used, cached per (title, body).
type Classifier struct {
	ai             ai.Completer
	cache          cache.Cache[domain.Difficulty]
	cacheNegatives bool
}

// NewClassifier creates a Classifier. With cacheNegatives the Medium
// fallback from a failed call is cached like a real answer.
func NewClassifier(completer ai.Completer, c cache.Cache[domain.Difficulty], cacheNegatives bool) *Classifier {
	return &Classifier{ai: completer, cache: c, cacheNegatives: cacheNegatives}
}

// Classify never fails; unknown answers and errors resolve to Medium.
func (c *Classifier) Classify(ctx context.Context, title, body string, labels []string) domain.Difficulty {
	switch {
	case hasLabel(labels, labelGoodFirstIssue):
		return domain.DifficultyEasy
	case hasLabel(labels, labelHelpWanted):
		return domain.DifficultyMedium
	}

	key := cache.ContentKey(title, body)
	if d, ok := c.cache.Get(ctx, key); ok {
		return d
	}

	d, err := c.ask(ctx, title, body)
	if err != nil {
		slog.WarnContext(ctx, "difficulty classification failed, defaulting to Medium",
			"title", logger.Truncate(title, 80), "error", err)
		d = domain.DifficultyMedium
	}
	if err == nil || c.cacheNegatives {
		c.cache.Set(ctx, key, d)
	}
	return d
}

func (c *Classifier) ask(ctx context.Context, title, body string) (domain.Difficulty, error) {
	if body == "" {
		body = "No description provided."
	}

	answer, err := c.ai.Complete(ctx, ai.Prompt{
		System:      classifySystemPrompt,
		User:        fmt.Sprintf("Title: %s\n\nBody: %s", title, body),
		MaxTokens:   10,
		Temperature: ai.Temp(0),
	})
	if err != nil {
		return "", err
	}
	return NormalizeDifficulty(answer)
}

// NormalizeDifficulty maps a free-text model answer to a tier.
func NormalizeDifficulty(answer string) (domain.Difficulty, error) {
	word := strings.Trim(strings.TrimSpace(answer), ".!\"'` \n")
	if word == "" {
		return "", fmt.Errorf("empty difficulty answer")
	}
	d, err := domain.ParseDifficulty(word)
	if err != nil || d == "" {
		return "", fmt.Errorf("unrecognised difficulty answer %q", answer)
	}
	return d, nil
}

func hasLabel(labels []string, want string) bool {
	for _, l := range labels {
		if strings.EqualFold(strings.TrimSpace(l), want) {
			return true
		}
	}
	return false
}
