package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/sumire/firstissues/internal/discovery"
	"github.com/sumire/firstissues/internal/domain"
)

const (
	defaultLimit = 10
	maxLimit     = 100
)

// Discoverer is the issue discovery behavior used by IssueHandler.
type Discoverer interface {
	Discover(ctx context.Context, req domain.DiscoveryRequest) (*discovery.Result, error)
	IssueDetail(ctx context.Context, token, repository string, number int) (*domain.EnrichedIssue, error)
	DebugTips(ctx context.Context, token, repository string, number int) (string, error)
	SummarizeDescription(ctx context.Context, description string) (string, error)
}

// GitHubTokens resolves the stored GitHub token of a user.
type GitHubTokens interface {
	GitHubToken(ctx context.Context, userID int64) (string, error)
}

// PreferenceReader reads stored discovery preferences.
type PreferenceReader interface {
	Get(ctx context.Context, userID int64) (*domain.UserPreference, error)
}

// IssueHandler serves issue discovery endpoints.
type IssueHandler struct {
	discovery   Discoverer
	tokens      GitHubTokens
	preferences PreferenceReader
}

func NewIssueHandler(d Discoverer, tokens GitHubTokens, preferences PreferenceReader) *IssueHandler {
	return &IssueHandler{
		discovery:   d,
		tokens:      tokens,
		preferences: preferences,
	}
}

type listIssuesQuery struct {
	PreferredLanguages  string `query:"preferredLanguages"`
	PreferredCategories string `query:"preferredCategories"`
	Difficulty          string `query:"difficulty"`
	Page                int    `query:"page" validate:"omitempty,min=1"`
	Limit               int    `query:"limit" validate:"omitempty,min=1,max=100"`
}

// List returns one ranked page of enriched issues.
func (h *IssueHandler) List(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}

	var q listIssuesQuery
	if err := c.Bind(&q); err != nil {
		return fmt.Errorf("%w: invalid query parameters", domain.ErrInvalidInput)
	}
	if err := c.Validate(&q); err != nil {
		return err
	}

	difficulty, err := domain.ParseDifficulty(q.Difficulty)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	token, err := h.tokens.GitHubToken(ctx, userID)
	if err != nil {
		return err
	}

	req := domain.DiscoveryRequest{
		AccessToken:         token,
		PreferredLanguages:  q.PreferredLanguages,
		PreferredCategories: q.PreferredCategories,
		Difficulty:          difficulty,
		Page:                q.Page,
		Limit:               q.Limit,
	}
	if req.Page == 0 {
		req.Page = 1
	}
	if req.Limit == 0 {
		req.Limit = defaultLimit
	}
	h.applyStoredPreferences(ctx, userID, &req)

	result, err := h.discovery.Discover(ctx, req)
	if err != nil {
		return err
	}

	return JSONList(c, http.StatusOK, result.Issues, PaginationMeta{
		Page:    req.Page,
		Limit:   req.Limit,
		HasNext: result.HasNext,
	})
}

// applyStoredPreferences fills languages and categories the query left empty.
func (h *IssueHandler) applyStoredPreferences(ctx context.Context, userID int64, req *domain.DiscoveryRequest) {
	if req.PreferredLanguages != "" && req.PreferredCategories != "" {
		return
	}

	pref, err := h.preferences.Get(ctx, userID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			slog.WarnContext(ctx, "failed to load stored preferences", "error", err)
		}
		return
	}

	if req.PreferredLanguages == "" {
		req.PreferredLanguages = pref.Languages.Joined()
	}
	if req.PreferredCategories == "" {
		req.PreferredCategories = pref.Categories.Joined()
	}
}

type issueRef struct {
	Number     string `param:"number"`
	Repository string `query:"repository" validate:"required"`
}

// Detail returns a single enriched issue.
func (h *IssueHandler) Detail(c echo.Context) error {
	token, repository, number, err := h.resolveIssue(c)
	if err != nil {
		return err
	}

	issue, err := h.discovery.IssueDetail(c.Request().Context(), token, repository, number)
	if err != nil {
		return err
	}

	return JSON(c, http.StatusOK, issue)
}

// DebugTips returns AI generated debugging advice for a single issue.
func (h *IssueHandler) DebugTips(c echo.Context) error {
	token, repository, number, err := h.resolveIssue(c)
	if err != nil {
		return err
	}

	tips, err := h.discovery.DebugTips(c.Request().Context(), token, repository, number)
	if err != nil {
		return err
	}

	return JSON(c, http.StatusOK, map[string]string{"tips": tips})
}

func (h *IssueHandler) resolveIssue(c echo.Context) (token, repository string, number int, err error) {
	userID, err := requireUserID(c)
	if err != nil {
		return "", "", 0, err
	}

	var ref issueRef
	if err := c.Bind(&ref); err != nil {
		return "", "", 0, fmt.Errorf("%w: invalid request parameters", domain.ErrInvalidInput)
	}
	if err := c.Validate(&ref); err != nil {
		return "", "", 0, err
	}

	number, err = strconv.Atoi(ref.Number)
	if err != nil || number < 1 {
		return "", "", 0, fmt.Errorf("%w: issue number must be a positive integer", domain.ErrInvalidInput)
	}

	token, err = h.tokens.GitHubToken(c.Request().Context(), userID)
	if err != nil {
		return "", "", 0, err
	}

	return token, ref.Repository, number, nil
}

type summaryRequest struct {
	Description string `json:"description" validate:"required"`
}

// Summarize returns a short summary of a client supplied description.
func (h *IssueHandler) Summarize(c echo.Context) error {
	var body summaryRequest
	if err := c.Bind(&body); err != nil {
		return fmt.Errorf("%w: invalid request body", domain.ErrInvalidInput)
	}
	if err := c.Validate(&body); err != nil {
		return err
	}

	summary, err := h.discovery.SummarizeDescription(c.Request().Context(), body.Description)
	if err != nil {
		return err
	}

	return JSON(c, http.StatusOK, map[string]string{"summary": summary})
}
