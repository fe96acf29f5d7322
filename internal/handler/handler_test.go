package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"

	"github.com/labstack/echo/v4"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sumire/firstissues/internal/discovery"
	"github.com/sumire/firstissues/internal/domain"
	"github.com/sumire/firstissues/internal/handler"
	"github.com/sumire/firstissues/internal/service"
)

type envelope struct {
	Data  json.RawMessage         `json:"data"`
	Meta  *handler.PaginationMeta `json:"meta"`
	Error *handler.APIError       `json:"error"`
}

var _ = Describe("Handlers", func() {
	var (
		e           *echo.Echo
		auth        *mockAuthService
		issues      *mockDiscoverer
		tokens      *mockTokens
		preferences *mockPreferences
		saved       *mockSavedIssues
	)

	BeforeEach(func() {
		auth = &mockAuthService{}
		issues = &mockDiscoverer{}
		tokens = &mockTokens{}
		preferences = &mockPreferences{}
		saved = &mockSavedIssues{}

		validator := &mockTokenValidator{validateFn: func(token string) (int64, error) {
			if token == "good" {
				return 7, nil
			}
			return 0, errors.New("bad token")
		}}

		e = echo.New()
		e.Validator = handler.NewAppValidator()
		e.HTTPErrorHandler = handler.HTTPErrorHandler
		e.Use(handler.RequestLogger())

		authHandler := handler.NewAuthHandler(auth)
		issueHandler := handler.NewIssueHandler(issues, tokens, preferences)
		prefHandler := handler.NewPreferenceHandler(preferences)
		savedHandler := handler.NewSavedIssueHandler(saved)

		api := e.Group("/api")
		api.GET("/auth/github", authHandler.GitHubRedirect)
		api.GET("/auth/github/callback", authHandler.GitHubCallback)
		api.POST("/auth/refresh", authHandler.Refresh)

		protected := api.Group("", handler.JWTAuth(validator))
		protected.GET("/auth/me", authHandler.Me)
		protected.GET("/profile", authHandler.Profile)
		protected.GET("/issues", issueHandler.List)
		protected.GET("/issues/:number", issueHandler.Detail)
		protected.GET("/issues/:number/debug-tips", issueHandler.DebugTips)
		protected.POST("/ai/summary", issueHandler.Summarize)
		protected.GET("/preferences", prefHandler.Get)
		protected.POST("/preferences", prefHandler.Save)
		protected.GET("/saved-issues", savedHandler.List)
		protected.POST("/saved-issues", savedHandler.Create)
		protected.DELETE("/saved-issues/:issueId", savedHandler.Delete)
	})

	do := func(method, path string, body any) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		if body != nil {
			Expect(json.NewEncoder(&buf).Encode(body)).To(Succeed())
		}
		req := httptest.NewRequest(method, path, &buf)
		req.Header.Set("Authorization", "Bearer good")
		if body != nil {
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		}
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec
	}

	decode := func(rec *httptest.ResponseRecorder) envelope {
		var env envelope
		Expect(json.Unmarshal(rec.Body.Bytes(), &env)).To(Succeed())
		return env
	}

	Describe("authentication", func() {
		It("rejects requests without a bearer token", func() {
			req := httptest.NewRequest(http.MethodGet, "/api/issues", nil)
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			Expect(rec.Code).To(Equal(http.StatusUnauthorized))
			Expect(decode(rec).Error.Code).To(Equal("unauthorized"))
		})

		It("rejects invalid tokens", func() {
			req := httptest.NewRequest(http.MethodGet, "/api/issues", nil)
			req.Header.Set("Authorization", "Bearer forged")
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			Expect(rec.Code).To(Equal(http.StatusUnauthorized))
		})

		It("redirects to GitHub and sets a state cookie", func() {
			rec := do(http.MethodGet, "/api/auth/github", nil)

			Expect(rec.Code).To(Equal(http.StatusTemporaryRedirect))
			cookies := rec.Result().Cookies()
			Expect(cookies).To(HaveLen(1))
			Expect(cookies[0].Name).To(Equal("oauth_state"))
			Expect(rec.Header().Get("Location")).To(HaveSuffix("state=" + cookies[0].Value))
		})

		It("rejects a callback with a mismatched state", func() {
			req := httptest.NewRequest(http.MethodGet, "/api/auth/github/callback?state=a&code=c", nil)
			req.AddCookie(&http.Cookie{Name: "oauth_state", Value: "b"})
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})

		It("completes the callback with a matching state", func() {
			auth.callbackFn = func(_ context.Context, code string) (*domain.User, *service.TokenPair, error) {
				Expect(code).To(Equal("c"))
				return &domain.User{ID: 7}, &service.TokenPair{AccessToken: "a", RefreshToken: "r"}, nil
			}
			req := httptest.NewRequest(http.MethodGet, "/api/auth/github/callback?state=s&code=c", nil)
			req.AddCookie(&http.Cookie{Name: "oauth_state", Value: "s"})
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(rec.Body.String()).To(ContainSubstring(`"refresh_token":"r"`))
		})

		It("requires a refresh token", func() {
			rec := do(http.MethodPost, "/api/auth/refresh", map[string]string{})

			Expect(rec.Code).To(Equal(http.StatusBadRequest))
			Expect(decode(rec).Error.Code).To(Equal("validation_error"))
		})

		It("returns the GitHub profile", func() {
			auth.profileFn = func(_ context.Context, userID int64) (*domain.Profile, error) {
				Expect(userID).To(Equal(int64(7)))
				return &domain.Profile{Username: "octo", PublicRepos: 3}, nil
			}

			rec := do(http.MethodGet, "/api/profile", nil)

			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(string(decode(rec).Data)).To(ContainSubstring(`"username":"octo"`))
		})
	})

	Describe("GET /api/issues", func() {
		It("applies defaults and returns page metadata", func() {
			issues.discoverFn = func(_ context.Context, req domain.DiscoveryRequest) (*discovery.Result, error) {
				Expect(req.AccessToken).To(Equal("gho_token"))
				Expect(req.Page).To(Equal(1))
				Expect(req.Limit).To(Equal(10))
				Expect(req.Difficulty).To(Equal(domain.DifficultyEasy))
				Expect(req.PreferredLanguages).To(Equal("go"))
				return &discovery.Result{
					Issues:  []domain.EnrichedIssue{{ID: 1, Title: "Fix docs", Difficulty: domain.DifficultyEasy}},
					HasNext: true,
				}, nil
			}

			rec := do(http.MethodGet, "/api/issues?preferredLanguages=go&difficulty=easy", nil)

			Expect(rec.Code).To(Equal(http.StatusOK))
			env := decode(rec)
			Expect(env.Meta).To(Equal(&handler.PaginationMeta{Page: 1, Limit: 10, HasNext: true}))
			var got []domain.EnrichedIssue
			Expect(json.Unmarshal(env.Data, &got)).To(Succeed())
			Expect(got).To(HaveLen(1))
			Expect(got[0].Title).To(Equal("Fix docs"))
		})

		It("fills missing filters from stored preferences", func() {
			preferences.getFn = func(context.Context, int64) (*domain.UserPreference, error) {
				return &domain.UserPreference{
					Languages:  domain.StringList{"rust", "go"},
					Categories: domain.StringList{"docs"},
				}, nil
			}
			issues.discoverFn = func(_ context.Context, req domain.DiscoveryRequest) (*discovery.Result, error) {
				Expect(req.PreferredLanguages).To(Equal("python"))
				Expect(req.PreferredCategories).To(Equal("docs"))
				return &discovery.Result{Issues: []domain.EnrichedIssue{}}, nil
			}

			rec := do(http.MethodGet, "/api/issues?preferredLanguages=python", nil)

			Expect(rec.Code).To(Equal(http.StatusOK))
		})

		It("rejects an unknown difficulty", func() {
			rec := do(http.MethodGet, "/api/issues?difficulty=expert", nil)

			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})

		It("rejects an oversized limit", func() {
			rec := do(http.MethodGet, "/api/issues?limit=500", nil)

			Expect(rec.Code).To(Equal(http.StatusBadRequest))
			Expect(decode(rec).Error.Details[0].Field).To(Equal("limit"))
			Expect(decode(rec).Error.Details[0].Message).To(ContainSubstring("max=100"))
		})

		It("is unauthorized when no GitHub token is stored", func() {
			tokens.tokenFn = func(context.Context, int64) (string, error) {
				return "", domain.ErrUnauthorized
			}

			rec := do(http.MethodGet, "/api/issues", nil)

			Expect(rec.Code).To(Equal(http.StatusUnauthorized))
		})

		It("maps gateway failures to 502", func() {
			issues.discoverFn = func(context.Context, domain.DiscoveryRequest) (*discovery.Result, error) {
				return nil, domain.ErrUpstream
			}

			rec := do(http.MethodGet, "/api/issues", nil)

			Expect(rec.Code).To(Equal(http.StatusBadGateway))
			Expect(decode(rec).Error.Code).To(Equal("upstream_error"))
		})
	})

	Describe("single issue", func() {
		It("returns the enriched issue", func() {
			issues.detailFn = func(_ context.Context, token, repository string, number int) (*domain.EnrichedIssue, error) {
				Expect(token).To(Equal("gho_token"))
				Expect(repository).To(Equal("acme/app"))
				Expect(number).To(Equal(42))
				return &domain.EnrichedIssue{ID: 9, Number: 42}, nil
			}

			rec := do(http.MethodGet, "/api/issues/42?repository=acme/app", nil)

			Expect(rec.Code).To(Equal(http.StatusOK))
		})

		It("requires the repository", func() {
			rec := do(http.MethodGet, "/api/issues/42", nil)

			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})

		It("rejects a non-numeric issue number", func() {
			rec := do(http.MethodGet, "/api/issues/abc?repository=acme/app", nil)

			Expect(rec.Code).To(Equal(http.StatusBadRequest))
			Expect(decode(rec).Error.Message).To(ContainSubstring("positive integer"))
		})

		It("returns debugging tips", func() {
			issues.debugTipsFn = func(context.Context, string, string, int) (string, error) {
				return "Add logging.", nil
			}

			rec := do(http.MethodGet, "/api/issues/42/debug-tips?repository=acme/app", nil)

			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(string(decode(rec).Data)).To(MatchJSON(`{"tips":"Add logging."}`))
		})
	})

	Describe("POST /api/ai/summary", func() {
		It("summarizes the description", func() {
			issues.summarizeFn = func(_ context.Context, d string) (string, error) {
				Expect(d).To(Equal("long text"))
				return "short", nil
			}

			rec := do(http.MethodPost, "/api/ai/summary", map[string]string{"description": "long text"})

			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(string(decode(rec).Data)).To(MatchJSON(`{"summary":"short"}`))
		})

		It("requires a description", func() {
			rec := do(http.MethodPost, "/api/ai/summary", map[string]string{})

			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("preferences", func() {
		It("returns 404 when none are stored", func() {
			rec := do(http.MethodGet, "/api/preferences", nil)

			Expect(rec.Code).To(Equal(http.StatusNotFound))
		})

		It("saves preferences for the caller", func() {
			preferences.saveFn = func(_ context.Context, userID int64, languages, categories []string) (*domain.UserPreference, error) {
				Expect(userID).To(Equal(int64(7)))
				Expect(languages).To(Equal([]string{"go"}))
				Expect(categories).To(Equal([]string{"bug"}))
				return &domain.UserPreference{UserID: userID, Languages: languages, Categories: categories}, nil
			}

			rec := do(http.MethodPost, "/api/preferences", map[string][]string{
				"languages":  {"go"},
				"categories": {"bug"},
			})

			Expect(rec.Code).To(Equal(http.StatusOK))
		})
	})

	Describe("saved issues", func() {
		It("creates a bookmark", func() {
			rec := do(http.MethodPost, "/api/saved-issues", map[string]any{
				"issueId": "123",
				"title":   "Fix docs",
				"url":     "https://github.com/acme/app/issues/7",
				"tags":    []string{"docs"},
			})

			Expect(rec.Code).To(Equal(http.StatusCreated))
		})

		It("rejects an invalid URL", func() {
			rec := do(http.MethodPost, "/api/saved-issues", map[string]any{
				"issueId": "123",
				"title":   "Fix docs",
				"url":     "not a url",
			})

			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})

		It("maps duplicates to 409", func() {
			saved.saveFn = func(context.Context, int64, service.SaveInput) (*domain.SavedIssue, error) {
				return nil, domain.ErrConflict
			}

			rec := do(http.MethodPost, "/api/saved-issues", map[string]any{
				"issueId": "123",
				"title":   "Fix docs",
				"url":     "https://github.com/acme/app/issues/7",
			})

			Expect(rec.Code).To(Equal(http.StatusConflict))
		})

		It("lists bookmarks", func() {
			saved.listFn = func(context.Context, int64) ([]domain.SavedIssue, error) {
				return []domain.SavedIssue{{IssueID: "1"}, {IssueID: "2"}}, nil
			}

			rec := do(http.MethodGet, "/api/saved-issues", nil)

			Expect(rec.Code).To(Equal(http.StatusOK))
			var got []domain.SavedIssue
			Expect(json.Unmarshal(decode(rec).Data, &got)).To(Succeed())
			Expect(got).To(HaveLen(2))
		})

		It("deletes by issue id", func() {
			saved.removeFn = func(_ context.Context, userID int64, issueID string) error {
				Expect(userID).To(Equal(int64(7)))
				Expect(issueID).To(Equal("123"))
				return nil
			}

			rec := do(http.MethodDelete, "/api/saved-issues/123", nil)

			Expect(rec.Code).To(Equal(http.StatusNoContent))
		})

		It("returns 404 when deleting an unknown bookmark", func() {
			saved.removeFn = func(context.Context, int64, string) error {
				return domain.ErrNotFound
			}

			rec := do(http.MethodDelete, "/api/saved-issues/999", nil)

			Expect(rec.Code).To(Equal(http.StatusNotFound))
		})
	})
})
