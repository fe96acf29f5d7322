package github_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sumire/firstissues/internal/domain"
	"github.com/sumire/firstissues/internal/github"
)

var _ = Describe("Client", func() {
	var (
		ctx    context.Context
		mux    *http.ServeMux
		server *httptest.Server
		client *github.Client
	)

	BeforeEach(func() {
		ctx = context.Background()
		mux = http.NewServeMux()
		server = httptest.NewServer(mux)
		DeferCleanup(server.Close)
		client = github.NewClient(
			github.WithHTTPClient(server.Client()),
			github.WithBaseURL(server.URL+"/"),
			github.WithTimeout(2*time.Second),
		)
	})

	Describe("SearchIssues", func() {
		It("sends the query and decodes issues", func() {
			mux.HandleFunc("GET /search/issues", func(w http.ResponseWriter, r *http.Request) {
				Expect(r.Header.Get("Authorization")).To(Equal("Bearer gho_abc"))
				Expect(r.Header.Get("Accept")).To(Equal("application/vnd.github+json"))
				q := r.URL.Query()
				Expect(q.Get("q")).To(Equal(`is:issue is:open label:"good first issue"`))
				Expect(q.Get("sort")).To(Equal("reactions"))
				Expect(q.Get("order")).To(Equal("desc"))
				Expect(q.Get("page")).To(Equal("2"))
				Expect(q.Get("per_page")).To(Equal("10"))

				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{
					"total_count": 1,
					"items": [{
						"id": 99,
						"number": 7,
						"title": "Fix docs",
						"body": null,
						"labels": [{"name": "good first issue"}, {"name": "docs"}],
						"html_url": "https://github.com/acme/app/issues/7",
						"repository_url": "https://api.github.com/repos/acme/app",
						"created_at": "2024-05-01T10:00:00Z"
					}]
				}`))
			})

			res, err := client.SearchIssues(ctx, "gho_abc", github.SearchParams{
				Query:   `is:issue is:open label:"good first issue"`,
				Sort:    "reactions",
				Order:   "desc",
				Page:    2,
				PerPage: 10,
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(res.TotalCount).To(Equal(1))
			Expect(res.Issues).To(HaveLen(1))
			issue := res.Issues[0]
			Expect(issue.ID).To(Equal(int64(99)))
			Expect(issue.Labels).To(Equal([]string{"good first issue", "docs"}))
			Expect(issue.Body).To(BeNil())
			Expect(issue.BodyText()).To(BeEmpty())
			Expect(issue.CreatedAt).To(Equal(time.Date(2024, time.May, 1, 10, 0, 0, 0, time.UTC)))
		})

		It("maps 401 to unauthorized with the GitHub message", func() {
			mux.HandleFunc("GET /search/issues", func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"message":"Bad credentials"}`))
			})

			_, err := client.SearchIssues(ctx, "expired", github.SearchParams{Query: "is:open"})

			Expect(errors.Is(err, domain.ErrUnauthorized)).To(BeTrue())
			Expect(github.IsStatus(err, http.StatusUnauthorized)).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring("Bad credentials"))
		})

		It("maps rate limiting to an upstream failure", func() {
			mux.HandleFunc("GET /search/issues", func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusForbidden)
			})

			_, err := client.SearchIssues(ctx, "tok", github.SearchParams{Query: "is:open"})

			Expect(errors.Is(err, domain.ErrUpstream)).To(BeTrue())
		})

		It("refuses to call without a token", func() {
			_, err := client.SearchIssues(ctx, "", github.SearchParams{Query: "is:open"})

			Expect(errors.Is(err, domain.ErrUnauthorized)).To(BeTrue())
		})
	})

	Describe("Repository", func() {
		It("decodes stars and forks", func() {
			mux.HandleFunc("GET /repos/acme/app", func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{"full_name":"acme/app","stargazers_count":150,"forks_count":30}`))
			})

			repo, err := client.Repository(ctx, "tok", server.URL+"/repos/acme/app")

			Expect(err).NotTo(HaveOccurred())
			Expect(*repo).To(Equal(domain.RepositoryMetadata{FullName: "acme/app", Stars: 150, Forks: 30}))
		})

		It("rejects URLs outside the API root", func() {
			_, err := client.Repository(ctx, "tok", "https://evil.example.com/repos/acme/app")

			Expect(errors.Is(err, domain.ErrInvalidInput)).To(BeTrue())
		})

		It("rejects an empty URL", func() {
			_, err := client.Repository(ctx, "tok", "")

			Expect(errors.Is(err, domain.ErrInvalidInput)).To(BeTrue())
		})
	})

	Describe("Issue", func() {
		It("fetches a single issue", func() {
			mux.HandleFunc("GET /repos/acme/app/issues/7", func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{"id":99,"number":7,"title":"Fix docs","body":"Broken link","labels":[]}`))
			})

			issue, err := client.Issue(ctx, "tok", "acme/app", 7)

			Expect(err).NotTo(HaveOccurred())
			Expect(issue.Title).To(Equal("Fix docs"))
			Expect(issue.BodyText()).To(Equal("Broken link"))
		})

		It("maps 404 to not found", func() {
			_, err := client.Issue(ctx, "tok", "acme/app", 8)

			Expect(errors.Is(err, domain.ErrNotFound)).To(BeTrue())
		})

		It("validates the repository reference", func() {
			_, err := client.Issue(ctx, "tok", "acme", 1)

			Expect(errors.Is(err, domain.ErrInvalidInput)).To(BeTrue())
		})
	})

	Describe("users", func() {
		It("reads the current user", func() {
			mux.HandleFunc("GET /user", func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{"id":5,"login":"octo","name":"Octo Cat","avatar_url":"https://a/5","html_url":"https://github.com/octo","public_repos":8}`))
			})

			u, err := client.CurrentUser(ctx, "tok")

			Expect(err).NotTo(HaveOccurred())
			Expect(u.Login).To(Equal("octo"))
			Expect(u.PublicRepos).To(Equal(8))
		})

		It("prefers the primary email", func() {
			mux.HandleFunc("GET /user/emails", func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`[{"email":"old@example.com","primary":false},{"email":"me@example.com","primary":true}]`))
			})

			email, err := client.PrimaryEmail(ctx, "tok")

			Expect(err).NotTo(HaveOccurred())
			Expect(email).To(Equal("me@example.com"))
		})
	})
})

var _ = DescribeTable("SplitRepository",
	func(in, owner, name string, ok bool) {
		o, n, err := github.SplitRepository(in)
		if !ok {
			Expect(errors.Is(err, domain.ErrInvalidInput)).To(BeTrue())
			return
		}
		Expect(err).NotTo(HaveOccurred())
		Expect(o).To(Equal(owner))
		Expect(n).To(Equal(name))
	},
	Entry("valid", "acme/app", "acme", "app", true),
	Entry("trimmed", " acme/app ", "acme", "app", true),
	Entry("missing name", "acme/", "", "", false),
	Entry("no slash", "acme", "", "", false),
	Entry("too deep", "acme/app/x", "", "", false),
)
