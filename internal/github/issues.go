package github

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sumire/firstissues/internal/domain"
)

// SearchParams is one page of an issue search.
type SearchParams struct {
	Query   string
	Sort    string
	Order   string
	Page    int
	PerPage int
}

// SearchResult is a page of raw issues plus GitHub's total match count.
type SearchResult struct {
	TotalCount int
	Issues     []domain.RawIssue
}

type apiLabel struct {
	Name string `json:"name"`
}

type apiIssue struct {
	ID            int64      `json:"id"`
	Number        int        `json:"number"`
	Title         string     `json:"title"`
	Body          *string    `json:"body"`
	Labels        []apiLabel `json:"labels"`
	HTMLURL       string     `json:"html_url"`
	RepositoryURL string     `json:"repository_url"`
	CreatedAt     time.Time  `json:"created_at"`
}

func (i apiIssue) toDomain() domain.RawIssue {
	labels := make([]string, 0, len(i.Labels))
	for _, l := range i.Labels {
		labels = append(labels, l.Name)
	}
	return domain.RawIssue{
		ID:            i.ID,
		Number:        i.Number,
		Title:         i.Title,
		Body:          i.Body,
		Labels:        labels,
		HTMLURL:       i.HTMLURL,
		RepositoryURL: i.RepositoryURL,
		CreatedAt:     i.CreatedAt,
	}
}

// SearchIssues runs GET /search/issues.
func (c *Client) SearchIssues(ctx context.Context, token string, p SearchParams) (*SearchResult, error) {
	q := url.Values{}
	q.Set("q", p.Query)
	if p.Sort != "" {
		q.Set("sort", p.Sort)
	}
	if p.Order != "" {
		q.Set("order", p.Order)
	}
	if p.Page > 0 {
		q.Set("page", strconv.Itoa(p.Page))
	}
	if p.PerPage > 0 {
		q.Set("per_page", strconv.Itoa(p.PerPage))
	}

	var body struct {
		TotalCount int        `json:"total_count"`
		Items      []apiIssue `json:"items"`
	}
	if err := c.get(ctx, token, c.baseURL+"/search/issues?"+q.Encode(), &body); err != nil {
		return nil, fmt.Errorf("search issues: %w", err)
	}

	issues := make([]domain.RawIssue, 0, len(body.Items))
	for _, it := range body.Items {
		issues = append(issues, it.toDomain())
	}
	return &SearchResult{TotalCount: body.TotalCount, Issues: issues}, nil
}

// Issue fetches a single issue of repository ("owner/name").
func (c *Client) Issue(ctx context.Context, token, repository string, number int) (*domain.RawIssue, error) {
	owner, name, err := SplitRepository(repository)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/repos/%s/%s/issues/%d", c.baseURL, url.PathEscape(owner), url.PathEscape(name), number)
	var body apiIssue
	if err := c.get(ctx, token, endpoint, &body); err != nil {
		return nil, fmt.Errorf("get issue %s#%d: %w", repository, number, err)
	}

	issue := body.toDomain()
	return &issue, nil
}

// SplitRepository validates a "owner/name" reference.
func SplitRepository(repository string) (string, string, error) {
	owner, name, ok := strings.Cut(strings.TrimSpace(repository), "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return "", "", fmt.Errorf("%w: repository must be owner/name, got %q", domain.ErrInvalidInput, repository)
	}
	return owner, name, nil
}
