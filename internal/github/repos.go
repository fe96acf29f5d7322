package github

import (
	"context"
	"fmt"
	"strings"

	"github.com/sumire/firstissues/internal/domain"
)

// Repository fetches stars and forks for a repository API URL such as
// the repository_url field of a search result. URLs outside the configured
// API root are rejected so the user's token is never sent elsewhere.
func (c *Client) Repository(ctx context.Context, token, repositoryURL string) (*domain.RepositoryMetadata, error) {
	if repositoryURL == "" {
		return nil, fmt.Errorf("%w: repository url is missing", domain.ErrInvalidInput)
	}
	if !strings.HasPrefix(repositoryURL, c.baseURL+"/repos/") {
		return nil, fmt.Errorf("%w: repository url %q is not a GitHub API url", domain.ErrInvalidInput, repositoryURL)
	}

	var body struct {
		FullName        string `json:"full_name"`
		StargazersCount int    `json:"stargazers_count"`
		ForksCount      int    `json:"forks_count"`
	}
	if err := c.get(ctx, token, repositoryURL, &body); err != nil {
		return nil, fmt.Errorf("get repository: %w", err)
	}

	return &domain.RepositoryMetadata{
		FullName: body.FullName,
		Stars:    body.StargazersCount,
		Forks:    body.ForksCount,
	}, nil
}
