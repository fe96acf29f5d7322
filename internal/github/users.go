package github

import (
	"context"
	"fmt"
)

// User is the authenticated GitHub account.
type User struct {
	ID          int64  `json:"id"`
	Login       string `json:"login"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	AvatarURL   string `json:"avatar_url"`
	HTMLURL     string `json:"html_url"`
	PublicRepos int    `json:"public_repos"`
}

// CurrentUser runs GET /user.
func (c *Client) CurrentUser(ctx context.Context, token string) (*User, error) {
	var u User
	if err := c.get(ctx, token, c.baseURL+"/user", &u); err != nil {
		return nil, fmt.Errorf("get current user: %w", err)
	}
	return &u, nil
}

type userEmail struct {
	Email   string `json:"email"`
	Primary bool   `json:"primary"`
}

// PrimaryEmail returns the user's primary email, falling back to the first
// listed address.
func (c *Client) PrimaryEmail(ctx context.Context, token string) (string, error) {
	var emails []userEmail
	if err := c.get(ctx, token, c.baseURL+"/user/emails", &emails); err != nil {
		return "", fmt.Errorf("get user emails: %w", err)
	}

	for _, e := range emails {
		if e.Primary {
			return e.Email, nil
		}
	}
	if len(emails) > 0 {
		return emails[0].Email, nil
	}
	return "", fmt.Errorf("no email found for github user")
}
