package domain

import "time"

// AuthProvider represents an OAuth provider.
type AuthProvider string

const (
	AuthProviderGitHub AuthProvider = "github"
)

// User represents an authenticated user.
// AccessToken is the GitHub OAuth token used for search and repository calls;
// it never leaves the server.
type User struct {
	ID          int64        `json:"id" db:"id"`
	Provider    AuthProvider `json:"provider" db:"provider"`
	ProviderID  string       `json:"provider_id" db:"provider_id"`
	Email       string       `json:"email" db:"email"`
	DisplayName string       `json:"display_name" db:"display_name"`
	AvatarURL   *string      `json:"avatar_url,omitempty" db:"avatar_url"`
	ProfileURL  *string      `json:"profile_url,omitempty" db:"profile_url"`
	AccessToken string       `json:"-" db:"access_token"`
	CreatedAt   time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at" db:"updated_at"`
}

// Profile is the public GitHub profile of the signed-in user.
type Profile struct {
	Username    string `json:"username"`
	Name        string `json:"name"`
	AvatarURL   string `json:"avatar"`
	PublicRepos int    `json:"repos"`
	ProfileURL  string `json:"profileUrl"`
}
