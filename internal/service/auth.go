package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
	githubOAuth "golang.org/x/oauth2/github"

	"github.com/sumire/firstissues/internal/domain"
	"github.com/sumire/firstissues/internal/github"
)

// UserStore defines the user data access interface consumed by AuthService.
type UserStore interface {
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	Upsert(ctx context.Context, user domain.User) (*domain.User, error)
}

// GitHubAccounts reads the account behind a GitHub token.
type GitHubAccounts interface {
	CurrentUser(ctx context.Context, token string) (*github.User, error)
	PrimaryEmail(ctx context.Context, token string) (string, error)
}

// TokenExchanger turns an OAuth authorization code into a token.
type TokenExchanger interface {
	AuthCodeURL(state string, opts ...oauth2.AuthCodeOption) string
	Exchange(ctx context.Context, code string, opts ...oauth2.AuthCodeOption) (*oauth2.Token, error)
}

// AuthConfig holds OAuth configuration.
type AuthConfig struct {
	GitHubClientID     string
	GitHubClientSecret string
	GitHubRedirectURL  string
	JWTSecret          string
}

// AuthService handles authentication logic.
type AuthService struct {
	users     UserStore
	accounts  GitHubAccounts
	jwtSecret []byte
	github    TokenExchanger
	now       func() time.Time
}

// NewAuthService creates a new AuthService.
func NewAuthService(users UserStore, accounts GitHubAccounts, cfg AuthConfig) *AuthService {
	return &AuthService{
		users:     users,
		accounts:  accounts,
		jwtSecret: []byte(cfg.JWTSecret),
		github: &oauth2.Config{
			ClientID:     cfg.GitHubClientID,
			ClientSecret: cfg.GitHubClientSecret,
			Endpoint:     githubOAuth.Endpoint,
			Scopes:       []string{"user:email"},
			RedirectURL:  cfg.GitHubRedirectURL,
		},
		now: time.Now,
	}
}

// WithTokenExchanger replaces the GitHub OAuth config, for tests.
func (s *AuthService) WithTokenExchanger(ex TokenExchanger) *AuthService {
	s.github = ex
	return s
}

// GitHubAuthURL returns the GitHub OAuth authorization URL.
func (s *AuthService) GitHubAuthURL(state string) string {
	return s.github.AuthCodeURL(state)
}

// TokenPair holds an access token and refresh token.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// GitHubCallback exchanges the authorization code, stores the user with
// their GitHub token, and returns a JWT pair.
func (s *AuthService) GitHubCallback(ctx context.Context, code string) (*domain.User, *TokenPair, error) {
	token, err := s.github.Exchange(ctx, code)
	if err != nil {
		return nil, nil, fmt.Errorf("github token exchange: %w", err)
	}
	if token.AccessToken == "" {
		return nil, nil, fmt.Errorf("github token exchange: empty access token: %w", domain.ErrUnauthorized)
	}

	info, err := s.accounts.CurrentUser(ctx, token.AccessToken)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch github user info: %w", err)
	}

	email := info.Email
	if email == "" {
		email, err = s.accounts.PrimaryEmail(ctx, token.AccessToken)
		if err != nil {
			return nil, nil, err
		}
	}

	user, err := s.users.Upsert(ctx, domain.User{
		Provider:    domain.AuthProviderGitHub,
		ProviderID:  fmt.Sprintf("%d", info.ID),
		Email:       email,
		DisplayName: info.Login,
		AvatarURL:   strPtr(info.AvatarURL),
		ProfileURL:  strPtr(info.HTMLURL),
		AccessToken: token.AccessToken,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("upsert github user: %w", err)
	}

	pair, err := s.generateTokenPair(user.ID)
	if err != nil {
		return nil, nil, err
	}

	return user, pair, nil
}

// ValidateToken validates a JWT access token and returns the user ID.
func (s *AuthService) ValidateToken(tokenString string) (int64, error) {
	return s.parseToken(tokenString, "access")
}

// RefreshAccessToken validates a refresh token and returns a new token pair.
func (s *AuthService) RefreshAccessToken(refreshToken string) (*TokenPair, error) {
	userID, err := s.parseToken(refreshToken, "refresh")
	if err != nil {
		return nil, err
	}
	return s.generateTokenPair(userID)
}

// GetUser retrieves a user by ID.
func (s *AuthService) GetUser(ctx context.Context, userID int64) (*domain.User, error) {
	return s.users.FindByID(ctx, userID)
}

// GitHubToken returns the stored GitHub token of a user.
func (s *AuthService) GitHubToken(ctx context.Context, userID int64) (string, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", domain.ErrUnauthorized
		}
		return "", err
	}
	if user.AccessToken == "" {
		return "", fmt.Errorf("user %d has no github token: %w", userID, domain.ErrUnauthorized)
	}
	return user.AccessToken, nil
}

// Profile fetches the live GitHub profile of a user.
func (s *AuthService) Profile(ctx context.Context, userID int64) (*domain.Profile, error) {
	token, err := s.GitHubToken(ctx, userID)
	if err != nil {
		return nil, err
	}

	u, err := s.accounts.CurrentUser(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("fetch github profile: %w", err)
	}

	name := u.Name
	if name == "" {
		name = u.Login
	}
	return &domain.Profile{
		Username:    u.Login,
		Name:        name,
		AvatarURL:   u.AvatarURL,
		PublicRepos: u.PublicRepos,
		ProfileURL:  u.HTMLURL,
	}, nil
}

func (s *AuthService) parseToken(tokenString, wantType string) (int64, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return 0, fmt.Errorf("parse %s token: %w: %w", wantType, domain.ErrUnauthorized, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return 0, domain.ErrUnauthorized
	}

	tokenType, _ := claims["type"].(string)
	if tokenType != wantType {
		return 0, domain.ErrUnauthorized
	}

	userIDFloat, ok := claims["sub"].(float64)
	if !ok {
		return 0, domain.ErrUnauthorized
	}

	return int64(userIDFloat), nil
}

func (s *AuthService) generateTokenPair(userID int64) (*TokenPair, error) {
	now := s.now()

	accessToken := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  userID,
		"type": "access",
		"iat":  now.Unix(),
		"exp":  now.Add(15 * time.Minute).Unix(),
	})
	accessStr, err := accessToken.SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	refreshToken := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  userID,
		"type": "refresh",
		"iat":  now.Unix(),
		"exp":  now.Add(7 * 24 * time.Hour).Unix(),
	})
	refreshStr, err := refreshToken.SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}

	return &TokenPair{
		AccessToken:  accessStr,
		RefreshToken: refreshStr,
	}, nil
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
