package handler

import (
	"log/slog"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sumire/firstissues/internal/domain"
	"github.com/sumire/firstissues/internal/logger"
)

const (
	contextKeyUserID = "user_id"
)

// TokenValidator resolves a JWT access token to a user ID.
type TokenValidator interface {
	ValidateToken(tokenString string) (int64, error)
}

// RequestLogger logs each HTTP request with structured fields and carries
// the request ID into the request context for downstream logs.
func RequestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			requestID := c.Response().Header().Get(echo.HeaderXRequestID)
			req := c.Request()
			ctx := logger.WithLogFields(req.Context(), logger.LogFields{RequestID: requestID})
			c.SetRequest(req.WithContext(ctx))

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			slog.InfoContext(c.Request().Context(), "http request",
				"method", req.Method,
				"path", req.URL.Path,
				"status", c.Response().Status,
				"duration_ms", time.Since(start).Milliseconds(),
			)

			return nil
		}
	}
}

// JWTAuth validates the Bearer token and injects the user ID into echo context.
func JWTAuth(auth TokenValidator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			if header == "" {
				return domain.ErrUnauthorized
			}

			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				return domain.ErrUnauthorized
			}

			userID, err := auth.ValidateToken(parts[1])
			if err != nil {
				return domain.ErrUnauthorized
			}

			c.Set(contextKeyUserID, userID)
			req := c.Request()
			ctx := logger.WithLogFields(req.Context(), logger.LogFields{UserID: logger.Ptr(userID)})
			c.SetRequest(req.WithContext(ctx))
			return next(c)
		}
	}
}

// GetUserID extracts the authenticated user ID from echo context.
func GetUserID(c echo.Context) (int64, bool) {
	id, ok := c.Get(contextKeyUserID).(int64)
	return id, ok
}

func requireUserID(c echo.Context) (int64, error) {
	id, ok := GetUserID(c)
	if !ok {
		return 0, domain.ErrUnauthorized
	}
	return id, nil
}
