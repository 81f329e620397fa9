// Package middleware provides authentication, rate limiting, logging and tracing middleware for the application.
package middleware

import (
	"context"
	"errors"
	"strings"

	"threads/internal/config"
	"threads/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// JWTAuth verifies bearer tokens issued by the auth provider.
type JWTAuth struct {
	secret   []byte
	issuer   string
	audience string
}

// NewJWTAuth builds a verifier from the AUTH_* settings.
func NewJWTAuth(cfg *config.Config) *JWTAuth {
	return &JWTAuth{
		secret:   []byte(cfg.AuthJWTSecret),
		issuer:   cfg.AuthIssuer,
		audience: cfg.AuthAudience,
	}
}

// Required is a middleware that enforces authentication for protected routes.
// The token subject is stored in c.Locals("authID").
func (a *JWTAuth) Required(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return unauthorized(c, "Authorization header required")
	}

	// Extract token from "Bearer <token>"
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return unauthorized(c, "Invalid authorization header format")
	}

	subject, err := a.Verify(parts[1])
	if err != nil {
		return unauthorized(c, err.Error())
	}

	c.Locals("authID", subject)
	c.SetUserContext(context.WithValue(c.UserContext(), AuthIDKey, subject))
	return c.Next()
}

// Verify parses tokenString and returns its subject claim.
func (a *JWTAuth) Verify(tokenString string) (string, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}),
		jwt.WithExpirationRequired(),
	}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}
	if a.audience != "" {
		opts = append(opts, jwt.WithAudience(a.audience))
	}

	claims := jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(*jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, opts...)
	if err != nil || !token.Valid {
		return "", errors.New("Invalid or expired token")
	}

	// Subject claim per RFC 7519 carries the external user id
	if strings.TrimSpace(claims.Subject) == "" {
		return "", errors.New("Invalid token structure - missing subject")
	}
	return claims.Subject, nil
}

// AuthID returns the authenticated external user id set by Required.
func AuthID(c *fiber.Ctx) (string, bool) {
	id, ok := c.Locals("authID").(string)
	return id, ok && id != ""
}

func unauthorized(c *fiber.Ctx, msg string) error {
	return models.RespondWithError(c, fiber.StatusUnauthorized, models.NewUnauthorizedError(msg))
}
