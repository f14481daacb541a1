// Package middleware provides authentication, logging, metrics and rate limiting middleware for the application.
package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// LocalUserID is the Fiber locals key holding the acting user's identifier.
const LocalUserID = "userID"

var (
	errMissingToken = errors.New("authorization required")
	errInvalidToken = errors.New("invalid or expired token")
)

// Authenticator validates HMAC-signed bearer tokens and exposes the "sub" claim as the acting user.
type Authenticator struct {
	secret []byte
}

// NewAuthenticator builds an Authenticator for the given signing secret.
func NewAuthenticator(secret string) *Authenticator {
	return &Authenticator{secret: []byte(secret)}
}

// UserID returns the acting user's identifier stored by Required or Optional, or "" when anonymous.
func UserID(c *fiber.Ctx) string {
	uid, _ := c.Locals(LocalUserID).(string)
	return uid
}

// Required rejects requests without a valid bearer token.
func (a *Authenticator) Required() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := a.authenticate(c)
		if err != nil {
			msg := "Invalid or expired token"
			if errors.Is(err, errMissingToken) {
				msg = "Authorization required"
			}
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": msg})
		}
		if userID == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Invalid token subject"})
		}
		setUser(c, userID)
		return c.Next()
	}
}

// Optional identifies the caller when a token is supplied and lets anonymous requests through.
// A token that is present but invalid is still rejected.
func (a *Authenticator) Optional() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := a.authenticate(c)
		switch {
		case errors.Is(err, errMissingToken):
			return c.Next()
		case err != nil:
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Invalid or expired token"})
		}
		if userID != "" {
			setUser(c, userID)
		}
		return c.Next()
	}
}

func setUser(c *fiber.Ctx, userID string) {
	c.Locals(LocalUserID, userID)
	// Sync to UserContext for logging and downstream services
	c.SetUserContext(context.WithValue(c.UserContext(), UserIDKey, userID))
}

func (a *Authenticator) authenticate(c *fiber.Ctx) (string, error) {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return "", errMissingToken
	}

	// Extract token from "Bearer <token>"
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", errInvalidToken
	}

	token, err := jwt.Parse(parts[1], func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errInvalidToken
		}
		return a.secret, nil
	})
	if err != nil || !token.Valid {
		return "", errInvalidToken
	}

	// Subject claim per RFC 7519; an empty subject leaves the request anonymous.
	sub, err := token.Claims.GetSubject()
	if err != nil {
		return "", errInvalidToken
	}
	return sub, nil
}
