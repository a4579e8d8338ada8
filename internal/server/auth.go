package server

import (
	"context"
	"errors"

	"modulehub/internal/middleware"
	"modulehub/internal/models"

	"github.com/gofiber/fiber/v2"
)

// AdminRequired returns middleware that rejects non-admin users with 403.
// Must be placed after AuthRequired so that userID is available in locals.
func (s *Server) AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		admin, err := s.isAdmin(c.UserContext(), currentUserID(c))
		if err != nil {
			return models.RespondWithError(c, fiber.StatusInternalServerError, err)
		}
		if !admin {
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewForbiddenError("Admin access required"))
		}

		return c.Next()
	}
}

// AuthRequired returns the authentication middleware. Tokens come from the
// Authorization header; websocket upgrades may pass ?token= instead because
// browsers cannot set headers on them.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := middleware.BearerToken(c.Get("Authorization"))
		if tokenString == "" && c.Get("Upgrade") == "websocket" {
			tokenString = c.Query("token")
		}

		claims, err := middleware.ParseToken(s.config.JWTSecret, tokenString)
		if err != nil {
			msg := "Invalid or expired token"
			if errors.Is(err, middleware.ErrMissingToken) {
				msg = "Authentication credentials were not provided."
			}
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError(msg))
		}

		if claims.JTI != "" && s.redis != nil {
			revoked, err := s.redis.Exists(c.UserContext(), middleware.RevocationKey(claims.JTI)).Result()
			if err == nil && revoked > 0 {
				return models.RespondWithError(c, fiber.StatusUnauthorized,
					models.NewUnauthorizedError("Token has been revoked"))
			}
		}

		c.Locals("userID", claims.UserID)
		c.Locals("claims", claims)
		// Sync to UserContext for logging and downstream services
		ctx := context.WithValue(c.UserContext(), middleware.UserIDKey, claims.UserID)
		c.SetUserContext(ctx)

		return c.Next()
	}
}

// optionalUserID extracts the caller from the Authorization header without
// enforcing it. Revoked tokens count as anonymous.
func (s *Server) optionalUserID(c *fiber.Ctx) (uint, bool) {
	claims, err := middleware.ParseToken(s.config.JWTSecret, middleware.BearerToken(c.Get("Authorization")))
	if err != nil {
		return 0, false
	}
	if claims.JTI != "" && s.redis != nil {
		if n, err := s.redis.Exists(c.UserContext(), middleware.RevocationKey(claims.JTI)).Result(); err == nil && n > 0 {
			return 0, false
		}
	}
	return claims.UserID, true
}

// moduleGate hides a module rolled out to a percentage of users from everyone
// outside the rollout bucket.
func (s *Server) moduleGate(module string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !s.featureFlags.Rollout(module) {
			return c.Next()
		}
		userID, _ := s.optionalUserID(c)
		if !s.featureFlags.Enabled(module, userID) {
			return models.RespondWithError(c, fiber.StatusNotFound,
				models.NewNotFoundError("Module", module))
		}
		return c.Next()
	}
}
