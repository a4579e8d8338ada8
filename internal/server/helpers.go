package server

import (
	"context"
	"errors"

	"modulehub/internal/models"
	"modulehub/internal/repository"
	"modulehub/internal/service"
	"modulehub/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper.  Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

const (
	defaultPageLimit   = 20
	maxPaginationLimit = 100
)

// parsePagination reads ?limit= and ?offset=. A missing or non-positive
// limit falls back to defaultLimit and limits are capped at maxPaginationLimit.
func parsePagination(c *fiber.Ctx, defaultLimit int) repository.Page {
	limit := c.QueryInt("limit", defaultLimit)
	if limit <= 0 {
		limit = defaultLimit
	}
	return repository.Page{
		Limit:  min(limit, maxPaginationLimit),
		Offset: max(c.QueryInt("offset", 0), 0),
	}
}

// parseID reads the :id route parameter as a positive uint. On failure it
// writes a 400 and returns errResponseWritten; callers return nil.
func (s *Server) parseID(c *fiber.Ctx) (uint, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		_ = models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Invalid ID"))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// bind parses the JSON (or form) body into dst and runs struct validation.
// On failure it writes a 400 response and returns errResponseWritten.
func bind(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
		return errResponseWritten
	}
	if err := validation.Struct(dst); err != nil {
		_ = models.RespondWithAppError(c, err)
		return errResponseWritten
	}
	return nil
}

// currentUserID returns the caller set by AuthRequired.
func currentUserID(c *fiber.Ctx) uint {
	userID, _ := c.Locals("userID").(uint)
	return userID
}

// actor resolves the caller together with their admin flag.
func (s *Server) actor(c *fiber.Ctx) (service.Actor, error) {
	userID := currentUserID(c)
	admin, err := s.isAdmin(c.UserContext(), userID)
	if err != nil {
		return service.Actor{}, err
	}
	return service.Actor{UserID: userID, IsAdmin: admin}, nil
}

func (s *Server) isAdmin(ctx context.Context, userID uint) (bool, error) {
	var user models.User
	err := s.db.WithContext(ctx).Select("is_admin").Where("id = ?", userID).Take(&user).Error
	return user.IsAdmin, err
}

// providerFailure reports a billing provider or business error the way the
// payments module does: 400 with a bare error message. Internal errors keep
// their 500.
func providerFailure(c *fiber.Ctx, err error) error {
	var appErr *models.AppError
	if errors.As(err, &appErr) && appErr.Code == models.CodeInternal {
		return models.RespondWithAppError(c, err)
	}
	if errors.As(err, &appErr) && len(appErr.Fields) > 0 {
		return models.RespondWithAppError(c, err)
	}
	msg := err.Error()
	if appErr != nil {
		msg = appErr.Message
	}
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}
