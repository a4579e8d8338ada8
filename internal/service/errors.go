// Package service holds the business logic of every module. Services accept
// repository interfaces and return *models.AppError values for the handlers.
package service

import (
	"errors"
	"fmt"

	"modulehub/internal/database"
	"modulehub/internal/models"

	"gorm.io/gorm"
)

// translate maps repository errors onto AppErrors.
func translate(err error, resource string, id any) error {
	if err == nil {
		return nil
	}
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewNotFoundError(resource, id)
	}
	if database.IsUniqueViolation(err) {
		return models.NewValidationError(fmt.Sprintf("%s already exists", resource))
	}
	return models.NewInternalError(err)
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
