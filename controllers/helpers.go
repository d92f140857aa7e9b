package controller

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"teamreports/middleware"
	"teamreports/store"
	"teamreports/utils"
)

// storeErrorResponse maps store sentinels onto HTTP statuses.
func storeErrorResponse(c *fiber.Ctx, err error, notFound, failed string) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return utils.ErrorResponse(c, fiber.StatusNotFound, notFound, nil)
	case errors.Is(err, store.ErrDuplicateKey):
		return utils.ErrorResponse(c, fiber.StatusConflict, "Already exists", err)
	case errors.Is(err, store.ErrConstraintViolation):
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid reference", err)
	default:
		logrus.WithError(err).WithField("path", c.Path()).Error(failed)
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, failed, err)
	}
}

// actingUser returns the session's Telegram id and admin flag. ok is false
// when the request carries no session.
func actingUser(c *fiber.Ctx) (id int64, admin bool, ok bool) {
	claims := middleware.SessionClaims(c)
	if claims == nil {
		return 0, false, false
	}
	return claims.TelegramID, claims.Admin, true
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
