package handlers

import (
	"errors"

	"youth-sports-gamification/logger"
	"youth-sports-gamification/services"
	"youth-sports-gamification/utils"

	"github.com/gofiber/fiber/v2"
)

// serviceError maps engine errors onto AppErrors for utils.ErrorHandler.
func serviceError(c *fiber.Ctx, err error, what string) error {
	switch {
	case errors.Is(err, services.ErrInvalidActivity),
		errors.Is(err, services.ErrInvalidGoal),
		errors.Is(err, services.ErrInvalidAmount):
		return utils.BadRequest(err.Error())
	case errors.Is(err, services.ErrStoreUnavailable):
		logger.Error().Err(err).Str("path", c.Path()).Msg(what)
		return utils.ServiceUnavailable(what)
	default:
		logger.Error().Err(err).Str("path", c.Path()).Msg(what)
		return utils.ErrInternal
	}
}
