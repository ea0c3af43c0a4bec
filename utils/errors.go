package utils

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// AppError is an error that carries its HTTP status.
type AppError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *AppError) Error() string {
	return e.Message
}

func NewAppError(code int, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

var (
	ErrUnauthorized = NewAppError(fiber.StatusUnauthorized, "Unauthorized access")
	ErrForbidden    = NewAppError(fiber.StatusForbidden, "Access denied")
	ErrRateLimit    = NewAppError(fiber.StatusTooManyRequests, "Rate limit exceeded")
	ErrInternal     = NewAppError(fiber.StatusInternalServerError, "Internal server error")
)

func BadRequest(msg string) *AppError {
	return NewAppError(fiber.StatusBadRequest, msg)
}

func ServiceUnavailable(msg string) *AppError {
	return NewAppError(fiber.StatusServiceUnavailable, msg)
}

// ErrorHandler renders AppErrors and fiber errors as {"error": message}.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := ErrInternal.Message

	var appErr *AppError
	var fiberErr *fiber.Error
	switch {
	case errors.As(err, &appErr):
		code, msg = appErr.Code, appErr.Message
	case errors.As(err, &fiberErr):
		code, msg = fiberErr.Code, fiberErr.Message
	}
	return c.Status(code).JSON(fiber.Map{"error": msg})
}
