package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	apperrors "github.com/julianstephens/daystreak/internal/errors"
)

// SuccessResponse wraps every successful payload.
type SuccessResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
}

// ErrorResponse wraps every failure.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

func success(c *fiber.Ctx, status int, data interface{}) error {
	return c.Status(status).JSON(SuccessResponse{Success: true, Data: data})
}

func ok(c *fiber.Ctx, data interface{}) error {
	return success(c, fiber.StatusOK, data)
}

func created(c *fiber.Ctx, data interface{}) error {
	return success(c, fiber.StatusCreated, data)
}

// applied answers the boolean-result operations.
func applied(c *fiber.Ctx, done bool) error {
	return ok(c, fiber.Map{"applied": done})
}

func failure(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(ErrorResponse{
		Success: false,
		Error:   errorCode(status),
		Message: message,
	})
}

func errorCode(status int) string {
	switch status {
	case fiber.StatusBadRequest:
		return "validation_error"
	case fiber.StatusUnauthorized:
		return "unauthorized"
	case fiber.StatusNotFound:
		return "not_found"
	case fiber.StatusConflict:
		return "conflict"
	case fiber.StatusServiceUnavailable:
		return "store_error"
	default:
		return "internal_error"
	}
}

// StatusOf maps the error taxonomy onto HTTP status codes.
func StatusOf(err error) int {
	var fe *fiber.Error
	switch {
	case apperrors.IsValidation(err):
		return fiber.StatusBadRequest
	case apperrors.IsNotFound(err):
		return fiber.StatusNotFound
	case apperrors.IsConflict(err):
		return fiber.StatusConflict
	case apperrors.IsStore(err):
		return fiber.StatusServiceUnavailable
	case errors.As(err, &fe):
		return fe.Code
	default:
		return fiber.StatusInternalServerError
	}
}
