package serverutils

import (
	"github.com/gofiber/fiber/v2"
)

type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func SuccessResponse(message string, data interface{}) Response {
	return Response{
		Success: true,
		Message: message,
		Data:    data,
	}
}

// ErrorHandlerMiddleware converts unhandled errors into the minimal JSON
// error body. Upstream provider identity is never echoed to the client.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		code := fiber.StatusInternalServerError
		if fiberErr, ok := err.(*fiber.Error); ok {
			code = fiberErr.Code
		}

		message := "internal server error"
		if code < fiber.StatusInternalServerError {
			message = err.Error()
		}

		return ctx.Status(code).JSON(fiber.Map{"error": message})
	}
}
