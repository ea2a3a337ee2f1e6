package common

import (
	"github.com/gofiber/fiber/v2"
)

// JSON sends a success response with data
func JSON(c *fiber.Ctx, data any) error {
	return c.JSON(Response{Success: true, Data: data})
}

// JSONMessage sends a success response with message
func JSONMessage(c *fiber.Ctx, message string) error {
	return c.JSON(Response{Success: true, Message: message})
}

// JSONMessageData sends a success response with both message and data
func JSONMessageData(c *fiber.Ctx, message string, data any) error {
	return c.JSON(Response{Success: true, Message: message, Data: data})
}

// JSONError sends an error response
func JSONError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(Response{Success: false, Message: message})
}

// JSONOutcome reports an operation that ran but may have partly failed.
func JSONOutcome(c *fiber.Ctx, success bool, message string, data any) error {
	return c.JSON(Response{Success: success, Message: message, Data: data})
}
