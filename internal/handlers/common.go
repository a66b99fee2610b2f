package handlers

import (
	"github.com/gofiber/fiber/v2"
)

// sessionUserID extracts the authenticated user's id placed in the request
// context by the auth middleware. Returns "" when no user is attached.
func sessionUserID(c *fiber.Ctx) string {
	if id, ok := c.Locals("userID").(string); ok && id != "" {
		return id
	}
	if user, ok := c.Locals("user").(map[string]interface{}); ok {
		if id, ok := user["id"].(string); ok {
			return id
		}
	}
	return ""
}
