package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/talkboard/backend/internal/dto"
)

// ModeratorRequired gates moderation routes on the acting identity, so
// an admin impersonating a regular user sees that user's access, not
// their own. The data layer re-checks on every write regardless.
func ModeratorRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess := SessionFrom(c)
		if sess == nil || !sess.Acting().CanModerate() {
			return forbidden(c)
		}
		return c.Next()
	}
}

// AdminRequired gates admin-only routes on the acting identity.
func AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess := SessionFrom(c)
		if sess == nil || !sess.Acting().IsAdmin() {
			return forbidden(c)
		}
		return c.Next()
	}
}

func forbidden(c *fiber.Ctx) error {
	return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
		Error:   true,
		Message: "Forbidden: insufficient role",
	})
}
