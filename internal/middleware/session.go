package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/talkboard/backend/internal/dto"
	"github.com/talkboard/backend/internal/session"
)

const sessionKey = "session"

// SessionRequired resolves the validated token to its live session and
// stashes it in locals. Runs after JWTProtected.
func SessionRequired(manager *session.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := c.Locals("user").(*jwt.Token)
		if !ok {
			return unauthorized(c, "Unauthorized: missing token")
		}
		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return unauthorized(c, "Unauthorized: malformed claims")
		}
		jti, _ := claims["jti"].(string)
		sess, err := manager.Get(jti)
		if err != nil {
			return unauthorized(c, "Unauthorized: session expired, log in again")
		}
		c.Locals(sessionKey, sess)
		return c.Next()
	}
}

// SessionFrom returns the session placed by SessionRequired.
func SessionFrom(c *fiber.Ctx) *session.Session {
	sess, _ := c.Locals(sessionKey).(*session.Session)
	return sess
}

func unauthorized(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
		Error:   true,
		Message: msg,
	})
}
