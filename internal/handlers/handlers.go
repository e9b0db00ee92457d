// Package handlers maps HTTP requests onto the session manager, the
// state store and the chat gateway. Role checks here only shape what a
// client sees; the data layer enforces the same rules on every write.
package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/talkboard/backend/internal/dto"
	"github.com/talkboard/backend/internal/gateway"
	"github.com/talkboard/backend/internal/session"
)

func fail(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(dto.ErrorResponse{Error: true, Message: msg})
}

func badBody(c *fiber.Ctx) error {
	return fail(c, fiber.StatusBadRequest, "Invalid request body")
}

// gatewayError translates data-layer errors to HTTP statuses. Unknown
// errors stay opaque to the client.
func gatewayError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, gateway.ErrNotFound):
		return fail(c, fiber.StatusNotFound, "Not found")
	case errors.Is(err, gateway.ErrForbidden):
		return fail(c, fiber.StatusForbidden, "Forbidden")
	case errors.Is(err, gateway.ErrThreadLocked):
		return fail(c, fiber.StatusConflict, "Thread is locked")
	case errors.Is(err, gateway.ErrProtectedUser):
		return fail(c, fiber.StatusConflict, "Profile is protected")
	case errors.Is(err, gateway.ErrEmailTaken):
		return fail(c, fiber.StatusConflict, "Email already registered")
	case errors.Is(err, gateway.ErrUsernameTaken):
		return fail(c, fiber.StatusConflict, "Username already taken")
	case errors.Is(err, gateway.ErrInvalidCredentials):
		return fail(c, fiber.StatusUnauthorized, "Invalid email or password")
	case errors.Is(err, gateway.ErrEmailUnconfirmed):
		return fail(c, fiber.StatusForbidden, "Confirm your email address first")
	case errors.Is(err, session.ErrIPBanned):
		return fail(c, fiber.StatusForbidden, "Access from this network is banned")
	case errors.Is(err, session.ErrNoSession):
		return fail(c, fiber.StatusUnauthorized, "Session expired, log in again")
	default:
		return fail(c, fiber.StatusInternalServerError, "Internal server error")
	}
}

// tokenJTI pulls the token ID out of the validated JWT.
func tokenJTI(c *fiber.Ctx) string {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok {
		return ""
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return ""
	}
	jti, _ := claims["jti"].(string)
	return jti
}
