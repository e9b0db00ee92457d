package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/talkboard/backend/internal/dto"
	"github.com/talkboard/backend/internal/middleware"
	"github.com/talkboard/backend/internal/session"
)

type AuthHandler struct {
	sessions *session.Manager
}

func NewAuthHandler(sessions *session.Manager) *AuthHandler {
	return &AuthHandler{sessions: sessions}
}

func (h *AuthHandler) Signup(c *fiber.Ctx) error {
	var req dto.SignupRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	if req.Username == "" || req.Email == "" || req.Password == "" {
		return fail(c, fiber.StatusBadRequest, "Username, email and password are required")
	}

	u, err := h.sessions.Signup(c.Context(), req.Username, req.Email, req.Password, c.IP())
	if err != nil {
		return gatewayError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewUserResponse(*u))
}

// ConfirmEmail redeems the confirmation token from the signup mail. Until
// it is redeemed, login is rejected as unconfirmed.
func (h *AuthHandler) ConfirmEmail(c *fiber.Ctx) error {
	var req dto.ConfirmEmailRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	if req.Token == "" {
		return fail(c, fiber.StatusBadRequest, "Confirmation token is required")
	}
	if err := h.sessions.ConfirmEmail(c.Context(), req.Token); err != nil {
		return gatewayError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Email confirmed"})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	token, sess, err := h.sessions.Login(c.Context(), req.Email, req.Password, c.IP(), c.Get("User-Agent"))
	if err != nil {
		return gatewayError(c, err)
	}
	return c.JSON(dto.AuthResponse{
		AccessToken: token,
		User:        dto.NewUserResponse(*sess.Authenticated),
	})
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	h.sessions.Logout(tokenJTI(c))
	return c.JSON(fiber.Map{"message": "Logged out successfully"})
}

func (h *AuthHandler) ForgotPassword(c *fiber.Ctx) error {
	var req dto.ResetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	// Respond identically whether or not the address exists.
	if err := h.sessions.ResetPassword(c.Context(), req.Email); err != nil {
		return c.JSON(fiber.Map{"message": "If the address exists, a reset email is on its way"})
	}
	return c.JSON(fiber.Map{"message": "If the address exists, a reset email is on its way"})
}

func (h *AuthHandler) UpdatePassword(c *fiber.Ctx) error {
	var req dto.UpdatePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	if len(req.NewPassword) < 8 {
		return fail(c, fiber.StatusBadRequest, "Password must be at least 8 characters")
	}
	if err := h.sessions.UpdatePassword(c.Context(), tokenJTI(c), req.NewPassword); err != nil {
		return gatewayError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Password updated"})
}

// Session reports both identity slots so the client can render the
// impersonation banner.
func (h *AuthHandler) Session(c *fiber.Ctx) error {
	sess := middleware.SessionFrom(c)
	return c.JSON(dto.SessionResponse{
		Acting:        dto.NewUserResponse(*sess.Acting()),
		Authenticated: dto.NewUserResponse(*sess.Authenticated),
		Impersonating: sess.Impersonating(),
	})
}

func (h *AuthHandler) Impersonate(c *fiber.Ctx) error {
	var req dto.ImpersonateRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	sess, err := h.sessions.LoginAs(c.Context(), tokenJTI(c), req.UserID)
	if err != nil {
		return gatewayError(c, err)
	}
	return c.JSON(dto.SessionResponse{
		Acting:        dto.NewUserResponse(*sess.Acting()),
		Authenticated: dto.NewUserResponse(*sess.Authenticated),
		Impersonating: sess.Impersonating(),
	})
}

func (h *AuthHandler) Revert(c *fiber.Ctx) error {
	sess, err := h.sessions.Revert(tokenJTI(c))
	if err != nil {
		return gatewayError(c, err)
	}
	return c.JSON(dto.SessionResponse{
		Acting:        dto.NewUserResponse(*sess.Acting()),
		Authenticated: dto.NewUserResponse(*sess.Authenticated),
		Impersonating: sess.Impersonating(),
	})
}
