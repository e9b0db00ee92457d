package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/talkboard/backend/internal/dto"
	"github.com/talkboard/backend/internal/middleware"
	"github.com/talkboard/backend/internal/moderation"
	"github.com/talkboard/backend/internal/store"
)

type UserHandler struct {
	store *store.Store
}

func NewUserHandler(st *store.Store) *UserHandler {
	return &UserHandler{store: st}
}

// ListMembers serves the public member directory. Banned profiles stay
// listed; their bios are masked.
func (h *UserHandler) ListMembers(c *fiber.Ctx) error {
	users := h.store.Users()
	out := make([]dto.UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, dto.NewUserResponse(moderation.VisibleProfile(u)))
	}
	return c.JSON(out)
}

func (h *UserHandler) GetProfile(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid user id")
	}
	u, ok := h.store.UserByID(id)
	if !ok {
		return fail(c, fiber.StatusNotFound, "Not found")
	}
	return c.JSON(dto.NewUserResponse(moderation.VisibleProfile(u)))
}

// Me returns the acting identity's own profile, uncensored.
func (h *UserHandler) Me(c *fiber.Ctx) error {
	sess := middleware.SessionFrom(c)
	acting := sess.Acting()
	u, ok := h.store.UserByID(acting.ID)
	if !ok {
		u = *acting
	}
	return c.JSON(dto.NewUserResponse(u))
}

// UpdateProfile applies a partial edit to the profile in the URL. The
// write carries only the fields present in the request.
func (h *UserHandler) UpdateProfile(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid user id")
	}
	var req dto.UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	fields := req.Fields()
	if len(fields) == 0 {
		return fail(c, fiber.StatusBadRequest, "Nothing to update")
	}
	sess := middleware.SessionFrom(c)
	if err := h.store.UpdateProfile(c.Context(), sess.Authenticated, id, fields); err != nil {
		return gatewayError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Profile updated"})
}
