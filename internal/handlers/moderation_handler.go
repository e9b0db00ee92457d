package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/talkboard/backend/internal/advisory"
	"github.com/talkboard/backend/internal/dto"
	"github.com/talkboard/backend/internal/middleware"
	"github.com/talkboard/backend/internal/models"
	"github.com/talkboard/backend/internal/store"
)

type ModerationHandler struct {
	store    *store.Store
	advisory *advisory.Client
}

func NewModerationHandler(st *store.Store, adv *advisory.Client) *ModerationHandler {
	return &ModerationHandler{store: st, advisory: adv}
}

func (h *ModerationHandler) CreateReport(c *fiber.Ctx) error {
	var req dto.CreateReportRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	switch req.Type {
	case models.ReportTypePost, models.ReportTypeThread, models.ReportTypeUser:
	default:
		return fail(c, fiber.StatusBadRequest, "Invalid report type")
	}
	if req.TargetID == "" || req.Reason == "" {
		return fail(c, fiber.StatusBadRequest, "Target and reason are required")
	}

	sess := middleware.SessionFrom(c)
	report, err := h.store.CreateReport(c.Context(), sess.Authenticated, models.Report{
		Type:           req.Type,
		TargetID:       req.TargetID,
		AuthorUsername: req.AuthorUsername,
		TargetURL:      req.TargetURL,
		Reason:         req.Reason,
		ContentSnippet: req.ContentSnippet,
	})
	if err != nil {
		return gatewayError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(report)
}

func (h *ModerationHandler) ListReports(c *fiber.Ctx) error {
	return c.JSON(h.store.Reports())
}

func (h *ModerationHandler) ResolveReport(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid report id")
	}
	var req dto.ResolveReportRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	sess := middleware.SessionFrom(c)
	if err := h.store.SetReportStatus(c.Context(), sess.Authenticated, id, req.Status); err != nil {
		return gatewayError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Report updated"})
}

// ListUsers serves the moderation panel's member table, including the
// moderator-only columns.
func (h *ModerationHandler) ListUsers(c *fiber.Ctx) error {
	users := h.store.Users()
	out := make([]dto.ModerationUserView, 0, len(users))
	for _, u := range users {
		out = append(out, dto.NewModerationUserView(u))
	}
	return c.JSON(out)
}

func (h *ModerationHandler) BanUser(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid user id")
	}
	var req dto.BanUserRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	if req.Reason == "" || req.Duration == "" {
		return fail(c, fiber.StatusBadRequest, "Reason and duration are required")
	}
	sess := middleware.SessionFrom(c)
	if err := h.store.BanUser(c.Context(), sess.Authenticated, id, req.Reason, req.Duration, req.IPBan); err != nil {
		return gatewayError(c, err)
	}
	return c.JSON(fiber.Map{"message": "User banned"})
}

func (h *ModerationHandler) UnbanUser(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid user id")
	}
	sess := middleware.SessionFrom(c)
	if err := h.store.UnbanUser(c.Context(), sess.Authenticated, id); err != nil {
		return gatewayError(c, err)
	}
	return c.JSON(fiber.Map{"message": "User unbanned"})
}

func (h *ModerationHandler) WarnUser(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid user id")
	}
	var req dto.WarnUserRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	if req.Reason == "" {
		return fail(c, fiber.StatusBadRequest, "Reason is required")
	}
	sess := middleware.SessionFrom(c)
	if err := h.store.WarnUser(c.Context(), sess.Authenticated, id, req.Reason); err != nil {
		return gatewayError(c, err)
	}
	return c.JSON(fiber.Map{"message": "User warned"})
}

func (h *ModerationHandler) SetProtected(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid user id")
	}
	var req dto.SetProtectedRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	sess := middleware.SessionFrom(c)
	if err := h.store.SetProtected(c.Context(), sess.Authenticated, id, req.Protected); err != nil {
		return gatewayError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Protection updated"})
}

func (h *ModerationHandler) UpdateNotes(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid user id")
	}
	var req dto.UpdateNotesRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	sess := middleware.SessionFrom(c)
	if err := h.store.UpdateNotes(c.Context(), sess.Authenticated, id, req.Notes); err != nil {
		return gatewayError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Notes updated"})
}

func (h *ModerationHandler) ListIPBans(c *fiber.Ctx) error {
	return c.JSON(h.store.IPBans())
}

func (h *ModerationHandler) DeleteIPBan(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid ban id")
	}
	sess := middleware.SessionFrom(c)
	if err := h.store.DeleteIPBan(c.Context(), sess.Authenticated, id); err != nil {
		return gatewayError(c, err)
	}
	return c.JSON(fiber.Map{"message": "IP ban removed"})
}

// Assess asks the advisory model for a risk read. Always answers 200;
// when the model is unreachable the client gets the fallback line.
func (h *ModerationHandler) Assess(c *fiber.Ctx) error {
	var req dto.AdvisoryRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	if req.Content == "" {
		return fail(c, fiber.StatusBadRequest, "Content is required")
	}
	assessment := h.advisory.Assess(c.Context(), req.ContentType, req.Content)
	return c.JSON(dto.AdvisoryResponse{Assessment: assessment})
}
