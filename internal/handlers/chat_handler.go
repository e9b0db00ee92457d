package handlers

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/talkboard/backend/internal/cache"
	"github.com/talkboard/backend/internal/dto"
	"github.com/talkboard/backend/internal/gateway"
	"github.com/talkboard/backend/internal/middleware"
	"github.com/talkboard/backend/internal/models"
	"github.com/talkboard/backend/internal/storage"
	"github.com/talkboard/backend/internal/store"
)

// maxAttachmentSize caps uploads at 10 MiB.
const maxAttachmentSize = 10 << 20

// ChatHandler serves direct messages. Conversations go straight through
// the gateway; only profile lookups come from the snapshot. Chat always
// belongs to the authenticated identity, so an impersonating admin never
// reads or writes the target's DMs.
type ChatHandler struct {
	gw      gateway.Chat
	store   *store.Store
	cache   *cache.Client
	storage *storage.Storage
}

func NewChatHandler(gw gateway.Chat, st *store.Store, c *cache.Client, s *storage.Storage) *ChatHandler {
	return &ChatHandler{gw: gw, store: st, cache: c, storage: s}
}

func (h *ChatHandler) ListPartners(c *fiber.Ctx) error {
	sess := middleware.SessionFrom(c)
	me := sess.Authenticated.ID

	partnerIDs, err := h.gw.ListPartners(c.Context(), me)
	if err != nil {
		return gatewayError(c, err)
	}

	out := make([]dto.PartnerResponse, 0, len(partnerIDs))
	for _, pid := range partnerIDs {
		u, ok := h.store.UserByID(pid)
		if !ok {
			continue
		}
		unread, err := h.cache.UnreadCount(c.Context(), me, pid)
		if err != nil {
			unread = 0
		}
		out = append(out, dto.PartnerResponse{
			User:   dto.NewUserResponse(u),
			Unread: unread,
		})
	}
	return c.JSON(out)
}

func (h *ChatHandler) GetConversation(c *fiber.Ctx) error {
	partnerID, err := paramID(c)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid partner id")
	}
	sess := middleware.SessionFrom(c)
	me := sess.Authenticated.ID

	msgs, err := h.gw.ListConversation(c.Context(), me, partnerID)
	if err != nil {
		return gatewayError(c, err)
	}
	if err := h.cache.ClearUnread(c.Context(), me, partnerID); err != nil {
		slog.Debug("unread counter reset failed", "error", err)
	}
	return c.JSON(msgs)
}

func (h *ChatHandler) SendMessage(c *fiber.Ctx) error {
	var req dto.SendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	if req.Content == "" && len(req.Attachments) == 0 {
		return fail(c, fiber.StatusBadRequest, "Message needs content or an attachment")
	}
	sess := middleware.SessionFrom(c)

	msg, err := h.gw.CreateMessage(c.Context(), sess.Authenticated, req.ReceiverID, req.Content, req.Attachments)
	if err != nil {
		return gatewayError(c, err)
	}
	if err := h.cache.IncrementUnread(c.Context(), req.ReceiverID, sess.Authenticated.ID); err != nil {
		slog.Debug("unread counter bump failed", "error", err)
	}
	return c.Status(fiber.StatusCreated).JSON(msg)
}

func (h *ChatHandler) EditMessage(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid message id")
	}
	var req dto.EditMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	sess := middleware.SessionFrom(c)
	if err := h.gw.UpdateMessage(c.Context(), sess.Authenticated, id, req.Content, req.Attachments); err != nil {
		return gatewayError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Message updated"})
}

func (h *ChatHandler) DeleteMessage(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid message id")
	}
	sess := middleware.SessionFrom(c)
	if err := h.gw.DeleteMessage(c.Context(), sess.Authenticated, id); err != nil {
		return gatewayError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Message deleted"})
}

func (h *ChatHandler) React(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid message id")
	}
	var req dto.ReactRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	if req.Emoji == "" {
		return fail(c, fiber.StatusBadRequest, "Emoji is required")
	}
	sess := middleware.SessionFrom(c)
	if err := h.gw.ToggleReaction(c.Context(), sess.Authenticated, id, req.Emoji); err != nil {
		return gatewayError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Reaction toggled"})
}

// UploadAttachment stores one file and returns the attachment shape the
// client embeds in its next SendMessage call.
func (h *ChatHandler) UploadAttachment(c *fiber.Ctx) error {
	if h.storage == nil {
		return fail(c, fiber.StatusServiceUnavailable, "Attachment storage is not configured")
	}
	header, err := c.FormFile("file")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "File is required")
	}
	if header.Size > maxAttachmentSize {
		return fail(c, fiber.StatusRequestEntityTooLarge, "File exceeds 10 MB limit")
	}

	f, err := header.Open()
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Cannot read uploaded file")
	}
	defer f.Close()

	contentType := header.Header.Get("Content-Type")
	url, err := h.storage.Upload(c.Context(), header.Filename, contentType, header.Size, f)
	if err != nil {
		slog.Error("attachment upload failed", "error", err)
		return fail(c, fiber.StatusInternalServerError, "Upload failed")
	}

	return c.Status(fiber.StatusCreated).JSON(dto.AttachmentUploadResponse{
		Attachment: models.Attachment{
			URL:         url,
			Name:        header.Filename,
			ContentType: contentType,
			Size:        header.Size,
		},
	})
}
