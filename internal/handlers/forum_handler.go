package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/talkboard/backend/internal/dto"
	"github.com/talkboard/backend/internal/middleware"
	"github.com/talkboard/backend/internal/models"
	"github.com/talkboard/backend/internal/moderation"
	"github.com/talkboard/backend/internal/store"
)

type ForumHandler struct {
	store *store.Store
}

func NewForumHandler(st *store.Store) *ForumHandler {
	return &ForumHandler{store: st}
}

func paramID(c *fiber.Ctx) (uuid.UUID, error) {
	return uuid.Parse(c.Params("id"))
}

// ListThreads serves the snapshot with banned authors' content masked.
// The mask is applied on the way out; stored text is untouched.
func (h *ForumHandler) ListThreads(c *fiber.Ctx) error {
	threads := moderation.VisibleThreads(h.store.Threads(), h.store.BannedSet())
	return c.JSON(threads)
}

func (h *ForumHandler) GetThread(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid thread id")
	}
	thread, ok := h.store.ThreadByID(id)
	if !ok {
		return fail(c, fiber.StatusNotFound, "Not found")
	}
	banned := h.store.BannedSet()
	threads := moderation.VisibleThreads([]models.Thread{thread}, banned)
	posts := moderation.VisiblePosts(h.store.PostsForThread(id), banned)
	return c.JSON(fiber.Map{
		"thread": threads[0],
		"posts":  posts,
	})
}

func (h *ForumHandler) CreateThread(c *fiber.Ctx) error {
	var req dto.CreateThreadRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	if req.CategoryID == "" || req.Title == "" || req.Content == "" {
		return fail(c, fiber.StatusBadRequest, "Category, title and content are required")
	}
	sess := middleware.SessionFrom(c)
	thread, err := h.store.CreateThread(c.Context(), sess.Authenticated, req.CategoryID, req.Title, req.Content)
	if err != nil {
		return gatewayError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(thread)
}

func (h *ForumHandler) DeleteThread(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid thread id")
	}
	sess := middleware.SessionFrom(c)
	if err := h.store.DeleteThread(c.Context(), sess.Authenticated, id); err != nil {
		return gatewayError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Thread deleted"})
}

func (h *ForumHandler) CreatePost(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid thread id")
	}
	var req dto.CreatePostRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	if req.Content == "" {
		return fail(c, fiber.StatusBadRequest, "Content is required")
	}
	sess := middleware.SessionFrom(c)
	post, err := h.store.CreatePost(c.Context(), sess.Authenticated, id, req.Content)
	if err != nil {
		return gatewayError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

func (h *ForumHandler) UpdatePost(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid post id")
	}
	var req dto.UpdatePostRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	sess := middleware.SessionFrom(c)
	if err := h.store.UpdatePost(c.Context(), sess.Authenticated, id, req.Content); err != nil {
		return gatewayError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Post updated"})
}

func (h *ForumHandler) DeletePost(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid post id")
	}
	sess := middleware.SessionFrom(c)
	if err := h.store.DeletePost(c.Context(), sess.Authenticated, id); err != nil {
		return gatewayError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Post deleted"})
}

func (h *ForumHandler) ToggleThreadLike(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid thread id")
	}
	sess := middleware.SessionFrom(c)
	if err := h.store.ToggleThreadLike(c.Context(), sess.Authenticated, id); err != nil {
		return gatewayError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Like toggled"})
}

func (h *ForumHandler) TogglePostLike(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid post id")
	}
	sess := middleware.SessionFrom(c)
	if err := h.store.TogglePostLike(c.Context(), sess.Authenticated, id); err != nil {
		return gatewayError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Like toggled"})
}

// RecordView bumps the view counter. The increment is atomic at the
// data layer, so concurrent views never lose counts.
func (h *ForumHandler) RecordView(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid thread id")
	}
	if err := h.store.RecordThreadView(c.Context(), id); err != nil {
		return gatewayError(c, err)
	}
	return c.JSON(fiber.Map{"message": "View recorded"})
}

func (h *ForumHandler) SetPinned(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid thread id")
	}
	var req struct {
		Pinned bool `json:"pinned"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	sess := middleware.SessionFrom(c)
	if err := h.store.SetThreadPinned(c.Context(), sess.Authenticated, id, req.Pinned); err != nil {
		return gatewayError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Thread updated"})
}

func (h *ForumHandler) SetLocked(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid thread id")
	}
	var req struct {
		Locked bool `json:"locked"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	sess := middleware.SessionFrom(c)
	if err := h.store.SetThreadLocked(c.Context(), sess.Authenticated, id, req.Locked); err != nil {
		return gatewayError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Thread updated"})
}
