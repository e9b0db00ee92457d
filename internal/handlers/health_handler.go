package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/talkboard/backend/internal/cache"
	"github.com/talkboard/backend/internal/database"
	"github.com/talkboard/backend/internal/dto"
)

type HealthHandler struct {
	cache *cache.Client
}

func NewHealthHandler(c *cache.Client) *HealthHandler {
	return &HealthHandler{cache: c}
}

func (h *HealthHandler) Check(c *fiber.Ctx) error {
	resp := dto.HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		DB:        "ok",
		Cache:     "ok",
	}
	if err := database.Ping(); err != nil {
		resp.Status = "degraded"
		resp.DB = "unreachable"
	}
	if err := h.cache.Ping(c.Context()); err != nil {
		resp.Cache = "unreachable"
	}
	status := fiber.StatusOK
	if resp.DB != "ok" {
		status = fiber.StatusServiceUnavailable
	}
	return c.Status(status).JSON(resp)
}
