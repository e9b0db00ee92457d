package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/talkboard/backend/internal/config"
	"github.com/talkboard/backend/internal/handlers"
	"github.com/talkboard/backend/internal/middleware"
	"github.com/talkboard/backend/internal/session"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	sessions *session.Manager,
	authHandler *handlers.AuthHandler,
	forumHandler *handlers.ForumHandler,
	userHandler *handlers.UserHandler,
	moderationHandler *handlers.ModerationHandler,
	chatHandler *handlers.ChatHandler,
	healthHandler *handlers.HealthHandler,
) {
	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	api.Get("/health", healthHandler.Check)

	// Auth endpoints are public, with a stricter limit: 10 req/min per IP
	auth := api.Group("/auth")
	auth.Use(limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))
	auth.Post("/signup", authHandler.Signup)
	auth.Post("/confirm", authHandler.ConfirmEmail)
	auth.Post("/login", authHandler.Login)
	auth.Post("/forgot-password", authHandler.ForgotPassword)

	// Everything below needs a valid token and a live session.
	protected := api.Group("", middleware.JWTProtected(cfg), middleware.SessionRequired(sessions))

	protected.Post("/auth/logout", authHandler.Logout)
	protected.Put("/auth/password", authHandler.UpdatePassword)
	protected.Get("/auth/session", authHandler.Session)

	// Forum
	protected.Get("/threads", forumHandler.ListThreads)
	protected.Post("/threads", forumHandler.CreateThread)
	protected.Get("/threads/:id", forumHandler.GetThread)
	protected.Delete("/threads/:id", forumHandler.DeleteThread)
	protected.Post("/threads/:id/view", forumHandler.RecordView)
	protected.Post("/threads/:id/like", forumHandler.ToggleThreadLike)
	protected.Post("/threads/:id/posts", forumHandler.CreatePost)
	protected.Put("/posts/:id", forumHandler.UpdatePost)
	protected.Delete("/posts/:id", forumHandler.DeletePost)
	protected.Post("/posts/:id/like", forumHandler.TogglePostLike)

	// Members
	protected.Get("/members", userHandler.ListMembers)
	protected.Get("/members/me", userHandler.Me)
	protected.Get("/members/:id", userHandler.GetProfile)
	protected.Put("/members/:id", userHandler.UpdateProfile)

	// Any member may file a report
	protected.Post("/reports", moderationHandler.CreateReport)

	// Chat
	protected.Get("/chat/partners", chatHandler.ListPartners)
	protected.Get("/chat/:id/messages", chatHandler.GetConversation)
	protected.Post("/chat/messages", chatHandler.SendMessage)
	protected.Put("/chat/messages/:id", chatHandler.EditMessage)
	protected.Delete("/chat/messages/:id", chatHandler.DeleteMessage)
	protected.Post("/chat/messages/:id/reactions", chatHandler.React)
	protected.Post("/chat/attachments", chatHandler.UploadAttachment)

	// Moderation panel
	mod := protected.Group("/moderation", middleware.ModeratorRequired())
	mod.Get("/reports", moderationHandler.ListReports)
	mod.Put("/reports/:id", moderationHandler.ResolveReport)
	mod.Get("/users", moderationHandler.ListUsers)
	mod.Post("/users/:id/ban", moderationHandler.BanUser)
	mod.Post("/users/:id/unban", moderationHandler.UnbanUser)
	mod.Post("/users/:id/warn", moderationHandler.WarnUser)
	mod.Put("/users/:id/notes", moderationHandler.UpdateNotes)
	mod.Get("/ip-bans", moderationHandler.ListIPBans)
	mod.Delete("/ip-bans/:id", moderationHandler.DeleteIPBan)
	mod.Post("/assess", moderationHandler.Assess)

	// Thread pin/lock live with the moderator group
	mod.Put("/threads/:id/pin", forumHandler.SetPinned)
	mod.Put("/threads/:id/lock", forumHandler.SetLocked)

	// Impersonation checks the authenticated identity inside the session
	// manager, not the acting one, so an impersonating admin can still
	// switch targets or revert.
	protected.Post("/admin/impersonate", authHandler.Impersonate)
	protected.Post("/admin/revert", authHandler.Revert)

	// Admin-only
	admin := protected.Group("/admin", middleware.AdminRequired())
	admin.Put("/users/:id/protected", moderationHandler.SetProtected)
}
