// Package gateway is the data boundary of the service. All authorization
// is enforced here, before a write commits; the HTTP layer hiding
// controls from non-privileged roles is presentation convenience only.
package gateway

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/talkboard/backend/internal/models"
)

var (
	ErrNotFound           = errors.New("record not found")
	ErrForbidden          = errors.New("operation not allowed")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailUnconfirmed   = errors.New("email address not confirmed")
	ErrEmailTaken         = errors.New("email already registered")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrThreadLocked       = errors.New("thread is locked")
	ErrProtectedUser      = errors.New("profile is protected")
)

// Auth covers credential exchange and the login audit trail.
type Auth interface {
	Authenticate(ctx context.Context, email, password string) (*models.User, error)
	CreateAccount(ctx context.Context, username, email, password string) (*models.User, error)
	ConfirmEmail(ctx context.Context, token string) error
	ResetPassword(ctx context.Context, email string) error
	UpdatePassword(ctx context.Context, userID uuid.UUID, newPassword string) error
	LogUserIP(ctx context.Context, userID uuid.UUID, ip, userAgent string) error
	UpdateLastIP(ctx context.Context, userID uuid.UUID, ip string) error
}

// Reader provides the full-collection reads the resynchronization step
// is built from.
type Reader interface {
	ListUsers(ctx context.Context) ([]models.User, error)
	ListThreads(ctx context.Context) ([]models.Thread, error)
	ListPosts(ctx context.Context) ([]models.Post, error)
	ListReports(ctx context.Context) ([]models.Report, error)
	ListIPBans(ctx context.Context) ([]models.IPBan, error)
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Forum covers thread and post writes. Every method takes the acting
// identity for its policy check.
type Forum interface {
	CreateThread(ctx context.Context, actor *models.User, categoryID, title, content string) (*models.Thread, error)
	DeleteThread(ctx context.Context, actor *models.User, threadID uuid.UUID) error
	CreatePost(ctx context.Context, actor *models.User, threadID uuid.UUID, content string) (*models.Post, error)
	UpdatePost(ctx context.Context, actor *models.User, postID uuid.UUID, content string) error
	DeletePost(ctx context.Context, actor *models.User, postID uuid.UUID) error
	SetThreadLikes(ctx context.Context, actor *models.User, threadID uuid.UUID, likedBy []string) error
	SetPostLikes(ctx context.Context, actor *models.User, postID uuid.UUID, likedBy []string) error
	SetThreadPinned(ctx context.Context, actor *models.User, threadID uuid.UUID, pinned bool) error
	SetThreadLocked(ctx context.Context, actor *models.User, threadID uuid.UUID, locked bool) error
	// IncrementThreadView is the one atomic server-side increment; it
	// never goes through the read-modify-write path.
	IncrementThreadView(ctx context.Context, threadID uuid.UUID) error
	UpdateProfile(ctx context.Context, actor *models.User, userID uuid.UUID, fields map[string]interface{}) error
}

// Moderation covers bans, warnings, protection and reports.
type Moderation interface {
	BanUser(ctx context.Context, actor *models.User, targetID uuid.UUID, reason, duration string, ipBan bool) error
	UnbanUser(ctx context.Context, actor *models.User, targetID uuid.UUID) error
	WarnUser(ctx context.Context, actor *models.User, targetID uuid.UUID, reason string) error
	SetProtected(ctx context.Context, actor *models.User, targetID uuid.UUID, protected bool) error
	UpdateNotes(ctx context.Context, actor *models.User, targetID uuid.UUID, notes string) error
	DeleteIPBan(ctx context.Context, actor *models.User, banID uuid.UUID) error
	IsIPBanned(ctx context.Context, ip string) (bool, error)
	CreateReport(ctx context.Context, actor *models.User, report models.Report) (*models.Report, error)
	SetReportStatus(ctx context.Context, actor *models.User, reportID uuid.UUID, status string) error
}

// Chat covers direct messages.
type Chat interface {
	ListPartners(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
	ListConversation(ctx context.Context, userID, partnerID uuid.UUID) ([]models.ChatMessage, error)
	CreateMessage(ctx context.Context, actor *models.User, receiverID uuid.UUID, content string, attachments []models.Attachment) (*models.ChatMessage, error)
	UpdateMessage(ctx context.Context, actor *models.User, messageID uuid.UUID, content string, attachments []models.Attachment) error
	DeleteMessage(ctx context.Context, actor *models.User, messageID uuid.UUID) error
	ToggleReaction(ctx context.Context, actor *models.User, messageID uuid.UUID, emoji string) error
}

// Gateway is the complete contract the session manager and state store
// are built against.
type Gateway interface {
	Auth
	Reader
	Forum
	Moderation
	Chat
}
