package dto

import (
	"github.com/talkboard/backend/internal/models"
)

type CreateReportRequest struct {
	Type           string `json:"type"` // POST, THREAD or USER
	TargetID       string `json:"targetId"`
	AuthorUsername string `json:"authorUsername"`
	TargetURL      string `json:"targetUrl"`
	Reason         string `json:"reason"`
	ContentSnippet string `json:"contentSnippet"`
}

type ResolveReportRequest struct {
	Status string `json:"status"` // RESOLVED or DISMISSED
}

// BanUserRequest: Duration is a day count as text, or "Permanent".
type BanUserRequest struct {
	Reason   string `json:"reason"`
	Duration string `json:"duration"`
	IPBan    bool   `json:"ipBan"`
}

type WarnUserRequest struct {
	Reason string `json:"reason"`
}

type SetProtectedRequest struct {
	Protected bool `json:"protected"`
}

type UpdateNotesRequest struct {
	Notes string `json:"notes"`
}

type AdvisoryRequest struct {
	Content     string `json:"content"`
	ContentType string `json:"contentType"` // e.g. "thread", "post", "bio"
}

type AdvisoryResponse struct {
	Assessment string `json:"assessment"`
}

// ModerationUserView extends the public profile shape with the fields
// only moderators see.
type ModerationUserView struct {
	UserResponse
	Email       string              `json:"email"`
	LastIP      string              `json:"lastIp"`
	Notes       string              `json:"notes"`
	Punishments []models.Punishment `json:"punishments"`
}

// NewModerationUserView maps a profile for the moderation panel.
func NewModerationUserView(u models.User) ModerationUserView {
	return ModerationUserView{
		UserResponse: NewUserResponse(u),
		Email:        u.Email,
		LastIP:       u.LastIP,
		Notes:        u.Notes,
		Punishments:  u.PunishmentHistory(),
	}
}
