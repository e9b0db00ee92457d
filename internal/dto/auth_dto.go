package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/talkboard/backend/internal/models"
)

type SignupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ConfirmEmailRequest struct {
	Token string `json:"token"`
}

type ResetPasswordRequest struct {
	Email string `json:"email"`
}

type UpdatePasswordRequest struct {
	NewPassword string `json:"newPassword"`
}

type ImpersonateRequest struct {
	UserID uuid.UUID `json:"userId"`
}

type AuthResponse struct {
	AccessToken string       `json:"accessToken"`
	User        UserResponse `json:"user"`
}

// SessionResponse exposes the two-slot identity: what the client renders
// as (acting) versus what every write is attributed to (authenticated).
type SessionResponse struct {
	Acting        UserResponse `json:"acting"`
	Authenticated UserResponse `json:"authenticated"`
	Impersonating bool         `json:"impersonating"`
}

// UserResponse is the normalized domain shape of a profile.
type UserResponse struct {
	ID              uuid.UUID `json:"id"`
	Username        string    `json:"username"`
	DisplayName     string    `json:"displayName"`
	AvatarURL       string    `json:"avatarUrl"`
	BannerURL       string    `json:"bannerUrl"`
	Role            string    `json:"role"`
	Status          string    `json:"status"`
	JoinDate        time.Time `json:"joinDate"`
	PostCount       int       `json:"postCount"`
	About           string    `json:"about"`
	ThemePreference string    `json:"themePreference"`
	BanReason       string    `json:"banReason,omitempty"`
	BanExpires      string    `json:"banExpires,omitempty"`
	IsProtected     bool      `json:"isProtected"`
}

// NewUserResponse maps a profile row to its domain shape, filling defaults
// for absent optional fields.
func NewUserResponse(u models.User) UserResponse {
	u.Normalize()
	return UserResponse{
		ID:              u.ID,
		Username:        u.Username,
		DisplayName:     u.DisplayName,
		AvatarURL:       u.AvatarURL,
		BannerURL:       u.BannerURL,
		Role:            u.Role,
		Status:          u.Status,
		JoinDate:        u.CreatedAt,
		PostCount:       u.PostCount,
		About:           u.About,
		ThemePreference: u.ThemePreference,
		BanReason:       u.BanReason,
		BanExpires:      u.BanExpires,
		IsProtected:     u.IsProtected,
	}
}

type ErrorResponse struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	DB        string `json:"db"`
	Cache     string `json:"cache"`
}
