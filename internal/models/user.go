package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Role values.
const (
	RoleUser      = "user"
	RoleModerator = "moderator"
	RoleAdmin     = "admin"
)

// Status values.
const (
	StatusActive = "active"
	StatusWarned = "warned"
	StatusBanned = "banned"
)

// BanNever marks a permanent ban in ban_expires.
const BanNever = "Never"

// DefaultAvatarURL is the placeholder used when a profile has no avatar.
const DefaultAvatarURL = "https://cdn.talkboard.io/avatars/default.png"

// DefaultTheme is the theme assigned to profiles that never picked one.
const DefaultTheme = "dark"

// User is a forum profile. Column names follow the profiles table; JSON
// names follow the normalized domain shape consumed by clients.
// Invariant: Status == banned implies BanReason and BanExpires are set
// (BanExpires == BanNever for permanent bans).
type User struct {
	ID              uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Username        string         `gorm:"size:32;not null;uniqueIndex" json:"username"`
	DisplayName     string         `gorm:"column:display_name;size:64" json:"displayName"`
	Email           string         `gorm:"size:255;not null;uniqueIndex" json:"email"`
	Password        string         `gorm:"not null" json:"-"`
	EmailConfirmed  bool           `gorm:"column:email_confirmed;default:false" json:"-"`
	ConfirmToken    string         `gorm:"column:confirm_token;size:64;index" json:"-"`
	AvatarURL       string         `gorm:"column:avatar_url;size:512" json:"avatarUrl"`
	BannerURL       string         `gorm:"column:banner_url;size:512" json:"bannerUrl"`
	Role            string         `gorm:"size:20;default:'user';index" json:"role"`
	Status          string         `gorm:"size:20;default:'active';index" json:"status"`
	PostCount       int            `gorm:"column:post_count;default:0" json:"postCount"`
	About           string         `gorm:"type:text" json:"about"`
	ThemePreference string         `gorm:"column:theme_preference;size:20;default:'dark'" json:"themePreference"`
	BanReason       string         `gorm:"column:ban_reason;size:500" json:"banReason,omitempty"`
	BanExpires      string         `gorm:"column:ban_expires;size:40" json:"banExpires,omitempty"`
	LastIP          string         `gorm:"column:last_ip;size:45" json:"-"`
	Notes           string         `gorm:"type:text" json:"-"`
	IsProtected     bool           `gorm:"column:is_protected;default:false" json:"isProtected"`
	Punishments     datatypes.JSON `gorm:"type:jsonb;default:'[]'" json:"punishments,omitempty"`
	CreatedAt       time.Time      `json:"joinDate"`
	UpdatedAt       time.Time      `json:"-"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string { return "profiles" }

// Punishment is one entry of a profile's punishment history.
type Punishment struct {
	Type     string    `json:"type"` // "warning" or "ban"
	Reason   string    `json:"reason"`
	IssuedBy string    `json:"issuedBy"`
	IssuedAt time.Time `json:"issuedAt"`
}

// IsBanned reports whether the profile is currently banned.
func (u *User) IsBanned() bool { return u.Status == StatusBanned }

// CanModerate reports whether the role carries moderation rights.
func (u *User) CanModerate() bool {
	return u.Role == RoleModerator || u.Role == RoleAdmin
}

// IsAdmin reports whether the profile has the admin role.
func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

// Normalize fills domain defaults for fields the storage row may omit.
// Mapping back to storage never writes these defaults; partial updates
// only emit explicitly present fields.
func (u *User) Normalize() {
	if u.Status == "" {
		u.Status = StatusActive
	}
	if u.AvatarURL == "" {
		u.AvatarURL = DefaultAvatarURL
	}
	if u.ThemePreference == "" {
		u.ThemePreference = DefaultTheme
	}
}

// PunishmentHistory decodes the punishments column. A missing or corrupt
// column yields an empty history rather than an error.
func (u *User) PunishmentHistory() []Punishment {
	var out []Punishment
	if len(u.Punishments) == 0 {
		return out
	}
	if err := json.Unmarshal(u.Punishments, &out); err != nil {
		return nil
	}
	return out
}

// AppendPunishment encodes history plus one new entry back into the column.
func (u *User) AppendPunishment(p Punishment) error {
	history := append(u.PunishmentHistory(), p)
	b, err := json.Marshal(history)
	if err != nil {
		return err
	}
	u.Punishments = datatypes.JSON(b)
	return nil
}
