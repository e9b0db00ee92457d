package models

import (
	"time"

	"github.com/google/uuid"
)

// IPBan is a network-address ban. Created alongside a profile ban when the
// moderator requests it and the target has a known last_ip; revocable on
// its own without unbanning the profile.
type IPBan struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	IPAddress string    `gorm:"column:ip_address;size:45;not null;uniqueIndex" json:"ip_address"`
	Reason    string    `gorm:"size:500" json:"reason"`
	BannedBy  uuid.UUID `gorm:"column:banned_by;type:uuid" json:"banned_by"`
	CreatedAt time.Time `json:"created_at"`
}

func (IPBan) TableName() string { return "ip_bans" }

// UserIP is one login audit entry: which address and agent a profile
// authenticated from.
type UserIP struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;index" json:"user_id"`
	IPAddress string    `gorm:"column:ip_address;size:45;not null" json:"ip_address"`
	UserAgent string    `gorm:"column:user_agent;size:512" json:"user_agent"`
	CreatedAt time.Time `json:"created_at"`
}

func (UserIP) TableName() string { return "user_ips" }
