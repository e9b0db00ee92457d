package models

import (
	"time"

	"github.com/google/uuid"
)

// Report target types.
const (
	ReportTypePost   = "POST"
	ReportTypeThread = "THREAD"
	ReportTypeUser   = "USER"
)

// Report statuses. Only moderators transition a report out of PENDING.
const (
	ReportPending   = "PENDING"
	ReportResolved  = "RESOLVED"
	ReportDismissed = "DISMISSED"
)

// Report is a user-submitted flag against a post, thread or profile.
type Report struct {
	ID             uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Type           string    `gorm:"size:10;not null;index" json:"type"`
	TargetID       string    `gorm:"column:target_id;size:64;not null;index" json:"targetId"`
	ReportedBy     uuid.UUID `gorm:"column:reported_by;type:uuid;not null;index" json:"reportedBy"`
	AuthorUsername string    `gorm:"column:author_username;size:32" json:"authorUsername"`
	TargetURL      string    `gorm:"column:target_url;size:512" json:"targetUrl"`
	Reason         string    `gorm:"size:500;not null" json:"reason"`
	ContentSnippet string    `gorm:"column:content_snippet;size:500" json:"contentSnippet"`
	Status         string    `gorm:"size:10;not null;default:'PENDING';index" json:"status"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"-"`
}

func (Report) TableName() string { return "reports" }
