package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Thread is a forum topic. AuthorName is a denormalized snapshot taken at
// creation time; it is not updated when the profile renames itself.
// Invariant: Likes == len(LikedBy).
type Thread struct {
	ID         uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	CategoryID string         `gorm:"column:category_id;size:50;not null;index" json:"categoryId"`
	AuthorID   uuid.UUID      `gorm:"type:uuid;not null;index" json:"authorId"`
	AuthorName string         `gorm:"column:author_name;size:64" json:"authorName"`
	Title      string         `gorm:"size:200;not null" json:"title"`
	Content    string         `gorm:"type:text;not null" json:"content"`
	ReplyCount int            `gorm:"column:reply_count;default:0" json:"replyCount"`
	ViewCount  int            `gorm:"column:view_count;default:0" json:"viewCount"`
	Likes      int            `gorm:"default:0" json:"likes"`
	LikedBy    pq.StringArray `gorm:"column:liked_by;type:text[]" json:"likedBy"`
	IsLocked   bool           `gorm:"column:is_locked;default:false" json:"isLocked"`
	IsPinned   bool           `gorm:"column:is_pinned;default:false" json:"isPinned"`
	CreatedAt  time.Time      `json:"createdAt"`
	UpdatedAt  time.Time      `json:"-"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Thread) TableName() string { return "threads" }

// LikedByUser reports whether the given profile is in the liked_by set.
func (t *Thread) LikedByUser(userID uuid.UUID) bool {
	return containsID(t.LikedBy, userID)
}

// Post is a reply inside a thread. Invariant: Likes == len(LikedBy).
// The parent thread's reply_count is maintained by the data layer, never
// recomputed from cached posts.
type Post struct {
	ID         uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ThreadID   uuid.UUID      `gorm:"column:thread_id;type:uuid;not null;index" json:"threadId"`
	AuthorID   uuid.UUID      `gorm:"type:uuid;not null;index" json:"authorId"`
	AuthorName string         `gorm:"column:author_name;size:64" json:"authorName"`
	Content    string         `gorm:"type:text;not null" json:"content"`
	Likes      int            `gorm:"default:0" json:"likes"`
	LikedBy    pq.StringArray `gorm:"column:liked_by;type:text[]" json:"likedBy"`
	CreatedAt  time.Time      `json:"createdAt"`
	UpdatedAt  time.Time      `json:"-"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Post) TableName() string { return "posts" }

// LikedByUser reports whether the given profile is in the liked_by set.
func (p *Post) LikedByUser(userID uuid.UUID) bool {
	return containsID(p.LikedBy, userID)
}

// ToggleLike adds or removes the user from a liked_by set and returns the
// new set. The caller writes both the set and its length back together so
// the like-count invariant survives the round trip.
func ToggleLike(likedBy pq.StringArray, userID uuid.UUID) pq.StringArray {
	id := userID.String()
	out := make(pq.StringArray, 0, len(likedBy)+1)
	found := false
	for _, v := range likedBy {
		if v == id {
			found = true
			continue
		}
		out = append(out, v)
	}
	if !found {
		out = append(out, id)
	}
	return out
}

func containsID(set pq.StringArray, userID uuid.UUID) bool {
	id := userID.String()
	for _, v := range set {
		if v == id {
			return true
		}
	}
	return false
}
