package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Attachment is one file attached to a direct message. Only the contract
// shape is stored; upload mechanics live in the storage client.
type Attachment struct {
	URL         string `json:"url"`
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
}

// ChatMessage is a direct message. Sender and receiver are immutable;
// content and attachments are mutable by the sender (marking is_edited),
// and only the sender may delete.
type ChatMessage struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SenderID    uuid.UUID      `gorm:"column:sender_id;type:uuid;not null;index" json:"sender_id"`
	ReceiverID  uuid.UUID      `gorm:"column:receiver_id;type:uuid;not null;index" json:"receiver_id"`
	Content     string         `gorm:"type:text" json:"content"`
	Attachments datatypes.JSON `gorm:"type:jsonb;default:'[]'" json:"attachments"`
	Reactions   datatypes.JSON `gorm:"type:jsonb;default:'{}'" json:"reactions"`
	IsEdited    bool           `gorm:"column:is_edited;default:false" json:"is_edited"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"-"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (ChatMessage) TableName() string { return "messages" }

// ReactionMap decodes the reactions column: emoji -> set of profile IDs.
func (m *ChatMessage) ReactionMap() map[string][]string {
	out := make(map[string][]string)
	if len(m.Reactions) == 0 {
		return out
	}
	if err := json.Unmarshal(m.Reactions, &out); err != nil {
		return make(map[string][]string)
	}
	return out
}

// ToggleReaction adds the user to the emoji's reaction set, or removes it
// when already present. Empty sets are dropped from the map.
func (m *ChatMessage) ToggleReaction(emoji string, userID uuid.UUID) error {
	reactions := m.ReactionMap()
	id := userID.String()

	set := reactions[emoji]
	kept := make([]string, 0, len(set)+1)
	found := false
	for _, v := range set {
		if v == id {
			found = true
			continue
		}
		kept = append(kept, v)
	}
	if !found {
		kept = append(kept, id)
	}
	if len(kept) == 0 {
		delete(reactions, emoji)
	} else {
		reactions[emoji] = kept
	}

	b, err := json.Marshal(reactions)
	if err != nil {
		return err
	}
	m.Reactions = datatypes.JSON(b)
	return nil
}

// AttachmentList decodes the attachments column.
func (m *ChatMessage) AttachmentList() []Attachment {
	var out []Attachment
	if len(m.Attachments) == 0 {
		return out
	}
	if err := json.Unmarshal(m.Attachments, &out); err != nil {
		return nil
	}
	return out
}

// SetAttachments encodes the attachment list into the column.
func (m *ChatMessage) SetAttachments(list []Attachment) error {
	if list == nil {
		list = []Attachment{}
	}
	b, err := json.Marshal(list)
	if err != nil {
		return err
	}
	m.Attachments = datatypes.JSON(b)
	return nil
}
