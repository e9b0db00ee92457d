package dto

import (
	"github.com/google/uuid"

	"github.com/talkboard/backend/internal/models"
)

type SendMessageRequest struct {
	ReceiverID  uuid.UUID           `json:"receiverId"`
	Content     string              `json:"content"`
	Attachments []models.Attachment `json:"attachments,omitempty"`
}

type EditMessageRequest struct {
	Content     string              `json:"content"`
	Attachments []models.Attachment `json:"attachments,omitempty"`
}

type ReactRequest struct {
	Emoji string `json:"emoji"`
}

// PartnerResponse is one entry of the chat partner list.
type PartnerResponse struct {
	User   UserResponse `json:"user"`
	Unread int64        `json:"unread"`
}

type AttachmentUploadResponse struct {
	Attachment models.Attachment `json:"attachment"`
}
