package models

import (
	"time"

	"github.com/google/uuid"
)

// Message is immutable after creation except for readBy growth.
type Message struct {
	BaseModel
	GroupID  uuid.UUID     `json:"groupID" gorm:"type:uuid;not null;index"`
	SenderID uuid.UUID     `json:"senderID" gorm:"type:uuid;not null;index"`
	Content  string        `json:"content" gorm:"type:text;not null"`
	SentAt   time.Time     `json:"sentAt" gorm:"not null"`
	IsSystem bool          `json:"isSystem" gorm:"not null;default:false"`
	Sender   User          `json:"sender,omitempty" gorm:"foreignKey:SenderID"`
	ReadBy   []MessageRead `json:"readBy,omitempty" gorm:"foreignKey:MessageID"`
}

// MessageRead records that one user has seen one message. The unique pair
// index makes the readBy set append-only and idempotent.
type MessageRead struct {
	BaseModel
	MessageID uuid.UUID `json:"messageID" gorm:"type:uuid;not null;index;uniqueIndex:idx_message_reader"`
	UserID    uuid.UUID `json:"userID" gorm:"type:uuid;not null;index;uniqueIndex:idx_message_reader"`
}
