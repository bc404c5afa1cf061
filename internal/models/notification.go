package models

import "github.com/google/uuid"

// Notification is one materialized fan-out row per (event, recipient) pair.
// IsRead only ever transitions false to true.
type Notification struct {
	BaseModel
	SenderID   uuid.UUID `json:"senderID" gorm:"type:uuid;not null;index"`
	ReceiverID uuid.UUID `json:"receiverID" gorm:"type:uuid;not null;index"`
	GroupID    uuid.UUID `json:"groupID" gorm:"type:uuid;not null;index"`
	Message    string    `json:"message" gorm:"type:text;not null"`
	IsRead     bool      `json:"isRead" gorm:"not null;default:false;index"`
	Sender     User      `json:"sender,omitempty" gorm:"foreignKey:SenderID"`
	Group      Group     `json:"group,omitempty" gorm:"foreignKey:GroupID"`
}
