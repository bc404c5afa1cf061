package models

import "github.com/google/uuid"

type GroupMember struct {
	BaseModel
	GroupID uuid.UUID `json:"groupID" gorm:"type:uuid;not null;index;uniqueIndex:idx_group_user"`
	UserID  uuid.UUID `json:"userID" gorm:"type:uuid;not null;index;uniqueIndex:idx_group_user"`
	User    User      `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Items   []Item    `json:"items,omitempty" gorm:"foreignKey:GroupMemberID"`
}
