package models

import "github.com/google/uuid"

type GroupRefState string

const (
	GroupRefPending GroupRefState = "pending"
	GroupRefOrdered GroupRefState = "ordered"
)

// UserGroupRef is a user's back-reference to a group. The unique
// (user_id, group_id) index guarantees a group sits in exactly one of the
// user's pending/ordered sets; order placement flips State in place.
type UserGroupRef struct {
	BaseModel
	UserID  uuid.UUID     `json:"userID" gorm:"type:uuid;not null;index;uniqueIndex:idx_user_group_ref"`
	GroupID uuid.UUID     `json:"groupID" gorm:"type:uuid;not null;index;uniqueIndex:idx_user_group_ref"`
	State   GroupRefState `json:"state" gorm:"type:varchar(20);not null;default:'pending';index"`
	Group   Group         `json:"group,omitempty" gorm:"foreignKey:GroupID"`
}
