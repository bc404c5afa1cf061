package models

import "github.com/google/uuid"

type GroupStage string

const (
	GroupStageForming GroupStage = "forming"
	GroupStagePending GroupStage = "pending"
	GroupStageOrdered GroupStage = "ordered"
)

type Group struct {
	BaseModel
	Name         string        `json:"name" gorm:"type:varchar(150);not null"`
	AdminName    string        `json:"adminName" gorm:"type:varchar(100);not null"`
	AdminID      uuid.UUID     `json:"adminID" gorm:"type:uuid;not null;index"`
	PurchaseDate string        `json:"purchaseDate" gorm:"type:varchar(50)"`
	Stage        GroupStage    `json:"stage" gorm:"type:varchar(20);not null;default:'forming';index"`
	Members      []GroupMember `json:"members,omitempty" gorm:"foreignKey:GroupID"`
	Messages     []Message     `json:"messages,omitempty" gorm:"foreignKey:GroupID"`
	Admin        User          `json:"admin,omitempty" gorm:"foreignKey:AdminID"`
}

// IsOrdered reports whether the group has completed its lifecycle.
func (g *Group) IsOrdered() bool {
	return g.Stage == GroupStageOrdered
}
