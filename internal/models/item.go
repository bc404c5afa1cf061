package models

import "github.com/google/uuid"

// Item is one member's claim on a catalog product. Product attributes are
// cached at add time and never re-synced with the catalog. Quantity is
// always positive while the row exists; deleting the row is the only
// representation of zero.
type Item struct {
	BaseModel
	GroupMemberID   uuid.UUID `json:"groupMemberID" gorm:"type:uuid;not null;index"`
	ProductID       uuid.UUID `json:"productID" gorm:"type:uuid;not null;index"`
	Quantity        int       `json:"quantity" gorm:"not null"`
	Name            string    `json:"name" gorm:"type:varchar(255);not null"`
	CarbonFootprint float64   `json:"carbonFootprint"`
	EcoScore        float64   `json:"ecoScore"`
	IsEcoFriendly   bool      `json:"isEcoFriendly"`
	Product         Product   `json:"product,omitempty" gorm:"foreignKey:ProductID"`
}
