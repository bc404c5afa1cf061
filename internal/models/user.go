package models

type User struct {
	BaseModel
	Name         string         `json:"name" gorm:"type:varchar(100);not null"`
	Email        string         `json:"email" gorm:"type:varchar(255);uniqueIndex;not null"`
	PasswordHash string         `json:"-" gorm:"type:text;not null"`
	City         string         `json:"city" gorm:"type:varchar(100)"`
	State        string         `json:"state" gorm:"type:varchar(100)"`
	Country      string         `json:"country" gorm:"type:varchar(100)"`
	PostalCode   string         `json:"postalCode" gorm:"type:varchar(20);index"`
	Latitude     float64        `json:"latitude"`
	Longitude    float64        `json:"longitude"`
	GroupRefs    []UserGroupRef `json:"-" gorm:"foreignKey:UserID"`
	Memberships  []GroupMember  `json:"-" gorm:"foreignKey:UserID"`
}
