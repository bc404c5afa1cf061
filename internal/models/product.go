package models

type Product struct {
	BaseModel
	Name            string  `json:"name" gorm:"type:varchar(255);not null"`
	Price           float64 `json:"price" gorm:"not null"`
	CarbonFootprint float64 `json:"carbonFootprint"`
	EcoScore        float64 `json:"ecoScore"`
	IsEcoFriendly   bool    `json:"isEcoFriendly"`
}
