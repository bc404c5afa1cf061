package catalog

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/greencart/backend/internal/models"
)

var ErrProductNotFound = errors.New("product not found")

// Resolver fetches catalog products for item creation. The catalog itself
// (storage, search, scoring) is an external collaborator; the session
// service only depends on this interface.
type Resolver interface {
	FetchProduct(id uuid.UUID) (*models.Product, error)
}

type GormResolver struct {
	DB *gorm.DB
}

func NewGormResolver(db *gorm.DB) *GormResolver {
	return &GormResolver{DB: db}
}

func (r *GormResolver) FetchProduct(id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.DB.First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return &product, nil
}
