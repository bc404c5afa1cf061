package services

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/greencart/backend/internal/models"
)

// LoadGroupView resolves the denormalized projection of a group: metadata,
// every member with their items and product details, and the full message
// list with sender names and read sets. Clients always re-render from this
// server-computed snapshot instead of applying patches.
func LoadGroupView(db *gorm.DB, groupID uuid.UUID) (*models.Group, error) {
	var group models.Group
	err := db.
		Preload("Admin").
		Preload("Members.User").
		Preload("Members.Items.Product").
		Preload("Messages", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("messages.sent_at ASC")
		}).
		Preload("Messages.Sender").
		Preload("Messages.ReadBy").
		First(&group, "id = ?", groupID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGroupNotFound
		}
		return nil, err
	}
	return &group, nil
}
