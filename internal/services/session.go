package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/greencart/backend/internal/catalog"
	"github.com/greencart/backend/internal/models"
	"github.com/greencart/backend/pkg/logger"
)

// SessionService applies membership and item mutations against the group
// aggregate. Every mutation is scoped as narrowly as possible (single-row
// inserts, updates keyed by id) so concurrent members never lose each
// other's writes to a whole-aggregate rewrite.
type SessionService struct {
	DB            *gorm.DB
	Catalog       catalog.Resolver
	RetryAttempts int
}

func NewSessionService(db *gorm.DB, resolver catalog.Resolver, retryAttempts int) *SessionService {
	if retryAttempts < 1 {
		retryAttempts = 1
	}
	return &SessionService{DB: db, Catalog: resolver, RetryAttempts: retryAttempts}
}

// CreateGroup creates a group with the admin as its sole member and adds it
// to the admin's pending set.
func (s *SessionService) CreateGroup(name, date string, admin *models.User) (*models.Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("group name is required")
	}

	group := models.Group{
		Name:         name,
		AdminName:    admin.Name,
		AdminID:      admin.ID,
		PurchaseDate: date,
		Stage:        models.GroupStageForming,
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&group).Error; err != nil {
			return err
		}
		member := models.GroupMember{GroupID: group.ID, UserID: admin.ID}
		if err := tx.Create(&member).Error; err != nil {
			return err
		}
		ref := models.UserGroupRef{UserID: admin.ID, GroupID: group.ID, State: models.GroupRefPending}
		return tx.Create(&ref).Error
	})
	if err != nil {
		return nil, err
	}

	return &group, nil
}

// JoinGroup adds a member entry if the user is not already a member, adds
// the group to the joiner's pending set, appends a system message
// announcing the join and marks the triggering notification (if any) read.
// A repeat join is a no-op and returns a nil message.
func (s *SessionService) JoinGroup(groupID, userID uuid.UUID, notificationID *uuid.UUID) (*models.User, *models.Message, error) {
	var group models.Group
	if err := s.DB.First(&group, "id = ?", groupID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrGroupNotFound
		}
		return nil, nil, err
	}

	var user models.User
	if err := s.DB.First(&user, "id = ?", userID).Error; err != nil {
		return nil, nil, err
	}

	var message *models.Message
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		member := models.GroupMember{GroupID: groupID, UserID: userID}
		result := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&member)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			// Already a member; nothing else to apply.
			return nil
		}

		ref := models.UserGroupRef{UserID: userID, GroupID: groupID, State: models.GroupRefPending}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&ref).Error; err != nil {
			return err
		}

		// Forming -> Pending fires exactly once, on the first join after
		// creation; the guarded WHERE keeps it one-way under concurrency.
		if err := tx.Model(&models.Group{}).
			Where("id = ? AND stage = ?", groupID, models.GroupStageForming).
			Update("stage", models.GroupStagePending).Error; err != nil {
			return err
		}

		joinMessage := models.Message{
			GroupID:  groupID,
			SenderID: userID,
			Content:  fmt.Sprintf("%s have joined your group", user.Name),
			SentAt:   time.Now().UTC(),
			IsSystem: true,
		}
		if err := tx.Create(&joinMessage).Error; err != nil {
			return err
		}
		if err := tx.Create(&models.MessageRead{MessageID: joinMessage.ID, UserID: userID}).Error; err != nil {
			return err
		}
		message = &joinMessage

		if notificationID != nil {
			if err := tx.Model(&models.Notification{}).
				Where("id = ? AND is_read = ?", *notificationID, false).
				Update("is_read", true).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	return &user, message, nil
}

// ExitGroup deletes every item the member owns, removes the member entry
// and drops the group from the user's pending set. Exiting a group the user
// is not a member of is a silent no-op.
func (s *SessionService) ExitGroup(groupID, userID uuid.UUID) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		var member models.GroupMember
		err := tx.First(&member, "group_id = ? AND user_id = ?", groupID, userID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		if err := tx.Where("group_member_id = ?", member.ID).Delete(&models.Item{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.GroupMember{}, "id = ?", member.ID).Error; err != nil {
			return err
		}
		return tx.Where("user_id = ? AND group_id = ? AND state = ?",
			userID, groupID, models.GroupRefPending).
			Delete(&models.UserGroupRef{}).Error
	})
}

// AddItem resolves the product from the catalog collaborator and appends an
// item to the caller's member entry. A catalog failure aborts the whole
// operation; no group state is touched.
func (s *SessionService) AddItem(groupID, userID, productID uuid.UUID, count int) (*models.Item, error) {
	if count < 1 {
		return nil, ErrInvalidQuantity
	}

	product, err := s.Catalog.FetchProduct(productID)
	if err != nil {
		return nil, err
	}

	var member models.GroupMember
	if err := s.DB.First(&member, "group_id = ? AND user_id = ?", groupID, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotMember
		}
		return nil, err
	}

	item := models.Item{
		GroupMemberID:   member.ID,
		ProductID:       product.ID,
		Quantity:        count,
		Name:            product.Name,
		CarbonFootprint: product.CarbonFootprint,
		EcoScore:        product.EcoScore,
		IsEcoFriendly:   product.IsEcoFriendly,
	}
	if err := s.DB.Create(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// UpdateItemQuantity sets the item's quantity. The caller must own the
// member entry the item hangs off. Quantity zero is never persisted; the
// caller deletes the item instead. Returns the owning group id.
func (s *SessionService) UpdateItemQuantity(itemID, callerID uuid.UUID, quantity int) (uuid.UUID, error) {
	if quantity < 1 {
		return uuid.Nil, ErrInvalidQuantity
	}

	member, err := s.itemOwner(itemID, callerID)
	if err != nil {
		return uuid.Nil, err
	}

	if err := s.DB.Model(&models.Item{}).Where("id = ?", itemID).
		Update("quantity", quantity).Error; err != nil {
		return uuid.Nil, err
	}
	return member.GroupID, nil
}

// DeleteItem removes the item from the caller's member entry.
func (s *SessionService) DeleteItem(itemID, callerID uuid.UUID) (uuid.UUID, error) {
	member, err := s.itemOwner(itemID, callerID)
	if err != nil {
		return uuid.Nil, err
	}

	if err := s.DB.Delete(&models.Item{}, "id = ?", itemID).Error; err != nil {
		return uuid.Nil, err
	}
	return member.GroupID, nil
}

func (s *SessionService) itemOwner(itemID, callerID uuid.UUID) (*models.GroupMember, error) {
	var item models.Item
	if err := s.DB.First(&item, "id = ?", itemID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, err
	}

	var member models.GroupMember
	if err := s.DB.First(&member, "id = ?", item.GroupMemberID).Error; err != nil {
		return nil, err
	}
	if member.UserID != callerID {
		return nil, ErrItemNotOwned
	}
	return &member, nil
}

// PlaceGroupOrder moves the group from every member's pending set to their
// ordered set. Each member's flip is an independent single-row update,
// retried on failure; members that keep failing are logged and left pending
// rather than rolling the others back.
func (s *SessionService) PlaceGroupOrder(groupID uuid.UUID) error {
	var group models.Group
	if err := s.DB.Preload("Members").First(&group, "id = ?", groupID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrGroupNotFound
		}
		return err
	}

	for _, member := range group.Members {
		var lastErr error
		for attempt := 0; attempt < s.RetryAttempts; attempt++ {
			lastErr = s.DB.Model(&models.UserGroupRef{}).
				Where("user_id = ? AND group_id = ? AND state = ?",
					member.UserID, groupID, models.GroupRefPending).
				Update("state", models.GroupRefOrdered).Error
			if lastErr == nil {
				break
			}
		}
		if lastErr != nil {
			logger.Error("order_member_flip_failed", lastErr, map[string]interface{}{
				"group_id": groupID.String(),
				"user_id":  member.UserID.String(),
			})
		}
	}

	return s.DB.Model(&models.Group{}).
		Where("id = ? AND stage <> ?", groupID, models.GroupStageOrdered).
		Update("stage", models.GroupStageOrdered).Error
}

// UpdateGroup edits name and purchase date. Only the admin may do this.
func (s *SessionService) UpdateGroup(groupID, callerID uuid.UUID, name, date string) (*models.Group, error) {
	var group models.Group
	if err := s.DB.First(&group, "id = ?", groupID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGroupNotFound
		}
		return nil, err
	}
	if group.AdminID != callerID {
		return nil, ErrNotAdmin
	}

	updates := map[string]interface{}{}
	if trimmed := strings.TrimSpace(name); trimmed != "" {
		updates["name"] = trimmed
	}
	if trimmed := strings.TrimSpace(date); trimmed != "" {
		updates["purchase_date"] = trimmed
	}
	if len(updates) == 0 {
		return &group, nil
	}

	if err := s.DB.Model(&models.Group{}).Where("id = ?", groupID).Updates(updates).Error; err != nil {
		return nil, err
	}

	if err := s.DB.First(&group, "id = ?", groupID).Error; err != nil {
		return nil, err
	}
	return &group, nil
}

// FetchPendingGroups lists the groups in the user's pending set.
func (s *SessionService) FetchPendingGroups(userID uuid.UUID) ([]models.Group, error) {
	return s.fetchGroupsByState(userID, models.GroupRefPending)
}

// FetchOrderedGroups lists the groups in the user's ordered set.
func (s *SessionService) FetchOrderedGroups(userID uuid.UUID) ([]models.Group, error) {
	return s.fetchGroupsByState(userID, models.GroupRefOrdered)
}

func (s *SessionService) fetchGroupsByState(userID uuid.UUID, state models.GroupRefState) ([]models.Group, error) {
	var refs []models.UserGroupRef
	err := s.DB.
		Preload("Group.Admin").
		Preload("Group.Members.User").
		Where("user_id = ? AND state = ?", userID, state).
		Order("created_at DESC").
		Find(&refs).Error
	if err != nil {
		return nil, err
	}

	groups := make([]models.Group, 0, len(refs))
	for _, ref := range refs {
		groups = append(groups, ref.Group)
	}
	return groups, nil
}

// FetchSingleOrderedGroup returns the full projection of one ordered group,
// provided it actually sits in the caller's ordered set.
func (s *SessionService) FetchSingleOrderedGroup(userID, groupID uuid.UUID) (*models.Group, error) {
	var ref models.UserGroupRef
	err := s.DB.First(&ref, "user_id = ? AND group_id = ? AND state = ?",
		userID, groupID, models.GroupRefOrdered).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGroupNotFound
		}
		return nil, err
	}
	return LoadGroupView(s.DB, groupID)
}
