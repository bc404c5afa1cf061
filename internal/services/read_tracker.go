package services

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/greencart/backend/internal/models"
)

// ReadTracker records which users have seen which messages and
// notifications. Both trackers are one-way: message reads are idempotent
// set inserts, notification reads only ever flip false to true.
type ReadTracker struct {
	DB *gorm.DB
}

func NewReadTracker(db *gorm.DB) *ReadTracker {
	return &ReadTracker{DB: db}
}

// MarkMessagesRead adds the user to the readBy set of each message. Marking
// an already-read message is a no-op.
func (r *ReadTracker) MarkMessagesRead(userID uuid.UUID, messageIDs []uuid.UUID) error {
	if len(messageIDs) == 0 {
		return nil
	}

	reads := make([]models.MessageRead, 0, len(messageIDs))
	for _, messageID := range messageIDs {
		reads = append(reads, models.MessageRead{MessageID: messageID, UserID: userID})
	}
	return r.DB.Clauses(clause.OnConflict{DoNothing: true}).Create(&reads).Error
}

// MarkNotificationsRead flips the given notifications to read. Rows already
// read are untouched; nothing ever flips back.
func (r *ReadTracker) MarkNotificationsRead(ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return r.DB.Model(&models.Notification{}).
		Where("id IN ? AND is_read = ?", ids, false).
		Update("is_read", true).Error
}

// UnreadNotifications lists the user's unread notifications with sender and
// group resolved, used for catch-up on connect.
func (r *ReadTracker) UnreadNotifications(userID uuid.UUID) ([]models.Notification, error) {
	var notifications []models.Notification
	err := r.DB.
		Preload("Sender").
		Preload("Group").
		Where("receiver_id = ? AND is_read = ?", userID, false).
		Order("created_at DESC").
		Find(&notifications).Error
	return notifications, err
}

// UnreadGroup is a pending group carrying only the messages the user has
// not read yet.
type UnreadGroup struct {
	ID       uuid.UUID        `json:"_id"`
	Name     string           `json:"name"`
	Messages []models.Message `json:"message"`
}

// GroupsWithUnreadMessages returns, for each of the user's pending groups,
// the messages the user has not read. Groups with nothing unread are
// omitted.
func (r *ReadTracker) GroupsWithUnreadMessages(userID uuid.UUID) ([]UnreadGroup, error) {
	var refs []models.UserGroupRef
	err := r.DB.
		Preload("Group.Messages", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("messages.sent_at ASC")
		}).
		Preload("Group.Messages.Sender").
		Preload("Group.Messages.ReadBy").
		Where("user_id = ? AND state = ?", userID, models.GroupRefPending).
		Find(&refs).Error
	if err != nil {
		return nil, err
	}

	var groups []UnreadGroup
	for _, ref := range refs {
		var unread []models.Message
		for _, message := range ref.Group.Messages {
			if !messageReadBy(message, userID) {
				unread = append(unread, message)
			}
		}
		if len(unread) == 0 {
			continue
		}
		groups = append(groups, UnreadGroup{
			ID:       ref.Group.ID,
			Name:     ref.Group.Name,
			Messages: unread,
		})
	}
	return groups, nil
}

func messageReadBy(message models.Message, userID uuid.UUID) bool {
	for _, read := range message.ReadBy {
		if read.UserID == userID {
			return true
		}
	}
	return false
}
