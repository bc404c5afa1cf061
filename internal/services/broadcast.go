package services

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/greencart/backend/internal/metrics"
	"github.com/greencart/backend/internal/models"
	"github.com/greencart/backend/internal/ws"
	"github.com/greencart/backend/pkg/logger"
)

// MutationKind tags a committed group mutation so the coordinator can pick
// the outbound event name.
type MutationKind string

const (
	MutationItemAdded   MutationKind = "added"
	MutationItemRemoved MutationKind = "removed"
	MutationOrderPlaced MutationKind = "ordered"
)

func (k MutationKind) eventName() string {
	switch k {
	case MutationItemRemoved:
		return ws.EventItemRemoved
	case MutationOrderPlaced:
		return ws.EventOrderPlaced
	default:
		return ws.EventNewItemAdded
	}
}

// Broadcaster re-emits group state to chat rooms after mutations commit.
type Broadcaster struct {
	DB  *gorm.DB
	Hub *ws.Hub
}

func NewBroadcaster(db *gorm.DB, hub *ws.Hub) *Broadcaster {
	return &Broadcaster{DB: db, Hub: hub}
}

type snapshotPayload struct {
	UserID uuid.UUID     `json:"userId"`
	Group  *models.Group `json:"group"`
}

// EmitGroupSnapshot reloads the group projection and broadcasts it to the
// group's room. Broadcasts run only after the mutation has fully committed,
// so subscribers never observe partial state.
func (b *Broadcaster) EmitGroupSnapshot(groupID, actorID uuid.UUID, kind MutationKind) {
	group, err := LoadGroupView(b.DB, groupID)
	if err != nil {
		logger.Error("broadcast_snapshot_load_failed", err, map[string]interface{}{
			"group_id": groupID.String(),
		})
		return
	}

	b.Hub.Broadcast(groupID.String(), kind.eventName(), snapshotPayload{
		UserID: actorID,
		Group:  group,
	})
}

// SnapshotTo sends the current projection to a single connection, the
// point-to-point catch-up a client receives when it joins a group room.
func (b *Broadcaster) SnapshotTo(conn ws.Conn, groupID uuid.UUID, event string) error {
	group, err := LoadGroupView(b.DB, groupID)
	if err != nil {
		return err
	}
	return b.Hub.Send(conn, event, snapshotPayload{Group: group})
}

// EmitOrderPlaced tells every subscribed member the group order went through.
func (b *Broadcaster) EmitOrderPlaced(groupID uuid.UUID) {
	b.Hub.Broadcast(groupID.String(), ws.EventOrderPlaced, map[string]interface{}{
		"message": "Your order placed",
	})
}

// SendGroupMessage persists a chat message and relays it to the group room.
// Messages take the light path: only the message object is broadcast, not a
// full snapshot, since history is append-only.
func (b *Broadcaster) SendGroupMessage(groupID, senderID uuid.UUID, content string) (*models.Message, error) {
	message, err := b.persistMessage(groupID, senderID, content)
	if err != nil {
		return nil, err
	}

	b.Hub.Broadcast(groupID.String(), ws.EventReceiveMessage, map[string]interface{}{
		"message": message,
	})
	return message, nil
}

// SendPrivateMessage persists a message on the post-order private path. The
// caller emits it to the originating connection only.
func (b *Broadcaster) SendPrivateMessage(groupID, senderID uuid.UUID, content string) (*models.Message, error) {
	return b.persistMessage(groupID, senderID, content)
}

func (b *Broadcaster) persistMessage(groupID, senderID uuid.UUID, content string) (*models.Message, error) {
	message := models.Message{
		GroupID:  groupID,
		SenderID: senderID,
		Content:  content,
		SentAt:   time.Now().UTC(),
	}

	err := b.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&message).Error; err != nil {
			return err
		}
		// The sender has read their own message.
		return tx.Create(&models.MessageRead{MessageID: message.ID, UserID: senderID}).Error
	})
	if err != nil {
		return nil, err
	}

	if err := b.DB.Preload("Sender").Preload("ReadBy").First(&message, "id = ?", message.ID).Error; err != nil {
		return nil, err
	}

	metrics.MessagesTotal.Inc()
	return &message, nil
}
