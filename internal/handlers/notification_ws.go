package handlers

import (
	"encoding/json"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/greencart/backend/internal/metrics"
	"github.com/greencart/backend/internal/models"
	"github.com/greencart/backend/internal/services"
	"github.com/greencart/backend/internal/ws"
	"github.com/greencart/backend/pkg/logger"
)

type NotificationSocketHandler struct {
	DB      *gorm.DB
	Hub     *ws.Hub
	Session *services.SessionService
	Read    *services.ReadTracker
}

func NewNotificationSocketHandler(db *gorm.DB, hub *ws.Hub, session *services.SessionService, read *services.ReadTracker) *NotificationSocketHandler {
	return &NotificationSocketHandler{DB: db, Hub: hub, Session: session, Read: read}
}

func (h *NotificationSocketHandler) Handler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		client := ws.NewClient(conn)
		metrics.ActiveConnections.WithLabelValues(ws.ChannelNotification).Inc()
		defer func() {
			h.Hub.Disconnect(client)
			metrics.ActiveConnections.WithLabelValues(ws.ChannelNotification).Dec()
			_ = client.Close()
		}()

		for {
			var frame inboundFrame
			if err := conn.ReadJSON(&frame); err != nil {
				return
			}
			h.dispatch(client, frame)
		}
	})
}

func (h *NotificationSocketHandler) dispatch(client ws.Conn, frame inboundFrame) {
	switch frame.Event {
	case ws.EventJoinRoom:
		h.handleJoinRoom(client, frame.Data)
	case ws.EventJoinGroup:
		h.handleAcceptInvite(client, frame.Data)
	case ws.EventMarkReadMessage:
		h.handleMarkReadMessages(client, frame.Data)
	case ws.EventMarkGroupNotification:
		h.handleMarkNotifications(client, frame.Data)
	}
}

// handleJoinRoom subscribes the connection to the user's private room and
// pushes the catch-up payload: unread notifications plus pending groups
// with unread messages.
func (h *NotificationSocketHandler) handleJoinRoom(client ws.Conn, data json.RawMessage) {
	var rawUserID string
	if err := json.Unmarshal(data, &rawUserID); err != nil {
		return
	}
	userID, err := parseUUID(rawUserID)
	if err != nil {
		return
	}

	h.Hub.Join(userID.String(), client)
	h.sendCatchUp(client, userID)
}

type acceptInvitePayload struct {
	NotificationID string `json:"_id"`
	GroupID        string `json:"groupId"`
	UserID         string `json:"userId"`
}

// handleAcceptInvite joins the user to the group behind a notification,
// marks the notification read and tells the other members.
func (h *NotificationSocketHandler) handleAcceptInvite(client ws.Conn, data json.RawMessage) {
	var payload acceptInvitePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return
	}
	groupID, gErr := parseUUID(payload.GroupID)
	userID, uErr := parseUUID(payload.UserID)
	if gErr != nil || uErr != nil {
		return
	}

	var notificationID *uuid.UUID
	if parsed, err := parseUUID(payload.NotificationID); err == nil {
		notificationID = &parsed
	}

	user, message, err := h.Session.JoinGroup(groupID, userID, notificationID)
	if err != nil {
		logger.Error("notification_join_group_failed", err, map[string]interface{}{
			"group_id": payload.GroupID,
			"user_id":  payload.UserID,
		})
		return
	}

	// A nil message means the user was already a member.
	if message != nil {
		h.notifyExistingMembers(groupID, user, message.Content)
	}

	h.sendCatchUp(client, userID)
}

func (h *NotificationSocketHandler) notifyExistingMembers(groupID uuid.UUID, joiner *models.User, content string) {
	var members []models.GroupMember
	if err := h.DB.Where("group_id = ?", groupID).Find(&members).Error; err != nil {
		logger.Error("notification_members_load_failed", err, map[string]interface{}{
			"group_id": groupID.String(),
		})
		return
	}

	for _, member := range members {
		if member.UserID == joiner.ID {
			continue
		}
		h.Hub.Broadcast(member.UserID.String(), ws.EventNewUserJoinGroup, map[string]interface{}{
			"name":     joiner.Name,
			"senderId": joiner.ID,
			"content":  content,
		})
	}
}

type markReadMessagesPayload struct {
	UserID string `json:"userId"`
	Data   []struct {
		Message []struct {
			ID string `json:"_id"`
		} `json:"message"`
	} `json:"data"`
}

func (h *NotificationSocketHandler) handleMarkReadMessages(client ws.Conn, data json.RawMessage) {
	var payload markReadMessagesPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return
	}
	userID, err := parseUUID(payload.UserID)
	if err != nil {
		return
	}

	var messageIDs []uuid.UUID
	for _, group := range payload.Data {
		for _, message := range group.Message {
			if id, err := parseUUID(message.ID); err == nil {
				messageIDs = append(messageIDs, id)
			}
		}
	}

	if err := h.Read.MarkMessagesRead(userID, messageIDs); err != nil {
		logger.Error("mark_messages_read_failed", err, map[string]interface{}{
			"user_id": payload.UserID,
		})
		return
	}
	_ = h.Hub.Send(client, ws.EventMarkedMessage, map[string]interface{}{"message": "Message are marked"})
}

type markNotificationsPayload struct {
	Data []struct {
		ID string `json:"_id"`
	} `json:"data"`
}

func (h *NotificationSocketHandler) handleMarkNotifications(client ws.Conn, data json.RawMessage) {
	var payload markNotificationsPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return
	}

	var ids []uuid.UUID
	for _, notification := range payload.Data {
		if id, err := parseUUID(notification.ID); err == nil {
			ids = append(ids, id)
		}
	}

	if err := h.Read.MarkNotificationsRead(ids); err != nil {
		logger.Error("mark_notifications_read_failed", err, nil)
		return
	}
	_ = h.Hub.Send(client, ws.EventMarkedNotification, map[string]interface{}{"message": "Notification are marked"})
}

func (h *NotificationSocketHandler) sendCatchUp(client ws.Conn, userID uuid.UUID) {
	notifications, err := h.Read.UnreadNotifications(userID)
	if err != nil {
		logger.Error("catchup_notifications_failed", err, map[string]interface{}{
			"user_id": userID.String(),
		})
		return
	}

	unreadGroups, err := h.Read.GroupsWithUnreadMessages(userID)
	if err != nil {
		logger.Error("catchup_unread_groups_failed", err, map[string]interface{}{
			"user_id": userID.String(),
		})
		return
	}

	_ = h.Hub.Send(client, ws.EventPreviousNotification, map[string]interface{}{
		"notification": notifications,
		"message":      unreadGroups,
	})
}
