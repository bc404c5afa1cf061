package handlers

import (
	"encoding/json"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/greencart/backend/internal/metrics"
	"github.com/greencart/backend/internal/services"
	"github.com/greencart/backend/internal/ws"
	"github.com/greencart/backend/pkg/logger"
)

// inboundFrame is the envelope clients send on both websocket channels.
type inboundFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type ChatSocketHandler struct {
	DB        *gorm.DB
	Hub       *ws.Hub
	Session   *services.SessionService
	Broadcast *services.Broadcaster
}

func NewChatSocketHandler(db *gorm.DB, hub *ws.Hub, session *services.SessionService, broadcast *services.Broadcaster) *ChatSocketHandler {
	return &ChatSocketHandler{DB: db, Hub: hub, Session: session, Broadcast: broadcast}
}

func (h *ChatSocketHandler) Handler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		client := ws.NewClient(conn)
		metrics.ActiveConnections.WithLabelValues(ws.ChannelChat).Inc()
		defer func() {
			h.Hub.Disconnect(client)
			metrics.ActiveConnections.WithLabelValues(ws.ChannelChat).Dec()
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

type joinGroupPayload struct {
	GroupID string `json:"groupId"`
	UserID  string `json:"userId"`
}

type sendMessagePayload struct {
	GroupID  string `json:"groupId"`
	Content  string `json:"content"`
	SenderID string `json:"senderId"`
}

func (h *ChatSocketHandler) dispatch(client ws.Conn, frame inboundFrame) {
	switch frame.Event {
	case ws.EventJoinGroup:
		h.handleJoinGroup(client, frame.Data)
	case ws.EventSendMessage:
		h.handleSendMessage(client, frame.Data)
	case ws.EventSingle:
		h.handleSingle(client, frame.Data)
	case ws.EventSendPrivateMessage:
		h.handleSendPrivateMessage(client, frame.Data)
	default:
		h.sendError(client, "unknown event")
	}
}

// handleJoinGroup subscribes the connection to the group room and pushes
// the current projection to this connection only.
func (h *ChatSocketHandler) handleJoinGroup(client ws.Conn, data json.RawMessage) {
	var payload joinGroupPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		h.sendError(client, "Failed to join group or load messages.")
		return
	}
	groupID, err := parseUUID(payload.GroupID)
	if err != nil {
		h.sendError(client, "Failed to join group or load messages.")
		return
	}

	h.Hub.Join(groupID.String(), client)
	_ = h.Hub.Send(client, ws.EventJoinedSuccess, payload.GroupID)

	if err := h.Broadcast.SnapshotTo(client, groupID, ws.EventPreviousMessages); err != nil {
		logger.Error("chat_snapshot_failed", err, map[string]interface{}{
			"group_id": payload.GroupID,
		})
		h.sendError(client, "Failed to join group or load messages.")
	}
}

func (h *ChatSocketHandler) handleSendMessage(client ws.Conn, data json.RawMessage) {
	var payload sendMessagePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		h.sendError(client, "Message sending failed.")
		return
	}
	groupID, gErr := parseUUID(payload.GroupID)
	senderID, sErr := parseUUID(payload.SenderID)
	if gErr != nil || sErr != nil || payload.Content == "" {
		h.sendError(client, "Message sending failed.")
		return
	}

	if _, err := h.Broadcast.SendGroupMessage(groupID, senderID, payload.Content); err != nil {
		logger.Error("chat_message_failed", err, map[string]interface{}{
			"group_id": payload.GroupID,
		})
		h.sendError(client, "Message sending failed.")
	}
}

// handleSingle subscribes to the caller's private room for post-order chat
// and pushes the ordered group's final projection.
func (h *ChatSocketHandler) handleSingle(client ws.Conn, data json.RawMessage) {
	var payload joinGroupPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		h.sendError(client, "Failed to join group or load messages.")
		return
	}
	groupID, gErr := parseUUID(payload.GroupID)
	userID, uErr := parseUUID(payload.UserID)
	if gErr != nil || uErr != nil {
		h.sendError(client, "Failed to join group or load messages.")
		return
	}

	h.Hub.Join(userID.String(), client)
	_ = h.Hub.Send(client, ws.EventSingleSuccess, payload.UserID)

	group, err := h.Session.FetchSingleOrderedGroup(userID, groupID)
	if err != nil {
		h.sendError(client, "Failed to join group or load messages.")
		return
	}
	_ = h.Hub.Send(client, ws.EventLastMessages, map[string]interface{}{"message": group})
}

// handleSendPrivateMessage persists on the ordered group's transcript and
// echoes to the sending connection only.
func (h *ChatSocketHandler) handleSendPrivateMessage(client ws.Conn, data json.RawMessage) {
	var payload sendMessagePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		h.sendError(client, "Message sending failed.")
		return
	}
	groupID, gErr := parseUUID(payload.GroupID)
	senderID, sErr := parseUUID(payload.SenderID)
	if gErr != nil || sErr != nil || payload.Content == "" {
		h.sendError(client, "Message sending failed.")
		return
	}

	message, err := h.Broadcast.SendPrivateMessage(groupID, senderID, payload.Content)
	if err != nil {
		h.sendError(client, "Message sending failed.")
		return
	}
	_ = h.Hub.Send(client, ws.EventCurrReceiveMsg, map[string]interface{}{"message": message})
}

// sendError notifies the offending connection only; other room subscribers
// never see the failure.
func (h *ChatSocketHandler) sendError(client ws.Conn, message string) {
	_ = h.Hub.Send(client, ws.EventErrorMessage, message)
}
