package handlers

import (
	"net/http"
	"testing"

	"github.com/greencart/backend/internal/catalog"
	"github.com/greencart/backend/internal/models"
	"github.com/greencart/backend/internal/services"
	"github.com/greencart/backend/internal/ws"
)

func notificationSocketForTest(t *testing.T, env *testEnv) *NotificationSocketHandler {
	t.Helper()

	session := services.NewSessionService(env.db, catalog.NewGormResolver(env.db), 3)
	return NewNotificationSocketHandler(env.db, env.notificationHub, session, services.NewReadTracker(env.db))
}

func TestNotificationSocket_JoinRoom(t *testing.T) {
	env := setupTestEnv(t)
	socket := notificationSocketForTest(t, env)
	receiver, _ := createTestUser(t, env.db, "Bob", "bob@test.com")
	sender, senderToken := createTestUser(t, env.db, "Alice", "alice@test.com")

	resp := performJSONRequest(t, env.app, http.MethodPost, "/api/groups/",
		map[string]any{"name": "Weekend Groceries", "date": "2026-09-05"}, authHeaders(senderToken))
	assertStatus(t, resp, http.StatusCreated)

	conn := &recordingConn{}
	socket.dispatch(conn, frameFor(t, ws.EventJoinRoom, receiver.ID.String()))

	t.Run("subscribes the private room", func(t *testing.T) {
		if size := env.notificationHub.RoomSize(receiver.ID.String()); size != 1 {
			t.Errorf("expected room size 1, got %d", size)
		}
	})

	t.Run("catch-up carries the unread notification from group creation", func(t *testing.T) {
		frames := conn.received()
		if len(frames) != 1 || frames[0].Event != ws.EventPreviousNotification {
			t.Fatalf("expected one previous-notification frame, got %+v", frames)
		}

		data := frames[0].Data.(map[string]interface{})
		notifications, ok := data["notification"].([]models.Notification)
		if !ok || len(notifications) != 1 {
			t.Fatalf("expected one unread notification, got %+v", data["notification"])
		}
		if notifications[0].SenderID != sender.ID {
			t.Errorf("expected notification from %s, got %s", sender.ID, notifications[0].SenderID)
		}
	})
}

func TestNotificationSocket_AcceptInvite(t *testing.T) {
	env := setupTestEnv(t)
	socket := notificationSocketForTest(t, env)
	admin, adminToken := createTestUser(t, env.db, "Alice", "alice@test.com")
	joiner, _ := createTestUser(t, env.db, "Bob", "bob@test.com")

	resp := performJSONRequest(t, env.app, http.MethodPost, "/api/groups/",
		map[string]any{"name": "Weekend Groceries", "date": "2026-09-05"}, authHeaders(adminToken))
	assertStatus(t, resp, http.StatusCreated)
	groupID := decodeJSONMap(t, resp)["data"].(map[string]any)["id"].(string)

	var notification models.Notification
	if err := env.db.First(&notification, "receiver_id = ?", joiner.ID).Error; err != nil {
		t.Fatalf("expected a notification from group creation: %v", err)
	}

	adminRoom := &recordingConn{}
	env.notificationHub.Join(admin.ID.String(), adminRoom)

	conn := &recordingConn{}
	socket.dispatch(conn, frameFor(t, ws.EventJoinGroup, map[string]any{
		"_id":     notification.ID.String(),
		"groupId": groupID,
		"userId":  joiner.ID.String(),
	}))

	t.Run("joins the group and marks the notification read", func(t *testing.T) {
		var count int64
		env.db.Model(&models.GroupMember{}).Where("group_id = ? AND user_id = ?", groupID, joiner.ID).Count(&count)
		if count != 1 {
			t.Errorf("expected joiner membership, got %d rows", count)
		}

		var reloaded models.Notification
		if err := env.db.First(&reloaded, "id = ?", notification.ID).Error; err != nil {
			t.Fatalf("failed reloading notification: %v", err)
		}
		if !reloaded.IsRead {
			t.Error("expected notification marked read")
		}
	})

	t.Run("existing members hear about the new user", func(t *testing.T) {
		frames := adminRoom.received()
		if len(frames) != 1 || frames[0].Event != ws.EventNewUserJoinGroup {
			t.Fatalf("expected newUser-join-group frame, got %+v", frames)
		}
		data := frames[0].Data.(map[string]interface{})
		if data["name"] != "Bob" {
			t.Errorf("expected joiner name, got %v", data["name"])
		}
		if data["content"] != "Bob have joined your group" {
			t.Errorf("unexpected announcement content: %v", data["content"])
		}
	})

	t.Run("the joiner receives a fresh catch-up", func(t *testing.T) {
		frames := conn.received()
		if len(frames) == 0 {
			t.Fatal("expected a catch-up frame")
		}
		if frames[len(frames)-1].Event != ws.EventPreviousNotification {
			t.Errorf("expected previous-notification, got %q", frames[len(frames)-1].Event)
		}
	})

	t.Run("accepting again announces nothing", func(t *testing.T) {
		socket.dispatch(conn, frameFor(t, ws.EventJoinGroup, map[string]any{
			"_id":     notification.ID.String(),
			"groupId": groupID,
			"userId":  joiner.ID.String(),
		}))

		if got := len(adminRoom.received()); got != 1 {
			t.Errorf("repeat accept re-announced the join: %d frames", got)
		}
	})
}

func TestNotificationSocket_MarkRead(t *testing.T) {
	env := setupTestEnv(t)
	socket := notificationSocketForTest(t, env)
	admin, adminToken := createTestUser(t, env.db, "Alice", "alice@test.com")
	member, _ := createTestUser(t, env.db, "Bob", "bob@test.com")

	resp := performJSONRequest(t, env.app, http.MethodPost, "/api/groups/",
		map[string]any{"name": "Weekend Groceries", "date": "2026-09-05"}, authHeaders(adminToken))
	assertStatus(t, resp, http.StatusCreated)
	groupID := decodeJSONMap(t, resp)["data"].(map[string]any)["id"].(string)

	t.Run("marks unread chat messages", func(t *testing.T) {
		broadcaster := services.NewBroadcaster(env.db, env.chatHub)
		gid, err := parseUUID(groupID)
		if err != nil {
			t.Fatalf("failed parsing group id: %v", err)
		}
		message, err := broadcaster.SendGroupMessage(gid, admin.ID, "hello")
		if err != nil {
			t.Fatalf("SendGroupMessage returned error: %v", err)
		}

		conn := &recordingConn{}
		socket.dispatch(conn, frameFor(t, ws.EventMarkReadMessage, map[string]any{
			"userId": member.ID.String(),
			"data": []map[string]any{
				{"message": []map[string]any{{"_id": message.ID.String()}}},
			},
		}))

		var count int64
		env.db.Model(&models.MessageRead{}).Where("message_id = ? AND user_id = ?", message.ID, member.ID).Count(&count)
		if count != 1 {
			t.Errorf("expected message marked read, got %d rows", count)
		}

		frames := conn.received()
		if len(frames) != 1 || frames[0].Event != ws.EventMarkedMessage {
			t.Fatalf("expected marked-message ack, got %+v", frames)
		}
	})

	t.Run("marks notifications", func(t *testing.T) {
		var notification models.Notification
		if err := env.db.First(&notification, "receiver_id = ?", member.ID).Error; err != nil {
			t.Fatalf("expected a notification from group creation: %v", err)
		}

		conn := &recordingConn{}
		socket.dispatch(conn, frameFor(t, ws.EventMarkGroupNotification, map[string]any{
			"data": []map[string]any{{"_id": notification.ID.String()}},
		}))

		var reloaded models.Notification
		if err := env.db.First(&reloaded, "id = ?", notification.ID).Error; err != nil {
			t.Fatalf("failed reloading notification: %v", err)
		}
		if !reloaded.IsRead {
			t.Error("expected notification read")
		}

		frames := conn.received()
		if len(frames) != 1 || frames[0].Event != ws.EventMarkedNotification {
			t.Fatalf("expected marked-group-notification ack, got %+v", frames)
		}
	})
}
