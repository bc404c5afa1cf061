package ws

// Channel names, used for hub identification and connection metrics.
const (
	ChannelChat         = "chat"
	ChannelNotification = "notification"
)

// Inbound chat events.
const (
	EventJoinGroup          = "join-group"
	EventSendMessage        = "send-message"
	EventSingle             = "single"
	EventSendPrivateMessage = "send-private-message"
)

// Outbound chat events.
const (
	EventPreviousMessages  = "previous-messages"
	EventReceiveMessage    = "receive-message"
	EventNewItemAdded      = "new-item-added"
	EventItemRemoved       = "item-removed"
	EventOrderPlaced       = "order-placed"
	EventLastMessages      = "last-messages"
	EventCurrReceiveMsg    = "curr-receive-message"
	EventErrorMessage      = "error-message"
	EventJoinedSuccess     = "joined-success"
	EventSingleSuccess     = "success"
)

// Inbound notification events. EventJoinGroup doubles as the invite-accept
// event on the notification channel, matching the chat-side name.
const (
	EventJoinRoom              = "join-room"
	EventMarkReadMessage       = "mark-read-message"
	EventMarkGroupNotification = "mark-group-notification"
)

// Outbound notification events.
const (
	EventPreviousNotification = "previous-notification"
	EventReceiveNotification  = "receive-notification"
	EventNewUserJoinGroup     = "newUser-join-group"
	EventMarkedMessage        = "marked-message"
	EventMarkedNotification   = "marked-group-notification"
)
