package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ActiveConnections = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "greencart_ws_active_connections",
		Help: "Currently open websocket connections per channel.",
	}, []string{"channel"})

	BroadcastsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "greencart_broadcasts_total",
		Help: "Room broadcasts emitted, labeled by outbound event name.",
	}, []string{"event"})

	MessagesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "greencart_chat_messages_total",
		Help: "Chat messages persisted.",
	})

	NotificationsPersisted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "greencart_notifications_persisted_total",
		Help: "Notification rows written by the geo fan-out.",
	})

	NotificationsPushed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "greencart_notifications_pushed_total",
		Help: "Notifications delivered to a live private room.",
	})
)
