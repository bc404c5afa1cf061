package services

import (
	"fmt"
	"math"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/greencart/backend/internal/config"
	"github.com/greencart/backend/internal/metrics"
	"github.com/greencart/backend/internal/models"
	"github.com/greencart/backend/internal/ws"
	"github.com/greencart/backend/pkg/logger"
)

// GeoNotifier fans out notifications to users near a group event. Candidates
// are narrowed by postal code in SQL, then filtered by haversine distance.
// Each recipient gets a durable Notification row; recipients with a live
// private room also get an immediate push.
type GeoNotifier struct {
	DB  *gorm.DB
	Hub *ws.Hub
	Cfg config.GeoConfig
}

func NewGeoNotifier(db *gorm.DB, hub *ws.Hub, cfg config.GeoConfig) *GeoNotifier {
	return &GeoNotifier{DB: db, Hub: hub, Cfg: cfg}
}

// NotifyGroupCreated alerts every user within the new-group radius of the
// creator, excluding the creator.
func (g *GeoNotifier) NotifyGroupCreated(actor *models.User, group *models.Group) {
	nearby, err := g.nearbyUsers(actor.ID, actor.PostalCode, actor.Latitude, actor.Longitude, g.Cfg.NewGroupRadiusMeters)
	if err != nil {
		logger.Error("geo_nearby_query_failed", err, map[string]interface{}{
			"group_id": group.ID.String(),
		})
		return
	}

	message := fmt.Sprintf("%s created a new group near you!", actor.Name)
	for _, user := range nearby {
		g.deliver(actor.ID, user.ID, group.ID, message)
	}
}

// NotifyLocationUpdated runs when a user moves: pending groups of users
// within the location radius are surfaced to the mover.
func (g *GeoNotifier) NotifyLocationUpdated(mover *models.User) {
	nearby, err := g.nearbyUsers(mover.ID, mover.PostalCode, mover.Latitude, mover.Longitude, g.Cfg.LocationRadiusMeters)
	if err != nil {
		logger.Error("geo_nearby_query_failed", err, map[string]interface{}{
			"user_id": mover.ID.String(),
		})
		return
	}

	for _, neighbor := range nearby {
		var refs []models.UserGroupRef
		err := g.DB.Preload("Group").
			Where("user_id = ? AND state = ?", neighbor.ID, models.GroupRefPending).
			Find(&refs).Error
		if err != nil {
			logger.Error("geo_pending_groups_query_failed", err, map[string]interface{}{
				"user_id": neighbor.ID.String(),
			})
			continue
		}

		message := fmt.Sprintf("%s created a new group near you!", neighbor.Name)
		for _, ref := range refs {
			g.deliver(neighbor.ID, mover.ID, ref.GroupID, message)
		}
	}
}

func (g *GeoNotifier) deliver(senderID, receiverID, groupID uuid.UUID, message string) {
	notification := models.Notification{
		SenderID:   senderID,
		ReceiverID: receiverID,
		GroupID:    groupID,
		Message:    message,
	}
	if err := g.DB.Create(&notification).Error; err != nil {
		logger.Error("notification_persist_failed", err, map[string]interface{}{
			"receiver_id": receiverID.String(),
			"group_id":    groupID.String(),
		})
		return
	}
	metrics.NotificationsPersisted.Inc()

	if g.Hub.RoomSize(receiverID.String()) == 0 {
		// Receiver is offline; the row is delivered on next connect.
		return
	}

	loaded := notification
	if err := g.DB.Preload("Sender").Preload("Group").First(&loaded, "id = ?", notification.ID).Error; err != nil {
		logger.Error("notification_load_failed", err, map[string]interface{}{
			"notification_id": notification.ID.String(),
		})
		return
	}

	g.Hub.Broadcast(receiverID.String(), ws.EventReceiveNotification, map[string]interface{}{
		"notification": []models.Notification{loaded},
	})
	metrics.NotificationsPushed.Inc()
}

func (g *GeoNotifier) nearbyUsers(excludeID uuid.UUID, postalCode string, lat, lng, radiusMeters float64) ([]models.User, error) {
	if postalCode == "" {
		return nil, nil
	}

	var candidates []models.User
	err := g.DB.
		Where("id <> ? AND postal_code = ?", excludeID, postalCode).
		Find(&candidates).Error
	if err != nil {
		return nil, err
	}

	nearby := candidates[:0]
	for _, candidate := range candidates {
		if haversineMeters(lat, lng, candidate.Latitude, candidate.Longitude) <= radiusMeters {
			nearby = append(nearby, candidate)
		}
	}
	return nearby, nil
}

const earthRadiusMeters = 6371000

func haversineMeters(lat1, lng1, lat2, lng2 float64) float64 {
	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }

	dLat := toRad(lat2 - lat1)
	dLng := toRad(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusMeters * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}
