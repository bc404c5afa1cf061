package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/greencart/backend/internal/middleware"
	"github.com/greencart/backend/internal/models"
	"github.com/greencart/backend/internal/services"
	"github.com/greencart/backend/pkg/utils"
)

type LocationHandler struct {
	DB   *gorm.DB
	Geo  *services.GeoNotifier
	Read *services.ReadTracker
}

func NewLocationHandler(db *gorm.DB, geo *services.GeoNotifier, read *services.ReadTracker) *LocationHandler {
	return &LocationHandler{DB: db, Geo: geo, Read: read}
}

type updateLocationRequest struct {
	City       string `json:"city"`
	State      string `json:"state"`
	Country    string `json:"country"`
	PostalCode string `json:"pin"`
	// Coordinates as "lat,lng".
	Coor string `json:"coor"`
}

func (h *LocationHandler) Update(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req updateLocationRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	parts := strings.SplitN(req.Coor, ",", 2)
	if len(parts) != 2 {
		return utils.Error(c, fiber.StatusBadRequest, "invalid coordinates format")
	}
	latitude, latErr := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	longitude, lngErr := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if latErr != nil || lngErr != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid coordinates format")
	}

	updates := map[string]interface{}{
		"city":        strings.TrimSpace(req.City),
		"state":       strings.TrimSpace(req.State),
		"country":     strings.TrimSpace(req.Country),
		"postal_code": strings.TrimSpace(req.PostalCode),
		"latitude":    latitude,
		"longitude":   longitude,
	}
	if err := h.DB.Model(&models.User{}).Where("id = ?", currentUser.ID).Updates(updates).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed updating location")
	}

	var updated models.User
	if err := h.DB.First(&updated, "id = ?", currentUser.ID).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed loading user")
	}

	h.Geo.NotifyLocationUpdated(&updated)

	notifications, err := h.Read.UnreadNotifications(currentUser.ID)
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed loading notifications")
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"message":      "location updated",
		"location":     fiber.Map{"city": updated.City, "state": updated.State, "country": updated.Country, "pin": updated.PostalCode, "latitude": updated.Latitude, "longitude": updated.Longitude},
		"notification": notifications,
	})
}
