package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/greencart/backend/internal/middleware"
	"github.com/greencart/backend/internal/services"
	"github.com/greencart/backend/pkg/logger"
	"github.com/greencart/backend/pkg/utils"
)

type GroupsHandler struct {
	DB        *gorm.DB
	Session   *services.SessionService
	Broadcast *services.Broadcaster
	Geo       *services.GeoNotifier
}

func NewGroupsHandler(db *gorm.DB, session *services.SessionService, broadcast *services.Broadcaster, geo *services.GeoNotifier) *GroupsHandler {
	return &GroupsHandler{DB: db, Session: session, Broadcast: broadcast, Geo: geo}
}

type createGroupRequest struct {
	Name string `json:"name"`
	Date string `json:"date"`
}

func (h *GroupsHandler) Create(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req createGroupRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	group, err := h.Session.CreateGroup(req.Name, req.Date, currentUser)
	if err != nil {
		if err.Error() == "group name is required" {
			return utils.Error(c, fiber.StatusBadRequest, "name is required")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed creating group")
	}

	h.Geo.NotifyGroupCreated(currentUser, group)

	logger.InfoWithUser(currentUser.ID.String(), "group_created", map[string]interface{}{
		"group_id":   group.ID.String(),
		"group_name": group.Name,
	})

	return utils.Success(c, fiber.StatusCreated, group)
}

func (h *GroupsHandler) Join(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	groupID, err := parseUUID(c.Params("groupId"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid group id")
	}

	_, _, err = h.Session.JoinGroup(groupID, currentUser.ID, nil)
	if err != nil {
		if errors.Is(err, services.ErrGroupNotFound) {
			return utils.Error(c, fiber.StatusNotFound, "group not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed joining group")
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{"message": "group joined"})
}

func (h *GroupsHandler) Exit(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	groupID, err := parseUUID(c.Params("groupId"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid group id")
	}

	if err := h.Session.ExitGroup(groupID, currentUser.ID); err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed exiting group")
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{"message": "exited group"})
}

type updateGroupRequest struct {
	Name string `json:"name"`
	Date string `json:"date"`
}

func (h *GroupsHandler) Update(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	groupID, err := parseUUID(c.Params("groupId"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid group id")
	}

	var req updateGroupRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	group, err := h.Session.UpdateGroup(groupID, currentUser.ID, req.Name, req.Date)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrGroupNotFound):
			return utils.Error(c, fiber.StatusNotFound, "group not found")
		case errors.Is(err, services.ErrNotAdmin):
			return utils.Error(c, fiber.StatusForbidden, "only the group admin can update the group")
		default:
			return utils.Error(c, fiber.StatusInternalServerError, "failed updating group")
		}
	}

	return utils.Success(c, fiber.StatusOK, group)
}

func (h *GroupsHandler) PlaceOrder(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	groupID, err := parseUUID(c.Params("groupId"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid group id")
	}

	if err := h.Session.PlaceGroupOrder(groupID); err != nil {
		if errors.Is(err, services.ErrGroupNotFound) {
			return utils.Error(c, fiber.StatusNotFound, "group not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed placing group order")
	}

	h.Broadcast.EmitOrderPlaced(groupID)

	logger.InfoWithUser(currentUser.ID.String(), "group_order_placed", map[string]interface{}{
		"group_id": groupID.String(),
	})

	return utils.Success(c, fiber.StatusOK, fiber.Map{"message": "your group order has placed"})
}

func (h *GroupsHandler) ListPending(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	groups, err := h.Session.FetchPendingGroups(currentUser.ID)
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed listing pending groups")
	}

	return utils.Success(c, fiber.StatusOK, groups)
}

func (h *GroupsHandler) ListOrdered(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	groups, err := h.Session.FetchOrderedGroups(currentUser.ID)
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed listing ordered groups")
	}

	return utils.Success(c, fiber.StatusOK, groups)
}

func (h *GroupsHandler) GetOrdered(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	groupID, err := parseUUID(c.Params("groupId"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid group id")
	}

	group, err := h.Session.FetchSingleOrderedGroup(currentUser.ID, groupID)
	if err != nil {
		if errors.Is(err, services.ErrGroupNotFound) {
			return utils.Error(c, fiber.StatusNotFound, "ordered group not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed loading ordered group")
	}

	return utils.Success(c, fiber.StatusOK, group)
}
