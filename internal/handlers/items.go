package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/greencart/backend/internal/catalog"
	"github.com/greencart/backend/internal/middleware"
	"github.com/greencart/backend/internal/services"
	"github.com/greencart/backend/pkg/utils"
)

type ItemsHandler struct {
	DB        *gorm.DB
	Session   *services.SessionService
	Broadcast *services.Broadcaster
}

func NewItemsHandler(db *gorm.DB, session *services.SessionService, broadcast *services.Broadcaster) *ItemsHandler {
	return &ItemsHandler{DB: db, Session: session, Broadcast: broadcast}
}

type addItemRequest struct {
	ProductID string `json:"productId"`
	Count     int    `json:"count"`
}

func (h *ItemsHandler) Add(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	groupID, err := parseUUID(c.Params("groupId"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid group id")
	}

	var req addItemRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	productID, err := parseUUID(req.ProductID)
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid product id")
	}

	item, err := h.Session.AddItem(groupID, currentUser.ID, productID, req.Count)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidQuantity):
			return utils.Error(c, fiber.StatusBadRequest, "count must be a positive integer")
		case errors.Is(err, catalog.ErrProductNotFound):
			return utils.Error(c, fiber.StatusNotFound, "product not found")
		case errors.Is(err, services.ErrNotMember):
			return utils.Error(c, fiber.StatusForbidden, "not a member of this group")
		default:
			return utils.Error(c, fiber.StatusInternalServerError, "failed adding item")
		}
	}

	h.Broadcast.EmitGroupSnapshot(groupID, currentUser.ID, services.MutationItemAdded)

	return utils.Success(c, fiber.StatusCreated, item)
}

type updateItemRequest struct {
	Quantity int    `json:"quantity"`
	Kind     string `json:"kind"`
}

func (h *ItemsHandler) Update(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	itemID, err := parseUUID(c.Params("itemId"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid item id")
	}

	var req updateItemRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	groupID, err := h.Session.UpdateItemQuantity(itemID, currentUser.ID, req.Quantity)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidQuantity):
			return utils.Error(c, fiber.StatusBadRequest, "quantity must be a positive integer; delete the item instead of setting zero")
		case errors.Is(err, services.ErrItemNotFound):
			return utils.Error(c, fiber.StatusNotFound, "item not found")
		case errors.Is(err, services.ErrItemNotOwned):
			return utils.Error(c, fiber.StatusForbidden, "item belongs to another member")
		default:
			return utils.Error(c, fiber.StatusInternalServerError, "failed updating item")
		}
	}

	kind := services.MutationItemAdded
	if req.Kind == "decrement" {
		kind = services.MutationItemRemoved
	}
	h.Broadcast.EmitGroupSnapshot(groupID, currentUser.ID, kind)

	return utils.Success(c, fiber.StatusOK, fiber.Map{"message": "item quantity updated"})
}

func (h *ItemsHandler) Remove(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	itemID, err := parseUUID(c.Params("itemId"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid item id")
	}

	groupID, err := h.Session.DeleteItem(itemID, currentUser.ID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrItemNotFound):
			return utils.Error(c, fiber.StatusNotFound, "item not found")
		case errors.Is(err, services.ErrItemNotOwned):
			return utils.Error(c, fiber.StatusForbidden, "item belongs to another member")
		default:
			return utils.Error(c, fiber.StatusInternalServerError, "failed removing item")
		}
	}

	h.Broadcast.EmitGroupSnapshot(groupID, currentUser.ID, services.MutationItemRemoved)

	return utils.Success(c, fiber.StatusOK, fiber.Map{"message": "item removed"})
}
