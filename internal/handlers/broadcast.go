package handlers

import (
	"context"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/amraniy/whatsbot-backend/internal/models"
	"github.com/amraniy/whatsbot-backend/internal/services"
	"github.com/amraniy/whatsbot-backend/internal/storage"
)

// BroadcastHandler launches fan-out campaigns from the operator surface
type BroadcastHandler struct {
	store      storage.Store
	broadcasts *services.BroadcastService
}

// NewBroadcastHandler creates the broadcast API handler
func NewBroadcastHandler(store storage.Store, broadcasts *services.BroadcastService) *BroadcastHandler {
	return &BroadcastHandler{store: store, broadcasts: broadcasts}
}

type broadcastRequest struct {
	Message   string `json:"message"`
	MediaURL  string `json:"media_url"`
	MediaType string `json:"media_type"`
	SinceDays int    `json:"since_days"` // 0 = all contacts
}

// Create registers a campaign and starts delivering it in the background
func (h *BroadcastHandler) Create(c *fiber.Ctx) error {
	telegramID, err := strconv.ParseInt(c.Params("telegramID"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid telegram id"})
	}
	user, err := h.store.GetUserByTelegramID(telegramID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "user not found"})
	}

	var req broadcastRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid payload"})
	}
	if req.Message == "" && req.MediaURL == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "message or media required"})
	}

	broadcast, err := h.store.CreateBroadcast(&models.Broadcast{
		UserID:    user.ID,
		Message:   req.Message,
		MediaURL:  req.MediaURL,
		MediaType: req.MediaType,
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	var since *time.Time
	if req.SinceDays > 0 {
		t := time.Now().AddDate(0, 0, -req.SinceDays)
		since = &t
	}

	go func() {
		_ = h.broadcasts.Send(context.Background(), user, broadcast, since)
	}()

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"broadcast_id": broadcast.ID,
		"status":       broadcast.Status,
	})
}
