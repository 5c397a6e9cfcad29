package handlers

import (
	"context"
	"encoding/json"
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/amraniy/whatsbot-backend/internal/gateway"
	"github.com/amraniy/whatsbot-backend/internal/models"
	"github.com/amraniy/whatsbot-backend/internal/services"
	"github.com/amraniy/whatsbot-backend/internal/storage"
)

// WebhookHandler receives Evolution API events for all instances
type WebhookHandler struct {
	store      storage.Store
	dispatcher *services.Dispatcher
	notifier   *services.Notifier
}

// NewWebhookHandler creates the webhook handler. notifier may be nil.
func NewWebhookHandler(store storage.Store, dispatcher *services.Dispatcher, notifier *services.Notifier) *WebhookHandler {
	return &WebhookHandler{store: store, dispatcher: dispatcher, notifier: notifier}
}

// webhookEvent is the envelope the gateway posts for every event
type webhookEvent struct {
	Event    string          `json:"event"`
	Instance string          `json:"instance"`
	Data     json.RawMessage `json:"data"`
}

// messageUpsertData mirrors a pushed message record
type messageUpsertData struct {
	Key struct {
		ID           string `json:"id"`
		FromMe       bool   `json:"fromMe"`
		RemoteJid    string `json:"remoteJid"`
		RemoteJidAlt string `json:"remoteJidAlt"`
	} `json:"key"`
	PushName         string `json:"pushName"`
	MessageTimestamp int64  `json:"messageTimestamp"`
	Message          struct {
		Conversation        string `json:"conversation"`
		ExtendedTextMessage *struct {
			Text string `json:"text"`
		} `json:"extendedTextMessage"`
		AudioMessage *struct {
			URL string `json:"url"`
		} `json:"audioMessage"`
	} `json:"message"`
}

type connectionUpdateData struct {
	State string `json:"state"`
}

// Handle processes one webhook delivery. Always answers 200 quickly; the
// pipeline runs in the background so gateway retries don't pile up.
func (h *WebhookHandler) Handle(c *fiber.Ctx) error {
	var event webhookEvent
	if err := c.BodyParser(&event); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid payload"})
	}
	if event.Instance == "" {
		event.Instance = c.Params("instance")
	}

	user, err := h.store.GetUserByInstance(event.Instance)
	if err != nil {
		// Unknown instance: acknowledge so the gateway stops retrying
		return c.SendStatus(fiber.StatusOK)
	}

	switch event.Event {
	case "messages.upsert":
		h.handleMessage(user, event.Data)
	case "connection.update":
		h.handleConnection(user, event.Data)
	}

	return c.SendStatus(fiber.StatusOK)
}

func (h *WebhookHandler) handleMessage(user *models.User, data json.RawMessage) {
	var record messageUpsertData
	if err := json.Unmarshal(data, &record); err != nil {
		log.Printf("⚠️ Failed to parse messages.upsert payload: %v", err)
		return
	}

	msg := gateway.Message{
		ID:          record.Key.ID,
		FromMe:      record.Key.FromMe,
		RemoteID:    record.Key.RemoteJid,
		RemoteIDAlt: record.Key.RemoteJidAlt,
		Timestamp:   record.MessageTimestamp,
		PushName:    record.PushName,
		Text:        record.Message.Conversation,
	}
	if msg.Text == "" && record.Message.ExtendedTextMessage != nil {
		msg.Text = record.Message.ExtendedTextMessage.Text
	}
	if record.Message.AudioMessage != nil {
		msg.AudioRef = record.Key.ID
	}

	go h.dispatcher.HandleMessage(context.Background(), user, msg)
}

func (h *WebhookHandler) handleConnection(user *models.User, data json.RawMessage) {
	var update connectionUpdateData
	if err := json.Unmarshal(data, &update); err != nil {
		log.Printf("⚠️ Failed to parse connection.update payload: %v", err)
		return
	}

	connected := update.State == "open"
	if user.IsConnected == connected {
		return
	}

	user.IsConnected = connected
	if err := h.store.UpdateUser(user); err != nil {
		log.Printf("⚠️ Failed to update connection state for user %d: %v", user.ID, err)
	}
	log.Printf("🔌 Instance %s connection state: %s", user.InstanceName, update.State)

	if h.notifier != nil {
		h.notifier.NotifyConnection(user, connected)
	}
}
