package services

import (
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/amraniy/whatsbot-backend/internal/models"
	"github.com/amraniy/whatsbot-backend/internal/storage"
)

// notifyThrottleInterval limits operator pings to one per contact per window
const notifyThrottleInterval = 30 * time.Second

// Notifier sends operator-facing Telegram notifications and handles the
// inline-button callbacks they carry.
type Notifier struct {
	bot   *tgbotapi.BotAPI
	store storage.Store

	mu       sync.Mutex
	lastSent map[string]time.Time // key: "userID:phone"
}

// NewNotifier creates a notifier from the TELEGRAM_BOT_TOKEN environment
// variable.
func NewNotifier(store storage.Store) (*Notifier, error) {
	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("missing TELEGRAM_BOT_TOKEN in environment variables")
	}

	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to connect Telegram bot: %w", err)
	}

	log.Printf("✅ Telegram bot connected as @%s", bot.Self.UserName)
	return &Notifier{
		bot:      bot,
		store:    store,
		lastSent: make(map[string]time.Time),
	}, nil
}

// NotifyIncoming pings the operator about a new inbound message, at most
// once per contact per throttle window.
func (n *Notifier) NotifyIncoming(user *models.User, contact *models.Contact, text string) {
	if !user.NotificationsEnabled {
		return
	}

	phone := ""
	name := ""
	if contact != nil {
		phone = contact.Phone
		name = contact.Name
	}

	key := fmt.Sprintf("%d:%s", user.ID, phone)
	n.mu.Lock()
	if last, ok := n.lastSent[key]; ok && time.Since(last) < notifyThrottleInterval {
		n.mu.Unlock()
		return
	}
	n.lastSent[key] = time.Now()
	// Drop stale throttle entries opportunistically
	for k, t := range n.lastSent {
		if time.Since(t) > 10*notifyThrottleInterval {
			delete(n.lastSent, k)
		}
	}
	n.mu.Unlock()

	if name == "" {
		name = phone
	}
	body := fmt.Sprintf("📥 New message\n👤 %s (%s)\n💬 %s", name, phone, truncate(text, 300))

	msg := tgbotapi.NewMessage(user.TelegramID, body)
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⏸ Pause AI", "pause_ai:"+phone),
		),
	)
	if _, err := n.bot.Send(msg); err != nil {
		log.Printf("⚠️ Failed to send Telegram notification: %v", err)
	}
}

// NotifyNewOrder sends the operator a structured order summary with inline
// status-advance controls.
func (n *Notifier) NotifyNewOrder(user *models.User, order *models.Order) {
	var sb strings.Builder
	sb.WriteString("🛒 New order!\n")
	if order.CustomerName != "" {
		sb.WriteString("👤 " + order.CustomerName + "\n")
	}
	sb.WriteString("📱 " + order.ContactPhone + "\n")
	if order.CustomerAddress != "" {
		sb.WriteString("📍 " + order.CustomerAddress + "\n")
	}
	sb.WriteString("\n")
	for _, item := range order.Items {
		sb.WriteString(fmt.Sprintf("• %s x%d (%.2f)\n", item.Name, item.Quantity, item.Price))
	}
	if order.DeliveryPrice > 0 {
		sb.WriteString(fmt.Sprintf("🚚 Delivery: %.2f\n", order.DeliveryPrice))
	}
	sb.WriteString(fmt.Sprintf("💰 Total: %.2f\n", order.TotalPrice))
	if order.Notes != "" {
		sb.WriteString("📝 " + order.Notes + "\n")
	}

	msg := tgbotapi.NewMessage(user.TelegramID, sb.String())
	msg.ReplyMarkup = orderKeyboard(order.ContactPhone)
	if _, err := n.bot.Send(msg); err != nil {
		log.Printf("⚠️ Failed to send order notification: %v", err)
	}
}

// NotifyConnection tells the operator their WhatsApp instance changed state
func (n *Notifier) NotifyConnection(user *models.User, connected bool) {
	body := "🔌 WhatsApp disconnected. Please re-link your number."
	if connected {
		body = "✅ WhatsApp connected!"
	}
	msg := tgbotapi.NewMessage(user.TelegramID, body)
	if _, err := n.bot.Send(msg); err != nil {
		log.Printf("⚠️ Failed to send connection notification: %v", err)
	}
}

func orderKeyboard(phone string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("👨‍🍳 Cooking", "ord_st:cooking:"+phone),
			tgbotapi.NewInlineKeyboardButtonData("🛵 Delivery", "ord_st:delivery:"+phone),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Completed", "ord_st:completed:"+phone),
			tgbotapi.NewInlineKeyboardButtonData("⏸ Pause AI", "pause_ai:"+phone),
		),
	)
}

// Listen consumes Telegram updates and dispatches inline-button callbacks.
// Blocks; run in a goroutine.
func (n *Notifier) Listen(orders *OrderService) {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = 30

	for update := range n.bot.GetUpdatesChan(cfg) {
		if update.CallbackQuery == nil {
			continue
		}
		n.handleCallback(update.CallbackQuery, orders)
	}
}

func (n *Notifier) handleCallback(query *tgbotapi.CallbackQuery, orders *OrderService) {
	defer func() {
		// Always acknowledge so the Telegram client stops its spinner
		if _, err := n.bot.Request(tgbotapi.NewCallback(query.ID, "")); err != nil {
			log.Printf("⚠️ Failed to ack callback: %v", err)
		}
	}()

	user, err := n.store.GetUserByTelegramID(query.From.ID)
	if err != nil {
		log.Printf("⚠️ Callback from unknown Telegram user %d", query.From.ID)
		return
	}

	parts := strings.Split(query.Data, ":")
	switch {
	case parts[0] == "pause_ai" && len(parts) == 2:
		if err := n.store.SetAIPaused(user.ID, parts[1], true); err != nil {
			log.Printf("⚠️ Failed to pause AI for %s: %v", parts[1], err)
			return
		}
		log.Printf("⏸ AI paused for contact %s (user %d)", parts[1], user.ID)

	case parts[0] == "ord_st" && len(parts) == 3:
		if err := orders.AdvanceStatus(user, parts[2], parts[1]); err != nil {
			log.Printf("⚠️ Failed to advance order status: %v", err)
		}
	}
}

// truncate caps a string at max runes; byte slicing would cut Arabic text
// mid-rune.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "…"
}
