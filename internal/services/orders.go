package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/amraniy/whatsbot-backend/internal/gateway"
	"github.com/amraniy/whatsbot-backend/internal/models"
	"github.com/amraniy/whatsbot-backend/internal/storage"
)

// statusMessages templates the customer-facing update per language and
// status. {store} and {map} are filled from the tenant profile.
var statusMessages = map[string]map[string]string{
	"ar": {
		models.OrderStatusCooking:   "👨‍🍳 طلبك قيد التحضير الآن!",
		models.OrderStatusDelivery:  "🛵 طلبك في الطريق إليك!",
		models.OrderStatusCompleted: "✅ تم توصيل طلبك. بالهناء والشفاء!",
		"thanks":                    "شكراً لطلبك من {store}!",
		"review":                    "يسعدنا تقييمك: {map}",
	},
	"en": {
		models.OrderStatusCooking:   "👨‍🍳 Your order is being prepared!",
		models.OrderStatusDelivery:  "🛵 Your order is on its way!",
		models.OrderStatusCompleted: "✅ Your order has been delivered. Enjoy!",
		"thanks":                    "Thank you for ordering from {store}!",
		"review":                    "We'd love your review: {map}",
	},
	"fr": {
		models.OrderStatusCooking:   "👨‍🍳 Votre commande est en préparation !",
		models.OrderStatusDelivery:  "🛵 Votre commande est en route !",
		models.OrderStatusCompleted: "✅ Votre commande a été livrée. Bon appétit !",
		"thanks":                    "Merci d'avoir commandé chez {store} !",
		"review":                    "Laissez-nous un avis : {map}",
	},
	"de": {
		models.OrderStatusCooking:   "👨‍🍳 Ihre Bestellung wird zubereitet!",
		models.OrderStatusDelivery:  "🛵 Ihre Bestellung ist unterwegs!",
		models.OrderStatusCompleted: "✅ Ihre Bestellung wurde geliefert. Guten Appetit!",
		"thanks":                    "Danke für Ihre Bestellung bei {store}!",
		"review":                    "Wir freuen uns über Ihre Bewertung: {map}",
	},
}

// OrderService persists detected orders and drives their lifecycle
type OrderService struct {
	store    storage.Store
	gw       gateway.Gateway
	notifier *Notifier
	invoices *InvoiceService
}

// NewOrderService creates the order pipeline. notifier may be nil when no
// Telegram bot is configured.
func NewOrderService(store storage.Store, gw gateway.Gateway, notifier *Notifier, invoices *InvoiceService) *OrderService {
	return &OrderService{store: store, gw: gw, notifier: notifier, invoices: invoices}
}

// ProcessDetected runs the three order side effects: persist, notify,
// invoice. Each step is fault-isolated; a failure in one is logged and the
// others still run.
func (s *OrderService) ProcessDetected(ctx context.Context, user *models.User, phone string, data *OrderData) *models.Order {
	order := &models.Order{
		UserID:          user.ID,
		ContactPhone:    phone,
		CustomerName:    data.CustomerName,
		CustomerAddress: data.CustomerAddress,
		Items:           ItemsFromOrderData(data),
		DeliveryPrice:   float64(data.DeliveryPrice),
		TotalPrice:      float64(data.TotalPrice),
		Notes:           data.Notes,
		Status:          models.OrderStatusPending,
	}
	if data.Phone != "" {
		order.ContactPhone = strings.TrimPrefix(data.Phone, "+")
	}

	saved, err := s.store.SaveOrder(order)
	if err != nil {
		log.Printf("⚠️ Failed to save order for %s: %v", phone, err)
	} else {
		order = saved
		log.Printf("🛒 Order #%d saved for user %d (total %.2f)", order.ID, user.ID, order.TotalPrice)
	}

	if s.notifier != nil {
		s.notifier.NotifyNewOrder(user, order)
	}

	if err := s.sendInvoice(ctx, user, order); err != nil {
		log.Printf("⚠️ Failed to deliver invoice for order #%d: %v", order.ID, err)
	}

	return order
}

// sendInvoice renders the PDF and ships it to the contact as a document.
// The temp file is removed on both success and failure paths.
func (s *OrderService) sendInvoice(ctx context.Context, user *models.User, order *models.Order) error {
	path, err := s.invoices.Render(user, order)
	if err != nil {
		return err
	}
	defer os.Remove(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	encoded := base64.StdEncoding.EncodeToString(data)
	fileName := fmt.Sprintf("invoice_%d.pdf", order.ID)
	return s.gw.SendMedia(ctx, user.InstanceName, order.ContactPhone, encoded, fileName, "", "document")
}

// AdvanceStatus moves the contact's latest order to the given status and
// sends the matching templated message. Completed is terminal and appends
// the review message.
func (s *OrderService) AdvanceStatus(user *models.User, phone, status string) error {
	if !models.ValidOrderStatus(status) {
		return fmt.Errorf("unknown order status: %s", status)
	}

	order, err := s.store.GetLatestOrderByContact(user.ID, phone)
	if err != nil {
		return err
	}
	if order.Status == models.OrderStatusCompleted {
		return fmt.Errorf("order #%d is already completed", order.ID)
	}

	order.Status = status
	if err := s.store.UpdateOrder(order); err != nil {
		return err
	}
	log.Printf("📦 Order #%d → %s", order.ID, status)

	templates, ok := statusMessages[user.Language]
	if !ok {
		templates = statusMessages["en"]
	}

	ctx := context.Background()
	if msg := templates[status]; msg != "" {
		if err := s.gw.SendText(ctx, user.InstanceName, order.ContactPhone, msg); err != nil {
			log.Printf("⚠️ Failed to send status update to %s: %v", order.ContactPhone, err)
		}
	}

	if status == models.OrderStatusCompleted {
		thanks := strings.ReplaceAll(templates["thanks"], "{store}", user.StoreName)
		if user.MapLink != "" {
			thanks += "\n" + strings.ReplaceAll(templates["review"], "{map}", user.MapLink)
		}
		if err := s.gw.SendText(ctx, user.InstanceName, order.ContactPhone, thanks); err != nil {
			log.Printf("⚠️ Failed to send review message to %s: %v", order.ContactPhone, err)
		}
	}
	return nil
}
