package routes

import (
	"os"

	"github.com/gofiber/fiber/v2"

	"github.com/amraniy/whatsbot-backend/internal/handlers"
	"github.com/amraniy/whatsbot-backend/internal/middleware"
)

// SetupRoutes configures all API routes
func SetupRoutes(app *fiber.App, webhook *handlers.WebhookHandler, orders *handlers.OrderHandler, broadcasts *handlers.BroadcastHandler) {

	// ========== WEBHOOK ROUTES ==========
	webhooks := app.Group("/webhook")

	// Evolution webhook - ENVIRONMENT-AWARE VALIDATION
	if os.Getenv("ENVIRONMENT") == "development" || os.Getenv("DISABLE_WEBHOOK_VALIDATION") == "true" {
		webhooks.Post("/evolution", webhook.Handle)
		webhooks.Post("/evolution/:instance", webhook.Handle)
		if os.Getenv("ENVIRONMENT") == "development" {
			println("⚠️  Webhook validation DISABLED for development")
		}
	} else {
		webhooks.Post("/evolution", middleware.ValidateWebhookSecret(), webhook.Handle)
		webhooks.Post("/evolution/:instance", middleware.ValidateWebhookSecret(), webhook.Handle)
	}

	// ========== API ROUTES ==========
	api := app.Group("/api")

	ordersGroup := api.Group("/orders")
	ordersGroup.Get("/export/:telegramID", orders.Export)
	ordersGroup.Get("/:telegramID", orders.List)

	api.Post("/broadcasts/:telegramID", broadcasts.Create)
}
