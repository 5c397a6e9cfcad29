package middleware

import (
	"crypto/subtle"
	"os"

	"github.com/gofiber/fiber/v2"
)

// ValidateWebhookSecret rejects webhook deliveries that don't carry the
// shared secret configured on the gateway side.
func ValidateWebhookSecret() fiber.Handler {
	secret := os.Getenv("WEBHOOK_SECRET")

	return func(c *fiber.Ctx) error {
		if secret == "" {
			// No secret configured: accept everything (local development)
			return c.Next()
		}

		provided := c.Get("apikey")
		if subtle.ConstantTimeCompare([]byte(provided), []byte(secret)) != 1 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid webhook credentials",
			})
		}
		return c.Next()
	}
}
