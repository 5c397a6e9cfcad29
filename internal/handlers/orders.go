package handlers

import (
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/amraniy/whatsbot-backend/internal/models"
	"github.com/amraniy/whatsbot-backend/internal/services"
	"github.com/amraniy/whatsbot-backend/internal/storage"
)

// OrderHandler serves order queries and spreadsheet exports
type OrderHandler struct {
	store storage.Store
	excel *services.ExcelService
}

// NewOrderHandler creates the order API handler
func NewOrderHandler(store storage.Store, excel *services.ExcelService) *OrderHandler {
	return &OrderHandler{store: store, excel: excel}
}

// List returns a tenant's orders, newest first
func (h *OrderHandler) List(c *fiber.Ctx) error {
	user, err := h.resolveUser(c)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "user not found"})
	}

	orders, err := h.store.GetOrders(user.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"orders": orders, "count": len(orders)})
}

// Export streams a tenant's orders as an .xlsx download
func (h *OrderHandler) Export(c *fiber.Ctx) error {
	user, err := h.resolveUser(c)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "user not found"})
	}

	orders, err := h.store.GetOrders(user.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	data, err := h.excel.ExportOrders(orders)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	c.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set("Content-Disposition", fmt.Sprintf(`attachment; filename="orders_%d.xlsx"`, user.ID))
	return c.Send(data)
}

func (h *OrderHandler) resolveUser(c *fiber.Ctx) (*models.User, error) {
	telegramID, err := strconv.ParseInt(c.Params("telegramID"), 10, 64)
	if err != nil {
		return nil, err
	}
	return h.store.GetUserByTelegramID(telegramID)
}
