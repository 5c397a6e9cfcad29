package models

import "gorm.io/gorm"

// Order represents one detected purchase intent for a tenant
type Order struct {
	gorm.Model

	UserID       uint   `json:"user_id" gorm:"index"`
	ContactPhone string `json:"contact_phone" gorm:"index"`

	CustomerName    string `json:"customer_name"`
	CustomerAddress string `json:"customer_address"`

	Items         []OrderItem `json:"items" gorm:"serializer:json"`
	DeliveryPrice float64     `json:"delivery_price"`
	TotalPrice    float64     `json:"total_price"`
	Notes         string      `json:"notes" gorm:"type:text"`

	Status string `json:"status" gorm:"default:pending"` // "pending", "cooking", "delivery", "completed"
}

// OrderItem is one line of an order
type OrderItem struct {
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

// OrderStatus constants
const (
	OrderStatusPending   = "pending"
	OrderStatusCooking   = "cooking"
	OrderStatusDelivery  = "delivery"
	OrderStatusCompleted = "completed"
)

// ValidOrderStatus reports whether s is a known lifecycle status
func ValidOrderStatus(s string) bool {
	switch s {
	case OrderStatusPending, OrderStatusCooking, OrderStatusDelivery, OrderStatusCompleted:
		return true
	}
	return false
}
