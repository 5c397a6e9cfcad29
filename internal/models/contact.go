package models

import (
	"time"

	"gorm.io/gorm"
)

// Contact is one WhatsApp peer that has messaged a tenant's linked number
type Contact struct {
	gorm.Model

	UserID uint   `json:"user_id" gorm:"uniqueIndex:idx_contact_user_phone"`
	Phone  string `json:"phone" gorm:"uniqueIndex:idx_contact_user_phone"` // digits only, derived from the JID
	Name   string `json:"name"`

	MessageCount  int        `json:"message_count" gorm:"default:0"`
	LastMessageAt *time.Time `json:"last_message_at"`

	// Operator took over the conversation; the AI stays silent while set
	IsAIPaused bool `json:"is_ai_paused" gorm:"default:false"`

	// Free-form marker for multi-step capture flows
	CurrentContext string `json:"current_context"`
}
