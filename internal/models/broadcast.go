package models

import "gorm.io/gorm"

// Broadcast is one fan-out campaign to a tenant's contacts
type Broadcast struct {
	gorm.Model

	UserID  uint   `json:"user_id" gorm:"index"`
	Message string `json:"message" gorm:"type:text"`

	MediaURL  string `json:"media_url"`
	MediaType string `json:"media_type"`

	Status      string `json:"status" gorm:"default:pending"` // "pending", "sending", "completed", "failed"
	TotalCount  int    `json:"total_count"`
	SentCount   int    `json:"sent_count"`
	FailedCount int    `json:"failed_count"`
}

// BroadcastRecipient records the per-recipient outcome of a campaign
type BroadcastRecipient struct {
	gorm.Model

	BroadcastID uint   `json:"broadcast_id" gorm:"index"`
	Phone       string `json:"phone"`
	Status      string `json:"status"` // "sent" or "failed"
	Error       string `json:"error"`
}

// Broadcast lifecycle constants
const (
	BroadcastStatusPending   = "pending"
	BroadcastStatusSending   = "sending"
	BroadcastStatusCompleted = "completed"
	BroadcastStatusFailed    = "failed"

	RecipientStatusSent   = "sent"
	RecipientStatusFailed = "failed"
)
