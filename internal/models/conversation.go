package models

import "time"

// Conversation roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ConversationTurn is one append-only entry of the per-contact message log.
// Rows are never updated; deletion only happens through an explicit clear.
type ConversationTurn struct {
	ID           uint   `json:"id" gorm:"primaryKey"`
	UserID       uint   `json:"user_id" gorm:"index:idx_turn_user_contact"`
	ContactPhone string `json:"contact_phone" gorm:"index:idx_turn_user_contact"`

	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at"`
}
