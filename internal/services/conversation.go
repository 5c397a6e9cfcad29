package services

import (
	"github.com/amraniy/whatsbot-backend/internal/ai"
	"github.com/amraniy/whatsbot-backend/internal/models"
	"github.com/amraniy/whatsbot-backend/internal/storage"
)

// DefaultHistoryLimit bounds the AI context window when the tenant has not
// configured one.
const DefaultHistoryLimit = 10

// ConversationService wraps the append-only per-contact message log
type ConversationService struct {
	store storage.Store
}

// NewConversationService creates a conversation memory service
func NewConversationService(store storage.Store) *ConversationService {
	return &ConversationService{store: store}
}

// Append records one turn. Storage is append-only; older turns stay retained
// past the context window for audit.
func (c *ConversationService) Append(userID uint, phone, role, content string) error {
	return c.store.AppendConversationTurn(&models.ConversationTurn{
		UserID:       userID,
		ContactPhone: phone,
		Role:         role,
		Content:      content,
	})
}

// Recent returns the last N turns as provider-ready entries, oldest first
func (c *ConversationService) Recent(userID uint, phone string, limit int) ([]ai.Turn, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	rows, err := c.store.RecentConversationTurns(userID, phone, limit)
	if err != nil {
		return nil, err
	}

	turns := make([]ai.Turn, 0, len(rows))
	for _, row := range rows {
		turns = append(turns, ai.Turn{Role: row.Role, Content: row.Content})
	}
	return turns, nil
}

// Clear drops the stored history for one contact
func (c *ConversationService) Clear(userID uint, phone string) error {
	return c.store.ClearConversation(userID, phone)
}
