package services

import (
	"strings"

	"github.com/amraniy/whatsbot-backend/internal/models"
	"github.com/amraniy/whatsbot-backend/internal/storage"
)

// KeywordMatcher resolves inbound text against a tenant's auto-reply rules
type KeywordMatcher struct {
	store storage.Store
}

// NewKeywordMatcher creates a matcher backed by the given store
func NewKeywordMatcher(store storage.Store) *KeywordMatcher {
	return &KeywordMatcher{store: store}
}

// FindMatch returns the first rule, in insertion order, whose keyword is a
// case-insensitive substring of the inbound text. First match wins; there is
// no ranking by keyword length or specificity.
func (m *KeywordMatcher) FindMatch(userID uint, text string) (*models.AutoReply, error) {
	rules, err := m.store.GetAutoReplies(userID)
	if err != nil {
		return nil, err
	}

	normalized := strings.ToLower(strings.TrimSpace(text))
	if normalized == "" {
		return nil, nil
	}

	for _, rule := range rules {
		if rule.Keyword != "" && strings.Contains(normalized, rule.Keyword) {
			return rule, nil
		}
	}
	return nil, nil
}
