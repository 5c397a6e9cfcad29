package models

import (
	"strings"

	"gorm.io/gorm"
)

// AutoReply maps a keyword to a canned response for one tenant.
// Matching is case-insensitive substring, first rule in insertion order wins.
type AutoReply struct {
	gorm.Model

	UserID  uint   `json:"user_id" gorm:"uniqueIndex:idx_autoreply_user_keyword"`
	Keyword string `json:"keyword" gorm:"uniqueIndex:idx_autoreply_user_keyword"`
	Reply   string `json:"reply" gorm:"type:text"`

	// Optional media attached to the reply
	MediaURL  string `json:"media_url"`
	MediaType string `json:"media_type"` // "image", "video", "document"
}

// BeforeCreate normalizes the keyword the same way inbound text is normalized
func (a *AutoReply) BeforeCreate(tx *gorm.DB) error {
	a.Keyword = strings.ToLower(strings.TrimSpace(a.Keyword))
	return nil
}
