package models

import "gorm.io/gorm"

// AISettings is the per-tenant AI agent configuration (singleton per tenant)
type AISettings struct {
	gorm.Model

	UserID uint `json:"user_id" gorm:"uniqueIndex"`

	Provider  string `json:"provider" gorm:"default:gemini"` // "gemini", "openai"
	APIKey    string `json:"-"`
	ModelName string `json:"model_name"`

	SystemPrompt string `json:"system_prompt" gorm:"type:text"` // operator's custom instructions
	Language     string `json:"language" gorm:"default:ar"`
	IsActive     bool   `json:"is_active" gorm:"default:false"`

	// Number of past turns sent to the provider, not a storage bound
	HistoryLimit int `json:"history_limit" gorm:"default:10"`
}

// Usable reports whether the settings can actually reach a provider
func (s *AISettings) Usable() bool {
	return s != nil && s.IsActive && s.APIKey != ""
}
