package models

import (
	"time"

	"gorm.io/gorm"
)

// SheetsSettings holds the per-tenant product-catalog context imported from
// an external spreadsheet. Only the cached text is consumed by the AI engine;
// refreshing the cache is an out-of-band concern.
type SheetsSettings struct {
	gorm.Model

	UserID   uint   `json:"user_id" gorm:"uniqueIndex"`
	SheetURL string `json:"sheet_url"`
	IsActive bool   `json:"is_active" gorm:"default:false"`

	CachedContext string     `json:"cached_context" gorm:"type:text"`
	CachedAt      *time.Time `json:"cached_at"`
}
