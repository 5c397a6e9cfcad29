package models

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is one Telegram operator (tenant) with a single linked WhatsApp instance
type User struct {
	gorm.Model

	TelegramID    int64  `json:"telegram_id" gorm:"uniqueIndex"`
	TelegramName  string `json:"telegram_name"`
	InstanceName  string `json:"instance_name" gorm:"uniqueIndex"` // WhatsApp gateway instance handle
	InstanceToken string `json:"-"`

	IsConnected          bool   `json:"is_connected" gorm:"default:false"`
	Language             string `json:"language" gorm:"default:ar"` // ar, en, fr, de
	NotificationsEnabled bool   `json:"notifications_enabled" gorm:"default:true"`

	// Store profile used in prompts, invoices and review messages
	StoreName string `json:"store_name"`
	MapLink   string `json:"map_link"`
}

// BeforeCreate hook to auto-generate the instance handle and normalize data
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.InstanceName == "" {
		u.InstanceName = "wa_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	}
	if u.InstanceToken == "" {
		u.InstanceToken = uuid.NewString()
	}
	if u.Language == "" {
		u.Language = "ar"
	}
	return nil
}
