package storage

import (
	"time"

	"github.com/amraniy/whatsbot-backend/internal/models"
)

var storeInstance Store

// SetStore sets the global store instance (call from main.go)
func SetStore(s Store) {
	storeInstance = s
}

// GetStore returns the global store instance
func GetStore() Store {
	return storeInstance
}

// Store defines the interface for storage operations
type Store interface {
	// Tenant operations
	CreateUser(user *models.User) (*models.User, error)
	GetUser(id uint) (*models.User, error)
	GetUserByTelegramID(telegramID int64) (*models.User, error)
	GetUserByInstance(instance string) (*models.User, error)
	GetConnectedUsers() ([]*models.User, error)
	UpdateUser(user *models.User) error

	// Contact operations
	UpsertContact(userID uint, phone, name string) (*models.Contact, error)
	GetContact(userID uint, phone string) (*models.Contact, error)
	GetContacts(userID uint) ([]*models.Contact, error)
	GetContactsSince(userID uint, since time.Time) ([]*models.Contact, error)
	UpdateContact(contact *models.Contact) error
	SetAIPaused(userID uint, phone string, paused bool) error

	// Auto-reply operations
	CreateAutoReply(rule *models.AutoReply) (*models.AutoReply, error)
	GetAutoReplies(userID uint) ([]*models.AutoReply, error)
	DeleteAutoReply(userID uint, keyword string) error

	// Working-hours operations
	SetWorkingHours(entry *models.WorkingHours) error
	GetWorkingHours(userID uint) ([]*models.WorkingHours, error)

	// AI settings operations
	SaveAISettings(settings *models.AISettings) error
	GetAISettings(userID uint) (*models.AISettings, error)

	// Conversation memory operations
	AppendConversationTurn(turn *models.ConversationTurn) error
	RecentConversationTurns(userID uint, phone string, limit int) ([]*models.ConversationTurn, error)
	ClearConversation(userID uint, phone string) error

	// Order operations
	SaveOrder(order *models.Order) (*models.Order, error)
	GetOrder(id uint) (*models.Order, error)
	GetLatestOrderByContact(userID uint, phone string) (*models.Order, error)
	GetOrders(userID uint) ([]*models.Order, error)
	UpdateOrder(order *models.Order) error

	// Broadcast operations
	CreateBroadcast(broadcast *models.Broadcast) (*models.Broadcast, error)
	UpdateBroadcast(broadcast *models.Broadcast) error
	AddBroadcastRecipient(recipient *models.BroadcastRecipient) error

	// Sheets context operations
	SaveSheetsSettings(settings *models.SheetsSettings) error
	GetSheetsSettings(userID uint) (*models.SheetsSettings, error)
}
