package storage

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/amraniy/whatsbot-backend/internal/models"
)

// DatabaseStore implements Store on top of gorm
type DatabaseStore struct {
	db *gorm.DB
}

// NewDatabaseStore creates a database-backed store
func NewDatabaseStore(db *gorm.DB) *DatabaseStore {
	return &DatabaseStore{db: db}
}

// ===== Tenant operations =====

func (s *DatabaseStore) CreateUser(user *models.User) (*models.User, error) {
	if err := s.db.Create(user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

func (s *DatabaseStore) GetUser(id uint) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, id).Error; err != nil {
		return nil, fmt.Errorf("user not found")
	}
	return &user, nil
}

func (s *DatabaseStore) GetUserByTelegramID(telegramID int64) (*models.User, error) {
	var user models.User
	if err := s.db.Where("telegram_id = ?", telegramID).First(&user).Error; err != nil {
		return nil, fmt.Errorf("user not found")
	}
	return &user, nil
}

func (s *DatabaseStore) GetUserByInstance(instance string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("instance_name = ?", instance).First(&user).Error; err != nil {
		return nil, fmt.Errorf("user not found")
	}
	return &user, nil
}

func (s *DatabaseStore) GetConnectedUsers() ([]*models.User, error) {
	var users []*models.User
	if err := s.db.Where("is_connected = ?", true).Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (s *DatabaseStore) UpdateUser(user *models.User) error {
	return s.db.Save(user).Error
}

// ===== Contact operations =====

// UpsertContact creates the contact on first sight, then bumps the message
// counter and last-seen timestamp on every call. The name is only filled in
// when it was previously unknown.
func (s *DatabaseStore) UpsertContact(userID uint, phone, name string) (*models.Contact, error) {
	var contact models.Contact
	err := s.db.Where("user_id = ? AND phone = ?", userID, phone).First(&contact).Error
	now := time.Now()

	if errors.Is(err, gorm.ErrRecordNotFound) {
		contact = models.Contact{
			UserID:        userID,
			Phone:         phone,
			Name:          name,
			MessageCount:  1,
			LastMessageAt: &now,
		}
		if err := s.db.Create(&contact).Error; err != nil {
			return nil, fmt.Errorf("failed to create contact: %w", err)
		}
		return &contact, nil
	}
	if err != nil {
		return nil, err
	}

	contact.MessageCount++
	contact.LastMessageAt = &now
	if contact.Name == "" && name != "" {
		contact.Name = name
	}
	if err := s.db.Save(&contact).Error; err != nil {
		return nil, err
	}
	return &contact, nil
}

func (s *DatabaseStore) GetContact(userID uint, phone string) (*models.Contact, error) {
	var contact models.Contact
	if err := s.db.Where("user_id = ? AND phone = ?", userID, phone).First(&contact).Error; err != nil {
		return nil, fmt.Errorf("contact not found")
	}
	return &contact, nil
}

func (s *DatabaseStore) GetContacts(userID uint) ([]*models.Contact, error) {
	var contacts []*models.Contact
	if err := s.db.Where("user_id = ?", userID).Order("id ASC").Find(&contacts).Error; err != nil {
		return nil, err
	}
	return contacts, nil
}

func (s *DatabaseStore) GetContactsSince(userID uint, since time.Time) ([]*models.Contact, error) {
	var contacts []*models.Contact
	err := s.db.Where("user_id = ? AND last_message_at >= ?", userID, since).
		Order("id ASC").Find(&contacts).Error
	if err != nil {
		return nil, err
	}
	return contacts, nil
}

func (s *DatabaseStore) UpdateContact(contact *models.Contact) error {
	return s.db.Save(contact).Error
}

func (s *DatabaseStore) SetAIPaused(userID uint, phone string, paused bool) error {
	return s.db.Model(&models.Contact{}).
		Where("user_id = ? AND phone = ?", userID, phone).
		Update("is_ai_paused", paused).Error
}

// ===== Auto-reply operations =====

func (s *DatabaseStore) CreateAutoReply(rule *models.AutoReply) (*models.AutoReply, error) {
	if err := s.db.Create(rule).Error; err != nil {
		return nil, fmt.Errorf("failed to create auto-reply: %w", err)
	}
	return rule, nil
}

// GetAutoReplies returns rules in insertion order; the matcher relies on it
func (s *DatabaseStore) GetAutoReplies(userID uint) ([]*models.AutoReply, error) {
	var rules []*models.AutoReply
	if err := s.db.Where("user_id = ?", userID).Order("id ASC").Find(&rules).Error; err != nil {
		return nil, err
	}
	return rules, nil
}

func (s *DatabaseStore) DeleteAutoReply(userID uint, keyword string) error {
	return s.db.Where("user_id = ? AND keyword = ?", userID, keyword).
		Delete(&models.AutoReply{}).Error
}

// ===== Working-hours operations =====

func (s *DatabaseStore) SetWorkingHours(entry *models.WorkingHours) error {
	var existing models.WorkingHours
	err := s.db.Where("user_id = ? AND day_of_week = ?", entry.UserID, entry.DayOfWeek).
		First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return s.db.Create(entry).Error
	}
	if err != nil {
		return err
	}
	existing.StartTime = entry.StartTime
	existing.EndTime = entry.EndTime
	existing.ClosedMessage = entry.ClosedMessage
	return s.db.Save(&existing).Error
}

func (s *DatabaseStore) GetWorkingHours(userID uint) ([]*models.WorkingHours, error) {
	var entries []*models.WorkingHours
	if err := s.db.Where("user_id = ?", userID).Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// ===== AI settings operations =====

func (s *DatabaseStore) SaveAISettings(settings *models.AISettings) error {
	var existing models.AISettings
	err := s.db.Where("user_id = ?", settings.UserID).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return s.db.Create(settings).Error
	}
	if err != nil {
		return err
	}
	settings.ID = existing.ID
	settings.CreatedAt = existing.CreatedAt
	return s.db.Save(settings).Error
}

func (s *DatabaseStore) GetAISettings(userID uint) (*models.AISettings, error) {
	var settings models.AISettings
	err := s.db.Where("user_id = ?", userID).First(&settings).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil // absence of configuration is not an error
	}
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

// ===== Conversation memory operations =====

func (s *DatabaseStore) AppendConversationTurn(turn *models.ConversationTurn) error {
	return s.db.Create(turn).Error
}

// RecentConversationTurns returns the most recent N turns in chronological
// order. Retrieval is newest-first for the index, then reversed.
func (s *DatabaseStore) RecentConversationTurns(userID uint, phone string, limit int) ([]*models.ConversationTurn, error) {
	var turns []*models.ConversationTurn
	err := s.db.Where("user_id = ? AND contact_phone = ?", userID, phone).
		Order("id DESC").Limit(limit).Find(&turns).Error
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
	return turns, nil
}

func (s *DatabaseStore) ClearConversation(userID uint, phone string) error {
	return s.db.Where("user_id = ? AND contact_phone = ?", userID, phone).
		Delete(&models.ConversationTurn{}).Error
}

// ===== Order operations =====

func (s *DatabaseStore) SaveOrder(order *models.Order) (*models.Order, error) {
	if order.Status == "" {
		order.Status = models.OrderStatusPending
	}
	if err := s.db.Create(order).Error; err != nil {
		return nil, fmt.Errorf("failed to save order: %w", err)
	}
	return order, nil
}

func (s *DatabaseStore) GetOrder(id uint) (*models.Order, error) {
	var order models.Order
	if err := s.db.First(&order, id).Error; err != nil {
		return nil, fmt.Errorf("order not found")
	}
	return &order, nil
}

func (s *DatabaseStore) GetLatestOrderByContact(userID uint, phone string) (*models.Order, error) {
	var order models.Order
	err := s.db.Where("user_id = ? AND contact_phone = ?", userID, phone).
		Order("id DESC").First(&order).Error
	if err != nil {
		return nil, fmt.Errorf("order not found")
	}
	return &order, nil
}

func (s *DatabaseStore) GetOrders(userID uint) ([]*models.Order, error) {
	var orders []*models.Order
	if err := s.db.Where("user_id = ?", userID).Order("id DESC").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (s *DatabaseStore) UpdateOrder(order *models.Order) error {
	return s.db.Save(order).Error
}

// ===== Broadcast operations =====

func (s *DatabaseStore) CreateBroadcast(broadcast *models.Broadcast) (*models.Broadcast, error) {
	if broadcast.Status == "" {
		broadcast.Status = models.BroadcastStatusPending
	}
	if err := s.db.Create(broadcast).Error; err != nil {
		return nil, fmt.Errorf("failed to create broadcast: %w", err)
	}
	return broadcast, nil
}

func (s *DatabaseStore) UpdateBroadcast(broadcast *models.Broadcast) error {
	return s.db.Save(broadcast).Error
}

func (s *DatabaseStore) AddBroadcastRecipient(recipient *models.BroadcastRecipient) error {
	return s.db.Create(recipient).Error
}

// ===== Sheets context operations =====

func (s *DatabaseStore) SaveSheetsSettings(settings *models.SheetsSettings) error {
	var existing models.SheetsSettings
	err := s.db.Where("user_id = ?", settings.UserID).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return s.db.Create(settings).Error
	}
	if err != nil {
		return err
	}
	settings.ID = existing.ID
	settings.CreatedAt = existing.CreatedAt
	return s.db.Save(settings).Error
}

func (s *DatabaseStore) GetSheetsSettings(userID uint) (*models.SheetsSettings, error) {
	var settings models.SheetsSettings
	err := s.db.Where("user_id = ?", userID).First(&settings).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &settings, nil
}
