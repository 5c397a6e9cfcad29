package storage

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/amraniy/whatsbot-backend/internal/models"
)

// MemoryStore holds all data in memory, for tests and local development
type MemoryStore struct {
	users      map[uint]*models.User
	contacts   map[string]*models.Contact      // key: "userID:phone"
	rules      map[uint][]*models.AutoReply    // key: userID
	hours      map[uint][]*models.WorkingHours // key: userID
	aiSettings map[uint]*models.AISettings     // key: userID
	turns      map[string][]*models.ConversationTurn
	orders     map[uint]*models.Order
	broadcasts map[uint]*models.Broadcast
	recipients []*models.BroadcastRecipient
	sheets     map[uint]*models.SheetsSettings

	mu sync.RWMutex

	// Counters for ID generation
	userCounter      uint
	contactCounter   uint
	ruleCounter      uint
	hoursCounter     uint
	turnCounter      uint
	orderCounter     uint
	broadcastCounter uint
}

// NewMemoryStore creates a new in-memory storage
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:      make(map[uint]*models.User),
		contacts:   make(map[string]*models.Contact),
		rules:      make(map[uint][]*models.AutoReply),
		hours:      make(map[uint][]*models.WorkingHours),
		aiSettings: make(map[uint]*models.AISettings),
		turns:      make(map[string][]*models.ConversationTurn),
		orders:     make(map[uint]*models.Order),
		broadcasts: make(map[uint]*models.Broadcast),
		sheets:     make(map[uint]*models.SheetsSettings),
	}
}

func contactKey(userID uint, phone string) string {
	return fmt.Sprintf("%d:%s", userID, phone)
}

// ===== Tenant operations =====

func (m *MemoryStore) CreateUser(user *models.User) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.userCounter++
	user.ID = m.userCounter
	if user.InstanceName == "" {
		user.InstanceName = "wa_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	}
	if user.Language == "" {
		user.Language = "ar"
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = time.Now()

	m.users[user.ID] = user
	return user, nil
}

func (m *MemoryStore) GetUser(id uint) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	user, exists := m.users[id]
	if !exists {
		return nil, fmt.Errorf("user not found")
	}
	return user, nil
}

func (m *MemoryStore) GetUserByTelegramID(telegramID int64) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, user := range m.users {
		if user.TelegramID == telegramID {
			return user, nil
		}
	}
	return nil, fmt.Errorf("user not found")
}

func (m *MemoryStore) GetUserByInstance(instance string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, user := range m.users {
		if user.InstanceName == instance {
			return user, nil
		}
	}
	return nil, fmt.Errorf("user not found")
}

func (m *MemoryStore) GetConnectedUsers() ([]*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var users []*models.User
	for _, user := range m.users {
		if user.IsConnected {
			users = append(users, user)
		}
	}
	return users, nil
}

func (m *MemoryStore) UpdateUser(user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.users[user.ID]; !exists {
		return fmt.Errorf("user not found")
	}
	user.UpdatedAt = time.Now()
	m.users[user.ID] = user
	return nil
}

// ===== Contact operations =====

func (m *MemoryStore) UpsertContact(userID uint, phone, name string) (*models.Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	key := contactKey(userID, phone)
	if contact, exists := m.contacts[key]; exists {
		contact.MessageCount++
		contact.LastMessageAt = &now
		if contact.Name == "" && name != "" {
			contact.Name = name
		}
		return contact, nil
	}

	m.contactCounter++
	contact := &models.Contact{
		UserID:        userID,
		Phone:         phone,
		Name:          name,
		MessageCount:  1,
		LastMessageAt: &now,
	}
	contact.ID = m.contactCounter
	contact.CreatedAt = now
	m.contacts[key] = contact
	return contact, nil
}

func (m *MemoryStore) GetContact(userID uint, phone string) (*models.Contact, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	contact, exists := m.contacts[contactKey(userID, phone)]
	if !exists {
		return nil, fmt.Errorf("contact not found")
	}
	return contact, nil
}

func (m *MemoryStore) GetContacts(userID uint) ([]*models.Contact, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var contacts []*models.Contact
	for _, contact := range m.contacts {
		if contact.UserID == userID {
			contacts = append(contacts, contact)
		}
	}
	sort.Slice(contacts, func(i, j int) bool { return contacts[i].ID < contacts[j].ID })
	return contacts, nil
}

func (m *MemoryStore) GetContactsSince(userID uint, since time.Time) ([]*models.Contact, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var contacts []*models.Contact
	for _, contact := range m.contacts {
		if contact.UserID == userID && contact.LastMessageAt != nil && !contact.LastMessageAt.Before(since) {
			contacts = append(contacts, contact)
		}
	}
	sort.Slice(contacts, func(i, j int) bool { return contacts[i].ID < contacts[j].ID })
	return contacts, nil
}

func (m *MemoryStore) UpdateContact(contact *models.Contact) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.contacts[contactKey(contact.UserID, contact.Phone)] = contact
	return nil
}

func (m *MemoryStore) SetAIPaused(userID uint, phone string, paused bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	contact, exists := m.contacts[contactKey(userID, phone)]
	if !exists {
		return fmt.Errorf("contact not found")
	}
	contact.IsAIPaused = paused
	return nil
}

// ===== Auto-reply operations =====

func (m *MemoryStore) CreateAutoReply(rule *models.AutoReply) (*models.AutoReply, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rule.Keyword = strings.ToLower(strings.TrimSpace(rule.Keyword))
	for _, existing := range m.rules[rule.UserID] {
		if existing.Keyword == rule.Keyword {
			return nil, fmt.Errorf("keyword already exists")
		}
	}

	m.ruleCounter++
	rule.ID = m.ruleCounter
	rule.CreatedAt = time.Now()
	m.rules[rule.UserID] = append(m.rules[rule.UserID], rule)
	return rule, nil
}

func (m *MemoryStore) GetAutoReplies(userID uint) ([]*models.AutoReply, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return append([]*models.AutoReply(nil), m.rules[userID]...), nil
}

func (m *MemoryStore) DeleteAutoReply(userID uint, keyword string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	keyword = strings.ToLower(strings.TrimSpace(keyword))
	rules := m.rules[userID]
	for i, rule := range rules {
		if rule.Keyword == keyword {
			m.rules[userID] = append(rules[:i], rules[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("auto-reply not found")
}

// ===== Working-hours operations =====

func (m *MemoryStore) SetWorkingHours(entry *models.WorkingHours) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.hours[entry.UserID] {
		if existing.DayOfWeek == entry.DayOfWeek {
			existing.StartTime = entry.StartTime
			existing.EndTime = entry.EndTime
			existing.ClosedMessage = entry.ClosedMessage
			return nil
		}
	}

	m.hoursCounter++
	entry.ID = m.hoursCounter
	entry.CreatedAt = time.Now()
	m.hours[entry.UserID] = append(m.hours[entry.UserID], entry)
	return nil
}

func (m *MemoryStore) GetWorkingHours(userID uint) ([]*models.WorkingHours, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return append([]*models.WorkingHours(nil), m.hours[userID]...), nil
}

// ===== AI settings operations =====

func (m *MemoryStore) SaveAISettings(settings *models.AISettings) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, exists := m.aiSettings[settings.UserID]; exists {
		settings.ID = existing.ID
	} else {
		m.userCounter++
		settings.ID = m.userCounter
	}
	settings.UpdatedAt = time.Now()
	m.aiSettings[settings.UserID] = settings
	return nil
}

func (m *MemoryStore) GetAISettings(userID uint) (*models.AISettings, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.aiSettings[userID], nil
}

// ===== Conversation memory operations =====

func (m *MemoryStore) AppendConversationTurn(turn *models.ConversationTurn) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.turnCounter++
	turn.ID = m.turnCounter
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now()
	}
	key := contactKey(turn.UserID, turn.ContactPhone)
	m.turns[key] = append(m.turns[key], turn)
	return nil
}

func (m *MemoryStore) RecentConversationTurns(userID uint, phone string, limit int) ([]*models.ConversationTurn, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	all := m.turns[contactKey(userID, phone)]
	if limit > 0 && len(all) > limit {
		all = all[len(all)-limit:]
	}
	return append([]*models.ConversationTurn(nil), all...), nil
}

func (m *MemoryStore) ClearConversation(userID uint, phone string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.turns, contactKey(userID, phone))
	return nil
}

// ===== Order operations =====

func (m *MemoryStore) SaveOrder(order *models.Order) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.orderCounter++
	order.ID = m.orderCounter
	if order.Status == "" {
		order.Status = models.OrderStatusPending
	}
	order.CreatedAt = time.Now()
	order.UpdatedAt = time.Now()
	m.orders[order.ID] = order
	return order, nil
}

func (m *MemoryStore) GetOrder(id uint) (*models.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	order, exists := m.orders[id]
	if !exists {
		return nil, fmt.Errorf("order not found")
	}
	return order, nil
}

func (m *MemoryStore) GetLatestOrderByContact(userID uint, phone string) (*models.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var latest *models.Order
	for _, order := range m.orders {
		if order.UserID == userID && order.ContactPhone == phone {
			if latest == nil || order.ID > latest.ID {
				latest = order
			}
		}
	}
	if latest == nil {
		return nil, fmt.Errorf("order not found")
	}
	return latest, nil
}

func (m *MemoryStore) GetOrders(userID uint) ([]*models.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var orders []*models.Order
	for _, order := range m.orders {
		if order.UserID == userID {
			orders = append(orders, order)
		}
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].ID > orders[j].ID })
	return orders, nil
}

func (m *MemoryStore) UpdateOrder(order *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.orders[order.ID]; !exists {
		return fmt.Errorf("order not found")
	}
	order.UpdatedAt = time.Now()
	m.orders[order.ID] = order
	return nil
}

// ===== Broadcast operations =====

func (m *MemoryStore) CreateBroadcast(broadcast *models.Broadcast) (*models.Broadcast, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.broadcastCounter++
	broadcast.ID = m.broadcastCounter
	if broadcast.Status == "" {
		broadcast.Status = models.BroadcastStatusPending
	}
	broadcast.CreatedAt = time.Now()
	m.broadcasts[broadcast.ID] = broadcast
	return broadcast, nil
}

func (m *MemoryStore) UpdateBroadcast(broadcast *models.Broadcast) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.broadcasts[broadcast.ID] = broadcast
	return nil
}

func (m *MemoryStore) AddBroadcastRecipient(recipient *models.BroadcastRecipient) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.recipients = append(m.recipients, recipient)
	return nil
}

// BroadcastRecipients returns recorded recipient outcomes (test helper)
func (m *MemoryStore) BroadcastRecipients(broadcastID uint) []*models.BroadcastRecipient {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*models.BroadcastRecipient
	for _, r := range m.recipients {
		if r.BroadcastID == broadcastID {
			out = append(out, r)
		}
	}
	return out
}

// ===== Sheets context operations =====

func (m *MemoryStore) SaveSheetsSettings(settings *models.SheetsSettings) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sheets[settings.UserID] = settings
	return nil
}

func (m *MemoryStore) GetSheetsSettings(userID uint) (*models.SheetsSettings, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.sheets[userID], nil
}
