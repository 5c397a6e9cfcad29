package storage

import (
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/amraniy/whatsbot-backend/internal/models"
)

func newTestStore(t *testing.T) *DatabaseStore {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.Contact{},
		&models.AutoReply{},
		&models.WorkingHours{},
		&models.AISettings{},
		&models.ConversationTurn{},
		&models.Order{},
		&models.Broadcast{},
		&models.BroadcastRecipient{},
		&models.SheetsSettings{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewDatabaseStore(db)
}

func TestUpsertContactIncrementsCounter(t *testing.T) {
	store := newTestStore(t)
	user, err := store.CreateUser(&models.User{TelegramID: 1})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	first, err := store.UpsertContact(user.ID, "966555000111", "")
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if first.MessageCount != 1 {
		t.Errorf("expected count 1, got %d", first.MessageCount)
	}

	second, err := store.UpsertContact(user.ID, "966555000111", "Sara")
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if second.MessageCount != 2 {
		t.Errorf("expected count 2, got %d", second.MessageCount)
	}
	if second.Name != "Sara" {
		t.Errorf("name should be filled once known, got %q", second.Name)
	}
	if second.ID != first.ID {
		t.Error("upsert created a duplicate row")
	}

	// A known name is not overwritten
	third, _ := store.UpsertContact(user.ID, "966555000111", "Other")
	if third.Name != "Sara" {
		t.Errorf("existing name overwritten: %q", third.Name)
	}
}

func TestRecentTurnsChronologicalWindow(t *testing.T) {
	store := newTestStore(t)
	user, _ := store.CreateUser(&models.User{TelegramID: 2})

	for i := 1; i <= 12; i++ {
		err := store.AppendConversationTurn(&models.ConversationTurn{
			UserID: user.ID, ContactPhone: "111",
			Role: models.RoleUser, Content: fmt.Sprintf("turn %d", i),
		})
		if err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	turns, err := store.RecentConversationTurns(user.ID, "111", 5)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(turns) != 5 {
		t.Fatalf("expected 5 turns, got %d", len(turns))
	}
	if turns[0].Content != "turn 8" || turns[4].Content != "turn 12" {
		t.Errorf("expected chronological window [turn 8..turn 12], got [%s..%s]",
			turns[0].Content, turns[4].Content)
	}
}

func TestOrderItemsRoundTrip(t *testing.T) {
	store := newTestStore(t)
	user, _ := store.CreateUser(&models.User{TelegramID: 3})

	saved, err := store.SaveOrder(&models.Order{
		UserID:       user.ID,
		ContactPhone: "222",
		Items: []models.OrderItem{
			{Name: "Pizza", Quantity: 2, Price: 15},
			{Name: "Cola", Quantity: 1, Price: 12},
		},
		TotalPrice: 42,
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if saved.Status != models.OrderStatusPending {
		t.Errorf("expected pending default, got %s", saved.Status)
	}

	loaded, err := store.GetOrder(saved.ID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded.Items) != 2 || loaded.Items[0].Name != "Pizza" || loaded.Items[1].Price != 12 {
		t.Errorf("items did not survive persistence: %+v", loaded.Items)
	}
}

func TestGetLatestOrderByContact(t *testing.T) {
	store := newTestStore(t)
	user, _ := store.CreateUser(&models.User{TelegramID: 4})

	_, _ = store.SaveOrder(&models.Order{UserID: user.ID, ContactPhone: "333", TotalPrice: 10})
	second, _ := store.SaveOrder(&models.Order{UserID: user.ID, ContactPhone: "333", TotalPrice: 20})

	latest, err := store.GetLatestOrderByContact(user.ID, "333")
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if latest.ID != second.ID {
		t.Errorf("expected order #%d, got #%d", second.ID, latest.ID)
	}
}

func TestAutoRepliesKeepInsertionOrder(t *testing.T) {
	store := newTestStore(t)
	user, _ := store.CreateUser(&models.User{TelegramID: 5})

	for _, kw := range []string{"zebra", "apple", "mango"} {
		if _, err := store.CreateAutoReply(&models.AutoReply{UserID: user.ID, Keyword: kw, Reply: kw}); err != nil {
			t.Fatalf("create rule %s: %v", kw, err)
		}
	}

	rules, err := store.GetAutoReplies(user.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rules) != 3 {
		t.Fatalf("expected 3 rules, got %d", len(rules))
	}
	if rules[0].Keyword != "zebra" || rules[2].Keyword != "mango" {
		t.Errorf("rules not in insertion order: %s, %s, %s",
			rules[0].Keyword, rules[1].Keyword, rules[2].Keyword)
	}
}

func TestSetWorkingHoursUpserts(t *testing.T) {
	store := newTestStore(t)
	user, _ := store.CreateUser(&models.User{TelegramID: 6})

	entry := &models.WorkingHours{UserID: user.ID, DayOfWeek: 1, StartTime: "09:00", EndTime: "17:00"}
	if err := store.SetWorkingHours(entry); err != nil {
		t.Fatalf("set: %v", err)
	}
	update := &models.WorkingHours{UserID: user.ID, DayOfWeek: 1, StartTime: "10:00", EndTime: "18:00"}
	if err := store.SetWorkingHours(update); err != nil {
		t.Fatalf("update: %v", err)
	}

	entries, _ := store.GetWorkingHours(user.ID)
	if len(entries) != 1 {
		t.Fatalf("upsert created duplicate day entries: %d", len(entries))
	}
	if entries[0].StartTime != "10:00" || entries[0].EndTime != "18:00" {
		t.Errorf("entry not updated: %+v", entries[0])
	}
}

func TestGetAISettingsAbsenceIsNotAnError(t *testing.T) {
	store := newTestStore(t)
	user, _ := store.CreateUser(&models.User{TelegramID: 7})

	settings, err := store.GetAISettings(user.ID)
	if err != nil {
		t.Fatalf("absence should not error: %v", err)
	}
	if settings != nil {
		t.Errorf("expected nil settings, got %+v", settings)
	}
	if settings.Usable() {
		t.Error("nil settings must not be usable")
	}
}
