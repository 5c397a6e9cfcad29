package services

import (
	"fmt"
	"testing"

	"github.com/amraniy/whatsbot-backend/internal/models"
	"github.com/amraniy/whatsbot-backend/internal/storage"
)

func TestConversationRecentIsChronologicalAndBounded(t *testing.T) {
	store := storage.NewMemoryStore()
	memory := NewConversationService(store)

	for i := 1; i <= 15; i++ {
		role := models.RoleUser
		if i%2 == 0 {
			role = models.RoleAssistant
		}
		if err := memory.Append(1, "9665550001", role, fmt.Sprintf("turn %d", i)); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	turns, err := memory.Recent(1, "9665550001", 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(turns) != 10 {
		t.Fatalf("expected 10 turns, got %d", len(turns))
	}
	if turns[0].Content != "turn 6" || turns[9].Content != "turn 15" {
		t.Errorf("expected oldest-first window [turn 6..turn 15], got [%s..%s]",
			turns[0].Content, turns[9].Content)
	}
}

func TestConversationDefaultLimitAndClear(t *testing.T) {
	store := storage.NewMemoryStore()
	memory := NewConversationService(store)

	for i := 0; i < DefaultHistoryLimit+5; i++ {
		_ = memory.Append(2, "9665550002", models.RoleUser, fmt.Sprintf("m%d", i))
	}

	turns, err := memory.Recent(2, "9665550002", 0)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(turns) != DefaultHistoryLimit {
		t.Errorf("expected default limit %d, got %d", DefaultHistoryLimit, len(turns))
	}

	if err := memory.Clear(2, "9665550002"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	turns, _ = memory.Recent(2, "9665550002", 0)
	if len(turns) != 0 {
		t.Errorf("expected empty history after clear, got %d turns", len(turns))
	}
}

func TestConversationIsolatedPerContact(t *testing.T) {
	store := storage.NewMemoryStore()
	memory := NewConversationService(store)

	_ = memory.Append(3, "111", models.RoleUser, "from first contact")
	_ = memory.Append(3, "222", models.RoleUser, "from second contact")

	turns, _ := memory.Recent(3, "111", 10)
	if len(turns) != 1 || turns[0].Content != "from first contact" {
		t.Errorf("histories leaked across contacts: %+v", turns)
	}
}
