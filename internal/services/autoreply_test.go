package services

import (
	"testing"

	"github.com/amraniy/whatsbot-backend/internal/models"
	"github.com/amraniy/whatsbot-backend/internal/storage"
)

func TestKeywordMatcher(t *testing.T) {
	store := storage.NewMemoryStore()
	user, _ := store.CreateUser(&models.User{TelegramID: 10})

	rules := []models.AutoReply{
		{UserID: user.ID, Keyword: "price", Reply: "our price list"},
		{UserID: user.ID, Keyword: "price list", Reply: "detailed list"},
		{UserID: user.ID, Keyword: "hours", Reply: "9-5"},
	}
	for i := range rules {
		if _, err := store.CreateAutoReply(&rules[i]); err != nil {
			t.Fatalf("seed rule: %v", err)
		}
	}

	matcher := NewKeywordMatcher(store)

	cases := []struct {
		name  string
		text  string
		reply string // "" means no match
	}{
		{"substring match", "what is the PRICE?", "our price list"},
		{"first rule wins over longer keyword", "send me your price list", "our price list"},
		{"case insensitive", "HOURS please", "9-5"},
		{"trimmed input", "   hours   ", "9-5"},
		{"no match", "hello there", ""},
		{"empty input", "   ", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rule, err := matcher.FindMatch(user.ID, tc.text)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tc.reply == "" {
				if rule != nil {
					t.Fatalf("expected no match, got %q", rule.Keyword)
				}
				return
			}
			if rule == nil {
				t.Fatal("expected a match, got none")
			}
			if rule.Reply != tc.reply {
				t.Errorf("expected reply %q, got %q", tc.reply, rule.Reply)
			}
		})
	}
}
