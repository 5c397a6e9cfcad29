package services

import (
	"testing"
	"time"

	"github.com/amraniy/whatsbot-backend/internal/models"
	"github.com/amraniy/whatsbot-backend/internal/storage"
)

// gateAt builds a gate whose clock is pinned to the given business-local time
func gateAt(t *testing.T, store storage.Store, weekday time.Weekday, clock string) *WorkingHoursGate {
	t.Helper()
	gate := NewWorkingHoursGate(store)

	parsed, err := time.ParseInLocation("15:04", clock, gate.loc)
	if err != nil {
		t.Fatalf("bad clock %q: %v", clock, err)
	}

	// Walk from a known Sunday to the requested weekday
	base := time.Date(2025, 6, 1, parsed.Hour(), parsed.Minute(), 0, 0, gate.loc) // a Sunday
	base = base.AddDate(0, 0, int(weekday))

	gate.now = func() time.Time { return base }
	return gate
}

func TestWorkingHoursFailOpen(t *testing.T) {
	store := storage.NewMemoryStore()
	user, _ := store.CreateUser(&models.User{TelegramID: 1})

	for _, clock := range []string{"00:00", "03:30", "12:00", "23:59"} {
		gate := gateAt(t, store, time.Monday, clock)
		open, _, err := gate.IsOpenNow(user.ID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !open {
			t.Errorf("no schedule configured: expected open at %s", clock)
		}
	}
}

func TestWorkingHoursNoEntryForToday(t *testing.T) {
	store := storage.NewMemoryStore()
	user, _ := store.CreateUser(&models.User{TelegramID: 2})

	// Schedule exists for Monday only
	_ = store.SetWorkingHours(&models.WorkingHours{
		UserID: user.ID, DayOfWeek: 1, StartTime: "09:00", EndTime: "17:00",
	})

	gate := gateAt(t, store, time.Tuesday, "12:00")
	open, msg, err := gate.IsOpenNow(user.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if open {
		t.Error("day without an entry should be closed")
	}
	if msg != DefaultClosedMessage {
		t.Errorf("expected default closed message, got %q", msg)
	}
}

func TestWorkingHoursInclusiveBounds(t *testing.T) {
	store := storage.NewMemoryStore()
	user, _ := store.CreateUser(&models.User{TelegramID: 3})

	_ = store.SetWorkingHours(&models.WorkingHours{
		UserID: user.ID, DayOfWeek: 1, StartTime: "09:00", EndTime: "17:00",
		ClosedMessage: "closed, come back tomorrow",
	})

	cases := []struct {
		clock string
		open  bool
	}{
		{"08:59", false},
		{"09:00", true}, // start is inclusive
		{"12:30", true},
		{"17:00", true}, // end is inclusive
		{"17:01", false},
	}

	for _, tc := range cases {
		gate := gateAt(t, store, time.Monday, tc.clock)
		open, msg, err := gate.IsOpenNow(user.ID)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.clock, err)
		}
		if open != tc.open {
			t.Errorf("at %s: expected open=%v, got %v", tc.clock, tc.open, open)
		}
		if !open && msg != "closed, come back tomorrow" {
			t.Errorf("at %s: expected configured closed message, got %q", tc.clock, msg)
		}
	}
}
