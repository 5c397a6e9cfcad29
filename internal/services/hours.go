package services

import (
	"fmt"
	"log"
	"time"

	"github.com/amraniy/whatsbot-backend/internal/storage"
)

// DefaultClosedMessage is sent outside working hours when the tenant has not
// configured a template for the day.
const DefaultClosedMessage = "شكراً لتواصلك معنا! نحن خارج أوقات العمل حالياً وسنرد عليك في أقرب وقت."

// WorkingHoursGate decides whether autonomous responses are currently
// permitted for a tenant. All comparisons happen in the fixed business
// timezone, never server-local time.
type WorkingHoursGate struct {
	store storage.Store
	loc   *time.Location
	now   func() time.Time
}

// NewWorkingHoursGate creates a gate anchored to the business timezone
func NewWorkingHoursGate(store storage.Store) *WorkingHoursGate {
	loc, err := time.LoadLocation("Asia/Riyadh")
	if err != nil {
		log.Printf("⚠️ Failed to load business timezone, using fixed offset: %v", err)
		loc = time.FixedZone("AST", 3*60*60)
	}
	return &WorkingHoursGate{store: store, loc: loc, now: time.Now}
}

// IsOpenNow reports whether the tenant accepts autonomous responses right
// now, and returns the configured outside-hours message when closed.
//
// No configured entries means always open: absence of configuration must
// never block messaging. An entry for today means open within [start, end]
// inclusive; no entry for today means closed.
func (g *WorkingHoursGate) IsOpenNow(userID uint) (bool, string, error) {
	entries, err := g.store.GetWorkingHours(userID)
	if err != nil {
		return false, "", fmt.Errorf("failed to load working hours: %w", err)
	}
	if len(entries) == 0 {
		return true, "", nil
	}

	now := g.now().In(g.loc)
	day := int(now.Weekday()) // 0 = Sunday, matching stored entries
	current := now.Format("15:04")

	for _, entry := range entries {
		if entry.DayOfWeek != day {
			continue
		}
		// Zero-padded HH:MM strings compare correctly as strings
		if current >= entry.StartTime && current <= entry.EndTime {
			return true, "", nil
		}
		msg := entry.ClosedMessage
		if msg == "" {
			msg = DefaultClosedMessage
		}
		return false, msg, nil
	}

	// Schedule exists but no entry for today: closed all day
	return false, DefaultClosedMessage, nil
}
