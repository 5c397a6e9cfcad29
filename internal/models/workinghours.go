package models

import "gorm.io/gorm"

// WorkingHours is one weekly schedule entry for a tenant.
// Times are zero-padded "HH:MM" strings in the business timezone.
type WorkingHours struct {
	gorm.Model

	UserID    uint   `json:"user_id" gorm:"uniqueIndex:idx_hours_user_day"`
	DayOfWeek int    `json:"day_of_week" gorm:"uniqueIndex:idx_hours_user_day"` // 0 = Sunday ... 6 = Saturday
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`

	// Sent to the contact when a message arrives outside the schedule
	ClosedMessage string `json:"closed_message" gorm:"type:text"`
}
