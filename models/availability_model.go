package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AvailabilitySlot is an admin-imposed block on a studio's day. Everything is open unless blocked.
// Rows with IsAvailable=true are legacy open-window records and never block.
type AvailabilitySlot struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Studio      Studio    `gorm:"size:20;not null;index:idx_slots_studio_date" json:"studio"`
	Date        string    `gorm:"size:10;not null;index:idx_slots_studio_date" json:"date"`
	StartTime   Clock     `gorm:"type:varchar(5);not null" json:"start_time"`
	EndTime     Clock     `gorm:"type:varchar(5);not null" json:"end_time"`
	IsAvailable bool      `gorm:"not null;default:false" json:"is_available"`
	Reason      string    `gorm:"size:255" json:"reason,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Bookings []Booking `gorm:"-" json:"bookings"`
}

func (s *AvailabilitySlot) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

func (s *AvailabilitySlot) Range() TimeRange {
	return TimeRange{Start: s.StartTime, End: s.EndTime}
}

func (s *AvailabilitySlot) Blocks() bool {
	return !s.IsAvailable
}

// DaySlots groups a calendar day's blocked slots for the admin view.
type DaySlots struct {
	Date  string             `json:"date"`
	Slots []AvailabilitySlot `json:"slots"`
}
