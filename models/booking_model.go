package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Studio string

const (
	StudioA Studio = "Studio A"
	StudioB Studio = "Studio B"
	StudioC Studio = "Studio C"
)

// Studios is ordered smallest first.
var Studios = []Studio{StudioC, StudioB, StudioA}

func (s Studio) Valid() bool {
	switch s {
	case StudioA, StudioB, StudioC:
		return true
	}
	return false
}

type SessionType string

const (
	SessionKaraoke   SessionType = "karaoke"
	SessionLive      SessionType = "live"
	SessionBand      SessionType = "band"
	SessionRecording SessionType = "recording"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
	BookingCompleted BookingStatus = "completed"
	BookingNoShow    BookingStatus = "no_show"

	// BookingNeedsCompletion is derived on read and never stored.
	BookingNeedsCompletion BookingStatus = "needs_completion"
)

// ActiveStatuses hold a slot on the calendar.
var ActiveStatuses = []BookingStatus{BookingPending, BookingConfirmed}

func (s BookingStatus) Active() bool {
	return s == BookingPending || s == BookingConfirmed
}

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingPending, BookingConfirmed, BookingCancelled, BookingCompleted, BookingNoShow:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentVerified PaymentStatus = "verified"
	PaymentFailed   PaymentStatus = "failed"
)

type BookingSource string

const (
	SourceCustomer BookingSource = "customer"
	SourceAdmin    BookingSource = "admin"
)

type Booking struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ConfirmationCode string    `gorm:"size:12;uniqueIndex" json:"confirmation_code"`

	Studio    Studio `gorm:"size:20;not null;index:idx_bookings_studio_date" json:"studio"`
	Date      string `gorm:"size:10;not null;index:idx_bookings_studio_date" json:"date"`
	StartTime Clock  `gorm:"type:varchar(5);not null" json:"start_time"`
	EndTime   Clock  `gorm:"type:varchar(5);not null" json:"end_time"`

	SessionType    SessionType    `gorm:"size:20;not null" json:"session_type"`
	SessionDetails string         `gorm:"size:255" json:"session_details"`
	SessionOptions datatypes.JSON `json:"session_options,omitempty"`
	GroupSize      int            `gorm:"not null;default:1" json:"group_size"`
	RatePerHour    float64        `gorm:"type:numeric(10,2);not null" json:"rate_per_hour"`
	TotalAmount    float64        `gorm:"type:numeric(10,2);not null" json:"total_amount"`

	Status          BookingStatus  `gorm:"size:20;not null;default:'pending';index" json:"status"`
	IsPromptPayment bool           `gorm:"not null;default:false" json:"is_prompt_payment"`
	PaymentStatus   *PaymentStatus `gorm:"size:20" json:"payment_status,omitempty"`
	Source          BookingSource  `gorm:"size:20;not null;default:'customer'" json:"source"`

	Phone string `gorm:"size:20;not null;index" json:"phone"`
	Name  string `gorm:"size:120;not null" json:"name"`
	Email string `gorm:"size:255" json:"email,omitempty"`
	Notes string `gorm:"type:text" json:"notes,omitempty"`

	RescheduledFromID *uuid.UUID `gorm:"type:uuid" json:"rescheduled_from_id,omitempty"`
	CancelledAt       *time.Time `json:"cancelled_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (b *Booking) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

func (b *Booking) Range() TimeRange {
	return TimeRange{Start: b.StartTime, End: b.EndTime}
}

// EndsAt resolves the session end on the studio calendar.
func (b *Booking) EndsAt(loc *time.Location) (time.Time, error) {
	day, err := ParseDate(b.Date)
	if err != nil {
		return time.Time{}, err
	}
	return b.EndTime.On(day, loc), nil
}

func (b *Booking) StartsAt(loc *time.Location) (time.Time, error) {
	day, err := ParseDate(b.Date)
	if err != nil {
		return time.Time{}, err
	}
	return b.StartTime.On(day, loc), nil
}

// EffectiveStatus surfaces active bookings whose session already ended as needing admin action.
func (b *Booking) EffectiveStatus(now time.Time, loc *time.Location) BookingStatus {
	if !b.Status.Active() {
		return b.Status
	}
	end, err := b.EndsAt(loc)
	if err != nil {
		return b.Status
	}
	if now.After(end) {
		return BookingNeedsCompletion
	}
	return b.Status
}

// BookingView is a booking as returned to clients, with its read-time status.
type BookingView struct {
	Booking
	EffectiveStatus BookingStatus `json:"effective_status"`
}
