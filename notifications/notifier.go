package notifications

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/anjiri1684/studio_booking/models"
)

type EventType string

const (
	EventBookingCreated       EventType = "booking.created"
	EventBookingStatusChanged EventType = "booking.status_changed"
	EventBookingRescheduled   EventType = "booking.rescheduled"
	EventBookingDeleted       EventType = "booking.deleted"
	EventPaymentUpdated       EventType = "booking.payment_updated"
	EventSessionReminder      EventType = "booking.reminder"
	EventSlotChanged          EventType = "slot.changed"
	EventSlotDeleted          EventType = "slot.deleted"
	EventVerificationCode     EventType = "verification.code"
	EventCompletionDigest     EventType = "admin.completion_digest"
)

// Event is one thing worth telling someone about. Only the fields relevant to Type are set.
type Event struct {
	Type       EventType                `json:"type"`
	Booking    *models.Booking          `json:"booking,omitempty"`
	Previous   *models.Booking          `json:"previous,omitempty"`
	Slot       *models.AvailabilitySlot `json:"slot,omitempty"`
	Bookings   []models.Booking         `json:"bookings,omitempty"`
	Phone      string                   `json:"phone,omitempty"`
	Code       string                   `json:"code,omitempty"`
	OccurredAt time.Time                `json:"occurred_at"`
}

// Admin reports whether the event belongs on the admin dashboard feed.
func (e Event) Admin() bool {
	switch e.Type {
	case EventVerificationCode, EventSessionReminder, EventCompletionDigest:
		return false
	}
	return true
}

type Notifier interface {
	Notify(ctx context.Context, e Event) error
}

type NotifierFunc func(ctx context.Context, e Event) error

func (f NotifierFunc) Notify(ctx context.Context, e Event) error { return f(ctx, e) }

// Multi fans an event out to every notifier and joins their failures.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, e Event) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Async delivers events in the background so slow channels never hold up a request.
type Async struct {
	Next    Notifier
	Timeout time.Duration
}

func (a Async) Notify(_ context.Context, e Event) error {
	timeout := a.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := a.Next.Notify(ctx, e); err != nil {
			log.Printf("🔥 Failed to deliver %s notification: %v", e.Type, err)
		}
	}()
	return nil
}

// LogNotifier writes a line per event. Verification codes are never logged.
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, e Event) error {
	switch {
	case e.Booking != nil:
		log.Printf("📣 %s: booking %s (%s %s %s, %s)", e.Type, e.Booking.ID, e.Booking.Studio, e.Booking.Date, e.Booking.Range(), e.Booking.Status)
	case e.Slot != nil:
		log.Printf("📣 %s: slot %s (%s %s %s)", e.Type, e.Slot.ID, e.Slot.Studio, e.Slot.Date, e.Slot.Range())
	case e.Type == EventCompletionDigest:
		log.Printf("📣 %s: %d bookings need completion", e.Type, len(e.Bookings))
	default:
		log.Printf("📣 %s", e.Type)
	}
	return nil
}
