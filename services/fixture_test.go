package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/anjiri1684/studio_booking/database/dbtest"
	"github.com/anjiri1684/studio_booking/models"
	"github.com/anjiri1684/studio_booking/notifications"
	"github.com/anjiri1684/studio_booking/pricing"
	"github.com/anjiri1684/studio_booking/repository"
)

type mockNotifier struct {
	mock.Mock

	mu     sync.Mutex
	events []notifications.Event
}

func (m *mockNotifier) Notify(ctx context.Context, e notifications.Event) error {
	m.mu.Lock()
	m.events = append(m.events, e)
	m.mu.Unlock()
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *mockNotifier) last(t notifications.EventType) (notifications.Event, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.events) - 1; i >= 0; i-- {
		if m.events[i].Type == t {
			return m.events[i], true
		}
	}
	return notifications.Event{}, false
}

func eventOfType(t notifications.EventType) any {
	return mock.MatchedBy(func(e notifications.Event) bool { return e.Type == t })
}

type fixture struct {
	db           *gorm.DB
	store        *repository.GormStore
	notifier     *mockNotifier
	availability *AvailabilityService
	bookings     *BookingService
	verification *VerificationService
	loyalty      *LoyaltyService

	mu  sync.Mutex
	now time.Time
}

type fixtureOption func(*BookingConfig)

func withCustomerStatus(s models.BookingStatus) fixtureOption {
	return func(c *BookingConfig) { c.CustomerInitialStatus = s }
}

// newFixture wires the services over a fresh database with the clock at 2024-01-09 12:00 UTC.
func newFixture(t *testing.T, opts ...fixtureOption) *fixture {
	t.Helper()

	f := &fixture{
		db:       dbtest.New(t),
		notifier: &mockNotifier{},
		now:      time.Date(2024, 1, 9, 12, 0, 0, 0, time.UTC),
	}
	f.notifier.On("Notify", mock.Anything, mock.Anything).Return(nil)
	f.store = repository.NewGormStore(f.db)

	cfg := BookingConfig{
		CustomerInitialStatus: models.BookingPending,
		AdminInitialStatus:    models.BookingConfirmed,
		Location:              time.UTC,
		Now:                   f.clock,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	f.availability = NewAvailabilityService(f.store, OpeningHours{Open: 8, Close: 24}, f.notifier)
	f.verification = NewVerificationService(f.store, f.notifier, 10*time.Minute)
	f.verification.cost = bcrypt.MinCost
	f.verification.now = f.clock
	f.bookings = NewBookingService(f.store, f.availability, f.verification, f.notifier, cfg)
	f.loyalty = NewLoyaltyService(f.store, time.UTC, f.clock)
	return f
}

func (f *fixture) clock() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fixture) setNow(t time.Time) {
	f.mu.Lock()
	f.now = t
	f.mu.Unlock()
}

func karaokeInput(studio models.Studio, date string, start, end int) CreateBookingInput {
	return CreateBookingInput{
		Studio:      studio,
		Date:        date,
		StartTime:   models.ClockAt(start, 0),
		EndTime:     models.ClockAt(end, 0),
		SessionType: models.SessionKaraoke,
		Options:     pricing.Options{KaraokeOption: "1_10"},
		GroupSize:   4,
		Phone:       "9876543210",
		Name:        "Asha",
		Email:       "asha@example.com",
	}
}

// book creates an admin booking, which starts confirmed.
func (f *fixture) book(t *testing.T, studio models.Studio, date string, start, end int) *models.BookingView {
	t.Helper()
	in := karaokeInput(studio, date, start, end)
	in.Source = models.SourceAdmin
	b, err := f.bookings.CreateBooking(context.Background(), in)
	require.NoError(t, err)
	return b
}

// insert writes a booking straight to the store, bypassing creation rules.
func (f *fixture) insert(t *testing.T, b *models.Booking) *models.Booking {
	t.Helper()
	if b.ConfirmationCode == "" {
		b.ConfirmationCode = uuid.NewString()[:8]
	}
	if b.Name == "" {
		b.Name = "Asha"
	}
	if b.SessionType == "" {
		b.SessionType = models.SessionKaraoke
	}
	require.NoError(t, f.store.Bookings().Create(context.Background(), b))
	return b
}
