package services

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/anjiri1684/studio_booking/models"
	"github.com/anjiri1684/studio_booking/notifications"
	"github.com/anjiri1684/studio_booking/pricing"
	"github.com/anjiri1684/studio_booking/repository"
)

func TestCreateBooking_PricesAndRecommendsStudio(t *testing.T) {
	f := newFixture(t)

	in := karaokeInput("", "2024-01-10", 10, 12)
	in.Options = pricing.Options{KaraokeOption: "21_30"}
	in.GroupSize = 25

	b, err := f.bookings.CreateBooking(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, models.StudioA, b.Studio)
	assert.Equal(t, float64(500), b.RatePerHour)
	assert.Equal(t, float64(1000), b.TotalAmount)
	assert.Equal(t, models.BookingPending, b.Status)
	assert.Equal(t, models.BookingPending, b.EffectiveStatus)
	assert.Equal(t, models.SourceCustomer, b.Source)
	assert.Equal(t, "Karaoke (21-30 participants)", b.SessionDetails)
	assert.Len(t, b.ConfirmationCode, 8)
	assert.Nil(t, b.PaymentStatus)

	var opts pricing.Options
	require.NoError(t, json.Unmarshal([]byte(b.SessionOptions), &opts))
	assert.Equal(t, "21_30", opts.KaraokeOption)

	stored, err := f.store.Bookings().GetByID(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, b.ConfirmationCode, stored.ConfirmationCode)

	f.notifier.AssertCalled(t, "Notify", mock.Anything, eventOfType(notifications.EventBookingCreated))
}

func TestCreateBooking_InitialStatusFollowsSource(t *testing.T) {
	f := newFixture(t, withCustomerStatus(models.BookingConfirmed))

	b, err := f.bookings.CreateBooking(context.Background(), karaokeInput(models.StudioC, "2024-01-10", 10, 11))
	require.NoError(t, err)
	assert.Equal(t, models.BookingConfirmed, b.Status)

	admin := newFixture(t).book(t, models.StudioC, "2024-01-10", 10, 11)
	assert.Equal(t, models.BookingConfirmed, admin.Status)
	assert.Equal(t, models.SourceAdmin, admin.Source)
}

func TestCreateBooking_PromptPaymentStartsPending(t *testing.T) {
	f := newFixture(t)

	in := karaokeInput(models.StudioC, "2024-01-10", 10, 11)
	in.IsPromptPayment = true
	b, err := f.bookings.CreateBooking(context.Background(), in)
	require.NoError(t, err)
	require.NotNil(t, b.PaymentStatus)
	assert.Equal(t, models.PaymentPending, *b.PaymentStatus)
}

func TestCreateBooking_ValidationErrors(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name   string
		mutate func(*CreateBookingInput)
		field  string
	}{
		{"group too large for option", func(in *CreateBookingInput) { in.GroupSize = 11 }, "group_size"},
		{"group size zero", func(in *CreateBookingInput) { in.GroupSize = 0 }, "group_size"},
		{"studio too small", func(in *CreateBookingInput) {
			in.Studio = models.StudioC
			in.Options = pricing.Options{KaraokeOption: "21_30"}
			in.GroupSize = 25
		}, "studio"},
		{"missing option", func(in *CreateBookingInput) { in.Options = pricing.Options{} }, "karaoke_option"},
		{"stray option", func(in *CreateBookingInput) { in.Options.BandEquipment = "full" }, "band_equipment"},
		{"unknown session type", func(in *CreateBookingInput) { in.SessionType = "dance" }, "session_type"},
		{"stale quoted rate", func(in *CreateBookingInput) { in.RatePerHour = 999 }, "rate_per_hour"},
		{"missing name", func(in *CreateBookingInput) { in.Name = "  " }, "name"},
		{"missing phone", func(in *CreateBookingInput) { in.Phone = "" }, "phone"},
		{"in the past", func(in *CreateBookingInput) { in.Date = "2024-01-08" }, "start_time"},
		{"off grid", func(in *CreateBookingInput) { in.StartTime = models.ClockAt(10, 30) }, "start_time"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := karaokeInput(models.StudioB, "2024-01-10", 10, 12)
			tt.mutate(&in)
			_, err := f.bookings.CreateBooking(context.Background(), in)
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}

	all, err := f.store.Bookings().List(context.Background(), repository.BookingFilter{})
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestCreateBooking_ConflictLeavesNoRow(t *testing.T) {
	f := newFixture(t)
	existing := f.book(t, models.StudioB, "2024-01-10", 10, 12)

	_, err := f.bookings.CreateBooking(context.Background(), karaokeInput(models.StudioB, "2024-01-10", 11, 13))
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, []uuid.UUID{existing.ID}, conflict.ConflictingBookingIDs)

	all, err := f.store.Bookings().List(context.Background(), repository.BookingFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 1)

	_, err = f.bookings.CreateBooking(context.Background(), karaokeInput(models.StudioB, "2024-01-10", 12, 13))
	assert.NoError(t, err)
}

func TestCreateBooking_ConcurrentRequestsForSameSlot(t *testing.T) {
	f := newFixture(t)
	const attempts = 8

	var wg sync.WaitGroup
	errs := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.bookings.CreateBooking(context.Background(), karaokeInput(models.StudioB, "2024-01-10", 10, 12))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	succeeded, conflicted := 0, 0
	for err := range errs {
		var conflict *ConflictError
		switch {
		case err == nil:
			succeeded++
		case errors.As(err, &conflict):
			conflicted++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, attempts-1, conflicted)
}

func TestEffectiveStatus_NeedsCompletionAfterSessionEnds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.book(t, models.StudioA, "2024-01-10", 10, 12)
	upcoming := f.book(t, models.StudioA, "2024-01-11", 10, 12)

	f.setNow(time.Date(2024, 1, 10, 11, 59, 0, 0, time.UTC))
	got, err := f.bookings.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingConfirmed, got.EffectiveStatus)

	f.setNow(time.Date(2024, 1, 10, 12, 1, 0, 0, time.UTC))
	got, err = f.bookings.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingConfirmed, got.Status)
	assert.Equal(t, models.BookingNeedsCompletion, got.EffectiveStatus)

	stored, err := f.store.Bookings().GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingConfirmed, stored.Status)

	list, err := f.bookings.List(ctx, repository.BookingFilter{Statuses: []models.BookingStatus{models.BookingNeedsCompletion}})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, b.ID, list[0].ID)

	list, err = f.bookings.List(ctx, repository.BookingFilter{Statuses: []models.BookingStatus{models.BookingConfirmed}})
	require.NoError(t, err)
	assert.Len(t, list, 2)
	assert.Equal(t, upcoming.ID, list[1].ID)

	_, err = f.bookings.List(ctx, repository.BookingFilter{Statuses: []models.BookingStatus{"archived"}})
	var ve *ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestTransition(t *testing.T) {
	ctx := context.Background()

	t.Run("confirm pending", func(t *testing.T) {
		f := newFixture(t)
		b, err := f.bookings.CreateBooking(ctx, karaokeInput(models.StudioB, "2024-01-10", 10, 12))
		require.NoError(t, err)

		res, err := f.bookings.Transition(ctx, b.ID, models.BookingConfirmed)
		require.NoError(t, err)
		assert.Equal(t, models.BookingConfirmed, res.Booking.Status)
		assert.Empty(t, res.Warning)
		f.notifier.AssertCalled(t, "Notify", mock.Anything, eventOfType(notifications.EventBookingStatusChanged))
	})

	t.Run("pending cannot complete", func(t *testing.T) {
		f := newFixture(t)
		b, err := f.bookings.CreateBooking(ctx, karaokeInput(models.StudioB, "2024-01-10", 10, 12))
		require.NoError(t, err)

		_, err = f.bookings.Transition(ctx, b.ID, models.BookingCompleted)
		var te *TransitionError
		require.ErrorAs(t, err, &te)
		assert.Equal(t, models.BookingPending, te.From)
		assert.Equal(t, "complete", te.Action)
	})

	t.Run("early completion warns", func(t *testing.T) {
		f := newFixture(t)
		b := f.book(t, models.StudioB, "2024-01-10", 10, 12)

		res, err := f.bookings.Transition(ctx, b.ID, models.BookingCompleted)
		require.NoError(t, err)
		assert.Equal(t, models.BookingCompleted, res.Booking.Status)
		assert.Equal(t, "session has not ended yet", res.Warning)
	})

	t.Run("no-show after session ends", func(t *testing.T) {
		f := newFixture(t)
		b := f.book(t, models.StudioB, "2024-01-10", 10, 12)
		f.setNow(time.Date(2024, 1, 10, 13, 0, 0, 0, time.UTC))

		res, err := f.bookings.Transition(ctx, b.ID, models.BookingNoShow)
		require.NoError(t, err)
		assert.Equal(t, models.BookingNoShow, res.Booking.Status)
		assert.Equal(t, models.BookingNoShow, res.Booking.EffectiveStatus)
		assert.Empty(t, res.Warning)
	})

	t.Run("cancel then restore", func(t *testing.T) {
		f := newFixture(t)
		b := f.book(t, models.StudioB, "2024-01-10", 10, 12)

		res, err := f.bookings.Transition(ctx, b.ID, models.BookingCancelled)
		require.NoError(t, err)
		assert.NotNil(t, res.Booking.CancelledAt)

		_, err = f.bookings.Transition(ctx, b.ID, models.BookingCancelled)
		var te *TransitionError
		require.ErrorAs(t, err, &te)
		assert.Equal(t, "cancel", te.Action)

		res, err = f.bookings.Transition(ctx, b.ID, models.BookingConfirmed)
		require.NoError(t, err)
		assert.Equal(t, models.BookingConfirmed, res.Booking.Status)
		assert.Nil(t, res.Booking.CancelledAt)
	})

	t.Run("restore refuses a retaken slot", func(t *testing.T) {
		f := newFixture(t)
		b := f.book(t, models.StudioB, "2024-01-10", 10, 12)
		_, err := f.bookings.Transition(ctx, b.ID, models.BookingCancelled)
		require.NoError(t, err)
		taker := f.book(t, models.StudioB, "2024-01-10", 11, 12)

		_, err = f.bookings.Transition(ctx, b.ID, models.BookingConfirmed)
		var conflict *ConflictError
		require.ErrorAs(t, err, &conflict)
		assert.Equal(t, []uuid.UUID{taker.ID}, conflict.ConflictingBookingIDs)

		stored, err := f.store.Bookings().GetByID(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, models.BookingCancelled, stored.Status)
	})

	t.Run("restore completed", func(t *testing.T) {
		f := newFixture(t)
		b := f.book(t, models.StudioB, "2024-01-10", 10, 12)
		_, err := f.bookings.Transition(ctx, b.ID, models.BookingCompleted)
		require.NoError(t, err)

		res, err := f.bookings.Transition(ctx, b.ID, models.BookingConfirmed)
		require.NoError(t, err)
		assert.Equal(t, models.BookingConfirmed, res.Booking.Status)
	})

	t.Run("stored status with no way in", func(t *testing.T) {
		f := newFixture(t)
		b := f.book(t, models.StudioB, "2024-01-10", 10, 12)

		_, err := f.bookings.Transition(ctx, b.ID, models.BookingPending)
		var te *TransitionError
		require.ErrorAs(t, err, &te)
		assert.Equal(t, models.BookingConfirmed, te.From)
		assert.Equal(t, "move to pending", te.Action)

		var nf *NotFoundError
		_, err = f.bookings.Transition(ctx, uuid.New(), models.BookingPending)
		assert.ErrorAs(t, err, &nf)
	})

	t.Run("unsupported targets", func(t *testing.T) {
		f := newFixture(t)
		b := f.book(t, models.StudioB, "2024-01-10", 10, 12)

		for _, target := range []models.BookingStatus{models.BookingNeedsCompletion, "archived", "Confirmed"} {
			_, err := f.bookings.Transition(ctx, b.ID, target)
			var ve *ValidationError
			require.ErrorAs(t, err, &ve, "target %s", target)
			assert.Equal(t, "status", ve.Field)
		}
	})

	t.Run("unknown booking", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.bookings.Transition(ctx, uuid.New(), models.BookingConfirmed)
		var nf *NotFoundError
		assert.ErrorAs(t, err, &nf)
	})
}

func TestDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	pending, err := f.bookings.CreateBooking(ctx, karaokeInput(models.StudioB, "2024-01-10", 10, 12))
	require.NoError(t, err)

	err = f.bookings.Delete(ctx, pending.ID)
	var te *TransitionError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, models.BookingPending, te.From)
	assert.Equal(t, "delete", te.Action)

	_, err = f.bookings.Transition(ctx, pending.ID, models.BookingCancelled)
	require.NoError(t, err)
	require.NoError(t, f.bookings.Delete(ctx, pending.ID))

	var nf *NotFoundError
	_, err = f.bookings.Get(ctx, pending.ID)
	assert.ErrorAs(t, err, &nf)
	assert.ErrorAs(t, f.bookings.Delete(ctx, pending.ID), &nf)

	f.notifier.AssertCalled(t, "Notify", mock.Anything, eventOfType(notifications.EventBookingDeleted))
}

func (f *fixture) sendCode(t *testing.T, phone string) string {
	t.Helper()
	require.NoError(t, f.verification.Send(context.Background(), phone))
	e, ok := f.notifier.last(notifications.EventVerificationCode)
	require.True(t, ok)
	return e.Code
}

func TestReschedule(t *testing.T) {
	ctx := context.Background()

	t.Run("moves onto an overlapping window of itself", func(t *testing.T) {
		f := newFixture(t)
		original := f.book(t, models.StudioB, "2024-01-10", 10, 12)
		code := f.sendCode(t, original.Phone)

		replacement, err := f.bookings.Reschedule(ctx, original.ID, original.Phone, code, karaokeInput(models.StudioB, "2024-01-10", 11, 13))
		require.NoError(t, err)
		require.NotNil(t, replacement.RescheduledFromID)
		assert.Equal(t, original.ID, *replacement.RescheduledFromID)
		assert.Equal(t, models.ClockAt(11, 0), replacement.StartTime)
		assert.Equal(t, models.SourceAdmin, replacement.Source)
		assert.NotEqual(t, original.ConfirmationCode, replacement.ConfirmationCode)

		old, err := f.store.Bookings().GetByID(ctx, original.ID)
		require.NoError(t, err)
		assert.Equal(t, models.BookingCancelled, old.Status)

		f.notifier.AssertCalled(t, "Notify", mock.Anything, eventOfType(notifications.EventBookingRescheduled))
	})

	t.Run("taken target keeps the original", func(t *testing.T) {
		f := newFixture(t)
		original := f.book(t, models.StudioB, "2024-01-10", 10, 12)
		f.book(t, models.StudioB, "2024-01-10", 14, 16)
		code := f.sendCode(t, original.Phone)

		_, err := f.bookings.Reschedule(ctx, original.ID, original.Phone, code, karaokeInput(models.StudioB, "2024-01-10", 15, 17))
		var conflict *ConflictError
		require.ErrorAs(t, err, &conflict)

		old, err := f.store.Bookings().GetByID(ctx, original.ID)
		require.NoError(t, err)
		assert.Equal(t, models.BookingConfirmed, old.Status)

		all, err := f.store.Bookings().List(ctx, repository.BookingFilter{})
		require.NoError(t, err)
		assert.Len(t, all, 2)
	})

	t.Run("invalid replacement keeps the original", func(t *testing.T) {
		f := newFixture(t)
		original := f.book(t, models.StudioB, "2024-01-10", 10, 12)
		code := f.sendCode(t, original.Phone)

		in := karaokeInput(models.StudioB, "2024-01-10", 11, 13)
		in.GroupSize = 40
		_, err := f.bookings.Reschedule(ctx, original.ID, original.Phone, code, in)
		var ve *ValidationError
		require.ErrorAs(t, err, &ve)

		old, err := f.store.Bookings().GetByID(ctx, original.ID)
		require.NoError(t, err)
		assert.Equal(t, models.BookingConfirmed, old.Status)
	})

	t.Run("failed attempts leave the code usable", func(t *testing.T) {
		f := newFixture(t)
		original := f.book(t, models.StudioB, "2024-01-10", 10, 12)
		_, err := f.availability.CreateSlot(ctx, SlotInput{Studio: models.StudioB, Date: "2024-01-10", StartTime: models.ClockAt(14, 0), EndTime: models.ClockAt(16, 0)})
		require.NoError(t, err)
		code := f.sendCode(t, original.Phone)

		_, err = f.bookings.Reschedule(ctx, original.ID, original.Phone, code, karaokeInput(models.StudioB, "2024-01-10", 15, 17))
		var conflict *ConflictError
		require.ErrorAs(t, err, &conflict)
		assert.NotNil(t, conflict.BlockingSlotID)

		in := karaokeInput(models.StudioB, "2024-01-10", 18, 19)
		in.GroupSize = 40
		_, err = f.bookings.Reschedule(ctx, original.ID, original.Phone, code, in)
		var ve *ValidationError
		require.ErrorAs(t, err, &ve)

		replacement, err := f.bookings.Reschedule(ctx, original.ID, original.Phone, code, karaokeInput(models.StudioB, "2024-01-10", 18, 19))
		require.NoError(t, err)
		assert.Equal(t, models.ClockAt(18, 0), replacement.StartTime)

		var verr *VerificationError
		assert.ErrorAs(t, f.verification.Verify(ctx, original.Phone, code), &verr)
	})

	t.Run("requires the owner's code", func(t *testing.T) {
		f := newFixture(t)
		original := f.book(t, models.StudioB, "2024-01-10", 10, 12)
		f.sendCode(t, original.Phone)

		var verr *VerificationError
		_, err := f.bookings.Reschedule(ctx, original.ID, original.Phone, "000000x", karaokeInput(models.StudioB, "2024-01-10", 14, 15))
		require.ErrorAs(t, err, &verr)

		_, err = f.bookings.Reschedule(ctx, original.ID, "1112223333", "123456", karaokeInput(models.StudioB, "2024-01-10", 14, 15))
		require.ErrorAs(t, err, &verr)

		old, err := f.store.Bookings().GetByID(ctx, original.ID)
		require.NoError(t, err)
		assert.Equal(t, models.BookingConfirmed, old.Status)
	})

	t.Run("inactive booking", func(t *testing.T) {
		f := newFixture(t)
		original := f.book(t, models.StudioB, "2024-01-10", 10, 12)
		_, err := f.bookings.Transition(ctx, original.ID, models.BookingCancelled)
		require.NoError(t, err)

		_, err = f.bookings.Reschedule(ctx, original.ID, original.Phone, "123456", karaokeInput(models.StudioB, "2024-01-10", 14, 15))
		var te *TransitionError
		require.ErrorAs(t, err, &te)
		assert.Equal(t, "reschedule", te.Action)
	})
}

func TestRecordPaymentStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	plain := f.book(t, models.StudioB, "2024-01-10", 10, 12)
	_, err := f.bookings.RecordPaymentStatus(ctx, plain.ID, models.PaymentVerified)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)

	in := karaokeInput(models.StudioB, "2024-01-10", 13, 14)
	in.IsPromptPayment = true
	prompt, err := f.bookings.CreateBooking(ctx, in)
	require.NoError(t, err)

	got, err := f.bookings.RecordPaymentStatus(ctx, prompt.ID, models.PaymentVerified)
	require.NoError(t, err)
	require.NotNil(t, got.PaymentStatus)
	assert.Equal(t, models.PaymentVerified, *got.PaymentStatus)

	_, err = f.bookings.RecordPaymentStatus(ctx, prompt.ID, "refunded")
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "payment_status", ve.Field)
}

// Random creates, cancels and restores must never leave two active bookings overlapping.
func TestNoActiveBookingsOverlap(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rng := rand.New(rand.NewSource(42))

	dates := []string{"2024-01-10", "2024-01-11"}
	var created []uuid.UUID
	for i := 0; i < 150; i++ {
		switch op := rng.Intn(10); {
		case op < 7 || len(created) == 0:
			start := 8 + rng.Intn(15)
			end := start + 1 + rng.Intn(3)
			if end > 24 {
				end = 24
			}
			studio := models.Studios[rng.Intn(len(models.Studios))]
			in := karaokeInput(studio, dates[rng.Intn(len(dates))], start, end)
			in.Source = models.SourceAdmin
			b, err := f.bookings.CreateBooking(ctx, in)
			if err == nil {
				created = append(created, b.ID)
				continue
			}
			var conflict *ConflictError
			require.ErrorAs(t, err, &conflict)
		case op < 9:
			_, _ = f.bookings.Transition(ctx, created[rng.Intn(len(created))], models.BookingCancelled)
		default:
			_, _ = f.bookings.Transition(ctx, created[rng.Intn(len(created))], models.BookingConfirmed)
		}
	}

	active, err := f.store.Bookings().List(ctx, repository.BookingFilter{Statuses: models.ActiveStatuses})
	require.NoError(t, err)
	require.NotEmpty(t, active)
	for i := range active {
		for j := i + 1; j < len(active); j++ {
			a, b := active[i], active[j]
			if a.Studio != b.Studio || a.Date != b.Date {
				continue
			}
			assert.False(t, a.Range().Overlaps(b.Range()), "%s %s: %s overlaps %s", a.Studio, a.Date, a.Range(), b.Range())
		}
	}
}
