package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/anjiri1684/studio_booking/metrics"
	"github.com/anjiri1684/studio_booking/models"
	"github.com/anjiri1684/studio_booking/notifications"
	"github.com/anjiri1684/studio_booking/repository"
)

// OpeningHours is the bookable window of a studio day, in whole hours. Close may be 24.
type OpeningHours struct {
	Open  int
	Close int
}

type Availability struct {
	Available             bool        `json:"available"`
	ConflictingBookingIDs []uuid.UUID `json:"conflicting_booking_ids"`
	BlockingSlotID        *uuid.UUID  `json:"blocking_slot_id,omitempty"`
}

// conflict converts an unavailable answer into the error a writer returns.
func (a *Availability) conflict() *ConflictError {
	return &ConflictError{ConflictingBookingIDs: a.ConflictingBookingIDs, BlockingSlotID: a.BlockingSlotID}
}

func (a *Availability) reason() string {
	if a.BlockingSlotID != nil {
		return "blocked"
	}
	return "overlap"
}

type SlotInput struct {
	Studio    models.Studio
	Date      string
	StartTime models.Clock
	EndTime   models.Clock
	Reason    string
}

type BulkSlotInput struct {
	Studio    models.Studio
	Dates     []string
	StartTime models.Clock
	EndTime   models.Clock
	Reason    string
}

type BulkFailure struct {
	Date  string `json:"date"`
	Error string `json:"error"`
}

// BulkResult reports a partially successful bulk block.
type BulkResult struct {
	Created int                       `json:"created"`
	Failed  []BulkFailure             `json:"failed"`
	Slots   []models.AvailabilitySlot `json:"slots"`
}

type AvailabilityService struct {
	store    repository.Store
	hours    OpeningHours
	notifier notifications.Notifier
}

func NewAvailabilityService(store repository.Store, hours OpeningHours, notifier notifications.Notifier) *AvailabilityService {
	return &AvailabilityService{store: store, hours: hours, notifier: notifier}
}

// CheckSlotAvailable reads the latest committed state every call; nothing is cached.
func (s *AvailabilityService) CheckSlotAvailable(ctx context.Context, studio models.Studio, date string, start, end models.Clock) (*Availability, error) {
	r := models.TimeRange{Start: start, End: end}
	if err := s.validateSlot(studio, date, r); err != nil {
		return nil, err
	}

	a, err := s.check(ctx, s.store, studio, date, r, uuid.Nil)
	if err != nil {
		return nil, err
	}
	metrics.RecordAvailabilityCheck(string(studio), a.Available)
	return a, nil
}

// check runs the overlap test against store, which may be transaction-bound. exclude skips one
// booking, so a booking being rescheduled or restored does not conflict with itself.
func (s *AvailabilityService) check(
	ctx context.Context,
	store repository.Store,
	studio models.Studio,
	date string,
	r models.TimeRange,
	exclude uuid.UUID,
) (*Availability, error) {
	bookings, err := store.Bookings().ActiveForDay(ctx, studio, date, exclude)
	if err != nil {
		return nil, &AvailabilityUnknownError{Err: err}
	}
	slots, err := store.Slots().ForDay(ctx, studio, date)
	if err != nil {
		return nil, &AvailabilityUnknownError{Err: err}
	}

	a := &Availability{ConflictingBookingIDs: []uuid.UUID{}}
	for _, b := range bookings {
		if b.Range().Overlaps(r) {
			a.ConflictingBookingIDs = append(a.ConflictingBookingIDs, b.ID)
		}
	}
	for _, slot := range slots {
		if slot.Blocks() && slot.Range().Overlaps(r) {
			id := slot.ID
			a.BlockingSlotID = &id
			break
		}
	}
	a.Available = len(a.ConflictingBookingIDs) == 0 && a.BlockingSlotID == nil
	return a, nil
}

func (s *AvailabilityService) validateSlot(studio models.Studio, date string, r models.TimeRange) error {
	if !studio.Valid() {
		return &ValidationError{Field: "studio", Message: fmt.Sprintf("unknown studio %q", studio)}
	}
	if _, err := models.ParseDate(date); err != nil {
		return &ValidationError{Field: "date", Message: "must be a date in YYYY-MM-DD format"}
	}
	if r.Start.Minute() != 0 {
		return &ValidationError{Field: "start_time", Message: "must be on the hour"}
	}
	if r.End.Minute() != 0 {
		return &ValidationError{Field: "end_time", Message: "must be on the hour"}
	}
	if r.Start < models.ClockAt(s.hours.Open, 0) || r.Start >= models.ClockAt(s.hours.Close, 0) {
		return &ValidationError{Field: "start_time", Message: fmt.Sprintf("must be within opening hours %s-%s", s.openTime(), s.closeTime())}
	}
	if r.End > models.ClockAt(s.hours.Close, 0) {
		return &ValidationError{Field: "end_time", Message: fmt.Sprintf("must be within opening hours %s-%s", s.openTime(), s.closeTime())}
	}
	if !r.Valid() {
		return &ValidationError{Field: "end_time", Message: "must be after start_time"}
	}
	return nil
}

func (s *AvailabilityService) openTime() models.Clock  { return models.ClockAt(s.hours.Open, 0) }
func (s *AvailabilityService) closeTime() models.Clock { return models.ClockAt(s.hours.Close, 0) }

// ListSlotsWithBookings groups slots by date and nests the non-cancelled bookings each one contains.
func (s *AvailabilityService) ListSlotsWithBookings(ctx context.Context, studio models.Studio, startDate, endDate string) ([]models.DaySlots, error) {
	if studio != "" && !studio.Valid() {
		return nil, &ValidationError{Field: "studio", Message: fmt.Sprintf("unknown studio %q", studio)}
	}
	from, err := models.ParseDate(startDate)
	if err != nil {
		return nil, &ValidationError{Field: "start_date", Message: "must be a date in YYYY-MM-DD format"}
	}
	to, err := models.ParseDate(endDate)
	if err != nil {
		return nil, &ValidationError{Field: "end_date", Message: "must be a date in YYYY-MM-DD format"}
	}
	if to.Before(from) {
		return nil, &ValidationError{Field: "end_date", Message: "must not be before start_date"}
	}

	slots, err := s.store.Slots().ListRange(ctx, studio, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}
	bookings, err := s.store.Bookings().List(ctx, repository.BookingFilter{
		Studio:    studio,
		StartDate: startDate,
		EndDate:   endDate,
		Statuses: []models.BookingStatus{
			models.BookingPending, models.BookingConfirmed, models.BookingCompleted, models.BookingNoShow,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}

	days := []models.DaySlots{}
	for _, slot := range slots {
		slot.Bookings = []models.Booking{}
		for _, b := range bookings {
			if b.Studio == slot.Studio && b.Date == slot.Date && slot.Range().Contains(b.Range()) {
				slot.Bookings = append(slot.Bookings, b)
			}
		}
		if n := len(days); n > 0 && days[n-1].Date == slot.Date {
			days[n-1].Slots = append(days[n-1].Slots, slot)
			continue
		}
		days = append(days, models.DaySlots{Date: slot.Date, Slots: []models.AvailabilitySlot{slot}})
	}
	return days, nil
}

// CreateSlot blocks a studio window. Existing bookings inside it are left alone.
func (s *AvailabilityService) CreateSlot(ctx context.Context, in SlotInput) (*models.AvailabilitySlot, error) {
	if err := s.validateBlock(in.Studio, in.Date, in.StartTime, in.EndTime); err != nil {
		return nil, err
	}
	slot := &models.AvailabilitySlot{
		Studio:    in.Studio,
		Date:      in.Date,
		StartTime: in.StartTime,
		EndTime:   in.EndTime,
		Reason:    in.Reason,
	}
	if err := s.store.Slots().Create(ctx, slot); err != nil {
		return nil, fmt.Errorf("create slot: %w", err)
	}
	log.Printf("✅ Blocked %s on %s %s", slot.Studio, slot.Date, slot.Range())
	s.notify(ctx, notifications.EventSlotChanged, slot)
	return slot, nil
}

func (s *AvailabilityService) UpdateSlot(ctx context.Context, id uuid.UUID, in SlotInput) (*models.AvailabilitySlot, error) {
	if err := s.validateBlock(in.Studio, in.Date, in.StartTime, in.EndTime); err != nil {
		return nil, err
	}
	slot, err := s.store.Slots().GetByID(ctx, id)
	if err != nil {
		return nil, slotLookupError(id, err)
	}
	slot.Studio = in.Studio
	slot.Date = in.Date
	slot.StartTime = in.StartTime
	slot.EndTime = in.EndTime
	slot.Reason = in.Reason
	if err := s.store.Slots().Update(ctx, slot); err != nil {
		return nil, slotLookupError(id, err)
	}
	s.notify(ctx, notifications.EventSlotChanged, slot)
	return slot, nil
}

func (s *AvailabilityService) DeleteSlot(ctx context.Context, id uuid.UUID) error {
	slot, err := s.store.Slots().GetByID(ctx, id)
	if err != nil {
		return slotLookupError(id, err)
	}
	if err := s.store.Slots().Delete(ctx, id); err != nil {
		return slotLookupError(id, err)
	}
	s.notify(ctx, notifications.EventSlotDeleted, slot)
	return nil
}

// BulkCreate blocks the same window on every date. Dates fail independently.
func (s *AvailabilityService) BulkCreate(ctx context.Context, in BulkSlotInput) (*BulkResult, error) {
	if len(in.Dates) == 0 {
		return nil, &ValidationError{Field: "dates", Message: "must contain at least one date"}
	}
	if !in.Studio.Valid() {
		return nil, &ValidationError{Field: "studio", Message: fmt.Sprintf("unknown studio %q", in.Studio)}
	}
	if !(models.TimeRange{Start: in.StartTime, End: in.EndTime}).Valid() {
		return nil, &ValidationError{Field: "end_time", Message: "must be after start_time"}
	}

	res := &BulkResult{Failed: []BulkFailure{}, Slots: []models.AvailabilitySlot{}}
	for _, date := range in.Dates {
		slot, err := s.CreateSlot(ctx, SlotInput{
			Studio:    in.Studio,
			Date:      date,
			StartTime: in.StartTime,
			EndTime:   in.EndTime,
			Reason:    in.Reason,
		})
		if err != nil {
			res.Failed = append(res.Failed, BulkFailure{Date: date, Error: err.Error()})
			continue
		}
		res.Created++
		res.Slots = append(res.Slots, *slot)
	}
	log.Printf("✅ Bulk block for %s: %d created, %d failed", in.Studio, res.Created, len(res.Failed))
	return res, nil
}

// validateBlock admits any minute granularity, since admins block maintenance windows that
// need not sit on the booking grid.
func (s *AvailabilityService) validateBlock(studio models.Studio, date string, start, end models.Clock) error {
	if !studio.Valid() {
		return &ValidationError{Field: "studio", Message: fmt.Sprintf("unknown studio %q", studio)}
	}
	if _, err := models.ParseDate(date); err != nil {
		return &ValidationError{Field: "date", Message: "must be a date in YYYY-MM-DD format"}
	}
	if !(models.TimeRange{Start: start, End: end}).Valid() {
		return &ValidationError{Field: "end_time", Message: "must be after start_time"}
	}
	return nil
}

func (s *AvailabilityService) notify(ctx context.Context, t notifications.EventType, slot *models.AvailabilitySlot) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, notifications.Event{Type: t, Slot: slot, OccurredAt: time.Now()}); err != nil {
		log.Printf("⚠️ Failed to dispatch %s: %v", t, err)
	}
}

func slotLookupError(id uuid.UUID, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return &NotFoundError{Resource: "availability slot", ID: id.String()}
	}
	return err
}
