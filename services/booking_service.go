package services

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/anjiri1684/studio_booking/metrics"
	"github.com/anjiri1684/studio_booking/models"
	"github.com/anjiri1684/studio_booking/notifications"
	"github.com/anjiri1684/studio_booking/pricing"
	"github.com/anjiri1684/studio_booking/repository"
	"github.com/anjiri1684/studio_booking/utils"
)

// IdentityVerifier confirms a phone owner holds the code just sent to them. Check leaves the
// code outstanding; Consume spends it inside the caller's transaction.
type IdentityVerifier interface {
	Check(ctx context.Context, phone, code string) (uuid.UUID, error)
	Consume(ctx context.Context, tx repository.Store, id uuid.UUID) error
}

type BookingConfig struct {
	// CustomerInitialStatus and AdminInitialStatus are pending or confirmed.
	CustomerInitialStatus models.BookingStatus
	AdminInitialStatus    models.BookingStatus
	Location              *time.Location
	Now                   func() time.Time
}

type CreateBookingInput struct {
	// Studio may be empty, in which case the recommended studio is booked.
	Studio         models.Studio
	Date           string
	StartTime      models.Clock
	EndTime        models.Clock
	SessionType    models.SessionType
	Options        pricing.Options
	SessionDetails string
	GroupSize      int
	// RatePerHour, when set, is the rate the client was quoted. A mismatch means the quote is stale.
	RatePerHour     float64
	IsPromptPayment bool
	Phone           string
	Name            string
	Email           string
	Notes           string
	Source          models.BookingSource
}

type TransitionResult struct {
	Booking models.BookingView `json:"booking"`
	Warning string             `json:"warning,omitempty"`
}

type BookingService struct {
	store        repository.Store
	availability *AvailabilityService
	verifier     IdentityVerifier
	notifier     notifications.Notifier
	cfg          BookingConfig
}

func NewBookingService(
	store repository.Store,
	availability *AvailabilityService,
	verifier IdentityVerifier,
	notifier notifications.Notifier,
	cfg BookingConfig,
) *BookingService {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.CustomerInitialStatus == "" {
		cfg.CustomerInitialStatus = models.BookingPending
	}
	if cfg.AdminInitialStatus == "" {
		cfg.AdminInitialStatus = models.BookingConfirmed
	}
	return &BookingService{
		store:        store,
		availability: availability,
		verifier:     verifier,
		notifier:     notifier,
		cfg:          cfg,
	}
}

// CreateBooking prices the request, then re-checks availability and inserts in one transaction.
func (s *BookingService) CreateBooking(ctx context.Context, in CreateBookingInput) (*models.BookingView, error) {
	b, err := s.prepare(ctx, in)
	if err != nil {
		return nil, err
	}

	err = s.store.Atomic(ctx, func(tx repository.Store) error {
		return s.insertIfAvailable(ctx, tx, b, uuid.Nil)
	})
	if err != nil {
		return nil, s.creationError(b.Studio, err)
	}

	log.Printf("✅ Booking %s created: %s %s %s (%s)", b.ConfirmationCode, b.Studio, b.Date, b.Range(), b.Status)
	metrics.RecordBookingCreated(string(b.Studio), string(b.SessionType), string(b.Source))
	s.notify(ctx, notifications.Event{Type: notifications.EventBookingCreated, Booking: b})
	return s.view(b), nil
}

// prepare validates and prices in, returning the row to insert. It does no writes.
func (s *BookingService) prepare(ctx context.Context, in CreateBookingInput) (*models.Booking, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, &ValidationError{Field: "name", Message: "is required"}
	}
	if strings.TrimSpace(in.Phone) == "" {
		return nil, &ValidationError{Field: "phone", Message: "is required"}
	}

	cfg, err := pricing.NewSessionConfig(in.SessionType, in.Options)
	if err != nil {
		return nil, fromPricing(err)
	}
	if err := pricing.ValidateGroupSize(cfg, in.GroupSize); err != nil {
		return nil, fromPricing(err)
	}

	r := models.TimeRange{Start: in.StartTime, End: in.EndTime}
	quote, err := pricing.PriceSession(in.Studio, cfg, r)
	if err != nil {
		return nil, fromPricing(err)
	}
	if err := s.availability.validateSlot(quote.Studio, in.Date, r); err != nil {
		return nil, err
	}
	day, _ := models.ParseDate(in.Date)
	if in.StartTime.On(day, s.cfg.Location).Before(s.cfg.Now()) {
		return nil, &ValidationError{Field: "start_time", Message: "is in the past"}
	}
	if in.RatePerHour != 0 && in.RatePerHour != quote.RatePerHour {
		return nil, &ValidationError{
			Field:   "rate_per_hour",
			Message: fmt.Sprintf("quoted rate %.2f is out of date; current rate is %.2f", in.RatePerHour, quote.RatePerHour),
		}
	}

	source := in.Source
	if source == "" {
		source = models.SourceCustomer
	}
	status := s.cfg.CustomerInitialStatus
	if source == models.SourceAdmin {
		status = s.cfg.AdminInitialStatus
	}

	details := in.SessionDetails
	if details == "" {
		details = cfg.Details()
	}
	options, err := json.Marshal(cfg.Options())
	if err != nil {
		return nil, fmt.Errorf("encode session options: %w", err)
	}

	code, err := utils.GenerateUniqueConfirmationCode(ctx, s.store.Bookings())
	if err != nil {
		return nil, &AvailabilityUnknownError{Err: err}
	}

	b := &models.Booking{
		ID:               uuid.New(),
		ConfirmationCode: code,
		Studio:           quote.Studio,
		Date:             in.Date,
		StartTime:        in.StartTime,
		EndTime:          in.EndTime,
		SessionType:      cfg.SessionType(),
		SessionDetails:   details,
		SessionOptions:   datatypes.JSON(options),
		GroupSize:        in.GroupSize,
		RatePerHour:      quote.RatePerHour,
		TotalAmount:      quote.TotalAmount,
		Status:           status,
		IsPromptPayment:  in.IsPromptPayment,
		Source:           source,
		Phone:            strings.TrimSpace(in.Phone),
		Name:             strings.TrimSpace(in.Name),
		Email:            strings.TrimSpace(in.Email),
		Notes:            in.Notes,
	}
	if in.IsPromptPayment {
		p := models.PaymentPending
		b.PaymentStatus = &p
	}
	return b, nil
}

// insertIfAvailable must only touch tx; the caller holds the transaction.
func (s *BookingService) insertIfAvailable(ctx context.Context, tx repository.Store, b *models.Booking, exclude uuid.UUID) error {
	a, err := s.availability.check(ctx, tx, b.Studio, b.Date, b.Range(), exclude)
	if err != nil {
		return err
	}
	if !a.Available {
		metrics.RecordBookingConflict(string(b.Studio), a.reason())
		return a.conflict()
	}
	if err := tx.Bookings().Create(ctx, b); err != nil {
		return err
	}
	return nil
}

// creationError maps a failed transaction onto the caller-facing taxonomy.
func (s *BookingService) creationError(studio models.Studio, err error) error {
	if errors.Is(err, repository.ErrConflict) {
		metrics.RecordBookingConflict(string(studio), "race")
		return &ConflictError{Message: "slot was just taken by another booking, please pick another time"}
	}
	var conflict *ConflictError
	var unknown *AvailabilityUnknownError
	var transition *TransitionError
	var verification *VerificationError
	if errors.As(err, &conflict) || errors.As(err, &unknown) || errors.As(err, &transition) || errors.As(err, &verification) {
		return err
	}
	return fmt.Errorf("create booking: %w", err)
}

func (s *BookingService) Get(ctx context.Context, id uuid.UUID) (*models.BookingView, error) {
	b, err := s.store.Bookings().GetByID(ctx, id)
	if err != nil {
		return nil, bookingLookupError(id, err)
	}
	return s.view(b), nil
}

// GetByConfirmation returns the booking only to a caller holding its confirmation code. A
// wrong code reads as not found so ids alone reveal nothing.
func (s *BookingService) GetByConfirmation(ctx context.Context, id uuid.UUID, code string) (*models.BookingView, error) {
	b, err := s.store.Bookings().GetByID(ctx, id)
	if err != nil {
		return nil, bookingLookupError(id, err)
	}
	if subtle.ConstantTimeCompare([]byte(strings.TrimSpace(code)), []byte(b.ConfirmationCode)) != 1 {
		return nil, &NotFoundError{Resource: "booking", ID: id.String()}
	}
	return s.view(b), nil
}

// List filters by stored status. BookingNeedsCompletion in Statuses selects active bookings
// whose session already ended.
func (s *BookingService) List(ctx context.Context, f repository.BookingFilter) ([]models.BookingView, error) {
	stored := map[models.BookingStatus]bool{}
	needsCompletion := false
	query := f
	query.Statuses = nil
	for _, st := range f.Statuses {
		switch {
		case st == models.BookingNeedsCompletion:
			needsCompletion = true
			query.Statuses = append(query.Statuses, models.ActiveStatuses...)
		case st.Valid():
			stored[st] = true
			query.Statuses = append(query.Statuses, st)
		default:
			return nil, &ValidationError{Field: "status", Message: fmt.Sprintf("unknown status %q", st)}
		}
	}

	bookings, err := s.store.Bookings().List(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}

	out := make([]models.BookingView, 0, len(bookings))
	for i := range bookings {
		v := s.view(&bookings[i])
		if needsCompletion && !stored[v.Status] && v.EffectiveStatus != models.BookingNeedsCompletion {
			continue
		}
		out = append(out, *v)
	}
	return out, nil
}

// transitionSources lists, for each target status, the statuses it may be reached from.
var transitionSources = map[models.BookingStatus][]models.BookingStatus{
	models.BookingConfirmed: {models.BookingPending, models.BookingCancelled, models.BookingNoShow, models.BookingCompleted},
	models.BookingCancelled: {models.BookingPending, models.BookingConfirmed},
	models.BookingCompleted: {models.BookingConfirmed},
	models.BookingNoShow:    {models.BookingConfirmed},
}

// removableStatuses may be hard-deleted.
var removableStatuses = []models.BookingStatus{models.BookingCancelled, models.BookingNoShow}

func actionName(from, to models.BookingStatus) string {
	switch to {
	case models.BookingConfirmed:
		if from == models.BookingPending {
			return "confirm"
		}
		return "restore"
	case models.BookingCancelled:
		return "cancel"
	case models.BookingCompleted:
		return "complete"
	case models.BookingNoShow:
		return "mark no-show"
	}
	return "move to " + string(to)
}

func allowed(from models.BookingStatus, sources []models.BookingStatus) bool {
	for _, s := range sources {
		if s == from {
			return true
		}
	}
	return false
}

// Transition applies an admin status change. Completing or marking no-show before the session
// ends is allowed but returns a warning. Restoring re-checks the slot, since the booking
// reclaims it.
func (s *BookingService) Transition(ctx context.Context, id uuid.UUID, target models.BookingStatus) (*TransitionResult, error) {
	sources, ok := transitionSources[target]
	if !ok && !target.Valid() {
		return nil, &ValidationError{Field: "status", Message: fmt.Sprintf("cannot set status %q", target)}
	}

	current, err := s.store.Bookings().GetByID(ctx, id)
	if err != nil {
		return nil, bookingLookupError(id, err)
	}
	if !allowed(current.Status, sources) {
		return nil, &TransitionError{From: current.Status, Action: actionName(current.Status, target)}
	}

	now := s.cfg.Now()
	var updated *models.Booking
	if target.Active() && !current.Status.Active() {
		err = s.store.Atomic(ctx, func(tx repository.Store) error {
			a, err := s.availability.check(ctx, tx, current.Studio, current.Date, current.Range(), current.ID)
			if err != nil {
				return err
			}
			if !a.Available {
				return a.conflict()
			}
			updated, err = tx.Bookings().UpdateStatus(ctx, id, []models.BookingStatus{current.Status}, target, now)
			return err
		})
	} else {
		updated, err = s.store.Bookings().UpdateStatus(ctx, id, sources, target, now)
	}
	if err != nil {
		return nil, s.transitionError(ctx, id, target, err)
	}

	res := &TransitionResult{Booking: *s.view(updated)}
	if target == models.BookingCompleted || target == models.BookingNoShow {
		if end, err := updated.EndsAt(s.cfg.Location); err == nil && now.Before(end) {
			res.Warning = "session has not ended yet"
		}
	}

	log.Printf("✅ Booking %s: %s -> %s", updated.ConfirmationCode, current.Status, updated.Status)
	metrics.RecordTransition(string(current.Status), string(updated.Status))
	s.notify(ctx, notifications.Event{Type: notifications.EventBookingStatusChanged, Booking: updated, Previous: current})
	return res, nil
}

func (s *BookingService) transitionError(ctx context.Context, id uuid.UUID, target models.BookingStatus, err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return &NotFoundError{Resource: "booking", ID: id.String()}
	case errors.Is(err, repository.ErrStaleStatus):
		if fresh, getErr := s.store.Bookings().GetByID(ctx, id); getErr == nil {
			return &TransitionError{From: fresh.Status, Action: actionName(fresh.Status, target)}
		}
		return &TransitionError{Action: actionName("", target)}
	case errors.Is(err, repository.ErrConflict):
		return &ConflictError{Message: "booking changed concurrently, please retry"}
	}
	return err
}

// Delete permanently removes a cancelled or no-show booking.
func (s *BookingService) Delete(ctx context.Context, id uuid.UUID) error {
	current, err := s.store.Bookings().GetByID(ctx, id)
	if err != nil {
		return bookingLookupError(id, err)
	}
	if err := s.store.Bookings().Delete(ctx, id, removableStatuses); err != nil {
		if errors.Is(err, repository.ErrStaleStatus) {
			if fresh, getErr := s.store.Bookings().GetByID(ctx, id); getErr == nil {
				current = fresh
			}
			return &TransitionError{From: current.Status, Action: "delete"}
		}
		return bookingLookupError(id, err)
	}

	log.Printf("✅ Booking %s deleted permanently", current.ConfirmationCode)
	s.notify(ctx, notifications.Event{Type: notifications.EventBookingDeleted, Booking: current})
	return nil
}

// Reschedule replaces an active booking after the owner re-verifies. The code is consumed,
// the replacement inserted and the original cancelled in one transaction, so a failure
// leaves both the original and the code untouched.
func (s *BookingService) Reschedule(ctx context.Context, id uuid.UUID, phone, code string, in CreateBookingInput) (*models.BookingView, error) {
	original, err := s.store.Bookings().GetByID(ctx, id)
	if err != nil {
		return nil, bookingLookupError(id, err)
	}
	if strings.TrimSpace(phone) != original.Phone {
		return nil, &VerificationError{Message: "phone number does not match this booking"}
	}
	if !original.Status.Active() {
		return nil, &TransitionError{From: original.Status, Action: "reschedule"}
	}
	if s.verifier == nil {
		return nil, &VerificationError{Message: "identity verification is unavailable"}
	}
	codeID, err := s.verifier.Check(ctx, original.Phone, code)
	if err != nil {
		return nil, err
	}

	in.Phone = original.Phone
	if in.Name == "" {
		in.Name = original.Name
	}
	if in.Email == "" {
		in.Email = original.Email
	}
	if in.Notes == "" {
		in.Notes = original.Notes
	}
	in.Source = original.Source
	in.IsPromptPayment = original.IsPromptPayment

	replacement, err := s.prepare(ctx, in)
	if err != nil {
		return nil, err
	}
	replacement.RescheduledFromID = &original.ID

	var cancelled *models.Booking
	err = s.store.Atomic(ctx, func(tx repository.Store) error {
		if err := s.verifier.Consume(ctx, tx, codeID); err != nil {
			return err
		}
		if err := s.insertIfAvailable(ctx, tx, replacement, original.ID); err != nil {
			return err
		}
		var err error
		cancelled, err = tx.Bookings().UpdateStatus(ctx, original.ID, models.ActiveStatuses, models.BookingCancelled, s.cfg.Now())
		if errors.Is(err, repository.ErrStaleStatus) {
			return &TransitionError{Action: "reschedule", From: original.Status}
		}
		return err
	})
	if err != nil {
		return nil, s.creationError(replacement.Studio, err)
	}

	log.Printf("✅ Booking %s rescheduled to %s (%s %s %s)", original.ConfirmationCode, replacement.ConfirmationCode, replacement.Studio, replacement.Date, replacement.Range())
	metrics.RecordBookingCreated(string(replacement.Studio), string(replacement.SessionType), string(replacement.Source))
	metrics.RecordTransition(string(original.Status), string(models.BookingCancelled))
	s.notify(ctx, notifications.Event{Type: notifications.EventBookingRescheduled, Booking: replacement, Previous: cancelled})
	return s.view(replacement), nil
}

// RecordPaymentStatus records the outcome of an external payment check on a prompt-payment booking.
func (s *BookingService) RecordPaymentStatus(ctx context.Context, id uuid.UUID, status models.PaymentStatus) (*models.BookingView, error) {
	switch status {
	case models.PaymentPending, models.PaymentVerified, models.PaymentFailed:
	default:
		return nil, &ValidationError{Field: "payment_status", Message: fmt.Sprintf("unknown payment status %q", status)}
	}

	current, err := s.store.Bookings().GetByID(ctx, id)
	if err != nil {
		return nil, bookingLookupError(id, err)
	}
	if !current.IsPromptPayment {
		return nil, &ValidationError{Field: "payment_status", Message: "booking does not take prompt payment"}
	}

	updated, err := s.store.Bookings().UpdatePaymentStatus(ctx, id, status)
	if err != nil {
		return nil, bookingLookupError(id, err)
	}
	s.notify(ctx, notifications.Event{Type: notifications.EventPaymentUpdated, Booking: updated})
	return s.view(updated), nil
}

func (s *BookingService) view(b *models.Booking) *models.BookingView {
	return &models.BookingView{Booking: *b, EffectiveStatus: b.EffectiveStatus(s.cfg.Now(), s.cfg.Location)}
}

func (s *BookingService) notify(ctx context.Context, e notifications.Event) {
	if s.notifier == nil {
		return
	}
	e.OccurredAt = s.cfg.Now()
	if err := s.notifier.Notify(ctx, e); err != nil {
		log.Printf("⚠️ Failed to dispatch %s: %v", e.Type, err)
	}
}

func bookingLookupError(id uuid.UUID, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return &NotFoundError{Resource: "booking", ID: id.String()}
	}
	return err
}
