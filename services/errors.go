package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/anjiri1684/studio_booking/models"
	"github.com/anjiri1684/studio_booking/pricing"
)

// ValidationError is malformed input, reported against the request field that caused it.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

// ConflictError means the requested slot is taken, either by an overlapping active booking or
// by an admin block, or because a concurrent request won the race for it.
type ConflictError struct {
	ConflictingBookingIDs []uuid.UUID
	BlockingSlotID        *uuid.UUID
	Message               string
}

func (e *ConflictError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "slot no longer available, please pick another time"
}

// TransitionError is a status change the lifecycle does not permit from the booking's current state.
type TransitionError struct {
	From   models.BookingStatus
	Action string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s a %s booking", e.Action, e.From)
}

type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// AvailabilityUnknownError means the store could not answer. It never reads as "available".
type AvailabilityUnknownError struct {
	Err error
}

func (e *AvailabilityUnknownError) Error() string {
	return fmt.Sprintf("availability unknown: %v", e.Err)
}

func (e *AvailabilityUnknownError) Unwrap() error { return e.Err }

// VerificationError is a failed identity check: missing, expired, exhausted or wrong code.
type VerificationError struct {
	Message string
}

func (e *VerificationError) Error() string {
	return e.Message
}

// fromPricing turns caller-caused pricing failures into validation errors. Rate table gaps
// stay as they are so they surface as configuration bugs.
func fromPricing(err error) error {
	var optErr *pricing.OptionError
	if errors.As(err, &optErr) {
		return &ValidationError{Field: optErr.Field, Message: optErr.Message}
	}
	var notAllowed *pricing.StudioNotAllowedError
	if errors.As(err, &notAllowed) {
		names := make([]string, 0, len(notAllowed.Allowed))
		for _, s := range notAllowed.Allowed {
			names = append(names, string(s))
		}
		return &ValidationError{
			Field:   "studio",
			Message: fmt.Sprintf("cannot host this session; choose one of %s", strings.Join(names, ", ")),
		}
	}
	return err
}
