package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/anjiri1684/studio_booking/models"
	"github.com/anjiri1684/studio_booking/pricing"
	"github.com/anjiri1684/studio_booking/repository"
	"github.com/anjiri1684/studio_booking/services"
)

// SessionRequest is the slot and session part shared by creation and reschedule.
type SessionRequest struct {
	Studio      models.Studio      `json:"studio" validate:"omitempty,oneof='Studio A' 'Studio B' 'Studio C'"`
	Date        string             `json:"date" validate:"required"`
	StartTime   string             `json:"start_time" validate:"required"`
	EndTime     string             `json:"end_time" validate:"required"`
	SessionType models.SessionType `json:"session_type" validate:"required"`
	pricing.Options
	SessionDetails string  `json:"session_details" validate:"max=255"`
	GroupSize      int     `json:"group_size" validate:"required,min=1"`
	RatePerHour    float64 `json:"rate_per_hour" validate:"gte=0"`
}

func (r *SessionRequest) input() (services.CreateBookingInput, error) {
	start, err := parseClock("start_time", r.StartTime)
	if err != nil {
		return services.CreateBookingInput{}, err
	}
	end, err := parseClock("end_time", r.EndTime)
	if err != nil {
		return services.CreateBookingInput{}, err
	}
	return services.CreateBookingInput{
		Studio:         r.Studio,
		Date:           r.Date,
		StartTime:      start,
		EndTime:        end,
		SessionType:    r.SessionType,
		Options:        r.Options,
		SessionDetails: r.SessionDetails,
		GroupSize:      r.GroupSize,
		RatePerHour:    r.RatePerHour,
	}, nil
}

type CreateBookingRequest struct {
	SessionRequest
	IsPromptPayment bool   `json:"is_prompt_payment"`
	Phone           string `json:"phone" validate:"required,max=20"`
	Name            string `json:"name" validate:"required,max=120"`
	Email           string `json:"email" validate:"omitempty,email"`
	Notes           string `json:"notes"`
}

type RescheduleRequest struct {
	SessionRequest
	Phone string `json:"phone" validate:"required"`
	Code  string `json:"code" validate:"required,len=6,numeric"`
}

type TransitionRequest struct {
	Status models.BookingStatus `json:"status" validate:"required"`
}

type PaymentStatusRequest struct {
	PaymentStatus models.PaymentStatus `json:"payment_status" validate:"required,oneof=pending verified failed"`
}

type BookingHandler struct {
	bookings *services.BookingService
}

func NewBookingHandler(bookings *services.BookingService) *BookingHandler {
	return &BookingHandler{bookings: bookings}
}

// CreateBooking is the customer self-service flow.
func (h *BookingHandler) CreateBooking(c *fiber.Ctx) error {
	return h.create(c, models.SourceCustomer)
}

// AdminCreateBooking books on a customer's behalf through the same path.
func (h *BookingHandler) AdminCreateBooking(c *fiber.Ctx) error {
	return h.create(c, models.SourceAdmin)
}

func (h *BookingHandler) create(c *fiber.Ctx, source models.BookingSource) error {
	var req CreateBookingRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}
	in, err := req.input()
	if err != nil {
		return respondError(c, err)
	}
	in.IsPromptPayment = req.IsPromptPayment
	in.Phone = req.Phone
	in.Name = req.Name
	in.Email = req.Email
	in.Notes = req.Notes
	in.Source = source

	booking, err := h.bookings.CreateBooking(c.UserContext(), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(booking)
}

// GetBooking is the customer lookup; it needs the confirmation code as ?code=.
func (h *BookingHandler) GetBooking(c *fiber.Ctx) error {
	id, err := parseID(c, "bookingId", "booking")
	if err != nil {
		return respondError(c, err)
	}
	code := c.Query("code")
	if code == "" {
		return respondError(c, &services.ValidationError{Field: "code", Message: "confirmation code is required"})
	}
	booking, err := h.bookings.GetByConfirmation(c.UserContext(), id, code)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(booking)
}

func (h *BookingHandler) AdminGetBooking(c *fiber.Ctx) error {
	id, err := parseID(c, "bookingId", "booking")
	if err != nil {
		return respondError(c, err)
	}
	booking, err := h.bookings.Get(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(booking)
}

func (h *BookingHandler) RescheduleBooking(c *fiber.Ctx) error {
	id, err := parseID(c, "bookingId", "booking")
	if err != nil {
		return respondError(c, err)
	}
	var req RescheduleRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}
	in, err := req.input()
	if err != nil {
		return respondError(c, err)
	}

	booking, err := h.bookings.Reschedule(c.UserContext(), id, req.Phone, req.Code, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(booking)
}

// ListBookings supports ?studio, ?start_date, ?end_date, ?phone and a comma separated ?status.
func (h *BookingHandler) ListBookings(c *fiber.Ctx) error {
	f := repository.BookingFilter{
		Studio:    models.Studio(c.Query("studio")),
		StartDate: c.Query("start_date"),
		EndDate:   c.Query("end_date"),
		Phone:     c.Query("phone"),
	}
	if f.Studio != "" && !f.Studio.Valid() {
		return respondError(c, &services.ValidationError{Field: "studio", Message: "must be one of Studio A, Studio B, Studio C"})
	}
	for _, field := range []struct{ name, value string }{{"start_date", f.StartDate}, {"end_date", f.EndDate}} {
		if field.value == "" {
			continue
		}
		if _, err := models.ParseDate(field.value); err != nil {
			return respondError(c, &services.ValidationError{Field: field.name, Message: "must be a date in YYYY-MM-DD format"})
		}
	}
	if raw := c.Query("status"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			f.Statuses = append(f.Statuses, models.BookingStatus(strings.TrimSpace(s)))
		}
	}

	bookings, err := h.bookings.List(c.UserContext(), f)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"bookings": bookings, "count": len(bookings)})
}

func (h *BookingHandler) UpdateBookingStatus(c *fiber.Ctx) error {
	id, err := parseID(c, "bookingId", "booking")
	if err != nil {
		return respondError(c, err)
	}
	var req TransitionRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}

	res, err := h.bookings.Transition(c.UserContext(), id, req.Status)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(res)
}

func (h *BookingHandler) UpdatePaymentStatus(c *fiber.Ctx) error {
	id, err := parseID(c, "bookingId", "booking")
	if err != nil {
		return respondError(c, err)
	}
	var req PaymentStatusRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}

	booking, err := h.bookings.RecordPaymentStatus(c.UserContext(), id, req.PaymentStatus)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(booking)
}

func (h *BookingHandler) DeleteBooking(c *fiber.Ctx) error {
	id, err := parseID(c, "bookingId", "booking")
	if err != nil {
		return respondError(c, err)
	}
	if err := h.bookings.Delete(c.UserContext(), id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
