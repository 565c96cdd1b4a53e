package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/anjiri1684/studio_booking/models"
	"github.com/anjiri1684/studio_booking/services"
)

type CheckAvailabilityQuery struct {
	Studio    models.Studio `query:"studio" json:"studio" validate:"required"`
	Date      string        `query:"date" json:"date" validate:"required"`
	StartTime string        `query:"start_time" json:"start_time" validate:"required"`
	EndTime   string        `query:"end_time" json:"end_time" validate:"required"`
}

type SlotRequest struct {
	Studio    models.Studio `json:"studio" validate:"required"`
	Date      string        `json:"date" validate:"required"`
	StartTime string        `json:"start_time" validate:"required"`
	EndTime   string        `json:"end_time" validate:"required"`
	Reason    string        `json:"reason" validate:"max=255"`
}

func (r *SlotRequest) input() (services.SlotInput, error) {
	start, err := parseClock("start_time", r.StartTime)
	if err != nil {
		return services.SlotInput{}, err
	}
	end, err := parseClock("end_time", r.EndTime)
	if err != nil {
		return services.SlotInput{}, err
	}
	return services.SlotInput{Studio: r.Studio, Date: r.Date, StartTime: start, EndTime: end, Reason: r.Reason}, nil
}

type BulkSlotRequest struct {
	Studio    models.Studio `json:"studio" validate:"required"`
	Dates     []string      `json:"dates" validate:"required,min=1"`
	StartTime string        `json:"start_time" validate:"required"`
	EndTime   string        `json:"end_time" validate:"required"`
	Reason    string        `json:"reason" validate:"max=255"`
}

type AvailabilityHandler struct {
	availability *services.AvailabilityService
}

func NewAvailabilityHandler(availability *services.AvailabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{availability: availability}
}

func (h *AvailabilityHandler) CheckAvailability(c *fiber.Ctx) error {
	var q CheckAvailabilityQuery
	if err := parseQuery(c, &q); err != nil {
		return respondError(c, err)
	}
	start, err := parseClock("start_time", q.StartTime)
	if err != nil {
		return respondError(c, err)
	}
	end, err := parseClock("end_time", q.EndTime)
	if err != nil {
		return respondError(c, err)
	}

	a, err := h.availability.CheckSlotAvailable(c.UserContext(), q.Studio, q.Date, start, end)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(a)
}

// ListSlots returns blocked slots grouped by date with the bookings each contains.
func (h *AvailabilityHandler) ListSlots(c *fiber.Ctx) error {
	days, err := h.availability.ListSlotsWithBookings(c.UserContext(), models.Studio(c.Query("studio")), c.Query("start_date"), c.Query("end_date"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"days": days})
}

func (h *AvailabilityHandler) CreateSlot(c *fiber.Ctx) error {
	var req SlotRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}
	in, err := req.input()
	if err != nil {
		return respondError(c, err)
	}
	slot, err := h.availability.CreateSlot(c.UserContext(), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(slot)
}

func (h *AvailabilityHandler) UpdateSlot(c *fiber.Ctx) error {
	id, err := parseID(c, "slotId", "slot")
	if err != nil {
		return respondError(c, err)
	}
	var req SlotRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}
	in, err := req.input()
	if err != nil {
		return respondError(c, err)
	}
	slot, err := h.availability.UpdateSlot(c.UserContext(), id, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(slot)
}

func (h *AvailabilityHandler) DeleteSlot(c *fiber.Ctx) error {
	id, err := parseID(c, "slotId", "slot")
	if err != nil {
		return respondError(c, err)
	}
	if err := h.availability.DeleteSlot(c.UserContext(), id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *AvailabilityHandler) BulkCreateSlots(c *fiber.Ctx) error {
	var req BulkSlotRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}
	start, err := parseClock("start_time", req.StartTime)
	if err != nil {
		return respondError(c, err)
	}
	end, err := parseClock("end_time", req.EndTime)
	if err != nil {
		return respondError(c, err)
	}

	res, err := h.availability.BulkCreate(c.UserContext(), services.BulkSlotInput{
		Studio:    req.Studio,
		Dates:     req.Dates,
		StartTime: start,
		EndTime:   end,
		Reason:    req.Reason,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(res)
}
