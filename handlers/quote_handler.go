package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/anjiri1684/studio_booking/models"
	"github.com/anjiri1684/studio_booking/pricing"
	"github.com/anjiri1684/studio_booking/services"
)

type QuoteRequest struct {
	SessionType models.SessionType `json:"session_type" validate:"required"`
	pricing.Options
	Studio    models.Studio `json:"studio"`
	StartTime string        `json:"start_time"`
	EndTime   string        `json:"end_time"`
}

func QuoteRates(c *fiber.Ctx) error {
	var req QuoteRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}
	start, err := parseOptionalClock("start_time", req.StartTime)
	if err != nil {
		return respondError(c, err)
	}
	end, err := parseOptionalClock("end_time", req.EndTime)
	if err != nil {
		return respondError(c, err)
	}

	q, err := services.QuoteSession(services.QuoteInput{
		SessionType: req.SessionType,
		Options:     req.Options,
		Studio:      req.Studio,
		StartTime:   start,
		EndTime:     end,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(q)
}
