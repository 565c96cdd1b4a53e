package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/anjiri1684/studio_booking/pricing"
	"github.com/anjiri1684/studio_booking/services"
)

// respondError writes the error envelope for err. Anything unrecognised is a 500 and is logged.
func respondError(c *fiber.Ctx, err error) error {
	var (
		validation *services.ValidationError
		conflict   *services.ConflictError
		transition *services.TransitionError
		notFound   *services.NotFoundError
		verify     *services.VerificationError
		unknown    *services.AvailabilityUnknownError
		rate       *pricing.RateNotFoundError
		fiberErr   *fiber.Error
	)

	switch {
	case errors.As(err, &validation):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": validation.Error(),
			"field": validation.Field,
		})
	case errors.As(err, &conflict):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":                   conflict.Error(),
			"conflicting_booking_ids": conflict.ConflictingBookingIDs,
			"blocking_slot_id":        conflict.BlockingSlotID,
		})
	case errors.As(err, &transition):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": transition.Error()})
	case errors.As(err, &notFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": notFound.Error()})
	case errors.As(err, &verify):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": verify.Error()})
	case errors.As(err, &unknown):
		log.Printf("⚠️ Availability unknown on %s %s: %v", c.Method(), c.Path(), unknown.Err)
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "Could not determine availability, please try again",
		})
	case errors.As(err, &rate):
		log.Printf("🔥 Rate table gap: %v", rate)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "No rate configured for this session"})
	case errors.As(err, &fiberErr):
		return c.Status(fiberErr.Code).JSON(fiber.Map{"error": fiberErr.Message})
	}

	log.Printf("🔥 %s %s failed: %v", c.Method(), c.Path(), err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
}
