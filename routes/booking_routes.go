package routes

import (
	"github.com/gofiber/fiber/v2"
)

func BookingRoutes(app *fiber.App, h Handlers) {
	api := app.Group("/api/v1")

	booking := api.Group("/bookings")
	booking.Post("", h.Bookings.CreateBooking)
	booking.Get("/:bookingId", h.Bookings.GetBooking)
	booking.Post("/:bookingId/reschedule", h.Bookings.RescheduleBooking)
}
