package routes

import (
	"github.com/anjiri1684/studio_booking/middleware"
	"github.com/gofiber/fiber/v2"
)

func AdminRoutes(app *fiber.App, h Handlers, jwtSecret string) {
	api := app.Group("/api/v1")

	admin := api.Group("/admin", middleware.Protected(jwtSecret), middleware.AdminRequired())

	bookings := admin.Group("/bookings")
	bookings.Get("", h.Bookings.ListBookings)
	bookings.Post("", h.Bookings.AdminCreateBooking)
	bookings.Get("/:bookingId", h.Bookings.AdminGetBooking)
	bookings.Put("/:bookingId", h.Bookings.UpdateBookingStatus)
	bookings.Put("/:bookingId/payment", h.Bookings.UpdatePaymentStatus)
	bookings.Delete("/:bookingId", h.Bookings.DeleteBooking)

	availability := admin.Group("/availability")
	availability.Get("", h.Availability.ListSlots)
	availability.Post("", h.Availability.CreateSlot)
	availability.Post("/bulk", h.Availability.BulkCreateSlots)
	availability.Put("/:slotId", h.Availability.UpdateSlot)
	availability.Delete("/:slotId", h.Availability.DeleteSlot)

	admin.Get("/loyalty", h.Loyalty.GetLoyaltyStatus)

	admin.Use("/ws", h.Feed.Upgrade)
	admin.Get("/ws", h.Feed.Serve())
}
