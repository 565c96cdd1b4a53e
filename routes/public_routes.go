package routes

import (
	"github.com/anjiri1684/studio_booking/handlers"
	"github.com/gofiber/fiber/v2"
)

func PublicRoutes(app *fiber.App, h Handlers) {
	api := app.Group("/api/v1")

	api.Get("/availability/check", h.Availability.CheckAvailability)
	api.Post("/rates/quote", handlers.QuoteRates)
	api.Post("/loyalty", h.Loyalty.CheckLoyaltyStatus)
}
