package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

// VerificationRoutes allow five requests per client IP per minute.
func VerificationRoutes(app *fiber.App, h Handlers) {
	api := app.Group("/api/v1")

	verification := api.Group("/verification", limiter.New(limiter.Config{
		Max:        5,
		Expiration: time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many verification requests, please wait a minute",
			})
		},
	}))
	verification.Post("/send", h.Verification.SendCode)
	verification.Post("/verify", h.Verification.VerifyCode)
}
