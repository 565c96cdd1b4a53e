package routes

import (
	"github.com/anjiri1684/studio_booking/handlers"
)

// Handlers is everything the route table dispatches to.
type Handlers struct {
	Availability *handlers.AvailabilityHandler
	Bookings     *handlers.BookingHandler
	Verification *handlers.VerificationHandler
	Loyalty      *handlers.LoyaltyHandler
	Feed         *handlers.FeedHandler
}
