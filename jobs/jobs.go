package jobs

import (
	"context"
	"time"

	"github.com/anjiri1684/studio_booking/models"
	"github.com/anjiri1684/studio_booking/repository"
)

// BookingLister is the read side of the booking service the jobs scan.
type BookingLister interface {
	List(ctx context.Context, f repository.BookingFilter) ([]models.BookingView, error)
}

const jobTimeout = time.Minute
