package jobs

import (
	"context"
	"log"
	"time"

	"github.com/anjiri1684/studio_booking/models"
	"github.com/anjiri1684/studio_booking/notifications"
	"github.com/anjiri1684/studio_booking/repository"
)

// CompletionDigestJob tells the admin which sessions ended without being marked completed or
// no-show. Nothing is changed automatically.
type CompletionDigestJob struct {
	bookings BookingLister
	notifier notifications.Notifier
	loc      *time.Location
	now      func() time.Time
}

func NewCompletionDigestJob(bookings BookingLister, notifier notifications.Notifier, loc *time.Location, now func() time.Time) *CompletionDigestJob {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &CompletionDigestJob{bookings: bookings, notifier: notifier, loc: loc, now: now}
}

func (j *CompletionDigestJob) CheckForUnattendedSessions() {
	log.Println("Running job: CheckForUnattendedSessions...")
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	n, err := j.run(ctx)
	if err != nil {
		log.Printf("Error checking for unattended sessions: %v", err)
		return
	}
	if n == 0 {
		log.Println("No sessions need completion.")
		return
	}
	log.Printf("Reported %d session(s) needing completion.", n)
}

func (j *CompletionDigestJob) run(ctx context.Context) (int, error) {
	now := j.now().In(j.loc)
	views, err := j.bookings.List(ctx, repository.BookingFilter{
		EndDate:  now.Format(models.DateLayout),
		Statuses: []models.BookingStatus{models.BookingNeedsCompletion},
	})
	if err != nil {
		return 0, err
	}
	if len(views) == 0 {
		return 0, nil
	}

	pending := make([]models.Booking, 0, len(views))
	for _, v := range views {
		pending = append(pending, v.Booking)
	}
	if err := j.notifier.Notify(ctx, notifications.Event{Type: notifications.EventCompletionDigest, Bookings: pending, OccurredAt: now}); err != nil {
		return 0, err
	}
	return len(pending), nil
}
