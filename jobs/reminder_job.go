package jobs

import (
	"context"
	"log"
	"time"

	"github.com/anjiri1684/studio_booking/models"
	"github.com/anjiri1684/studio_booking/notifications"
	"github.com/anjiri1684/studio_booking/repository"
)

// The job runs every five minutes; the half-open window makes each booking fall in exactly one run.
const (
	reminderLead   = 60 * time.Minute
	reminderWindow = 5 * time.Minute
)

type ReminderJob struct {
	bookings BookingLister
	notifier notifications.Notifier
	loc      *time.Location
	now      func() time.Time
}

func NewReminderJob(bookings BookingLister, notifier notifications.Notifier, loc *time.Location, now func() time.Time) *ReminderJob {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &ReminderJob{bookings: bookings, notifier: notifier, loc: loc, now: now}
}

// SendSessionReminders is the cron entry point.
func (j *ReminderJob) SendSessionReminders() {
	log.Println("Running job: SendSessionReminders...")
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	sent, err := j.run(ctx)
	if err != nil {
		log.Printf("Error checking for upcoming sessions: %v", err)
		return
	}
	if sent > 0 {
		log.Printf("Sent %d session reminder(s).", sent)
	}
}

func (j *ReminderJob) run(ctx context.Context) (int, error) {
	now := j.now().In(j.loc)
	from := now.Add(reminderLead)
	to := from.Add(reminderWindow)

	upcoming, err := j.bookings.List(ctx, repository.BookingFilter{
		StartDate: from.Format(models.DateLayout),
		EndDate:   to.Format(models.DateLayout),
		Statuses:  []models.BookingStatus{models.BookingConfirmed},
	})
	if err != nil {
		return 0, err
	}

	sent := 0
	for i := range upcoming {
		b := upcoming[i].Booking
		start, err := b.StartsAt(j.loc)
		if err != nil || start.Before(from) || !start.Before(to) {
			continue
		}
		log.Printf("Sending reminder for booking %s", b.ConfirmationCode)
		if err := j.notifier.Notify(ctx, notifications.Event{Type: notifications.EventSessionReminder, Booking: &b, OccurredAt: now}); err != nil {
			log.Printf("⚠️ Reminder for booking %s failed: %v", b.ConfirmationCode, err)
			continue
		}
		sent++
	}
	return sent, nil
}
