package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anjiri1684/studio_booking/models"
	"github.com/anjiri1684/studio_booking/repository"
)

const loyaltyWindowDays = 90

type LoyaltyStatus struct {
	Phone             string  `json:"phone"`
	CompletedSessions int     `json:"completed_sessions"`
	CompletedHours    float64 `json:"completed_hours"`
	WindowStart       string  `json:"window_start"`
	WindowEnd         string  `json:"window_end"`
}

// LoyaltyService sums a customer's completed hours over the rolling window ending today.
type LoyaltyService struct {
	store repository.Store
	loc   *time.Location
	now   func() time.Time
}

func NewLoyaltyService(store repository.Store, loc *time.Location, now func() time.Time) *LoyaltyService {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &LoyaltyService{store: store, loc: loc, now: now}
}

func (s *LoyaltyService) Status(ctx context.Context, phone string) (*LoyaltyStatus, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil, &ValidationError{Field: "phone", Message: "is required"}
	}

	today := s.now().In(s.loc)
	end := today.Format(models.DateLayout)
	start := today.AddDate(0, 0, -loyaltyWindowDays).Format(models.DateLayout)

	bookings, err := s.store.Bookings().List(ctx, repository.BookingFilter{
		Phone:     phone,
		StartDate: start,
		EndDate:   end,
		Statuses:  []models.BookingStatus{models.BookingCompleted},
	})
	if err != nil {
		return nil, fmt.Errorf("list completed bookings: %w", err)
	}

	st := &LoyaltyStatus{Phone: phone, WindowStart: start, WindowEnd: end}
	for _, b := range bookings {
		st.CompletedSessions++
		st.CompletedHours += b.Range().Hours()
	}
	return st, nil
}
