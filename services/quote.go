package services

import (
	"github.com/anjiri1684/studio_booking/models"
	"github.com/anjiri1684/studio_booking/pricing"
)

type QuoteInput struct {
	SessionType models.SessionType
	Options     pricing.Options
	// Studio and the time range are optional. Without a range only the hourly rate is quoted.
	Studio    models.Studio
	StartTime *models.Clock
	EndTime   *models.Clock
}

// QuoteSession prices a session configuration without touching the calendar.
func QuoteSession(in QuoteInput) (*pricing.Quote, error) {
	cfg, err := pricing.NewSessionConfig(in.SessionType, in.Options)
	if err != nil {
		return nil, fromPricing(err)
	}
	if in.Studio != "" && !in.Studio.Valid() {
		return nil, &ValidationError{Field: "studio", Message: "must be one of Studio A, Studio B, Studio C"}
	}

	var r models.TimeRange
	if in.StartTime != nil || in.EndTime != nil {
		if in.StartTime == nil || in.EndTime == nil {
			return nil, &ValidationError{Field: "end_time", Message: "start_time and end_time go together"}
		}
		r = models.TimeRange{Start: *in.StartTime, End: *in.EndTime}
		if !r.Valid() {
			return nil, &ValidationError{Field: "end_time", Message: "must be after start_time"}
		}
	}

	q, err := pricing.PriceSession(in.Studio, cfg, r)
	if err != nil {
		return nil, fromPricing(err)
	}
	return &q, nil
}
