package pricing

import (
	"fmt"

	"github.com/anjiri1684/studio_booking/models"
)

type tableKey struct {
	session models.SessionType
	option  string
}

func keyOf(cfg SessionConfig) tableKey {
	return tableKey{session: cfg.SessionType(), option: cfg.Option()}
}

// capacityTable lists the studios that can host each configuration.
var capacityTable = map[tableKey][]models.Studio{
	{models.SessionKaraoke, "1_10"}:  {models.StudioA, models.StudioB, models.StudioC},
	{models.SessionKaraoke, "11_20"}: {models.StudioA, models.StudioB},
	{models.SessionKaraoke, "21_30"}: {models.StudioA},

	{models.SessionLive, "1_5"}:   {models.StudioA, models.StudioB, models.StudioC},
	{models.SessionLive, "6_15"}:  {models.StudioA, models.StudioB},
	{models.SessionLive, "16_30"}: {models.StudioA},

	{models.SessionBand, "drums_only"}: {models.StudioA, models.StudioB, models.StudioC},
	{models.SessionBand, "drums_amps"}: {models.StudioA, models.StudioB},
	{models.SessionBand, "full"}:       {models.StudioA},

	{models.SessionRecording, "audio"}:       {models.StudioA, models.StudioB, models.StudioC},
	{models.SessionRecording, "video"}:       {models.StudioA, models.StudioB},
	{models.SessionRecording, "audio_video"}: {models.StudioA},
}

// rateTable holds hourly rates in rupees.
var rateTable = map[models.Studio]map[tableKey]float64{
	models.StudioA: {
		{models.SessionKaraoke, "1_10"}:          400,
		{models.SessionKaraoke, "11_20"}:         450,
		{models.SessionKaraoke, "21_30"}:         500,
		{models.SessionLive, "1_5"}:              600,
		{models.SessionLive, "6_15"}:             700,
		{models.SessionLive, "16_30"}:            800,
		{models.SessionBand, "drums_only"}:       500,
		{models.SessionBand, "drums_amps"}:       600,
		{models.SessionBand, "full"}:             800,
		{models.SessionRecording, "audio"}:       700,
		{models.SessionRecording, "video"}:       900,
		{models.SessionRecording, "audio_video"}: 1200,
	},
	models.StudioB: {
		{models.SessionKaraoke, "1_10"}:    300,
		{models.SessionKaraoke, "11_20"}:   350,
		{models.SessionLive, "1_5"}:        500,
		{models.SessionLive, "6_15"}:       600,
		{models.SessionBand, "drums_only"}: 400,
		{models.SessionBand, "drums_amps"}: 500,
		{models.SessionRecording, "audio"}: 600,
		{models.SessionRecording, "video"}: 800,
	},
	models.StudioC: {
		{models.SessionKaraoke, "1_10"}:    250,
		{models.SessionLive, "1_5"}:        400,
		{models.SessionBand, "drums_only"}: 350,
		{models.SessionRecording, "audio"}: 500,
	},
}

// RateNotFoundError is a gap in the pricing table. It is a configuration bug, never a zero price.
type RateNotFoundError struct {
	Studio      models.Studio
	SessionType models.SessionType
	Option      string
}

func (e *RateNotFoundError) Error() string {
	return fmt.Sprintf("no rate configured for %s / %s / %s", e.Studio, e.SessionType, e.Option)
}

// StudioNotAllowedError means the studio cannot host the configuration.
type StudioNotAllowedError struct {
	Studio  models.Studio
	Allowed []models.Studio
}

func (e *StudioNotAllowedError) Error() string {
	return fmt.Sprintf("%s cannot host this session; allowed: %v", e.Studio, e.Allowed)
}

type Suggestion struct {
	RecommendedStudio models.Studio   `json:"recommended_studio"`
	AllowedStudios    []models.Studio `json:"allowed_studios"`
}

// SuggestStudio returns the studios able to host cfg, smallest first, recommending the smallest.
func SuggestStudio(cfg SessionConfig) (Suggestion, error) {
	allowed, ok := capacityTable[keyOf(cfg)]
	if !ok || len(allowed) == 0 {
		return Suggestion{}, &RateNotFoundError{SessionType: cfg.SessionType(), Option: cfg.Option()}
	}

	ordered := make([]models.Studio, 0, len(allowed))
	for _, s := range models.Studios {
		for _, a := range allowed {
			if a == s {
				ordered = append(ordered, s)
			}
		}
	}
	return Suggestion{RecommendedStudio: ordered[0], AllowedStudios: ordered}, nil
}

func GetRate(studio models.Studio, cfg SessionConfig) (float64, error) {
	rate, ok := rateTable[studio][keyOf(cfg)]
	if !ok {
		return 0, &RateNotFoundError{Studio: studio, SessionType: cfg.SessionType(), Option: cfg.Option()}
	}
	return rate, nil
}

type Quote struct {
	Suggestion
	Studio      models.Studio `json:"studio"`
	RatePerHour float64       `json:"rate_per_hour"`
	Hours       float64       `json:"hours,omitempty"`
	TotalAmount float64       `json:"total_amount,omitempty"`
}

// PriceSession quotes cfg at studio, or at the recommended studio when studio is empty.
// A zero range quotes the hourly rate only.
func PriceSession(studio models.Studio, cfg SessionConfig, r models.TimeRange) (Quote, error) {
	suggestion, err := SuggestStudio(cfg)
	if err != nil {
		return Quote{}, err
	}
	if studio == "" {
		studio = suggestion.RecommendedStudio
	}
	if !contains(suggestion.AllowedStudios, studio) {
		return Quote{}, &StudioNotAllowedError{Studio: studio, Allowed: suggestion.AllowedStudios}
	}

	rate, err := GetRate(studio, cfg)
	if err != nil {
		return Quote{}, err
	}

	q := Quote{Suggestion: suggestion, Studio: studio, RatePerHour: rate}
	if r.Valid() {
		q.Hours = r.Hours()
		q.TotalAmount = rate * q.Hours
	}
	return q, nil
}

func contains(list []models.Studio, s models.Studio) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
