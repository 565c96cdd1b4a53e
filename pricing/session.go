package pricing

import (
	"fmt"

	"github.com/anjiri1684/studio_booking/models"
)

// Options is the wire shape of session sub-options. Only the field matching the session type may be set.
type Options struct {
	KaraokeOption   string `json:"karaoke_option,omitempty"`
	LiveOption      string `json:"live_option,omitempty"`
	BandEquipment   string `json:"band_equipment,omitempty"`
	RecordingOption string `json:"recording_option,omitempty"`
}

// SessionConfig is one validated session configuration. Implementations are immutable values.
type SessionConfig interface {
	SessionType() models.SessionType
	Option() string
	Details() string
	// GroupRange is the participant range the option admits; hi 0 means unbounded.
	GroupRange() (lo, hi int)
	Options() Options
}

type KaraokeConfig struct{ Participants string }
type LiveConfig struct{ Participants string }
type BandConfig struct{ Equipment string }
type RecordingConfig struct{ Mode string }

type participantRange struct {
	min, max int
	label    string
}

var karaokeRanges = map[string]participantRange{
	"1_10":  {1, 10, "1-10 participants"},
	"11_20": {11, 20, "11-20 participants"},
	"21_30": {21, 30, "21-30 participants"},
}

var liveRanges = map[string]participantRange{
	"1_5":   {1, 5, "1-5 performers"},
	"6_15":  {6, 15, "6-15 performers"},
	"16_30": {16, 30, "16-30 performers"},
}

var bandEquipment = map[string]string{
	"drums_only": "drums only",
	"drums_amps": "drums and amps",
	"full":       "full equipment",
}

var recordingModes = map[string]string{
	"audio":       "audio",
	"video":       "video",
	"audio_video": "audio and video",
}

func (KaraokeConfig) SessionType() models.SessionType { return models.SessionKaraoke }
func (c KaraokeConfig) Option() string                { return c.Participants }
func (c KaraokeConfig) Details() string {
	return fmt.Sprintf("Karaoke (%s)", karaokeRanges[c.Participants].label)
}
func (c KaraokeConfig) GroupRange() (int, int) {
	r := karaokeRanges[c.Participants]
	return r.min, r.max
}
func (c KaraokeConfig) Options() Options { return Options{KaraokeOption: c.Participants} }

func (LiveConfig) SessionType() models.SessionType { return models.SessionLive }
func (c LiveConfig) Option() string                { return c.Participants }
func (c LiveConfig) Details() string {
	return fmt.Sprintf("Live session (%s)", liveRanges[c.Participants].label)
}
func (c LiveConfig) GroupRange() (int, int) {
	r := liveRanges[c.Participants]
	return r.min, r.max
}
func (c LiveConfig) Options() Options { return Options{LiveOption: c.Participants} }

func (BandConfig) SessionType() models.SessionType { return models.SessionBand }
func (c BandConfig) Option() string                { return c.Equipment }
func (c BandConfig) Details() string {
	return fmt.Sprintf("Band (%s)", bandEquipment[c.Equipment])
}
func (BandConfig) GroupRange() (int, int) { return 1, 0 }
func (c BandConfig) Options() Options     { return Options{BandEquipment: c.Equipment} }

func (RecordingConfig) SessionType() models.SessionType { return models.SessionRecording }
func (c RecordingConfig) Option() string                { return c.Mode }
func (c RecordingConfig) Details() string {
	return fmt.Sprintf("Recording (%s)", recordingModes[c.Mode])
}
func (RecordingConfig) GroupRange() (int, int) { return 1, 0 }
func (c RecordingConfig) Options() Options     { return Options{RecordingOption: c.Mode} }

// OptionError reports a malformed session configuration against the request field that caused it.
type OptionError struct {
	Field   string
	Message string
}

func (e *OptionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewSessionConfig builds the variant for sessionType, rejecting unknown values and stray option fields.
func NewSessionConfig(sessionType models.SessionType, o Options) (SessionConfig, error) {
	fields := map[string]string{
		"karaoke_option":   o.KaraokeOption,
		"live_option":      o.LiveOption,
		"band_equipment":   o.BandEquipment,
		"recording_option": o.RecordingOption,
	}

	var field string
	var cfg SessionConfig
	switch sessionType {
	case models.SessionKaraoke:
		field = "karaoke_option"
		if _, ok := karaokeRanges[o.KaraokeOption]; !ok {
			return nil, invalidOption(field, o.KaraokeOption)
		}
		cfg = KaraokeConfig{Participants: o.KaraokeOption}
	case models.SessionLive:
		field = "live_option"
		if _, ok := liveRanges[o.LiveOption]; !ok {
			return nil, invalidOption(field, o.LiveOption)
		}
		cfg = LiveConfig{Participants: o.LiveOption}
	case models.SessionBand:
		field = "band_equipment"
		if _, ok := bandEquipment[o.BandEquipment]; !ok {
			return nil, invalidOption(field, o.BandEquipment)
		}
		cfg = BandConfig{Equipment: o.BandEquipment}
	case models.SessionRecording:
		field = "recording_option"
		if _, ok := recordingModes[o.RecordingOption]; !ok {
			return nil, invalidOption(field, o.RecordingOption)
		}
		cfg = RecordingConfig{Mode: o.RecordingOption}
	default:
		return nil, &OptionError{Field: "session_type", Message: fmt.Sprintf("unknown session type %q", sessionType)}
	}

	for name, value := range fields {
		if name != field && value != "" {
			return nil, &OptionError{Field: name, Message: fmt.Sprintf("not applicable to %s sessions", sessionType)}
		}
	}
	return cfg, nil
}

func invalidOption(field, value string) error {
	if value == "" {
		return &OptionError{Field: field, Message: "is required"}
	}
	return &OptionError{Field: field, Message: fmt.Sprintf("unknown value %q", value)}
}

// ValidateGroupSize checks n against the participant range the configuration admits.
func ValidateGroupSize(cfg SessionConfig, n int) error {
	lo, hi := cfg.GroupRange()
	if n < 1 || n < lo || (hi > 0 && n > hi) {
		if hi > 0 {
			return &OptionError{Field: "group_size", Message: fmt.Sprintf("must be between %d and %d for %s", lo, hi, cfg.Details())}
		}
		return &OptionError{Field: "group_size", Message: "must be at least 1"}
	}
	return nil
}

// AllConfigs enumerates every reachable session configuration.
func AllConfigs() []SessionConfig {
	var out []SessionConfig
	for k := range karaokeRanges {
		out = append(out, KaraokeConfig{Participants: k})
	}
	for k := range liveRanges {
		out = append(out, LiveConfig{Participants: k})
	}
	for k := range bandEquipment {
		out = append(out, BandConfig{Equipment: k})
	}
	for k := range recordingModes {
		out = append(out, RecordingConfig{Mode: k})
	}
	return out
}
