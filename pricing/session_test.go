package pricing

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anjiri1684/studio_booking/models"
)

func TestNewSessionConfig(t *testing.T) {
	tests := []struct {
		name      string
		session   models.SessionType
		opts      Options
		want      SessionConfig
		wantField string
	}{
		{"karaoke", models.SessionKaraoke, Options{KaraokeOption: "11_20"}, KaraokeConfig{Participants: "11_20"}, ""},
		{"live", models.SessionLive, Options{LiveOption: "1_5"}, LiveConfig{Participants: "1_5"}, ""},
		{"band", models.SessionBand, Options{BandEquipment: "drums_amps"}, BandConfig{Equipment: "drums_amps"}, ""},
		{"recording", models.SessionRecording, Options{RecordingOption: "audio"}, RecordingConfig{Mode: "audio"}, ""},
		{"missing option", models.SessionKaraoke, Options{}, nil, "karaoke_option"},
		{"unknown option", models.SessionBand, Options{BandEquipment: "tuba"}, nil, "band_equipment"},
		{"stray option", models.SessionKaraoke, Options{KaraokeOption: "1_10", RecordingOption: "audio"}, nil, "recording_option"},
		{"unknown session", models.SessionType("podcast"), Options{}, nil, "session_type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewSessionConfig(tt.session, tt.opts)
			if tt.wantField == "" {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
				assert.Equal(t, tt.opts, got.Options())
				return
			}
			var optErr *OptionError
			require.True(t, errors.As(err, &optErr), "got %v", err)
			assert.Equal(t, tt.wantField, optErr.Field)
		})
	}
}

func TestValidateGroupSize(t *testing.T) {
	karaoke := KaraokeConfig{Participants: "21_30"}
	assert.NoError(t, ValidateGroupSize(karaoke, 25))
	assert.Error(t, ValidateGroupSize(karaoke, 20))
	assert.Error(t, ValidateGroupSize(karaoke, 31))

	band := BandConfig{Equipment: "full"}
	assert.NoError(t, ValidateGroupSize(band, 12))
	assert.Error(t, ValidateGroupSize(band, 0))
}

func TestDetails(t *testing.T) {
	assert.Equal(t, "Karaoke (21-30 participants)", KaraokeConfig{Participants: "21_30"}.Details())
	assert.Equal(t, "Band (full equipment)", BandConfig{Equipment: "full"}.Details())
	assert.Equal(t, "Recording (audio and video)", RecordingConfig{Mode: "audio_video"}.Details())
}
