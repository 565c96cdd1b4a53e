package notifications

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anjiri1684/studio_booking/models"
)

func newTestBrevo(t *testing.T, status int) (*BrevoService, *[]brevoPayload) {
	t.Helper()
	var sent []brevoPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("api-key"))
		var p brevoPayload
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&p))
		sent = append(sent, p)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"messageId":"1"}`))
	}))
	t.Cleanup(srv.Close)

	s := NewBrevoService("test-key", "studio@example.com", "Studio", "admin@example.com")
	require.NotNil(t, s)
	s.endpoint = srv.URL
	return s, &sent
}

func TestNewBrevoService_Unconfigured(t *testing.T) {
	s := NewBrevoService("", "studio@example.com", "Studio", "")
	assert.Nil(t, s)
	assert.NoError(t, s.Notify(context.Background(), Event{Type: EventBookingCreated}))
}

func TestBrevoService_BookingCreatedMailsCustomerAndAdmin(t *testing.T) {
	s, sent := newTestBrevo(t, http.StatusCreated)

	b := &models.Booking{
		Name:             "Asha",
		Email:            "asha@example.com",
		Studio:           models.StudioB,
		Date:             "2024-01-10",
		StartTime:        models.ClockAt(10, 0),
		EndTime:          models.ClockAt(12, 0),
		ConfirmationCode: "AB12CD34",
	}
	require.NoError(t, s.Notify(context.Background(), Event{Type: EventBookingCreated, Booking: b}))

	require.Len(t, *sent, 2)
	assert.Equal(t, "asha@example.com", (*sent)[0].To[0]["email"])
	assert.Contains(t, (*sent)[0].HTMLContent, "AB12CD34")
	assert.Contains(t, (*sent)[0].HTMLContent, "10:00 to 12:00")
	assert.Equal(t, "admin@example.com", (*sent)[1].To[0]["email"])
	assert.Equal(t, "admin", (*sent)[1].To[0]["name"])
}

func TestBrevoService_SkipsIrrelevantEvents(t *testing.T) {
	s, sent := newTestBrevo(t, http.StatusCreated)

	pending := &models.Booking{Email: "asha@example.com", Status: models.BookingCompleted}
	require.NoError(t, s.Notify(context.Background(), Event{Type: EventBookingStatusChanged, Booking: pending}))
	require.NoError(t, s.Notify(context.Background(), Event{Type: EventSlotChanged, Slot: &models.AvailabilitySlot{}}))
	require.NoError(t, s.Notify(context.Background(), Event{Type: EventCompletionDigest}))

	assert.Empty(t, *sent)
}

func TestBrevoService_APIErrorIsReturned(t *testing.T) {
	s, _ := newTestBrevo(t, http.StatusBadRequest)

	err := s.Notify(context.Background(), Event{
		Type:     EventCompletionDigest,
		Bookings: []models.Booking{{Name: "Asha", Studio: models.StudioA, Date: "2024-01-10"}},
	})
	assert.ErrorContains(t, err, "failed to send email via Brevo")
}

func TestBrevoService_RejectsInvalidRecipient(t *testing.T) {
	s, _ := newTestBrevo(t, http.StatusCreated)
	err := s.send(context.Background(), "not-an-email", "", "subject", "body")
	assert.ErrorContains(t, err, "invalid recipient email")
}
