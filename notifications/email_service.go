package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/anjiri1684/studio_booking/models"
)

const brevoEndpoint = "https://api.brevo.com/v3/smtp/email"

type BrevoService struct {
	APIKey      string
	SenderEmail string
	SenderName  string
	// AdminEmail receives new-booking alerts and the completion digest.
	AdminEmail string

	endpoint string
	client   *http.Client
}

type brevoPayload struct {
	Sender      map[string]string   `json:"sender"`
	To          []map[string]string `json:"to"`
	Subject     string              `json:"subject"`
	HTMLContent string              `json:"htmlContent"`
}

// NewBrevoService returns nil when the API key or sender is missing.
func NewBrevoService(apiKey, senderEmail, senderName, adminEmail string) *BrevoService {
	if apiKey == "" || senderEmail == "" {
		log.Println("⚠️ Email service not configured. Missing API Key or Sender Email.")
		return nil
	}
	log.Println("✅ Email service initialized successfully.")
	return &BrevoService{
		APIKey:      apiKey,
		SenderEmail: senderEmail,
		SenderName:  senderName,
		AdminEmail:  adminEmail,
		endpoint:    brevoEndpoint,
		client:      &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *BrevoService) send(ctx context.Context, toEmail, toName, subject, htmlContent string) error {
	if toEmail == "" || !strings.Contains(toEmail, "@") {
		return fmt.Errorf("invalid recipient email: %s", toEmail)
	}

	recipientName := toName
	if recipientName == "" {
		recipientName = toEmail[:strings.Index(toEmail, "@")]
	}

	payload := brevoPayload{
		Sender:      map[string]string{"name": s.SenderName, "email": s.SenderEmail},
		To:          []map[string]string{{"email": toEmail, "name": recipientName}},
		Subject:     subject,
		HTMLContent: htmlContent,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("accept", "application/json")
	req.Header.Set("api-key", s.APIKey)
	req.Header.Set("content-type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusCreated {
		log.Printf("Brevo API error: Status %d, Body: %s", resp.StatusCode, string(bodyBytes))
		return fmt.Errorf("failed to send email via Brevo: %s", string(bodyBytes))
	}

	log.Printf("✅ Email sent successfully to %s", toEmail)
	return nil
}

// Notify mails the customer and the admin inbox for the events they care about.
// Events without an email recipient are ignored.
func (s *BrevoService) Notify(ctx context.Context, e Event) error {
	if s == nil {
		return nil
	}
	switch e.Type {
	case EventBookingCreated:
		b := e.Booking
		if b.Email != "" {
			if err := s.send(ctx, b.Email, b.Name, "Your studio booking "+b.ConfirmationCode, bookingBody("Booking received", b)); err != nil {
				return err
			}
		}
		if s.AdminEmail != "" {
			return s.send(ctx, s.AdminEmail, "", "New booking "+b.ConfirmationCode, bookingBody("New booking", b))
		}
	case EventBookingStatusChanged:
		b := e.Booking
		if b.Email == "" || (b.Status != models.BookingConfirmed && b.Status != models.BookingCancelled) {
			return nil
		}
		title := "Booking " + string(b.Status)
		return s.send(ctx, b.Email, b.Name, "Your studio booking is "+string(b.Status), bookingBody(title, b))
	case EventBookingRescheduled:
		b := e.Booking
		if b.Email != "" {
			return s.send(ctx, b.Email, b.Name, "Your studio booking was moved", bookingBody("Booking rescheduled", b))
		}
	case EventSessionReminder:
		b := e.Booking
		if b.Email != "" {
			return s.send(ctx, b.Email, b.Name, "Reminder: your session starts in 1 hour", bookingBody("Session reminder", b))
		}
	case EventCompletionDigest:
		if s.AdminEmail != "" && len(e.Bookings) > 0 {
			return s.send(ctx, s.AdminEmail, "", fmt.Sprintf("%d bookings need completion", len(e.Bookings)), digestBody(e.Bookings))
		}
	}
	return nil
}

func bookingBody(title string, b *models.Booking) string {
	return fmt.Sprintf(
		"<h1>%s</h1><p>Hi %s,</p><p><b>%s</b> on %s, %s to %s</p><p>%s</p><p>Confirmation code: <b>%s</b><br>Total: ₹%.2f</p>",
		title, b.Name, b.Studio, b.Date, b.StartTime, b.EndTime, b.SessionDetails, b.ConfirmationCode, b.TotalAmount,
	)
}

func digestBody(bookings []models.Booking) string {
	var sb strings.Builder
	sb.WriteString("<h1>Bookings needing completion</h1><ul>")
	for _, b := range bookings {
		fmt.Fprintf(&sb, "<li>%s %s %s: %s (%s), %s</li>", b.Studio, b.Date, b.Range(), b.Name, b.Phone, b.Status)
	}
	sb.WriteString("</ul>")
	return sb.String()
}
