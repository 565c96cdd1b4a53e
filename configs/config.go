package config

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

var loadEnvOnce sync.Once

func loadEnv() {
	loadEnvOnce.Do(func() {
		if err := godotenv.Load(".env"); err != nil {
			log.Println("Warning: .env file not found, reading from system environment variables")
		}
	})
}

// AppConfig is the typed view of the environment the service runs with.
type AppConfig struct {
	Port        string `envconfig:"PORT" default:"8080"`
	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`
	DBMaxOpen   int    `envconfig:"DB_MAX_OPEN_CONNS" default:"10"`
	JWTSecret   string `envconfig:"JWT_SECRET" required:"true"`

	StudioTimezone string `envconfig:"STUDIO_TIMEZONE" default:"Asia/Kolkata"`
	OpenHour       int    `envconfig:"STUDIO_OPEN_HOUR" default:"8"`
	CloseHour      int    `envconfig:"STUDIO_CLOSE_HOUR" default:"24"`

	// Self-service bookings start pending (admin confirms) or confirmed (instant).
	CustomerInitialStatus string `envconfig:"CUSTOMER_INITIAL_STATUS" default:"pending"`
	AdminInitialStatus    string `envconfig:"ADMIN_INITIAL_STATUS" default:"confirmed"`

	BrevoAPIKey      string `envconfig:"BREVO_API_KEY"`
	EmailSender      string `envconfig:"EMAIL_SENDER"`
	EmailSenderName  string `envconfig:"EMAIL_SENDER_NAME" default:"Studio Booking"`
	AdminNotifyEmail string `envconfig:"ADMIN_NOTIFY_EMAIL"`

	RabbitURL       string `envconfig:"RABBIT_URL"`
	BookingExchange string `envconfig:"BOOKING_EXCHANGE" default:"booking.exchange"`

	OTPTTLMinutes int `envconfig:"OTP_TTL_MINUTES" default:"10"`
}

func Load() (*AppConfig, error) {
	loadEnv()

	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *AppConfig) validate() error {
	if c.OpenHour < 0 || c.CloseHour > 24 || c.OpenHour >= c.CloseHour {
		return fmt.Errorf("invalid studio hours: open=%d close=%d", c.OpenHour, c.CloseHour)
	}
	for _, s := range []string{c.CustomerInitialStatus, c.AdminInitialStatus} {
		if s != "pending" && s != "confirmed" {
			return fmt.Errorf("invalid initial booking status %q: must be pending or confirmed", s)
		}
	}
	if _, err := time.LoadLocation(c.StudioTimezone); err != nil {
		return fmt.Errorf("invalid STUDIO_TIMEZONE %q: %w", c.StudioTimezone, err)
	}
	return nil
}

func (c *AppConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.StudioTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *AppConfig) OTPTTL() time.Duration {
	return time.Duration(c.OTPTTLMinutes) * time.Minute
}
