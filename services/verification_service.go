package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/anjiri1684/studio_booking/metrics"
	"github.com/anjiri1684/studio_booking/models"
	"github.com/anjiri1684/studio_booking/notifications"
	"github.com/anjiri1684/studio_booking/repository"
	"github.com/anjiri1684/studio_booking/utils"
)

const (
	otpLength      = 6
	otpMaxAttempts = 5
)

// VerificationService issues one-time codes to a phone and checks them. Only bcrypt hashes
// are stored; delivery is left to whatever consumes the verification.code event.
type VerificationService struct {
	store    repository.Store
	notifier notifications.Notifier
	ttl      time.Duration
	cost     int
	now      func() time.Time
}

func NewVerificationService(store repository.Store, notifier notifications.Notifier, ttl time.Duration) *VerificationService {
	return &VerificationService{
		store:    store,
		notifier: notifier,
		ttl:      ttl,
		cost:     bcrypt.DefaultCost,
		now:      time.Now,
	}
}

func (s *VerificationService) Send(ctx context.Context, phone string) error {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return &ValidationError{Field: "phone", Message: "is required"}
	}

	code, err := utils.RandomCode(otpLength, "0123456789")
	if err != nil {
		return fmt.Errorf("generate code: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), s.cost)
	if err != nil {
		return fmt.Errorf("hash code: %w", err)
	}

	now := s.now()
	v := &models.VerificationCode{
		Phone:     phone,
		CodeHash:  string(hash),
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.store.Verifications().Create(ctx, v); err != nil {
		return fmt.Errorf("store code: %w", err)
	}

	if s.notifier != nil {
		e := notifications.Event{Type: notifications.EventVerificationCode, Phone: phone, Code: code, OccurredAt: now}
		if err := s.notifier.Notify(ctx, e); err != nil {
			return fmt.Errorf("deliver code: %w", err)
		}
	}
	log.Printf("✅ Verification code issued for %s", maskPhone(phone))
	return nil
}

// Verify consumes the newest outstanding code for phone if code matches it.
func (s *VerificationService) Verify(ctx context.Context, phone, code string) error {
	id, err := s.Check(ctx, phone, code)
	if err != nil {
		return err
	}
	return s.Consume(ctx, s.store, id)
}

// Check matches code against the newest outstanding code for phone without consuming it.
// A mismatch is counted against the code's attempt limit.
func (s *VerificationService) Check(ctx context.Context, phone, code string) (uuid.UUID, error) {
	phone = strings.TrimSpace(phone)
	v, err := s.store.Verifications().Latest(ctx, phone)
	if errors.Is(err, repository.ErrNotFound) {
		metrics.RecordVerification("missing")
		return uuid.Nil, &VerificationError{Message: "no verification code was requested for this phone"}
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("load code: %w", err)
	}

	if s.now().After(v.ExpiresAt) {
		metrics.RecordVerification("expired")
		return uuid.Nil, &VerificationError{Message: "verification code expired, please request a new one"}
	}
	if v.Attempts >= otpMaxAttempts {
		metrics.RecordVerification("exhausted")
		return uuid.Nil, &VerificationError{Message: "too many attempts, please request a new code"}
	}
	if err := bcrypt.CompareHashAndPassword([]byte(v.CodeHash), []byte(strings.TrimSpace(code))); err != nil {
		if err := s.store.Verifications().RecordAttempt(ctx, v.ID); err != nil {
			log.Printf("⚠️ Failed to record verification attempt: %v", err)
		}
		metrics.RecordVerification("invalid")
		return uuid.Nil, &VerificationError{Message: "invalid verification code"}
	}
	return v.ID, nil
}

// Consume marks a checked code used through tx, so it is restored if tx rolls back.
func (s *VerificationService) Consume(ctx context.Context, tx repository.Store, id uuid.UUID) error {
	if err := tx.Verifications().Consume(ctx, id, s.now()); err != nil {
		if errors.Is(err, repository.ErrStaleStatus) {
			metrics.RecordVerification("reused")
			return &VerificationError{Message: "verification code already used"}
		}
		return fmt.Errorf("consume code: %w", err)
	}
	metrics.RecordVerification("verified")
	return nil
}

func maskPhone(phone string) string {
	if len(phone) <= 4 {
		return "****"
	}
	return strings.Repeat("*", len(phone)-4) + phone[len(phone)-4:]
}
