package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	ErrNotFound = errors.New("record not found")
	// ErrConflict means a concurrent write won the race: serialization failure or unique violation.
	ErrConflict = errors.New("concurrent write conflict")
	// ErrStaleStatus means the row's status changed between read and conditional update.
	ErrStaleStatus = errors.New("booking status changed concurrently")
)

type Store interface {
	Bookings() BookingRepository
	Slots() SlotRepository
	Verifications() VerificationRepository
	// Atomic runs fn in one transaction. Active-booking reads inside it lock the rows they return.
	Atomic(ctx context.Context, fn func(tx Store) error) error
}

type GormStore struct {
	db     *gorm.DB
	txOpts *sql.TxOptions
	inTx   bool
}

type Option func(*GormStore)

// WithIsolation sets the isolation level Atomic opens transactions with.
func WithIsolation(level sql.IsolationLevel) Option {
	return func(s *GormStore) {
		s.txOpts = &sql.TxOptions{Isolation: level}
	}
}

func NewGormStore(db *gorm.DB, opts ...Option) *GormStore {
	s := &GormStore{db: db}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *GormStore) Bookings() BookingRepository {
	return &GormBookingRepository{db: s.db, lock: s.inTx}
}

func (s *GormStore) Slots() SlotRepository {
	return &GormSlotRepository{db: s.db}
}

func (s *GormStore) Verifications() VerificationRepository {
	return &GormVerificationRepository{db: s.db}
}

func (s *GormStore) Atomic(ctx context.Context, fn func(tx Store) error) error {
	if s.inTx {
		return fn(s)
	}

	run := func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx, txOpts: s.txOpts, inTx: true})
	}

	var err error
	if s.txOpts != nil {
		err = s.db.WithContext(ctx).Transaction(run, s.txOpts)
	} else {
		err = s.db.WithContext(ctx).Transaction(run)
	}
	return translate(err)
}

// translate maps driver errors onto repository sentinels, leaving everything else untouched.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrConflict
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01", "23505":
			return ErrConflict
		}
	}
	return err
}
