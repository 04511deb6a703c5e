// Package repository holds the storage interfaces used by the services and
// their in-memory and PostgreSQL implementations. Identifiers are assigned
// here: flights get a monotonic sequence, bookings and messages a UUID.
package repository

import (
	"context"
	"errors"

	"github.com/Domenick1991/flightbooking/internal/domain"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
)

type FlightRepository interface {
	List(ctx context.Context) ([]domain.Flight, error)
	GetByID(ctx context.Context, id int64) (*domain.Flight, error)
	Create(ctx context.Context, flight *domain.Flight) error
	Update(ctx context.Context, flight *domain.Flight) error
	Delete(ctx context.Context, id int64) error
}

// BookingRepository writes a booking together with the ledger of its flight
// so a reservation never exists without its booking or the other way round.
type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking, flight *domain.Flight) error
	GetByID(ctx context.Context, id string) (*domain.Booking, error)
	List(ctx context.Context, userEmail string) ([]domain.Booking, error)
	CountActiveByFlight(ctx context.Context, flightID int64) (int, error)
	// Cancel stores the canceled booking and, when flight is not nil, its released ledger.
	Cancel(ctx context.Context, booking *domain.Booking, flight *domain.Flight) error
	UpdatePayment(ctx context.Context, booking *domain.Booking) error
}

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByVerificationToken(ctx context.Context, token string) (*domain.User, error)
	MarkVerified(ctx context.Context, id int64) error
}

type MessageRepository interface {
	Create(ctx context.Context, msg *domain.Message) error
	List(ctx context.Context) ([]domain.Message, error)
	Delete(ctx context.Context, id string) error
}
