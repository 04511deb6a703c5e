package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const bookingColumns = `id, flight_id, user_email, name, email, passengers, seats, meal, insurance, upgrade,
	base_price, extra_price, total_price, status, payment_status, payment_method, payment_last4, paid_at, created_at, canceled_at`

type PGBookingRepository struct {
	db *pgxpool.Pool
}

func NewBookingRepository(db *pgxpool.Pool) BookingRepository {
	return &PGBookingRepository{db: db}
}

func (r *PGBookingRepository) Create(ctx context.Context, b *domain.Booking, f *domain.Flight) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := updateFlight(ctx, tx, f); err != nil {
		return err
	}

	b.ID = uuid.NewString()
	if _, err := tx.Exec(ctx, `INSERT INTO bookings (id, flight_id, user_email, name, email, passengers, seats, meal, insurance, upgrade,
			base_price, extra_price, total_price, status, payment_status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		b.ID, b.FlightID, b.UserEmail, b.Name, b.Email, b.Passengers, toInt32s(b.Seats),
		b.Extras.Meal, b.Extras.Insurance, b.Extras.Upgrade,
		b.BasePrice, b.ExtraPrice, b.TotalPrice, b.Status, b.PaymentStatus, b.CreatedAt); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *PGBookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	return scanBooking(r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id=$1`, id))
}

func (r *PGBookingRepository) List(ctx context.Context, userEmail string) ([]domain.Booking, error) {
	rows, err := r.db.Query(ctx, `SELECT `+bookingColumns+` FROM bookings
		WHERE $1 = '' OR lower(user_email) = lower($1)
		ORDER BY created_at DESC`, userEmail)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookings := make([]domain.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

func (r *PGBookingRepository) CountActiveByFlight(ctx context.Context, flightID int64) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT count(*) FROM bookings WHERE flight_id=$1 AND status=$2`,
		flightID, domain.BookingStatusConfirmed).Scan(&n)
	return n, err
}

func (r *PGBookingRepository) Cancel(ctx context.Context, b *domain.Booking, f *domain.Flight) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if f != nil {
		if err := updateFlight(ctx, tx, f); err != nil {
			return err
		}
	}

	cmd, err := tx.Exec(ctx, `UPDATE bookings SET status=$2, canceled_at=$3 WHERE id=$1`, b.ID, b.Status, b.CanceledAt)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}

	return tx.Commit(ctx)
}

func (r *PGBookingRepository) UpdatePayment(ctx context.Context, b *domain.Booking) error {
	var method, last4 *string
	var paidAt *time.Time
	if b.PaymentInfo != nil {
		method = &b.PaymentInfo.Method
		last4 = b.PaymentInfo.Last4
		paidAt = &b.PaymentInfo.PaidAt
	}

	cmd, err := r.db.Exec(ctx, `UPDATE bookings SET payment_status=$2, payment_method=$3, payment_last4=$4, paid_at=$5 WHERE id=$1`,
		b.ID, b.PaymentStatus, method, last4, paidAt)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var (
		b      domain.Booking
		seats  []int32
		method *string
		last4  *string
		paidAt *time.Time
	)
	if err := row.Scan(&b.ID, &b.FlightID, &b.UserEmail, &b.Name, &b.Email, &b.Passengers, &seats,
		&b.Extras.Meal, &b.Extras.Insurance, &b.Extras.Upgrade,
		&b.BasePrice, &b.ExtraPrice, &b.TotalPrice, &b.Status, &b.PaymentStatus,
		&method, &last4, &paidAt, &b.CreatedAt, &b.CanceledAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	b.Seats = fromInt32s(seats)
	if method != nil && paidAt != nil {
		b.PaymentInfo = &domain.PaymentInfo{Method: *method, Last4: last4, PaidAt: *paidAt}
	}
	return &b, nil
}

var _ BookingRepository = (*PGBookingRepository)(nil)
