package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const flightColumns = `id, from_city, to_city, flight_date, duration, airline, price, total_seats, available_seats, booked_seats, created_at, updated_at`

type PGFlightRepository struct {
	db *pgxpool.Pool
}

func NewFlightRepository(db *pgxpool.Pool) FlightRepository {
	return &PGFlightRepository{db: db}
}

func (r *PGFlightRepository) List(ctx context.Context) ([]domain.Flight, error) {
	rows, err := r.db.Query(ctx, `SELECT `+flightColumns+` FROM flights ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	flights := make([]domain.Flight, 0)
	for rows.Next() {
		f, err := scanFlight(rows)
		if err != nil {
			return nil, err
		}
		flights = append(flights, *f)
	}
	return flights, rows.Err()
}

func (r *PGFlightRepository) GetByID(ctx context.Context, id int64) (*domain.Flight, error) {
	return scanFlight(r.db.QueryRow(ctx, `SELECT `+flightColumns+` FROM flights WHERE id=$1`, id))
}

func (r *PGFlightRepository) Create(ctx context.Context, f *domain.Flight) error {
	return r.db.QueryRow(ctx, `INSERT INTO flights (from_city, to_city, flight_date, duration, airline, price, total_seats, available_seats, booked_seats)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at`,
		f.From, f.To, f.Date, f.Duration, f.Airline, f.Price, f.TotalSeats, f.AvailableSeats, toInt32s(f.BookedSeats)).
		Scan(&f.ID, &f.CreatedAt, &f.UpdatedAt)
}

func (r *PGFlightRepository) Update(ctx context.Context, f *domain.Flight) error {
	return updateFlight(ctx, r.db, f)
}

func (r *PGFlightRepository) Delete(ctx context.Context, id int64) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM flights WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

type queryRower interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// updateFlight runs against the pool or an open transaction.
func updateFlight(ctx context.Context, q queryRower, f *domain.Flight) error {
	err := q.QueryRow(ctx, `UPDATE flights
		SET from_city=$2, to_city=$3, flight_date=$4, duration=$5, airline=$6, price=$7,
			total_seats=$8, available_seats=$9, booked_seats=$10, updated_at=now()
		WHERE id=$1
		RETURNING updated_at`,
		f.ID, f.From, f.To, f.Date, f.Duration, f.Airline, f.Price, f.TotalSeats, f.AvailableSeats, toInt32s(f.BookedSeats)).
		Scan(&f.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// scanFlight rejects rows whose ledger does not hold together instead of
// patching them up.
func scanFlight(row pgx.Row) (*domain.Flight, error) {
	var (
		f      domain.Flight
		booked []int32
	)
	if err := row.Scan(&f.ID, &f.From, &f.To, &f.Date, &f.Duration, &f.Airline, &f.Price,
		&f.TotalSeats, &f.AvailableSeats, &booked, &f.CreatedAt, &f.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	f.BookedSeats = fromInt32s(booked)
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("malformed flight record: %w", err)
	}
	return &f, nil
}

func toInt32s(in []int) []int32 {
	out := make([]int32, len(in))
	for i, v := range in {
		out[i] = int32(v)
	}
	return out
}

func fromInt32s(in []int32) []int {
	out := make([]int, len(in))
	for i, v := range in {
		out[i] = int(v)
	}
	return out
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ FlightRepository = (*PGFlightRepository)(nil)
