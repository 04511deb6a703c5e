package flights

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/Domenick1991/flightbooking/internal/lock"
	"github.com/Domenick1991/flightbooking/internal/repository"
	"github.com/sirupsen/logrus"
)

type FlightUseCase interface {
	List(ctx context.Context, filter Filter) ([]domain.Flight, error)
	GetByID(ctx context.Context, id int64) (*domain.Flight, error)
	Create(ctx context.Context, input domain.FlightInput) (*domain.Flight, error)
	Update(ctx context.Context, id int64, patch domain.FlightPatch) (*domain.Flight, error)
	Delete(ctx context.Context, id int64) error
}

type Filter struct {
	From string
	To   string
	Date string
}

type FlightCache interface {
	GetFlights(ctx context.Context) ([]domain.Flight, error)
	SetFlights(ctx context.Context, flights []domain.Flight) error
	InvalidateFlights(ctx context.Context) error
}

type ActiveBookings interface {
	CountActiveByFlight(ctx context.Context, flightID int64) (int, error)
}

// FlightService is the flight catalog. Every change to a flight, whether an
// admin edit or a seat reservation, runs under that flight's lock.
type FlightService struct {
	repo     repository.FlightRepository
	bookings ActiveBookings
	cache    FlightCache
	locks    *lock.Keyed[int64]
	log      logrus.FieldLogger

	// generation counts invalidations; a list read from the repository is
	// cached only if no invalidation happened while it was being read.
	generation atomic.Uint64
}

func NewFlightService(repo repository.FlightRepository, bookings ActiveBookings, cache FlightCache, log logrus.FieldLogger) *FlightService {
	return &FlightService{
		repo:     repo,
		bookings: bookings,
		cache:    cache,
		locks:    lock.NewKeyed[int64](),
		log:      log,
	}
}

func (s *FlightService) List(ctx context.Context, filter Filter) ([]domain.Flight, error) {
	all, err := s.listAll(ctx)
	if err != nil {
		return nil, err
	}
	if filter == (Filter{}) {
		return all, nil
	}

	matched := make([]domain.Flight, 0, len(all))
	for i := range all {
		if all[i].Matches(filter.From, filter.To, filter.Date) {
			matched = append(matched, all[i])
		}
	}
	return matched, nil
}

func (s *FlightService) listAll(ctx context.Context) ([]domain.Flight, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetFlights(ctx); err == nil && cached != nil {
			return cached, nil
		} else if err != nil {
			s.log.WithError(err).Warn("flight cache read failed")
		}
	}

	gen := s.generation.Load()
	flights, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil && s.generation.Load() == gen {
		if err := s.cache.SetFlights(ctx, flights); err != nil {
			s.log.WithError(err).Warn("flight cache write failed")
		}
		// A mutation that slipped in after the check may have invalidated
		// before the write landed.
		if s.generation.Load() != gen {
			s.invalidate(ctx)
		}
	}
	return flights, nil
}

func (s *FlightService) GetByID(ctx context.Context, id int64) (*domain.Flight, error) {
	f, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, domain.ErrFlightNotFound
	}
	return f, err
}

func (s *FlightService) Create(ctx context.Context, input domain.FlightInput) (*domain.Flight, error) {
	f, err := domain.NewFlight(input)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, f); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	s.log.WithField("flight_id", f.ID).Info("flight created")
	return f, nil
}

func (s *FlightService) Update(ctx context.Context, id int64, patch domain.FlightPatch) (*domain.Flight, error) {
	var updated *domain.Flight
	err := s.WithLedger(ctx, id, func(f *domain.Flight) error {
		if err := f.Apply(patch); err != nil {
			return err
		}
		if err := s.repo.Update(ctx, f); err != nil {
			return err
		}
		updated = f
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(updated.BookedSeats) > updated.TotalSeats {
		s.log.WithFields(logrus.Fields{
			"flight_id":   id,
			"total_seats": updated.TotalSeats,
			"booked":      len(updated.BookedSeats),
		}).Warn("capacity below reserved seats, availability clamped to zero")
	}
	return updated, nil
}

// Delete removes a flight that no confirmed booking references.
func (s *FlightService) Delete(ctx context.Context, id int64) error {
	return s.WithLedger(ctx, id, func(f *domain.Flight) error {
		active, err := s.bookings.CountActiveByFlight(ctx, id)
		if err != nil {
			return err
		}
		if active > 0 {
			return domain.ErrFlightHasBookings
		}
		if err := s.repo.Delete(ctx, id); err != nil {
			return err
		}
		s.log.WithField("flight_id", id).Info("flight deleted")
		return nil
	})
}

// WithLedger loads a fresh copy of the flight and runs fn while holding the
// flight's lock. fn must persist its changes before returning; the cached
// flight list is dropped when fn succeeds.
func (s *FlightService) WithLedger(ctx context.Context, id int64, fn func(f *domain.Flight) error) error {
	unlock := s.locks.Lock(id)
	defer unlock()

	f, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.ErrFlightNotFound
		}
		return err
	}
	if err := fn(f); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *FlightService) invalidate(ctx context.Context) {
	s.generation.Add(1)
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateFlights(ctx); err != nil {
		s.log.WithError(err).Warn("flight cache invalidation failed")
	}
}

var _ FlightUseCase = (*FlightService)(nil)
