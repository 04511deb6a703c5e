package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

type Flight struct {
	ID             int64     `json:"id"`
	From           string    `json:"from"`
	To             string    `json:"to"`
	Date           string    `json:"date"`
	Duration       string    `json:"duration"`
	Airline        string    `json:"airline"`
	Price          float64   `json:"price"`
	TotalSeats     int       `json:"totalSeats"`
	AvailableSeats int       `json:"seats"`
	BookedSeats    []int     `json:"bookedSeats"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Reserve adds seats to the reserved set. Nothing changes unless every seat
// passes validation; empty selection is checked first, then range, then conflicts.
func (f *Flight) Reserve(seats []int) error {
	if len(seats) == 0 {
		return ErrNoSeatsSelected
	}
	for _, s := range seats {
		if s < 1 || s > f.TotalSeats {
			return ErrInvalidSeatNumber
		}
	}
	booked := f.bookedSet()
	for _, s := range seats {
		if _, taken := booked[s]; taken {
			return ErrSeatConflict
		}
	}

	for _, s := range seats {
		if _, dup := booked[s]; dup {
			continue
		}
		booked[s] = struct{}{}
		f.BookedSeats = append(f.BookedSeats, s)
	}
	sort.Ints(f.BookedSeats)
	f.recount()
	return nil
}

// Release drops seats from the reserved set. Seats that are not reserved are ignored.
func (f *Flight) Release(seats []int) {
	if len(seats) == 0 {
		return
	}
	drop := make(map[int]struct{}, len(seats))
	for _, s := range seats {
		drop[s] = struct{}{}
	}
	kept := f.BookedSeats[:0]
	for _, s := range f.BookedSeats {
		if _, ok := drop[s]; !ok {
			kept = append(kept, s)
		}
	}
	f.BookedSeats = kept
	f.recount()
}

// ResizeCapacity sets the total seat count. Shrinking below the number of
// reserved seats is accepted; availability then clamps to zero and existing
// reservations are kept.
func (f *Flight) ResizeCapacity(total int) {
	f.TotalSeats = total
	f.recount()
}

func (f *Flight) IsBooked(seat int) bool {
	for _, s := range f.BookedSeats {
		if s == seat {
			return true
		}
	}
	return false
}

// Validate checks a flight decoded from storage. Malformed records are
// reported, not repaired.
func (f *Flight) Validate() error {
	if f.TotalSeats < 0 {
		return fmt.Errorf("flight %d: negative totalSeats %d", f.ID, f.TotalSeats)
	}
	seen := make(map[int]struct{}, len(f.BookedSeats))
	for _, s := range f.BookedSeats {
		if s < 1 {
			return fmt.Errorf("flight %d: invalid booked seat %d", f.ID, s)
		}
		if _, dup := seen[s]; dup {
			return fmt.Errorf("flight %d: seat %d booked twice", f.ID, s)
		}
		seen[s] = struct{}{}
	}
	if want := availableFor(f.TotalSeats, len(f.BookedSeats)); f.AvailableSeats != want {
		return fmt.Errorf("flight %d: seats=%d, expected %d", f.ID, f.AvailableSeats, want)
	}
	return nil
}

// Clone returns a deep copy so callers never share the reserved slice.
func (f *Flight) Clone() *Flight {
	c := *f
	c.BookedSeats = append([]int(nil), f.BookedSeats...)
	return &c
}

func (f *Flight) Matches(from, to, date string) bool {
	if from != "" && !strings.EqualFold(f.From, from) {
		return false
	}
	if to != "" && !strings.EqualFold(f.To, to) {
		return false
	}
	if date != "" && f.Date != date {
		return false
	}
	return true
}

func (f *Flight) bookedSet() map[int]struct{} {
	set := make(map[int]struct{}, len(f.BookedSeats))
	for _, s := range f.BookedSeats {
		set[s] = struct{}{}
	}
	return set
}

func (f *Flight) recount() {
	f.AvailableSeats = availableFor(f.TotalSeats, len(f.BookedSeats))
}

func availableFor(total, booked int) int {
	if n := total - booked; n > 0 {
		return n
	}
	return 0
}

// NewFlight builds a flight with an empty ledger.
func NewFlight(in FlightInput) (*Flight, error) {
	if strings.TrimSpace(in.From) == "" || strings.TrimSpace(in.To) == "" ||
		strings.TrimSpace(in.Date) == "" || strings.TrimSpace(in.Duration) == "" ||
		strings.TrimSpace(in.Airline) == "" {
		return nil, ErrMissingFlightFields
	}
	if in.Price <= 0 {
		return nil, ErrInvalidPrice
	}
	if in.TotalSeats <= 0 {
		return nil, ErrInvalidCapacity
	}
	f := &Flight{
		From:        strings.TrimSpace(in.From),
		To:          strings.TrimSpace(in.To),
		Date:        strings.TrimSpace(in.Date),
		Duration:    strings.TrimSpace(in.Duration),
		Airline:     strings.TrimSpace(in.Airline),
		Price:       in.Price,
		TotalSeats:  in.TotalSeats,
		BookedSeats: []int{},
	}
	f.recount()
	return f, nil
}

type FlightInput struct {
	From       string  `json:"from"`
	To         string  `json:"to"`
	Date       string  `json:"date"`
	Duration   string  `json:"duration"`
	Airline    string  `json:"airline"`
	Price      float64 `json:"price"`
	TotalSeats int     `json:"totalSeats"`
}

// FlightPatch carries an administrative edit. Nil fields are left unchanged.
// Availability is never taken from the client.
type FlightPatch struct {
	From       *string  `json:"from"`
	To         *string  `json:"to"`
	Date       *string  `json:"date"`
	Duration   *string  `json:"duration"`
	Airline    *string  `json:"airline"`
	Price      *float64 `json:"price"`
	TotalSeats *int     `json:"totalSeats"`
}

func (f *Flight) Apply(p FlightPatch) error {
	for _, s := range []*string{p.From, p.To, p.Date, p.Duration, p.Airline} {
		if s != nil && strings.TrimSpace(*s) == "" {
			return ErrMissingFlightFields
		}
	}
	if p.Price != nil && *p.Price <= 0 {
		return ErrInvalidPrice
	}
	if p.TotalSeats != nil && *p.TotalSeats <= 0 {
		return ErrInvalidCapacity
	}

	if p.From != nil {
		f.From = strings.TrimSpace(*p.From)
	}
	if p.To != nil {
		f.To = strings.TrimSpace(*p.To)
	}
	if p.Date != nil {
		f.Date = strings.TrimSpace(*p.Date)
	}
	if p.Duration != nil {
		f.Duration = strings.TrimSpace(*p.Duration)
	}
	if p.Airline != nil {
		f.Airline = strings.TrimSpace(*p.Airline)
	}
	if p.Price != nil {
		f.Price = *p.Price
	}
	if p.TotalSeats != nil {
		f.ResizeCapacity(*p.TotalSeats)
	}
	f.recount()
	return nil
}
