package domain

import "time"

type BookingStatus string

const (
	BookingStatusConfirmed BookingStatus = "Confirmed"
	BookingStatusCanceled  BookingStatus = "Canceled"
)

type PaymentStatus string

const (
	PaymentStatusUnpaid PaymentStatus = "Unpaid"
	PaymentStatusPaid   PaymentStatus = "Paid"
)

type Extras struct {
	Meal      bool `json:"meal"`
	Insurance bool `json:"insurance"`
	Upgrade   bool `json:"upgrade"`
}

type PaymentInfo struct {
	Method string    `json:"method"`
	Last4  *string   `json:"last4"`
	PaidAt time.Time `json:"paidAt"`
}

// Booking prices are computed once at creation and never recomputed.
type Booking struct {
	ID            string        `json:"id"`
	FlightID      int64         `json:"flightId"`
	UserEmail     string        `json:"userEmail"`
	Name          string        `json:"name"`
	Email         string        `json:"email"`
	Passengers    int           `json:"passengers"`
	Seats         []int         `json:"seats"`
	Extras        Extras        `json:"extras"`
	BasePrice     float64       `json:"basePrice"`
	ExtraPrice    float64       `json:"extraPrice"`
	TotalPrice    float64       `json:"totalPrice"`
	Status        BookingStatus `json:"status"`
	PaymentStatus PaymentStatus `json:"paymentStatus"`
	PaymentInfo   *PaymentInfo  `json:"paymentInfo"`
	CreatedAt     time.Time     `json:"createdAt"`
	CanceledAt    *time.Time    `json:"canceledAt,omitempty"`
}

func (b *Booking) Active() bool {
	return b.Status == BookingStatusConfirmed
}

// Cancel moves the booking to Canceled. Payment status is left as is.
func (b *Booking) Cancel(now time.Time) error {
	if b.Status == BookingStatusCanceled {
		return ErrAlreadyCanceled
	}
	b.Status = BookingStatusCanceled
	b.CanceledAt = &now
	return nil
}

// Pay records a payment, keeping only the last four card digits.
func (b *Booking) Pay(method, cardNumber string, now time.Time) error {
	if b.Status == BookingStatusCanceled {
		return ErrPayCanceled
	}
	if b.PaymentStatus == PaymentStatusPaid {
		return ErrAlreadyPaid
	}
	b.PaymentStatus = PaymentStatusPaid
	b.PaymentInfo = &PaymentInfo{
		Method: method,
		Last4:  CardSuffix(cardNumber),
		PaidAt: now,
	}
	return nil
}

// CardSuffix returns the last four characters of a card number, or nil when
// fewer than four were supplied.
func CardSuffix(cardNumber string) *string {
	if len(cardNumber) < 4 {
		return nil
	}
	last4 := cardNumber[len(cardNumber)-4:]
	return &last4
}

func (b *Booking) Clone() *Booking {
	c := *b
	c.Seats = append([]int(nil), b.Seats...)
	if b.PaymentInfo != nil {
		p := *b.PaymentInfo
		if p.Last4 != nil {
			l := *p.Last4
			p.Last4 = &l
		}
		c.PaymentInfo = &p
	}
	if b.CanceledAt != nil {
		t := *b.CanceledAt
		c.CanceledAt = &t
	}
	return &c
}
