// Package pricing derives what a booking is charged.
package pricing

import "github.com/Domenick1991/flightbooking/internal/domain"

// Per-passenger surcharges for add-ons.
const (
	MealPrice      = 20
	InsurancePrice = 15
	UpgradePrice   = 50
)

type Quote struct {
	BasePrice  float64 `json:"basePrice"`
	ExtraPrice float64 `json:"extraPrice"`
	TotalPrice float64 `json:"totalPrice"`
}

// Compute returns the charge for passengers seats at fare each plus the
// selected add-ons. Zero passengers costs nothing whatever the extras.
func Compute(fare float64, passengers int, extras domain.Extras) Quote {
	if passengers <= 0 {
		return Quote{}
	}
	perPassenger := 0
	if extras.Meal {
		perPassenger += MealPrice
	}
	if extras.Insurance {
		perPassenger += InsurancePrice
	}
	if extras.Upgrade {
		perPassenger += UpgradePrice
	}

	base := fare * float64(passengers)
	extra := float64(perPassenger * passengers)
	return Quote{
		BasePrice:  base,
		ExtraPrice: extra,
		TotalPrice: base + extra,
	}
}
