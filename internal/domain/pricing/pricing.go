package pricing

import (
	"errors"
	"fmt"
	"math"

	"resortbook/internal/domain/shared/daterange"
	"resortbook/internal/domain/shared/money"
)

// ErrInvalidRate is the sentinel matched by every InvalidRateError.
var ErrInvalidRate = errors.New("pricing: invalid room rate")

type InvalidRateError struct {
	Reason string
}

func (e *InvalidRateError) Error() string {
	return "pricing: invalid room rate: " + e.Reason
}

func (e *InvalidRateError) Unwrap() error { return ErrInvalidRate }

// RoomRate is the read-only pricing input owned by a room.
type RoomRate struct {
	PricePerNight  money.Money
	TaxRatePercent float64
}

func (r RoomRate) Validate() error {
	if r.PricePerNight.Currency == "" {
		return &InvalidRateError{Reason: "currency must be defined"}
	}
	if r.PricePerNight.Amount < 0 {
		return &InvalidRateError{Reason: "price per night cannot be negative"}
	}
	if math.IsNaN(r.TaxRatePercent) || r.TaxRatePercent < 0 || r.TaxRatePercent > 100 {
		return &InvalidRateError{Reason: fmt.Sprintf("tax rate %v%% outside [0,100]", r.TaxRatePercent)}
	}
	return nil
}

// TaxBasisPoints converts the percent into hundredths of a percent.
func (r RoomRate) TaxBasisPoints() int64 {
	return int64(math.Round(r.TaxRatePercent * 100))
}

// Quote is derived on every pricing request and never stored on its own.
type Quote struct {
	Range          daterange.DateRange
	Nights         int
	Nightly        money.Money
	TaxRatePercent float64
	Subtotal       money.Money
	Tax            money.Money
	Total          money.Money
}

// Calculator turns a rate and a stay into a quote. Tax is rounded half up to the cent.
type Calculator struct{}

func (Calculator) Quote(rate RoomRate, dr daterange.DateRange) (Quote, error) {
	if err := rate.Validate(); err != nil {
		return Quote{}, err
	}
	if err := dr.Validate(); err != nil {
		return Quote{}, err
	}
	nights := dr.Nights()
	subtotal := rate.PricePerNight.Multiply(int64(nights))
	tax := subtotal.PercentBasisPoints(rate.TaxBasisPoints())
	total, err := subtotal.Add(tax)
	if err != nil {
		return Quote{}, err
	}
	return Quote{
		Range:          dr,
		Nights:         nights,
		Nightly:        rate.PricePerNight,
		TaxRatePercent: rate.TaxRatePercent,
		Subtotal:       subtotal,
		Tax:            tax,
		Total:          total,
	}, nil
}
