package dto

import (
	"resortbook/internal/domain/pricing"
	"resortbook/internal/domain/shared/daterange"
	"resortbook/internal/domain/shared/money"
)

// MoneyDTO carries minor units plus a display string in major units.
type MoneyDTO struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Display  string `json:"display"`
}

type DateRangeDTO struct {
	CheckIn  string `json:"check_in"`
	CheckOut string `json:"check_out"`
	Nights   int    `json:"nights"`
}

type QuoteDTO struct {
	Range          DateRangeDTO `json:"range"`
	Nightly        MoneyDTO     `json:"nightly"`
	TaxRatePercent float64      `json:"tax_rate_percent"`
	Subtotal       MoneyDTO     `json:"subtotal"`
	Tax            MoneyDTO     `json:"tax"`
	Total          MoneyDTO     `json:"total"`
}

func MapMoney(value money.Money) MoneyDTO {
	return MoneyDTO{Amount: value.Amount, Currency: value.Currency, Display: value.Major()}
}

func MapRange(dr daterange.DateRange) DateRangeDTO {
	return DateRangeDTO{
		CheckIn:  daterange.FormatDate(dr.CheckIn),
		CheckOut: daterange.FormatDate(dr.CheckOut),
		Nights:   dr.Nights(),
	}
}

func MapQuote(q pricing.Quote) QuoteDTO {
	return QuoteDTO{
		Range:          MapRange(q.Range),
		Nightly:        MapMoney(q.Nightly),
		TaxRatePercent: q.TaxRatePercent,
		Subtotal:       MapMoney(q.Subtotal),
		Tax:            MapMoney(q.Tax),
		Total:          MapMoney(q.Total),
	}
}
