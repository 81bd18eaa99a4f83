package pricing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resortbook/internal/domain/shared/daterange"
	"resortbook/internal/domain/shared/money"
)

func TestCalculator_Quote(t *testing.T) {
	rate := RoomRate{PricePerNight: money.Must(19999, "USD"), TaxRatePercent: 10}

	quote, err := Calculator{}.Quote(rate, daterange.MustParse("2025-07-01", "2025-07-04"))
	require.NoError(t, err)

	assert.Equal(t, 3, quote.Nights)
	assert.Equal(t, int64(59997), quote.Subtotal.Amount)
	assert.Equal(t, int64(6000), quote.Tax.Amount)
	assert.Equal(t, int64(65997), quote.Total.Amount)
	assert.Equal(t, "USD", quote.Total.Currency)
	assert.Equal(t, rate.PricePerNight, quote.Nightly)
}

func TestCalculator_QuoteFractionalTax(t *testing.T) {
	rate := RoomRate{PricePerNight: money.Must(12345, "EUR"), TaxRatePercent: 7.5}

	quote, err := Calculator{}.Quote(rate, daterange.MustParse("2025-07-01", "2025-07-02"))
	require.NoError(t, err)

	// 12345 * 7.5% = 925.875
	assert.Equal(t, int64(926), quote.Tax.Amount)
	assert.Equal(t, int64(13271), quote.Total.Amount)
}

func TestCalculator_FreeRoom(t *testing.T) {
	rate := RoomRate{PricePerNight: money.Must(0, "USD"), TaxRatePercent: 20}

	quote, err := Calculator{}.Quote(rate, daterange.MustParse("2025-07-01", "2025-07-08"))
	require.NoError(t, err)
	assert.True(t, quote.Total.IsZero())
	assert.Equal(t, 7, quote.Nights)
}

func TestCalculator_RejectsInvalidInput(t *testing.T) {
	valid := daterange.MustParse("2025-07-01", "2025-07-02")
	tests := []struct {
		name string
		rate RoomRate
	}{
		{name: "missing currency", rate: RoomRate{PricePerNight: money.Money{Amount: 100}}},
		{name: "negative price", rate: RoomRate{PricePerNight: money.Must(-1, "USD")}},
		{name: "tax over 100", rate: RoomRate{PricePerNight: money.Must(100, "USD"), TaxRatePercent: 100.5}},
		{name: "negative tax", rate: RoomRate{PricePerNight: money.Must(100, "USD"), TaxRatePercent: -1}},
		{name: "nan tax", rate: RoomRate{PricePerNight: money.Must(100, "USD"), TaxRatePercent: math.NaN()}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Calculator{}.Quote(tt.rate, valid)
			assert.ErrorIs(t, err, ErrInvalidRate)
		})
	}

	_, err := Calculator{}.Quote(RoomRate{PricePerNight: money.Must(100, "USD")}, daterange.DateRange{})
	assert.ErrorIs(t, err, daterange.ErrInvalidRange)
}

func TestTaxBasisPoints(t *testing.T) {
	assert.Equal(t, int64(1000), RoomRate{TaxRatePercent: 10}.TaxBasisPoints())
	assert.Equal(t, int64(825), RoomRate{TaxRatePercent: 8.25}.TaxBasisPoints())
	assert.Equal(t, int64(0), RoomRate{}.TaxBasisPoints())
}
