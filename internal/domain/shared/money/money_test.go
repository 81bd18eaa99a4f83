package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_NormalizesCurrency(t *testing.T) {
	m, err := New(100, " usd ")
	require.NoError(t, err)
	assert.Equal(t, "USD", m.Currency)

	_, err = New(100, "US")
	assert.ErrorIs(t, err, ErrInvalidCurrency)
}

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{in: "199.99", want: 19999},
		{in: "199.9", want: 19990},
		{in: "199", want: 19900},
		{in: "0.05", want: 5},
		{in: "-12.50", want: -1250},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			m, err := Parse(tt.in, "EUR")
			require.NoError(t, err)
			assert.Equal(t, tt.want, m.Amount)
			assert.Equal(t, "EUR", m.Currency)
		})
	}

	for _, bad := range []string{"", "1.234", ".50", "abc", "1.x"} {
		_, err := Parse(bad, "EUR")
		assert.ErrorIs(t, err, ErrInvalidAmount, bad)
	}
}

func TestAddSub_CurrencyMismatch(t *testing.T) {
	_, err := Must(100, "USD").Add(Must(100, "EUR"))
	assert.ErrorIs(t, err, ErrCurrencyMismatch)

	_, err = Must(100, "USD").Sub(Money{Amount: 1})
	assert.ErrorIs(t, err, ErrInvalidCurrency)

	diff, err := Must(500, "USD").Sub(Must(800, "USD"))
	require.NoError(t, err)
	assert.True(t, diff.IsNegative())
	assert.Equal(t, "-3.00 USD", diff.String())
}

func TestPercentBasisPoints_RoundsHalfUp(t *testing.T) {
	tests := []struct {
		name   string
		amount int64
		bp     int64
		want   int64
	}{
		{name: "exact", amount: 59997, bp: 1000, want: 6000},
		{name: "half rounds up", amount: 5, bp: 1000, want: 1},
		{name: "below half rounds down", amount: 4, bp: 1000, want: 0},
		{name: "fractional rate", amount: 10000, bp: 825, want: 825},
		{name: "negative rounds away from zero", amount: -5, bp: 1000, want: -1},
		{name: "zero rate", amount: 19999, bp: 0, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Must(tt.amount, "USD").PercentBasisPoints(tt.bp)
			assert.Equal(t, tt.want, got.Amount)
			assert.Equal(t, "USD", got.Currency)
		})
	}
}

func TestMajor(t *testing.T) {
	assert.Equal(t, "659.97", Must(65997, "USD").Major())
	assert.Equal(t, "0.05", Must(5, "USD").Major())
	assert.True(t, Must(0, "USD").IsZero())
}
