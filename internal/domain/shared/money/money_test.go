package money_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"tinyhouse/internal/domain/shared/money"
)

func TestNewNormalizesCurrency(t *testing.T) {
	m, err := money.New(1500, " usd ")
	require.NoError(t, err)
	require.Equal(t, "USD", m.Currency)

	_, err = money.New(100, "US")
	require.ErrorIs(t, err, money.ErrInvalidCurrency)
	_, err = money.New(100, "U$D")
	require.ErrorIs(t, err, money.ErrInvalidCurrency)
	_, err = money.New(-1, "USD")
	require.ErrorIs(t, err, money.ErrNegativeAmount)
}

func TestArithmetic(t *testing.T) {
	nightly := money.Money{Amount: 10000, Currency: "USD"}
	total, err := nightly.Multiply(3)
	require.NoError(t, err)
	require.Equal(t, int64(30000), total.Amount)
	require.True(t, total.IsPositive())
	require.False(t, money.Money{Currency: "USD"}.IsPositive())

	require.Equal(t, "300.00 USD", total.String())
	require.Equal(t, "-0.50 CAD", money.Money{Amount: -50, Currency: "CAD"}.String())
}

func TestArithmeticOverflow(t *testing.T) {
	price := money.Money{Amount: math.MaxInt64 / 2, Currency: "USD"}
	_, err := price.Multiply(3)
	require.ErrorIs(t, err, money.ErrOverflow)

	_, err = money.Money{Amount: math.MinInt64, Currency: "USD"}.Multiply(-1)
	require.ErrorIs(t, err, money.ErrOverflow)

	doubled, err := price.Multiply(2)
	require.NoError(t, err)
	require.Equal(t, int64(math.MaxInt64-1), doubled.Amount)

	zero, err := money.Money{Currency: "USD"}.Multiply(math.MaxInt64)
	require.NoError(t, err)
	require.Zero(t, zero.Amount)
}
