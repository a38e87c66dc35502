package money

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var (
	ErrInvalidCurrency  = errors.New("money: currency must be a three letter ISO code")
	ErrNegativeAmount   = errors.New("money: amount must not be negative")
	ErrOverflow         = errors.New("money: amount out of range")
)

// Money is an amount in minor units (cents) of a single currency.
// Listing prices, booking totals and host income all use it.
type Money struct {
	Amount   int64  `json:"amount" bson:"amount"`
	Currency string `json:"currency" bson:"currency"`
}

// New builds a non-negative amount in the given currency.
func New(amount int64, currency string) (Money, error) {
	code, err := normalizeCurrency(currency)
	if err != nil {
		return Money{}, err
	}
	if amount < 0 {
		return Money{}, ErrNegativeAmount
	}
	return Money{Amount: amount, Currency: code}, nil
}

func normalizeCurrency(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != 3 {
		return "", ErrInvalidCurrency
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return "", ErrInvalidCurrency
		}
	}
	return code, nil
}

// Multiply scales the amount, e.g. a nightly price by the number of nights.
func (m Money) Multiply(times int64) (Money, error) {
	if m.Amount != 0 && times != 0 {
		if (m.Amount == -1 && times == math.MinInt64) || (times == -1 && m.Amount == math.MinInt64) {
			return Money{}, fmt.Errorf("%w: %d x %d", ErrOverflow, m.Amount, times)
		}
		if product := m.Amount * times; product/times != m.Amount {
			return Money{}, fmt.Errorf("%w: %d x %d", ErrOverflow, m.Amount, times)
		}
	}
	return Money{Amount: m.Amount * times, Currency: m.Currency}, nil
}

// IsPositive reports whether the amount can be charged.
func (m Money) IsPositive() bool {
	return m.Amount > 0
}

// String renders the amount in major units, e.g. "300.00 USD".
func (m Money) String() string {
	sign := ""
	amount := m.Amount
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	return fmt.Sprintf("%s%d.%02d %s", sign, amount/100, amount%100, m.Currency)
}
