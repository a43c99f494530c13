package domain

import "github.com/shopspring/decimal"

// Money is an amount in integer minor units (cents for USD).
type Money int64

func (m Money) Decimal() decimal.Decimal {
	return decimal.NewFromInt(int64(m))
}

// String renders the amount with two fraction digits, e.g. 7460 -> "74.60".
func (m Money) String() string {
	return decimal.New(int64(m), -2).StringFixed(2)
}
