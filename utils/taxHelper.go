package utils

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrNegativeAmount marks a monetary input that must be non-negative; the
// respond layer maps it to a bad-request status.
var ErrNegativeAmount = errors.New("amount must not be negative")

// CalculateTax returns the tax amount for taxableAmount at rate (a fraction,
// e.g. 0.085 for 8.5%), rounded to 2 decimal places with banker's rounding
// (round half to even). The rounding mode is load-bearing: receipt totals are
// persisted at checkout and re-verified at read time, so recomputation must be
// bit-stable.
func CalculateTax(taxableAmount decimal.Decimal, rate decimal.Decimal) (decimal.Decimal, error) {
	if taxableAmount.IsNegative() {
		return decimal.Zero, fmt.Errorf("taxable amount: %w", ErrNegativeAmount)
	}
	if rate.IsNegative() {
		return decimal.Zero, fmt.Errorf("tax rate: %w", ErrNegativeAmount)
	}
	return taxableAmount.Mul(rate).RoundBank(2), nil
}

// RoundMoney rounds an amount to currency precision (2dp, half to even).
func RoundMoney(amount decimal.Decimal) decimal.Decimal {
	return amount.RoundBank(2)
}
