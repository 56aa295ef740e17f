package utils_test

import (
	"errors"
	"testing"

	"bitbucket.org/mmdatafocus/pos_backend/utils"
	"github.com/shopspring/decimal"
)

func TestCalculateTaxRoundsHalfToEven(t *testing.T) {
	cases := []struct {
		amount string
		rate   string
		want   string
	}{
		{"10.00", "0.085", "0.85"},
		{"21.00", "0.085", "1.78"}, // 1.785 rounds down to the even cent
		{"1.00", "0.125", "0.12"},  // 0.125 -> 0.12
		{"3.00", "0.125", "0.38"},  // 0.375 -> 0.38
		{"0.00", "0.085", "0.00"},
		{"100.00", "0", "0.00"},
	}

	for _, tc := range cases {
		got, err := utils.CalculateTax(decimal.RequireFromString(tc.amount), decimal.RequireFromString(tc.rate))
		if err != nil {
			t.Fatalf("CalculateTax(%s, %s): %v", tc.amount, tc.rate, err)
		}
		if !got.Equal(decimal.RequireFromString(tc.want)) {
			t.Errorf("CalculateTax(%s, %s) = %s, want %s", tc.amount, tc.rate, got, tc.want)
		}
	}
}

func TestCalculateTaxRejectsNegativeInput(t *testing.T) {
	_, err := utils.CalculateTax(decimal.RequireFromString("-1.00"), decimal.RequireFromString("0.085"))
	if !errors.Is(err, utils.ErrNegativeAmount) {
		t.Errorf("negative taxable amount error = %v, want ErrNegativeAmount", err)
	}
	_, err = utils.CalculateTax(decimal.RequireFromString("1.00"), decimal.RequireFromString("-0.085"))
	if !errors.Is(err, utils.ErrNegativeAmount) {
		t.Errorf("negative rate error = %v, want ErrNegativeAmount", err)
	}
}
