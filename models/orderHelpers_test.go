package models_test

import (
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/pos_backend/models"
	"github.com/shopspring/decimal"
)

func TestFormatOrderNumber(t *testing.T) {
	at := time.Date(2026, 8, 29, 15, 4, 5, 0, time.UTC)
	if got := models.FormatOrderNumber(at, 7); got != "ORD-20260829-0007" {
		t.Errorf("FormatOrderNumber = %q, want ORD-20260829-0007", got)
	}
	if got := models.FormatOrderNumber(at, 12345); got != "ORD-20260829-12345" {
		t.Errorf("FormatOrderNumber widens past 4 digits: got %q", got)
	}
}

func TestProportionalRefund(t *testing.T) {
	cases := []struct {
		lineTotal string
		qty       int
		returnQty int
		want      string
	}{
		{"30.00", 3, 2, "20.00"},
		{"10.00", 3, 1, "3.33"},
		{"0.05", 2, 1, "0.02"}, // 0.025 rounds half to even
		{"16.00", 2, 2, "16.00"},
	}

	for _, tc := range cases {
		got := models.ProportionalRefund(decimal.RequireFromString(tc.lineTotal), tc.qty, tc.returnQty)
		if !got.Equal(decimal.RequireFromString(tc.want)) {
			t.Errorf("ProportionalRefund(%s, %d, %d) = %s, want %s", tc.lineTotal, tc.qty, tc.returnQty, got, tc.want)
		}
	}
}

func TestPaymentMethodFromJson(t *testing.T) {
	cases := []struct {
		payment string
		want    string
	}{
		{"", "cash"},
		{"not json", "cash"},
		{`{"amount": 5}`, "cash"},
		{`{"method": ""}`, "cash"},
		{`{"method": "card", "amount": 22.78}`, "card"},
	}

	for _, tc := range cases {
		if got := models.PaymentMethodFromJson(tc.payment); got != tc.want {
			t.Errorf("PaymentMethodFromJson(%q) = %q, want %q", tc.payment, got, tc.want)
		}
	}
}

func TestRolePermits(t *testing.T) {
	cases := []struct {
		required models.UserRole
		actual   models.UserRole
		want     bool
	}{
		{models.RoleCashier, models.RoleCashier, true},
		{models.RoleCashier, models.RoleManager, true},
		{models.RoleCashier, models.RoleAdmin, true},
		{models.RoleManager, models.RoleCashier, false},
		{models.RoleManager, models.RoleManager, true},
		{models.RoleAdmin, models.RoleManager, false},
		{models.RoleAdmin, models.RoleAdmin, true},
		{models.RoleCashier, models.UserRole("intern"), false},
	}

	for _, tc := range cases {
		if got := models.RolePermits(tc.required, tc.actual); got != tc.want {
			t.Errorf("RolePermits(%s, %s) = %v, want %v", tc.required, tc.actual, got, tc.want)
		}
	}
}
