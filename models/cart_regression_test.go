package models_test

import (
	"testing"

	"bitbucket.org/mmdatafocus/pos_backend/models"
	"github.com/shopspring/decimal"
)

// Cart validation reports every broken line at once and totals only the
// valid ones. It must never touch stock.
func TestCartValidationReportsEveryProblem(t *testing.T) {
	setupIntegrationEnv(t)
	ctx, _ := newTestContext(t, models.RoleCashier)

	good := createTestProduct(t, ctx, "GOOD-001", "10.00", 10, true)
	low := createTestProduct(t, ctx, "LOW-001", "5.00", 1, true)

	result, err := models.ValidateCart(ctx, models.CartInput{
		Items: []models.CartItemInput{
			{ProductId: good.ID, Qty: 2},
			{ProductId: low.ID, Qty: 3},
			{ProductId: 999999, Qty: 1},
		},
	})
	if err != nil {
		t.Fatalf("ValidateCart: %v", err)
	}

	if result.Valid {
		t.Fatalf("cart reported valid with broken lines: %+v", result)
	}
	if len(result.Errors) != 2 {
		t.Fatalf("error count = %d (%v), want 2", len(result.Errors), result.Errors)
	}
	if want := "Product 999999 not found"; result.Errors[1] != want {
		t.Fatalf("missing-product error = %q, want %q", result.Errors[1], want)
	}
	if want := "Insufficient inventory for " + low.Name + ". Available: 1, Requested: 3"; result.Errors[0] != want {
		t.Fatalf("stock error = %q, want %q", result.Errors[0], want)
	}

	// Only the good line counts: 2 x 10.00 = 20.00, tax 1.70 at 8.5%.
	if want := decimal.RequireFromString("20.00"); !result.Subtotal.Equal(want) {
		t.Fatalf("subtotal = %s, want %s", result.Subtotal, want)
	}
	if want := decimal.RequireFromString("1.70"); !result.Tax.Equal(want) {
		t.Fatalf("tax = %s, want %s", result.Tax, want)
	}
	if want := decimal.RequireFromString("21.70"); !result.Total.Equal(want) {
		t.Fatalf("total = %s, want %s", result.Total, want)
	}

	// Validation is advisory and read-only.
	if got := reloadProduct(t, ctx, good.ID).OnHand; got != 10 {
		t.Fatalf("on_hand = %d after validation, want 10", got)
	}

	// An all-good cart comes back valid.
	ok, err := models.ValidateCart(ctx, models.CartInput{
		Items: []models.CartItemInput{{ProductId: good.ID, Qty: 1}},
	})
	if err != nil {
		t.Fatalf("ValidateCart (clean): %v", err)
	}
	if !ok.Valid || len(ok.Errors) != 0 {
		t.Fatalf("clean cart not valid: %+v", ok)
	}
}
