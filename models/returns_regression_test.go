package models_test

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"bitbucket.org/mmdatafocus/pos_backend/config"
	"bitbucket.org/mmdatafocus/pos_backend/models"
	"bitbucket.org/mmdatafocus/pos_backend/utils"
	"github.com/shopspring/decimal"
)

// A sellable return restocks through the ledger, refunds the proportional
// share of the line and leaves an audit trail, all in one transaction.
func TestReturnRestocksLedgerAndWritesAudit(t *testing.T) {
	setupIntegrationEnv(t)
	ctx, user := newTestContext(t, models.RoleCashier)

	p := createTestProduct(t, ctx, "RTN-001", "10.00", 10, false)
	thirty := decimal.RequireFromString("30.00")

	order, err := models.CreateOrder(ctx, models.NewOrder{
		Items:    []models.NewOrderItem{{ProductId: p.ID, Qty: 3, UnitPrice: decimal.RequireFromString("10.00")}},
		Subtotal: thirty,
		Total:    thirty,
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	item := order.Items[0]

	result, err := models.ProcessReturn(ctx, models.NewReturn{
		OrderId: order.ID,
		Reason:  "changed mind",
		Lines:   []models.ReturnLineInput{{OrderItemId: item.ID, Qty: 2}},
	})
	if err != nil {
		t.Fatalf("ProcessReturn: %v", err)
	}

	if want := decimal.RequireFromString("20.00"); !result.TotalRefund.Equal(want) {
		t.Fatalf("refund = %s, want %s", result.TotalRefund, want)
	}
	if result.RefundMethod != "cash" {
		t.Fatalf("refund method = %q, want cash (default)", result.RefundMethod)
	}
	if result.OrderStatus != models.OrderStatusPartiallyRefunded {
		t.Fatalf("order status = %q, want partially_refunded", result.OrderStatus)
	}

	if got := reloadProduct(t, ctx, p.ID).OnHand; got != 9 {
		t.Fatalf("on_hand = %d after return, want 9", got)
	}
	if got := countMovements(t, ctx, p.ID, models.MovementReturn); got != 1 {
		t.Fatalf("return movements = %d, want 1", got)
	}
	assertLedgerMatchesOnHand(t, ctx, p.ID)

	auditCount, err := utils.ResourceCountWhere[models.AuditLog](ctx, "action = ? AND entity_type = ?", models.AuditActionReturnProcessed, "order")
	if err != nil {
		t.Fatalf("count audit logs: %v", err)
	}
	if auditCount != 1 {
		t.Fatalf("audit log rows = %d, want 1", auditCount)
	}

	var audit models.AuditLog
	if err := config.GetDB().Where("action = ?", models.AuditActionReturnProcessed).First(&audit).Error; err != nil {
		t.Fatalf("load audit log: %v", err)
	}
	if !strings.Contains(audit.MetadataJson, user.Email) {
		t.Fatalf("audit metadata %q does not name the acting cashier %s", audit.MetadataJson, user.Email)
	}

	// Cumulative guard: only one unit remains returnable.
	_, err = models.ProcessReturn(ctx, models.NewReturn{
		OrderId: order.ID,
		Lines:   []models.ReturnLineInput{{OrderItemId: item.ID, Qty: 2}},
	})
	var invalidErr *models.InvalidArgumentError
	if !errors.As(err, &invalidErr) {
		t.Fatalf("over-return error = %v, want InvalidArgumentError", err)
	}

	// The rejected return must leave no trace: no stock change, no ledger row,
	// no audit row.
	if got := reloadProduct(t, ctx, p.ID).OnHand; got != 9 {
		t.Fatalf("on_hand = %d after rejected return, want 9", got)
	}
	if got := countMovements(t, ctx, p.ID, models.MovementReturn); got != 1 {
		t.Fatalf("return movements = %d after rejected return, want 1", got)
	}
	auditCount, err = utils.ResourceCountWhere[models.AuditLog](ctx, "action = ? AND entity_type = ?", models.AuditActionReturnProcessed, "order")
	if err != nil {
		t.Fatalf("count audit logs: %v", err)
	}
	if auditCount != 1 {
		t.Fatalf("audit log rows = %d after rejected return, want 1", auditCount)
	}

	// Returning the final unit flips the order to refunded.
	final, err := models.ProcessReturn(ctx, models.NewReturn{
		OrderId: order.ID,
		Lines:   []models.ReturnLineInput{{OrderItemId: item.ID, Qty: 1}},
	})
	if err != nil {
		t.Fatalf("ProcessReturn (final unit): %v", err)
	}
	if final.OrderStatus != models.OrderStatusRefunded {
		t.Fatalf("order status = %q, want refunded", final.OrderStatus)
	}
}

// Damaged goods never re-enter sellable stock: on_hand is untouched and the
// ledger records a damage annotation that the reconciliation excludes.
func TestDamagedReturnAnnotatesWithoutRestocking(t *testing.T) {
	setupIntegrationEnv(t)
	ctx, _ := newTestContext(t, models.RoleCashier)

	p := createTestProduct(t, ctx, "DMG-001", "8.00", 5, false)
	sixteen := decimal.RequireFromString("16.00")

	order, err := models.CreateOrder(ctx, models.NewOrder{
		Items:    []models.NewOrderItem{{ProductId: p.ID, Qty: 2, UnitPrice: decimal.RequireFromString("8.00")}},
		Subtotal: sixteen,
		Total:    sixteen,
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	result, err := models.ProcessReturn(ctx, models.NewReturn{
		OrderId: order.ID,
		Reason:  "cracked in the bag",
		Lines:   []models.ReturnLineInput{{OrderItemId: order.Items[0].ID, Qty: 1, Damaged: true}},
	})
	if err != nil {
		t.Fatalf("ProcessReturn: %v", err)
	}
	if want := decimal.RequireFromString("8.00"); !result.TotalRefund.Equal(want) {
		t.Fatalf("refund = %s, want %s", result.TotalRefund, want)
	}

	if got := reloadProduct(t, ctx, p.ID).OnHand; got != 3 {
		t.Fatalf("on_hand = %d, want 3 (damaged goods must not restock)", got)
	}
	if got := countMovements(t, ctx, p.ID, models.MovementDamage); got != 1 {
		t.Fatalf("damage movements = %d, want 1", got)
	}
	if got := countMovements(t, ctx, p.ID, models.MovementReturn); got != 0 {
		t.Fatalf("return movements = %d, want 0", got)
	}
	// Damage rows are annotations: the reconciliation still balances.
	assertLedgerMatchesOnHand(t, ctx, p.ID)
}

// Unknown orders and order items from other orders are rejected without side
// effects.
func TestReturnRejectsForeignOrderItems(t *testing.T) {
	setupIntegrationEnv(t)
	ctx, _ := newTestContext(t, models.RoleCashier)

	p := createTestProduct(t, ctx, "FOR-001", "5.00", 10, false)
	five := decimal.RequireFromString("5.00")

	first, err := models.CreateOrder(ctx, models.NewOrder{
		Items:    []models.NewOrderItem{{ProductId: p.ID, Qty: 1, UnitPrice: five}},
		Subtotal: five,
		Total:    five,
	})
	if err != nil {
		t.Fatalf("CreateOrder (first): %v", err)
	}
	second, err := models.CreateOrder(ctx, models.NewOrder{
		Items:    []models.NewOrderItem{{ProductId: p.ID, Qty: 1, UnitPrice: five}},
		Subtotal: five,
		Total:    five,
	})
	if err != nil {
		t.Fatalf("CreateOrder (second): %v", err)
	}

	var notFoundErr *models.NotFoundError
	_, err = models.ProcessReturn(ctx, models.NewReturn{
		OrderId: 999999,
		Lines:   []models.ReturnLineInput{{OrderItemId: first.Items[0].ID, Qty: 1}},
	})
	if !errors.As(err, &notFoundErr) {
		t.Fatalf("unknown order error = %v, want NotFoundError", err)
	}

	_, err = models.ProcessReturn(ctx, models.NewReturn{
		OrderId: second.ID,
		Lines:   []models.ReturnLineInput{{OrderItemId: first.Items[0].ID, Qty: 1}},
	})
	if !errors.As(err, &notFoundErr) {
		t.Fatalf("foreign order item error = %v, want NotFoundError", err)
	}

	if got := reloadProduct(t, ctx, p.ID).OnHand; got != 8 {
		t.Fatalf("on_hand = %d after rejected returns, want 8", got)
	}
}

// Two lines naming the same order item cannot jointly exceed the returnable
// remainder.
func TestReturnRejectsDuplicateLinesOverRemainder(t *testing.T) {
	setupIntegrationEnv(t)
	ctx, _ := newTestContext(t, models.RoleCashier)

	p := createTestProduct(t, ctx, "DUP-001", "4.00", 10, false)
	twelve := decimal.RequireFromString("12.00")

	order, err := models.CreateOrder(ctx, models.NewOrder{
		Items:    []models.NewOrderItem{{ProductId: p.ID, Qty: 3, UnitPrice: decimal.RequireFromString("4.00")}},
		Subtotal: twelve,
		Total:    twelve,
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	item := order.Items[0]

	_, err = models.ProcessReturn(ctx, models.NewReturn{
		OrderId: order.ID,
		Lines: []models.ReturnLineInput{
			{OrderItemId: item.ID, Qty: 2},
			{OrderItemId: item.ID, Qty: 2},
		},
	})
	var invalidErr *models.InvalidArgumentError
	if !errors.As(err, &invalidErr) {
		t.Fatalf("duplicate-line over-return error = %v, want InvalidArgumentError", err)
	}
	if got := reloadProduct(t, ctx, p.ID).OnHand; got != 7 {
		t.Fatalf("on_hand = %d after rejected return, want 7", got)
	}
	if got := countMovements(t, ctx, p.ID, models.MovementReturn); got != 0 {
		t.Fatalf("return movements = %d after rejected return, want 0", got)
	}
}

// Returns and checkouts over the same products must agree on lock order, so a
// return whose lines arrive in descending product-id order cannot deadlock a
// concurrent checkout.
func TestConcurrentReturnsAndCheckoutsShareLockOrder(t *testing.T) {
	setupIntegrationEnv(t)
	ctx, _ := newTestContext(t, models.RoleCashier)

	five := decimal.RequireFromString("5.00")
	ten := decimal.RequireFromString("10.00")
	a := createTestProduct(t, ctx, "LCK-A", "5.00", 100, false)
	b := createTestProduct(t, ctx, "LCK-B", "5.00", 100, false)

	const workers = 8
	orders := make([]*models.Order, workers)
	for i := range orders {
		order, err := models.CreateOrder(ctx, models.NewOrder{
			Items: []models.NewOrderItem{
				{ProductId: a.ID, Qty: 1, UnitPrice: five},
				{ProductId: b.ID, Qty: 1, UnitPrice: five},
			},
			Subtotal: ten,
			Total:    ten,
		})
		if err != nil {
			t.Fatalf("CreateOrder (seed %d): %v", i, err)
		}
		orders[i] = order
	}

	var wg sync.WaitGroup
	errCh := make(chan error, workers*2)
	for i := 0; i < workers; i++ {
		order := orders[i]
		wg.Add(2)
		go func() {
			defer wg.Done()
			// Lines deliberately name the higher product id first.
			_, err := models.ProcessReturn(ctx, models.NewReturn{
				OrderId: order.ID,
				Lines: []models.ReturnLineInput{
					{OrderItemId: order.Items[1].ID, Qty: 1},
					{OrderItemId: order.Items[0].ID, Qty: 1},
				},
			})
			errCh <- err
		}()
		go func() {
			defer wg.Done()
			_, err := models.CreateOrder(ctx, models.NewOrder{
				Items: []models.NewOrderItem{
					{ProductId: b.ID, Qty: 1, UnitPrice: five},
					{ProductId: a.ID, Qty: 1, UnitPrice: five},
				},
				Subtotal: ten,
				Total:    ten,
			})
			errCh <- err
		}()
	}
	wg.Wait()
	close(errCh)

	for err := range errCh {
		if err != nil {
			t.Fatalf("concurrent return/checkout failed: %v", err)
		}
	}
	assertLedgerMatchesOnHand(t, ctx, a.ID)
	assertLedgerMatchesOnHand(t, ctx, b.ID)
}
