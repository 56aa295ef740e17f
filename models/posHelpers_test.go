package models_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/pos_backend/models"
	"bitbucket.org/mmdatafocus/pos_backend/utils"
	"github.com/shopspring/decimal"
)

func newTestContext(t *testing.T, role models.UserRole) (context.Context, *models.User) {
	t.Helper()

	payload, err := models.RegisterUser(context.Background(), models.NewUser{
		Email:    fmt.Sprintf("user%d@pos.test", time.Now().UnixNano()),
		Password: "secret-pass-123",
		Name:     "Test User",
		Role:     string(role),
	})
	if err != nil {
		t.Fatalf("RegisterUser: %v", err)
	}

	ctx := utils.SetUserIdInContext(context.Background(), payload.User.ID)
	ctx = utils.SetUserEmailInContext(ctx, payload.User.Email)
	ctx = utils.SetUserRoleInContext(ctx, string(payload.User.Role))
	return ctx, payload.User
}

func createTestProduct(t *testing.T, ctx context.Context, sku string, price string, onHand int, taxable bool) *models.Product {
	t.Helper()

	product, err := models.CreateProduct(ctx, models.NewProduct{
		Sku:     sku,
		Name:    "Product " + sku,
		Price:   decimal.RequireFromString(price),
		Taxable: &taxable,
		OnHand:  onHand,
	})
	if err != nil {
		t.Fatalf("CreateProduct %s: %v", sku, err)
	}
	return product
}

func reloadProduct(t *testing.T, ctx context.Context, id int) *models.Product {
	t.Helper()

	product, err := models.GetProductById(ctx, id)
	if err != nil {
		t.Fatalf("GetProductById %d: %v", id, err)
	}
	return product
}

func countMovements(t *testing.T, ctx context.Context, productId int, movementType string) int {
	t.Helper()

	count, err := utils.ResourceCountWhere[models.InventoryMovement](ctx, "product_id = ? AND type = ?", productId, movementType)
	if err != nil {
		t.Fatalf("count movements: %v", err)
	}
	return int(count)
}

func assertLedgerMatchesOnHand(t *testing.T, ctx context.Context, productId int) {
	t.Helper()

	product := reloadProduct(t, ctx, productId)
	ledger, err := models.LedgerOnHand(ctx, productId)
	if err != nil {
		t.Fatalf("LedgerOnHand: %v", err)
	}
	if ledger != product.OnHand {
		t.Fatalf("ledger sum %d does not match on_hand %d for product %d", ledger, product.OnHand, productId)
	}
}
