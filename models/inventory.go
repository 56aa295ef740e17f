package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bitbucket.org/mmdatafocus/pos_backend/config"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// InventoryMovement is the append-only stock ledger. Rows are never updated
// or deleted; on_hand on the product row is the cached materialization of
// SUM(delta_qty), excluding damage annotations.
type InventoryMovement struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	ProductId   int       `gorm:"index;not null" json:"product_id"`
	Type        string    `gorm:"type:enum('sale','purchase','adjustment','return','damage');not null" json:"type"`
	DeltaQty    int       `gorm:"not null" json:"delta_qty"`
	Reason      string    `gorm:"size:255" json:"reason"`
	CreatedById int       `gorm:"index" json:"created_by_id"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (m *InventoryMovement) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

// ApplyMovement posts one signed stock movement inside the caller's
// transaction. It takes a FOR UPDATE lock on the product row, rejects a
// decrement below zero unless allowNegative, then persists the new on_hand
// and appends the ledger row. On any error the transaction is rolled back.
func ApplyMovement(tx *gorm.DB, ctx context.Context, productId int, delta int, movementType string, reason string, userId int, allowNegative bool) (*Product, error) {
	var product Product
	if err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&product, productId).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewNotFoundError("Product %d not found", productId)
		}
		return nil, err
	}

	newOnHand := product.OnHand + delta
	if newOnHand < 0 && !allowNegative {
		tx.Rollback()
		return nil, &InsufficientStockError{
			ProductName: product.Name,
			Available:   product.OnHand,
			Requested:   -delta,
		}
	}

	if err := tx.Exec("UPDATE products SET on_hand = ? WHERE id = ?", newOnHand, productId).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	movement := InventoryMovement{
		ProductId:   productId,
		Type:        movementType,
		DeltaQty:    delta,
		Reason:      reason,
		CreatedById: userId,
	}
	if err := tx.Create(&movement).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	product.OnHand = newOnHand
	return &product, nil
}

func DecrementInventory(tx *gorm.DB, ctx context.Context, productId int, qty int, reason string, userId int) (*Product, error) {
	if qty <= 0 {
		tx.Rollback()
		return nil, NewInvalidArgumentError("quantity must be positive")
	}
	return ApplyMovement(tx, ctx, productId, -qty, MovementSale, reason, userId, false)
}

func IncrementInventory(tx *gorm.DB, ctx context.Context, productId int, qty int, movementType string, reason string, userId int) (*Product, error) {
	if qty <= 0 {
		tx.Rollback()
		return nil, NewInvalidArgumentError("quantity must be positive")
	}
	return ApplyMovement(tx, ctx, productId, qty, movementType, reason, userId, true)
}

// RecordDamageMovement writes a damage annotation: a negative ledger row that
// records shrinkage without touching on_hand. It deliberately bypasses the
// stock guard since the goods never re-enter sellable stock.
func RecordDamageMovement(tx *gorm.DB, ctx context.Context, productId int, qty int, reason string, userId int) error {
	if qty <= 0 {
		tx.Rollback()
		return NewInvalidArgumentError("quantity must be positive")
	}
	movement := InventoryMovement{
		ProductId:   productId,
		Type:        MovementDamage,
		DeltaQty:    -qty,
		Reason:      reason,
		CreatedById: userId,
	}
	if err := tx.WithContext(ctx).Create(&movement).Error; err != nil {
		tx.Rollback()
		return err
	}
	return nil
}

func ListMovements(ctx context.Context, page int, productId int) ([]*InventoryMovement, int64, error) {
	db := config.GetDB()

	dbCtx := db.WithContext(ctx).Model(&InventoryMovement{})
	if productId > 0 {
		dbCtx = dbCtx.Where("product_id = ?", productId)
	}

	var total int64
	if err := dbCtx.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if page < 1 {
		page = 1
	}
	var movements []*InventoryMovement
	if err := dbCtx.Order("created_at DESC, id DESC").
		Limit(config.SearchLimit).
		Offset((page - 1) * config.SearchLimit).
		Find(&movements).Error; err != nil {
		return nil, 0, err
	}
	return movements, total, nil
}

type NewInventoryAdjustment struct {
	ProductId     int    `json:"product_id" binding:"required"`
	DeltaQty      int    `json:"delta_qty" binding:"required"`
	Reason        string `json:"reason" binding:"required"`
	AllowNegative bool   `json:"allow_negative"`
}

// AdjustInventory posts a manual adjustment in its own transaction and audit
// logs it. AllowNegative is honored only for admins; the handler clears the
// flag before calling for anyone else.
func AdjustInventory(ctx context.Context, input NewInventoryAdjustment, userId int) (*Product, error) {
	logger := config.GetLogger()
	db := config.GetDB()

	tx := db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}

	product, err := ApplyMovement(tx, ctx, input.ProductId, input.DeltaQty, MovementAdjustment, input.Reason, userId, input.AllowNegative)
	if err != nil {
		config.LogError(logger, "models", "AdjustInventory", "apply movement", input, err)
		return nil, err
	}

	metadata := map[string]interface{}{
		"product_id": input.ProductId,
		"delta_qty":  input.DeltaQty,
		"reason":     input.Reason,
		"new_onhand": product.OnHand,
	}
	if err := CreateAuditLog(tx, ctx, userId, AuditActionInventoryAdjusted, "product", fmt.Sprint(input.ProductId), metadata); err != nil {
		config.LogError(logger, "models", "AdjustInventory", "audit log", input, err)
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return product, nil
}

// LedgerOnHand recomputes a product's stock from the ledger, excluding damage
// annotations. Used by the reconciliation report and the regression tests.
func LedgerOnHand(ctx context.Context, productId int) (int, error) {
	db := config.GetDB()
	var sum int
	if err := db.WithContext(ctx).
		Model(&InventoryMovement{}).
		Select("COALESCE(SUM(delta_qty), 0)").
		Where("product_id = ?", productId).
		Where("type <> ?", MovementDamage).
		Scan(&sum).Error; err != nil {
		return 0, err
	}
	return sum, nil
}
