package models

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"bitbucket.org/mmdatafocus/pos_backend/config"
	"bitbucket.org/mmdatafocus/pos_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PurchaseOrder struct {
	ID           int                 `gorm:"primary_key" json:"id"`
	PoNumber     string              `gorm:"size:50;uniqueIndex;not null" json:"po_number"`
	SupplierId   int                 `gorm:"index;not null" json:"supplier_id"`
	Status       string              `gorm:"type:enum('draft','submitted','received','cancelled');default:submitted" json:"status"`
	ExpectedDate *time.Time          `json:"expected_date"`
	Items        []PurchaseOrderItem `gorm:"constraint:OnDelete:CASCADE" json:"items"`
	CreatedById  int                 `gorm:"index" json:"created_by_id"`
	ReceivedAt   *time.Time          `json:"received_at"`
	CreatedAt    time.Time           `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time           `gorm:"autoUpdateTime" json:"updated_at"`
}

type PurchaseOrderItem struct {
	ID              int             `gorm:"primary_key" json:"id"`
	PurchaseOrderId int             `gorm:"index;not null" json:"purchase_order_id"`
	ProductId       int             `gorm:"index;not null" json:"product_id"`
	Qty             int             `gorm:"not null" json:"qty"`
	UnitCost        decimal.Decimal `gorm:"type:decimal(20,2)" json:"unit_cost"`
}

type NewPurchaseOrderItem struct {
	ProductId int             `json:"product_id" binding:"required"`
	Qty       int             `json:"qty" binding:"required"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
}

type NewPurchaseOrder struct {
	SupplierId   int                    `json:"supplier_id" binding:"required"`
	ExpectedDate *time.Time             `json:"expected_date"`
	Draft        bool                   `json:"draft"`
	Items        []NewPurchaseOrderItem `json:"items" binding:"required,min=1,dive"`
}

func poNumberPrefix(t time.Time) string {
	return "PO-" + t.UTC().Format("20060102") + "-"
}

func CreatePurchaseOrder(ctx context.Context, input NewPurchaseOrder) (*PurchaseOrder, error) {
	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId <= 0 {
		return nil, errors.New("user id is required")
	}

	if _, err := GetSupplierById(ctx, input.SupplierId); err != nil {
		return nil, err
	}
	for _, item := range input.Items {
		if item.Qty <= 0 {
			return nil, NewInvalidArgumentError("quantity must be positive for product %d", item.ProductId)
		}
		if item.UnitCost.IsNegative() {
			return nil, NewInvalidArgumentError("unit cost must not be negative for product %d", item.ProductId)
		}
		if _, err := GetProductById(ctx, item.ProductId); err != nil {
			return nil, err
		}
	}

	now := time.Now()
	seq, err := utils.GetDocumentSequence(ctx, "purchase_orders", "po_number", poNumberPrefix(now))
	if err != nil {
		return nil, err
	}

	status := PurchaseOrderStatusSubmitted
	if input.Draft {
		status = PurchaseOrderStatusDraft
	}

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}

	po := PurchaseOrder{
		PoNumber:     fmt.Sprintf("%s%04d", poNumberPrefix(now), seq),
		SupplierId:   input.SupplierId,
		Status:       status,
		ExpectedDate: input.ExpectedDate,
		CreatedById:  userId,
	}
	if err := tx.Create(&po).Error; err != nil {
		tx.Rollback()
		if isDuplicateKeyError(err) {
			return nil, NewConflictError("could not allocate a unique po number, please retry")
		}
		return nil, err
	}

	for _, item := range input.Items {
		poItem := PurchaseOrderItem{
			PurchaseOrderId: po.ID,
			ProductId:       item.ProductId,
			Qty:             item.Qty,
			UnitCost:        item.UnitCost,
		}
		if err := tx.Create(&poItem).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
		po.Items = append(po.Items, poItem)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &po, nil
}

// ReceivePurchaseOrder flips a submitted purchase order to received and
// restocks every line through the ledger with purchase movements, all in one
// transaction.
func ReceivePurchaseOrder(ctx context.Context, poId int) (*PurchaseOrder, error) {
	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId <= 0 {
		return nil, errors.New("user id is required")
	}

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}

	var po PurchaseOrder
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&po, poId).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewNotFoundError("Purchase order %d not found", poId)
		}
		return nil, err
	}
	if po.Status != PurchaseOrderStatusSubmitted {
		tx.Rollback()
		return nil, NewInvalidArgumentError("purchase order %s is %s, only submitted orders can be received", po.PoNumber, po.Status)
	}

	var items []PurchaseOrderItem
	if err := tx.Where("purchase_order_id = ?", po.ID).Find(&items).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	// Ascending product id, matching checkout's lock order.
	restock := make([]PurchaseOrderItem, len(items))
	copy(restock, items)
	sort.Slice(restock, func(i, j int) bool { return restock[i].ProductId < restock[j].ProductId })
	for _, item := range restock {
		if _, err := IncrementInventory(tx, ctx, item.ProductId, item.Qty, MovementPurchase, "PO "+po.PoNumber, userId); err != nil {
			return nil, err
		}
	}

	now := time.Now()
	if err := tx.Model(&po).Updates(map[string]interface{}{
		"status":      PurchaseOrderStatusReceived,
		"received_at": now,
	}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	metadata := map[string]interface{}{
		"po_number":  po.PoNumber,
		"line_count": len(items),
	}
	if err := CreateAuditLog(tx, ctx, userId, AuditActionPurchaseReceived, "purchase_order", fmt.Sprint(po.ID), metadata); err != nil {
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	po.Status = PurchaseOrderStatusReceived
	po.ReceivedAt = &now
	po.Items = items
	return &po, nil
}

func ListPurchaseOrders(ctx context.Context, page int) ([]*PurchaseOrder, int64, error) {
	db := config.GetDB()

	var total int64
	if err := db.WithContext(ctx).Model(&PurchaseOrder{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if page < 1 {
		page = 1
	}
	var purchaseOrders []*PurchaseOrder
	if err := db.WithContext(ctx).
		Preload("Items").
		Order("created_at DESC, id DESC").
		Limit(config.SearchLimit).
		Offset((page - 1) * config.SearchLimit).
		Find(&purchaseOrders).Error; err != nil {
		return nil, 0, err
	}
	return purchaseOrders, total, nil
}
