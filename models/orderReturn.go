package models

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"bitbucket.org/mmdatafocus/pos_backend/config"
	"bitbucket.org/mmdatafocus/pos_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ReturnLineInput struct {
	OrderItemId int  `json:"order_item_id" binding:"required"`
	Qty         int  `json:"qty" binding:"required"`
	Damaged     bool `json:"damaged"`
}

type NewReturn struct {
	OrderId int               `json:"order_id" binding:"required"`
	Reason  string            `json:"reason"`
	Lines   []ReturnLineInput `json:"lines" binding:"required,min=1,dive"`
}

type ReturnLineResult struct {
	OrderItemId  int             `json:"order_item_id"`
	ProductId    int             `json:"product_id"`
	ProductName  string          `json:"product_name"`
	Qty          int             `json:"qty"`
	RefundAmount decimal.Decimal `json:"refund_amount"`
	Damaged      bool            `json:"damaged"`
}

type ReturnResult struct {
	OrderId      int                `json:"order_id"`
	OrderNumber  string             `json:"order_number"`
	OrderStatus  string             `json:"order_status"`
	TotalRefund  decimal.Decimal    `json:"total_refund"`
	RefundMethod string             `json:"refund_method"`
	Lines        []ReturnLineResult `json:"lines"`
}

// ProportionalRefund prices a partial return as the returned share of the
// line total, at currency precision.
func ProportionalRefund(lineTotal decimal.Decimal, qty int, returnQty int) decimal.Decimal {
	return lineTotal.
		Mul(decimal.NewFromInt(int64(returnQty))).
		Div(decimal.NewFromInt(int64(qty))).
		RoundBank(2)
}

// ProcessReturn refunds order lines in one transaction. The order row is
// locked for the duration so concurrent returns against the same order
// serialize, which keeps cumulative returned_qty honest. Sellable returns
// restock through the ledger; damaged goods only get a damage annotation.
func ProcessReturn(ctx context.Context, input NewReturn) (*ReturnResult, error) {
	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId <= 0 {
		return nil, errors.New("user id is required")
	}

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}

	var order Order
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&order, input.OrderId).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewNotFoundError("Order %d not found", input.OrderId)
		}
		return nil, err
	}

	result := ReturnResult{
		OrderId:      order.ID,
		OrderNumber:  order.OrderNumber,
		TotalRefund:  decimal.Zero,
		RefundMethod: PaymentMethodFromJson(order.PaymentJson),
	}

	// First pass validates every line and prices the refunds; no product rows
	// are touched yet. requested tracks quantities already claimed by earlier
	// lines of this request so duplicate lines cannot exceed the remainder.
	type returnWork struct {
		item    OrderItem
		qty     int
		damaged bool
	}
	work := make([]returnWork, 0, len(input.Lines))
	requested := map[int]int{}
	for _, line := range input.Lines {
		if line.Qty <= 0 {
			tx.Rollback()
			return nil, NewInvalidArgumentError("return quantity must be positive for order item %d", line.OrderItemId)
		}

		var item OrderItem
		if err := tx.Where("id = ? AND order_id = ?", line.OrderItemId, order.ID).
			First(&item).Error; err != nil {
			tx.Rollback()
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, NewNotFoundError("Order item %d not found on order %s", line.OrderItemId, order.OrderNumber)
			}
			return nil, err
		}

		remaining := item.Qty - item.ReturnedQty - requested[item.ID]
		if line.Qty > remaining {
			tx.Rollback()
			return nil, NewInvalidArgumentError("cannot return %d of %s, only %d returnable", line.Qty, item.ProductName, remaining)
		}
		requested[item.ID] += line.Qty

		refund := ProportionalRefund(item.LineTotal, item.Qty, line.Qty)
		work = append(work, returnWork{item: item, qty: line.Qty, damaged: line.Damaged})

		result.TotalRefund = result.TotalRefund.Add(refund)
		result.Lines = append(result.Lines, ReturnLineResult{
			OrderItemId:  item.ID,
			ProductId:    item.ProductId,
			ProductName:  item.ProductName,
			Qty:          line.Qty,
			RefundAmount: refund,
			Damaged:      line.Damaged,
		})
	}

	// Second pass takes the product-row locks in ascending product id, the
	// same order checkout uses, so a return and a checkout over the same
	// products cannot deadlock each other.
	sort.SliceStable(work, func(i, j int) bool { return work[i].item.ProductId < work[j].item.ProductId })
	for _, w := range work {
		if w.damaged {
			if err := RecordDamageMovement(tx, ctx, w.item.ProductId, w.qty, "Damaged return for order "+order.OrderNumber, userId); err != nil {
				return nil, err
			}
		} else {
			if _, err := IncrementInventory(tx, ctx, w.item.ProductId, w.qty, MovementReturn, "Return for order "+order.OrderNumber, userId); err != nil {
				return nil, err
			}
		}

		if err := tx.Exec("UPDATE order_items SET returned_qty = returned_qty + ? WHERE id = ?", w.qty, w.item.ID).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	status, err := refreshOrderStatus(tx, &order)
	if err != nil {
		return nil, err
	}
	result.OrderStatus = status

	actorEmail, _ := utils.GetUserEmailFromContext(ctx)
	metadata := map[string]interface{}{
		"order_number":  order.OrderNumber,
		"actor_email":   actorEmail,
		"lines":         result.Lines,
		"total_refund":  result.TotalRefund,
		"refund_method": result.RefundMethod,
		"reason":        input.Reason,
	}
	if err := CreateAuditLog(tx, ctx, userId, AuditActionReturnProcessed, "order", fmt.Sprint(order.ID), metadata); err != nil {
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &result, nil
}

// refreshOrderStatus recomputes the order's status from its items' cumulative
// returned quantities, inside the return transaction.
func refreshOrderStatus(tx *gorm.DB, order *Order) (string, error) {
	var items []OrderItem
	if err := tx.Where("order_id = ?", order.ID).Find(&items).Error; err != nil {
		tx.Rollback()
		return "", err
	}

	allReturned := len(items) > 0
	anyReturned := false
	for _, item := range items {
		if item.ReturnedQty > 0 {
			anyReturned = true
		}
		if item.ReturnedQty < item.Qty {
			allReturned = false
		}
	}

	status := OrderStatusCompleted
	if allReturned {
		status = OrderStatusRefunded
	} else if anyReturned {
		status = OrderStatusPartiallyRefunded
	}

	if status != order.Status {
		if err := tx.Exec("UPDATE orders SET status = ? WHERE id = ?", status, order.ID).Error; err != nil {
			tx.Rollback()
			return "", err
		}
	}
	return status, nil
}
