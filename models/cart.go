package models

import (
	"context"
	"errors"
	"fmt"

	"bitbucket.org/mmdatafocus/pos_backend/config"
	"bitbucket.org/mmdatafocus/pos_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CartItemInput struct {
	ProductId int `json:"product_id" binding:"required"`
	Qty       int `json:"qty" binding:"required"`
}

type CartInput struct {
	Items []CartItemInput `json:"items" binding:"required,dive"`
}

type CartValidationResult struct {
	Valid    bool            `json:"valid"`
	Errors   []string        `json:"errors"`
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
}

// ValidateCart checks every line independently and reports all problems at
// once. It is advisory: no locks are taken and stock can change before
// checkout, which re-verifies under row locks.
func ValidateCart(ctx context.Context, input CartInput) (*CartValidationResult, error) {
	result := &CartValidationResult{Errors: []string{}}
	subtotal := decimal.Zero
	taxableSubtotal := decimal.Zero

	db := config.GetDB()
	for _, item := range input.Items {
		if item.Qty <= 0 {
			result.Errors = append(result.Errors, fmt.Sprintf("Invalid quantity for product %d", item.ProductId))
			continue
		}

		var product Product
		if err := db.WithContext(ctx).First(&product, item.ProductId).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				result.Errors = append(result.Errors, fmt.Sprintf("Product %d not found", item.ProductId))
				continue
			}
			return nil, err
		}

		if product.OnHand < item.Qty {
			stockErr := &InsufficientStockError{
				ProductName: product.Name,
				Available:   product.OnHand,
				Requested:   item.Qty,
			}
			result.Errors = append(result.Errors, stockErr.Error())
			continue
		}

		lineTotal := product.Price.Mul(decimal.NewFromInt(int64(item.Qty)))
		subtotal = subtotal.Add(lineTotal)
		if product.Taxable {
			taxableSubtotal = taxableSubtotal.Add(lineTotal)
		}
	}

	tax, err := utils.CalculateTax(taxableSubtotal, config.GetTaxRate())
	if err != nil {
		return nil, err
	}

	result.Subtotal = utils.RoundMoney(subtotal)
	result.Tax = tax
	result.Total = result.Subtotal.Add(tax)
	result.Valid = len(result.Errors) == 0
	return result, nil
}
