package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/pos_backend/config"
	"bitbucket.org/mmdatafocus/pos_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Product struct {
	ID               int             `gorm:"primary_key" json:"id"`
	Sku              string          `gorm:"size:100;uniqueIndex;not null" json:"sku"`
	Barcode          *string         `gorm:"size:100;uniqueIndex" json:"barcode"`
	Name             string          `gorm:"size:255;not null" json:"name"`
	Description      string          `gorm:"type:text" json:"description"`
	Category         string          `gorm:"size:100;index" json:"category"`
	Price            decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"price"`
	Cost             decimal.Decimal `gorm:"type:decimal(20,2);default:0" json:"cost"`
	Taxable          bool            `gorm:"default:true" json:"taxable"`
	OnHand           int             `gorm:"default:0" json:"on_hand"`
	ReorderThreshold int             `gorm:"default:0" json:"reorder_threshold"`
	ReorderQty       int             `gorm:"default:0" json:"reorder_qty"`
	Location         string          `gorm:"size:100" json:"location"`
	Status           string          `gorm:"type:enum('active','discontinued','out_of_stock');default:active" json:"status"`
	CreatedAt        time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewProduct struct {
	Sku              string          `json:"sku" binding:"required"`
	Barcode          *string         `json:"barcode"`
	Name             string          `json:"name" binding:"required"`
	Description      string          `json:"description"`
	Category         string          `json:"category"`
	Price            decimal.Decimal `json:"price" binding:"required"`
	Cost             decimal.Decimal `json:"cost"`
	Taxable          *bool           `json:"taxable"`
	OnHand           int             `json:"on_hand"`
	ReorderThreshold int             `json:"reorder_threshold"`
	ReorderQty       int             `json:"reorder_qty"`
	Location         string          `json:"location"`
}

type UpdateProductInput struct {
	Sku              *string          `json:"sku"`
	Barcode          *string          `json:"barcode"`
	Name             *string          `json:"name"`
	Description      *string          `json:"description"`
	Category         *string          `json:"category"`
	Price            *decimal.Decimal `json:"price"`
	Cost             *decimal.Decimal `json:"cost"`
	Taxable          *bool            `json:"taxable"`
	ReorderThreshold *int             `json:"reorder_threshold"`
	ReorderQty       *int             `json:"reorder_qty"`
	Location         *string          `json:"location"`
	Status           *string          `json:"status"`
}

func GetProductById(ctx context.Context, id int) (*Product, error) {
	var product Product
	db := config.GetDB()
	if err := db.WithContext(ctx).First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewNotFoundError("Product %d not found", id)
		}
		return nil, err
	}
	return &product, nil
}

func ListProducts(ctx context.Context, page int, category string, search string) ([]*Product, int64, error) {
	db := config.GetDB()

	dbCtx := db.WithContext(ctx).Model(&Product{})
	if category != "" {
		dbCtx = dbCtx.Where("category = ?", category)
	}
	if search != "" {
		like := "%" + search + "%"
		dbCtx = dbCtx.Where("name LIKE ? OR sku LIKE ? OR barcode LIKE ?", like, like, like)
	}

	var total int64
	if err := dbCtx.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if page < 1 {
		page = 1
	}
	var products []*Product
	if err := dbCtx.Order("name ASC").
		Limit(config.SearchLimit).
		Offset((page - 1) * config.SearchLimit).
		Find(&products).Error; err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// SearchProducts matches active products for the checkout screen lookup.
func SearchProducts(ctx context.Context, query string) ([]*Product, error) {
	var products []*Product
	db := config.GetDB()
	like := "%" + query + "%"
	if err := db.WithContext(ctx).
		Where("status = ?", ProductStatusActive).
		Where("name LIKE ? OR sku LIKE ? OR barcode LIKE ?", like, like, like).
		Order("name ASC").
		Limit(config.SearchLimit).
		Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func CreateProduct(ctx context.Context, input NewProduct) (*Product, error) {
	if input.Price.IsNegative() || input.Cost.IsNegative() {
		return nil, NewInvalidArgumentError("price and cost must not be negative")
	}
	if input.OnHand < 0 {
		return nil, NewInvalidArgumentError("on_hand must not be negative")
	}

	if err := utils.ValidateUnique[Product](ctx, "sku", input.Sku, 0); err != nil {
		return nil, NewInvalidArgumentError("sku %s already exists", input.Sku)
	}
	if input.Barcode != nil && *input.Barcode != "" {
		if err := utils.ValidateUnique[Product](ctx, "barcode", *input.Barcode, 0); err != nil {
			return nil, NewInvalidArgumentError("barcode %s already exists", *input.Barcode)
		}
	}

	product := Product{
		Sku:              input.Sku,
		Barcode:          input.Barcode,
		Name:             input.Name,
		Description:      input.Description,
		Category:         input.Category,
		Price:            input.Price,
		Cost:             input.Cost,
		Taxable:          utils.DereferencePtr(input.Taxable, true),
		OnHand:           input.OnHand,
		ReorderThreshold: input.ReorderThreshold,
		ReorderQty:       input.ReorderQty,
		Location:         input.Location,
		Status:           ProductStatusActive,
	}

	userId, _ := utils.GetUserIdFromContext(ctx)

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	if err := tx.Create(&product).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	// Opening stock enters through the ledger too, so on_hand always equals
	// the movement sum.
	if input.OnHand > 0 {
		movement := InventoryMovement{
			ProductId:   product.ID,
			Type:        MovementAdjustment,
			DeltaQty:    input.OnHand,
			Reason:      "Opening stock",
			CreatedById: userId,
		}
		if err := tx.Create(&movement).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func UpdateProduct(ctx context.Context, id int, input UpdateProductInput) (*Product, error) {
	product, err := GetProductById(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Sku != nil && *input.Sku != product.Sku {
		if err := utils.ValidateUnique[Product](ctx, "sku", *input.Sku, id); err != nil {
			return nil, NewInvalidArgumentError("sku %s already exists", *input.Sku)
		}
		product.Sku = *input.Sku
	}
	if input.Barcode != nil && *input.Barcode != "" {
		if err := utils.ValidateUnique[Product](ctx, "barcode", *input.Barcode, id); err != nil {
			return nil, NewInvalidArgumentError("barcode %s already exists", *input.Barcode)
		}
		product.Barcode = input.Barcode
	}
	if input.Price != nil {
		if input.Price.IsNegative() {
			return nil, NewInvalidArgumentError("price must not be negative")
		}
		product.Price = *input.Price
	}
	if input.Cost != nil {
		if input.Cost.IsNegative() {
			return nil, NewInvalidArgumentError("cost must not be negative")
		}
		product.Cost = *input.Cost
	}
	if input.Status != nil {
		switch *input.Status {
		case ProductStatusActive, ProductStatusDiscontinued, ProductStatusOutOfStock:
			product.Status = *input.Status
		default:
			return nil, NewInvalidArgumentError("unknown status %s", *input.Status)
		}
	}

	product.Name = utils.DereferencePtr(input.Name, product.Name)
	product.Description = utils.DereferencePtr(input.Description, product.Description)
	product.Category = utils.DereferencePtr(input.Category, product.Category)
	product.Taxable = utils.DereferencePtr(input.Taxable, product.Taxable)
	product.ReorderThreshold = utils.DereferencePtr(input.ReorderThreshold, product.ReorderThreshold)
	product.ReorderQty = utils.DereferencePtr(input.ReorderQty, product.ReorderQty)
	product.Location = utils.DereferencePtr(input.Location, product.Location)

	db := config.GetDB()
	if err := db.WithContext(ctx).Save(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}
