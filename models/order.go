package models

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"bitbucket.org/mmdatafocus/pos_backend/config"
	"bitbucket.org/mmdatafocus/pos_backend/utils"
	"github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"gorm.io/gorm"
)

var checkoutTracer = otel.Tracer("pos_backend/checkout")

type Order struct {
	ID            int             `gorm:"primary_key" json:"id"`
	OrderNumber   string          `gorm:"size:50;uniqueIndex;not null" json:"order_number"`
	CashierId     int             `gorm:"index;not null" json:"cashier_id"`
	CustomerId    *int            `gorm:"index" json:"customer_id"`
	Status        string          `gorm:"size:30;default:completed" json:"status"`
	Subtotal      decimal.Decimal `gorm:"type:decimal(20,2);default:0" json:"subtotal"`
	DiscountTotal decimal.Decimal `gorm:"type:decimal(20,2);default:0" json:"discount_total"`
	TaxTotal      decimal.Decimal `gorm:"type:decimal(20,2);default:0" json:"tax_total"`
	Total         decimal.Decimal `gorm:"type:decimal(20,2);default:0" json:"total"`
	PaymentJson   string          `gorm:"type:text" json:"payment_json"`
	Items         []OrderItem     `gorm:"constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt     time.Time       `gorm:"autoCreateTime;index" json:"created_at"`
}

type OrderItem struct {
	ID          int             `gorm:"primary_key" json:"id"`
	OrderId     int             `gorm:"index;not null" json:"order_id"`
	ProductId   int             `gorm:"index;not null" json:"product_id"`
	ProductName string          `gorm:"size:255" json:"product_name"`
	Qty         int             `gorm:"not null" json:"qty"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(20,2)" json:"unit_price"`
	Discount    decimal.Decimal `gorm:"type:decimal(20,2);default:0" json:"discount"`
	LineTotal   decimal.Decimal `gorm:"type:decimal(20,2)" json:"line_total"`
	ReturnedQty int             `gorm:"default:0" json:"returned_qty"`
}

type NewOrderItem struct {
	ProductId int             `json:"product_id" binding:"required"`
	Qty       int             `json:"qty" binding:"required"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Discount  decimal.Decimal `json:"discount"`
}

type NewOrder struct {
	Items         []NewOrderItem  `json:"items" binding:"required,min=1,dive"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	DiscountTotal decimal.Decimal `json:"discount_total"`
	TaxTotal      decimal.Decimal `json:"tax_total"`
	Total         decimal.Decimal `json:"total"`
	CustomerId    *int            `json:"customer_id"`
	Payment       json.RawMessage `json:"payment"`
}

func orderNumberPrefix(t time.Time) string {
	return "ORD-" + t.UTC().Format("20060102") + "-"
}

func FormatOrderNumber(t time.Time, seq int64) string {
	return fmt.Sprintf("%s%04d", orderNumberPrefix(t), seq)
}

func isDuplicateKeyError(err error) bool {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1062
	}
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

// CreateOrder runs the whole checkout in one transaction: order number
// allocation, the order row, and per item a row-locked stock decrement plus
// ledger entry. Any failure rolls everything back. A duplicate order number
// is retried once with a reseeded sequence before surfacing as a conflict.
func CreateOrder(ctx context.Context, input NewOrder) (*Order, error) {
	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId <= 0 {
		return nil, errors.New("user id is required")
	}

	if !input.Total.Equal(input.Subtotal.Sub(input.DiscountTotal).Add(input.TaxTotal)) {
		return nil, NewInvalidArgumentError("total must equal subtotal - discount_total + tax_total")
	}
	for _, item := range input.Items {
		if item.Qty <= 0 {
			return nil, NewInvalidArgumentError("quantity must be positive for product %d", item.ProductId)
		}
		if item.UnitPrice.IsNegative() || item.Discount.IsNegative() {
			return nil, NewInvalidArgumentError("unit price and discount must not be negative for product %d", item.ProductId)
		}
	}

	ctx, span := checkoutTracer.Start(ctx, "CreateOrder")
	defer span.End()

	logger := config.GetLogger()
	for attempt := 0; attempt < 2; attempt++ {
		order, err := createOrderOnce(ctx, input, userId)
		if err == nil {
			return order, nil
		}
		if !isDuplicateKeyError(err) {
			return nil, err
		}
		// Another instance took the same number; reseed and retry once.
		config.LogError(logger, "models", "CreateOrder", "duplicate order number", attempt, err)
		if err := utils.ResetDocumentSequence(orderNumberPrefix(time.Now())); err != nil {
			return nil, err
		}
	}
	return nil, NewConflictError("could not allocate a unique order number, please retry")
}

func createOrderOnce(ctx context.Context, input NewOrder, userId int) (*Order, error) {
	now := time.Now()
	seq, err := utils.GetDocumentSequence(ctx, "orders", "order_number", orderNumberPrefix(now))
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}

	order := Order{
		OrderNumber:   FormatOrderNumber(now, seq),
		CashierId:     userId,
		CustomerId:    input.CustomerId,
		Status:        OrderStatusCompleted,
		Subtotal:      utils.RoundMoney(input.Subtotal),
		DiscountTotal: utils.RoundMoney(input.DiscountTotal),
		TaxTotal:      utils.RoundMoney(input.TaxTotal),
		Total:         utils.RoundMoney(input.Total),
		PaymentJson:   string(input.Payment),
	}
	if err := tx.Create(&order).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	// Ascending product-id order gives every checkout the same lock
	// acquisition order, so concurrent checkouts cannot deadlock.
	items := make([]NewOrderItem, len(input.Items))
	copy(items, input.Items)
	sort.Slice(items, func(i, j int) bool { return items[i].ProductId < items[j].ProductId })

	for _, item := range items {
		product, err := DecrementInventory(tx, ctx, item.ProductId, item.Qty, "Order "+order.OrderNumber, userId)
		if err != nil {
			return nil, err
		}

		unitPrice := item.UnitPrice
		if unitPrice.IsZero() {
			unitPrice = product.Price
		}
		lineTotal := utils.RoundMoney(unitPrice.Mul(decimal.NewFromInt(int64(item.Qty))).Sub(item.Discount))
		if lineTotal.IsNegative() {
			tx.Rollback()
			return nil, NewInvalidArgumentError("discount exceeds line amount for product %d", item.ProductId)
		}

		orderItem := OrderItem{
			OrderId:     order.ID,
			ProductId:   item.ProductId,
			ProductName: product.Name,
			Qty:         item.Qty,
			UnitPrice:   unitPrice,
			Discount:    item.Discount,
			LineTotal:   lineTotal,
		}
		if err := tx.Create(&orderItem).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
		order.Items = append(order.Items, orderItem)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func ListOrders(ctx context.Context, page int) ([]*Order, int64, error) {
	db := config.GetDB()

	var total int64
	if err := db.WithContext(ctx).Model(&Order{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if page < 1 {
		page = 1
	}
	var orders []*Order
	if err := db.WithContext(ctx).
		Preload("Items").
		Order("created_at DESC, id DESC").
		Limit(config.SearchLimit).
		Offset((page - 1) * config.SearchLimit).
		Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func GetOrderById(ctx context.Context, id int) (*Order, error) {
	var order Order
	db := config.GetDB()
	if err := db.WithContext(ctx).Preload("Items").First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewNotFoundError("Order %d not found", id)
		}
		return nil, err
	}
	return &order, nil
}

// GetOrderByNumber resolves an exact order number, the lookup used at the
// returns counter.
func GetOrderByNumber(ctx context.Context, orderNumber string) (*Order, error) {
	var order Order
	db := config.GetDB()
	if err := db.WithContext(ctx).
		Preload("Items").
		Where("order_number = ?", orderNumber).
		First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewNotFoundError("Order %s not found", orderNumber)
		}
		return nil, err
	}
	return &order, nil
}

type ReceiptLine struct {
	Name      string          `json:"name"`
	Qty       int             `json:"qty"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Discount  decimal.Decimal `json:"discount"`
	LineTotal decimal.Decimal `json:"line_total"`
}

type Receipt struct {
	OrderNumber   string          `json:"order_number"`
	CreatedAt     time.Time       `json:"created_at"`
	Lines         []ReceiptLine   `json:"lines"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	DiscountTotal decimal.Decimal `json:"discount_total"`
	TaxTotal      decimal.Decimal `json:"tax_total"`
	Total         decimal.Decimal `json:"total"`
	PaymentMethod string          `json:"payment_method"`
	CashierEmail  string          `json:"cashier_email"`
}

// PaymentMethodFromJson pulls the method out of an order's payment payload,
// defaulting to cash when absent or unparseable.
func PaymentMethodFromJson(paymentJson string) string {
	method := "cash"
	if paymentJson == "" {
		return method
	}
	var payment map[string]interface{}
	if err := json.Unmarshal([]byte(paymentJson), &payment); err != nil {
		return method
	}
	if m, ok := payment["method"].(string); ok && m != "" {
		method = m
	}
	return method
}

// GetReceipt builds the printable projection of an order. Read-only.
func GetReceipt(ctx context.Context, orderId int) (*Receipt, error) {
	order, err := GetOrderById(ctx, orderId)
	if err != nil {
		return nil, err
	}

	cashierEmail := ""
	if cashier, err := GetUserById(ctx, order.CashierId); err == nil {
		cashierEmail = cashier.Email
	}

	receipt := Receipt{
		OrderNumber:   order.OrderNumber,
		CreatedAt:     order.CreatedAt,
		Subtotal:      order.Subtotal,
		DiscountTotal: order.DiscountTotal,
		TaxTotal:      order.TaxTotal,
		Total:         order.Total,
		PaymentMethod: PaymentMethodFromJson(order.PaymentJson),
		CashierEmail:  cashierEmail,
	}
	for _, item := range order.Items {
		receipt.Lines = append(receipt.Lines, ReceiptLine{
			Name:      item.ProductName,
			Qty:       item.Qty,
			UnitPrice: item.UnitPrice,
			Discount:  item.Discount,
			LineTotal: item.LineTotal,
		})
	}
	return &receipt, nil
}
