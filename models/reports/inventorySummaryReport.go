package reports

import (
	"context"

	"bitbucket.org/mmdatafocus/pos_backend/config"
)

type InventorySummaryResponse struct {
	ProductId    int    `json:"product_id"`
	ProductName  string `json:"product_name"`
	ProductSku   string `json:"product_sku"`
	OnHand       int    `json:"on_hand"`
	LedgerOnHand int    `json:"ledger_on_hand"`
	DamagedQty   int    `json:"damaged_qty"`
	Consistent   bool   `json:"consistent"`
}

// GetInventorySummaryReport reconciles each product's cached on_hand against
// the movement ledger. Damage annotations are tallied separately since they
// record shrinkage without a stock decrement.
func GetInventorySummaryReport(ctx context.Context) ([]*InventorySummaryResponse, error) {

	sql := `
SELECT
    p.id AS product_id,
    p.name AS product_name,
    p.sku AS product_sku,
    p.on_hand,
    COALESCE(l.ledger_on_hand, 0) AS ledger_on_hand,
    COALESCE(l.damaged_qty, 0) AS damaged_qty,
    p.on_hand = COALESCE(l.ledger_on_hand, 0) AS consistent
FROM products p
LEFT JOIN (
    SELECT
        product_id,
        SUM(CASE WHEN type <> 'damage' THEN delta_qty ELSE 0 END) AS ledger_on_hand,
        SUM(CASE WHEN type = 'damage' THEN ABS(delta_qty) ELSE 0 END) AS damaged_qty
    FROM inventory_movements
    GROUP BY product_id
) AS l ON l.product_id = p.id
ORDER BY p.name;
`

	var records []*InventorySummaryResponse
	db := config.GetDB()
	if err := db.WithContext(ctx).Raw(sql).Scan(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

type LowStockResponse struct {
	ProductId        int    `json:"product_id"`
	ProductName      string `json:"product_name"`
	ProductSku       string `json:"product_sku"`
	OnHand           int    `json:"on_hand"`
	ReorderThreshold int    `json:"reorder_threshold"`
	ReorderQty       int    `json:"reorder_qty"`
}

// GetLowStockReport lists active products at or below their reorder point.
func GetLowStockReport(ctx context.Context) ([]*LowStockResponse, error) {

	sql := `
SELECT
    id AS product_id,
    name AS product_name,
    sku AS product_sku,
    on_hand,
    reorder_threshold,
    reorder_qty
FROM products
WHERE status = 'active'
  AND reorder_threshold > 0
  AND on_hand <= reorder_threshold
ORDER BY on_hand ASC, name ASC;
`

	var records []*LowStockResponse
	db := config.GetDB()
	if err := db.WithContext(ctx).Raw(sql).Scan(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}
