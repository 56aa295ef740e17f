package models

type UserRole string

const (
	RoleCashier UserRole = "cashier"
	RoleManager UserRole = "manager"
	RoleAdmin   UserRole = "admin"
)

var roleRank = map[UserRole]int{
	RoleCashier: 1,
	RoleManager: 2,
	RoleAdmin:   3,
}

// RolePermits reports whether actual carries at least required's privileges.
// Unknown roles rank below cashier.
func RolePermits(required UserRole, actual UserRole) bool {
	return roleRank[actual] >= roleRank[required] && roleRank[actual] > 0
}

func IsValidRole(role UserRole) bool {
	_, ok := roleRank[role]
	return ok
}

// Inventory movement types. SALE and DAMAGE carry negative deltas, PURCHASE
// and RETURN positive ones, ADJUSTMENT either sign.
const (
	MovementSale       = "sale"
	MovementPurchase   = "purchase"
	MovementAdjustment = "adjustment"
	MovementReturn     = "return"
	MovementDamage     = "damage"
)

// Product lifecycle statuses. Advisory only; not synchronized with on_hand.
const (
	ProductStatusActive       = "active"
	ProductStatusDiscontinued = "discontinued"
	ProductStatusOutOfStock   = "out_of_stock"
)

// Order statuses.
const (
	OrderStatusCompleted         = "completed"
	OrderStatusPartiallyRefunded = "partially_refunded"
	OrderStatusRefunded          = "refunded"
)

// Purchase order statuses.
const (
	PurchaseOrderStatusDraft     = "draft"
	PurchaseOrderStatusSubmitted = "submitted"
	PurchaseOrderStatusReceived  = "received"
	PurchaseOrderStatusCancelled = "cancelled"
)

// Audit log actions.
const (
	AuditActionReturnProcessed   = "return_processed"
	AuditActionInventoryAdjusted = "inventory_adjusted"
	AuditActionPurchaseReceived  = "purchase_received"
)
