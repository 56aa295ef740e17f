package models

import (
	"log"

	"bitbucket.org/mmdatafocus/pos_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&User{},
		&Product{}, &InventoryMovement{},
		&Order{}, &OrderItem{},
		&Supplier{}, &PurchaseOrder{}, &PurchaseOrderItem{},
		&AuditLog{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
