package models

import (
	"context"
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

type AuditLog struct {
	ID           int       `gorm:"primary_key" json:"id"`
	ActorId      int       `gorm:"index" json:"actor_id"`
	Action       string    `gorm:"size:100;index;not null" json:"action"`
	EntityType   string    `gorm:"size:100" json:"entity_type"`
	EntityId     string    `gorm:"size:100;index" json:"entity_id"`
	MetadataJson string    `gorm:"type:text" json:"metadata_json"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// CreateAuditLog appends one audit row inside the caller's transaction so the
// trail commits or rolls back with the action it describes.
func CreateAuditLog(tx *gorm.DB, ctx context.Context, actorId int, action string, entityType string, entityId string, metadata map[string]interface{}) error {
	payload, err := json.Marshal(metadata)
	if err != nil {
		tx.Rollback()
		return err
	}

	auditLog := AuditLog{
		ActorId:      actorId,
		Action:       action,
		EntityType:   entityType,
		EntityId:     entityId,
		MetadataJson: string(payload),
	}
	if err := tx.WithContext(ctx).Create(&auditLog).Error; err != nil {
		tx.Rollback()
		return err
	}
	return nil
}
