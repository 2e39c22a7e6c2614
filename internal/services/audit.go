package services

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/maurigift/internal/models"
)

func recordAudit(tx *gorm.DB, actorID uuid.UUID, action, targetType, targetID string, meta map[string]any) error {
	if meta == nil {
		meta = map[string]any{}
	}
	return tx.Create(&models.AuditLog{
		ActorID:    actorID,
		Action:     action,
		TargetType: targetType,
		TargetID:   targetID,
		Meta:       meta,
	}).Error
}
