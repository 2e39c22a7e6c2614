package models

import "github.com/google/uuid"

// AuditLog is an append-only record of an administrative or order-state mutation.
type AuditLog struct {
	BaseModel
	ActorID    uuid.UUID      `gorm:"type:uuid;index;not null" json:"actor_id"`
	Action     string         `gorm:"size:64;index;not null" json:"action"`
	TargetType string         `gorm:"size:64;not null" json:"target_type"`
	TargetID   string         `gorm:"size:64;index" json:"target_id"`
	Meta       map[string]any `gorm:"serializer:json" json:"meta"`
}
