package models

import "time"

// Audit logging for state-changing operations (order confirm/cancel).
type AuditLog struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"index" json:"user_id"` // actor, opaque to the core
	EntityType string    `gorm:"size:40;index" json:"entity_type"`
	EntityID   uint      `gorm:"index" json:"entity_id"`
	Action     string    `gorm:"size:40" json:"action"` // ex: "confirm", "cancel"
	OldValue   string    `json:"old_value"`
	NewValue   string    `json:"new_value"`
	Note       string    `gorm:"size:200" json:"note"`
	CreatedAt  time.Time `json:"created_at"`
}
