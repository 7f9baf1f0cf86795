package models

import (
	"gorm.io/datatypes"
)

// Audit actions recorded by the scheduling core.
const (
	ActionAppointmentCreated   = "APPOINTMENT_CREATED"
	ActionAppointmentUpdated   = "APPOINTMENT_UPDATED"
	ActionAppointmentCancelled = "APPOINTMENT_CANCELLED"
	ActionLinkGenerated        = "APPOINTMENT_LINK_GENERATED"
)

// AuditLog records who did what to which entity, with the request metadata
// and a JSON snapshot of the change.
type AuditLog struct {
	BaseModel
	UserID     string         `gorm:"size:36;index" json:"userId"`
	Action     string         `gorm:"size:60;index" json:"action"`
	EntityType string         `gorm:"size:60" json:"entityType"`
	EntityID   string         `gorm:"size:36" json:"entityId"`
	Changes    datatypes.JSON `json:"changes,omitempty"`
	IPAddress  string         `gorm:"size:45" json:"ipAddress,omitempty"`
	UserAgent  string         `gorm:"size:255" json:"userAgent,omitempty"`
}
