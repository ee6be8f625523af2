package model

import (
	"time"

	"gorm.io/datatypes"
)

// AdminAuditLog represents the audit trail for admin actions
type AdminAuditLog struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	AdminID    uint           `gorm:"not null;index" json:"admin_id"`
	Action     string         `gorm:"type:varchar(100);not null" json:"action"` // e.g. "user_delete", "enrollment_grade"
	Resource   string         `gorm:"type:varchar(100)" json:"resource"`        // e.g. "users", "enrollments"
	ResourceID uint           `json:"resource_id"`
	Details    datatypes.JSON `gorm:"type:jsonb" json:"details"`
	IPAddress  string         `gorm:"type:varchar(45)" json:"ip_address"`

	// Relationships
	Admin User `gorm:"foreignKey:AdminID;constraint:OnDelete:CASCADE" json:"admin,omitempty"`
}

// TableName specifies the table name for AdminAuditLog
func (AdminAuditLog) TableName() string {
	return "admin_audit_logs"
}
