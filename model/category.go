package model

import (
	"time"
)

// Category groups courses in the catalog. Only admins create categories;
// there is no delete endpoint for them.
type Category struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Title     string    `gorm:"not null" json:"title"`
	IsActive  bool      `gorm:"default:true" json:"is_active"`

	// Relationships
	Courses []Course `gorm:"foreignKey:CategoryID;constraint:OnDelete:CASCADE" json:"-"`
}
