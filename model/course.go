package model

import (
	"time"
)

// Course is a teacher-owned offering in the catalog. The instructor must
// be a teacher-role user at creation time and owns the course's lessons
// and materials transitively.
type Course struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Title        string    `gorm:"not null" json:"title"`
	Description  string    `gorm:"type:text" json:"description"`
	Banner       string    `gorm:"type:varchar(512)" json:"banner"` // object-store key
	Price        float64   `gorm:"not null" json:"price"`
	Duration     float64   `gorm:"not null" json:"duration"` // in hours
	IsActive     bool      `gorm:"default:true" json:"is_active"`
	CategoryID   uint      `gorm:"not null;index" json:"category_id"`
	InstructorID uint      `gorm:"not null;index" json:"instructor_id"`

	// Relationships
	Category    Category     `gorm:"foreignKey:CategoryID;constraint:OnDelete:CASCADE" json:"category,omitempty"`
	Instructor  User         `gorm:"foreignKey:InstructorID;constraint:OnDelete:CASCADE" json:"instructor,omitempty"`
	Lessons     []Lesson     `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"lessons,omitempty"`
	Materials   []Material   `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"materials,omitempty"`
	Enrollments []Enrollment `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"-"`
}
