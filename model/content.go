package model

import (
	"time"
)

// Lesson is a video unit attached to a course.
type Lesson struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Title       string    `gorm:"not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	Video       string    `gorm:"type:varchar(512)" json:"video"` // object-store key
	CourseID    uint      `gorm:"not null;index" json:"course_id"`
	IsActive    bool      `gorm:"default:true" json:"is_active"`

	// Relationships
	Course    Course           `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"course,omitempty"`
	Questions []QuestionAnswer `gorm:"foreignKey:LessonID;constraint:OnDelete:CASCADE" json:"-"`
}

// Material is a downloadable file attached to a course.
type Material struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Title       string    `gorm:"not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	FileType    string    `gorm:"type:varchar(100)" json:"file_type"` // e.g. "pdf", "slides"
	File        string    `gorm:"type:varchar(512)" json:"file"`      // object-store key
	CourseID    uint      `gorm:"not null;index" json:"course_id"`
	IsActive    bool      `gorm:"default:true" json:"is_active"`

	// Relationships
	Course Course `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"course,omitempty"`
}
