package model

import (
	"time"
)

// QuestionAnswer is a discussion entry attached to a lesson. The author
// is always the authenticated caller.
type QuestionAnswer struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	UserID      uint      `gorm:"not null;index" json:"user_id"`
	LessonID    uint      `gorm:"not null;index" json:"lesson_id"`
	Description string    `gorm:"type:text;not null" json:"description"`
	IsActive    bool      `gorm:"default:true" json:"is_active"`

	// Relationships
	User   User   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
	Lesson Lesson `gorm:"foreignKey:LessonID;constraint:OnDelete:CASCADE" json:"lesson,omitempty"`
}
