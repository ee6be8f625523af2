package model

import (
	"time"
)

// Enrollment tracks a student's progress through a course. The price is
// copied from the course at enrollment time, never taken from the client.
// (StudentID, CourseID) is unique: a student enrolls in a course at most once.
type Enrollment struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
	StudentID          uint      `gorm:"not null;uniqueIndex:idx_enrollment_student_course" json:"student_id"`
	CourseID           uint      `gorm:"not null;uniqueIndex:idx_enrollment_student_course" json:"course_id"`
	IsActive           bool      `gorm:"default:true" json:"is_active"`
	Price              float64   `gorm:"not null" json:"price"`
	Progress           int       `gorm:"default:0" json:"progress"` // percentage, 0-100
	IsCompleted        bool      `gorm:"default:false" json:"is_completed"`
	TotalMark          float64   `gorm:"default:0" json:"total_mark"`
	IsCertificateReady bool      `gorm:"default:false" json:"is_certificate_ready"`

	// Relationships
	Student User   `gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE" json:"student,omitempty"`
	Course  Course `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"course,omitempty"`
}

// ApplyProgress clamps the reported progress to [0,100] and sets the
// completion flag once progress reaches 100. Completion is sticky:
// re-reporting 100 never toggles it back, and lower reports do not clear
// it. The certificate flag is left untouched; certification is a separate
// grading step.
func (e *Enrollment) ApplyProgress(progress int) {
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}
	e.Progress = progress
	if e.Progress == 100 {
		e.IsCompleted = true
	}
}
