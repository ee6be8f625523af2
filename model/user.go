package model

import (
	"time"
)

// Role is the closed set of user roles. Authorization checks match
// exhaustively on these values; anything else is rejected.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleTeacher, RoleStudent:
		return true
	}
	return false
}

// User represents a registered user in the system
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Username     string    `gorm:"uniqueIndex;not null" json:"username"`
	Email        string    `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"not null" json:"-"` // Never expose password in JSON
	Role         Role      `gorm:"type:varchar(20);default:'student'" json:"role"`
	MobileNo     string    `gorm:"type:varchar(15)" json:"mobile_no"`
	TokenVersion int       `gorm:"default:0" json:"-"` // Increment to invalidate all user tokens

	// Relationships
	Courses        []Course         `gorm:"foreignKey:InstructorID;constraint:OnDelete:CASCADE" json:"-"`
	Enrollments    []Enrollment     `gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE" json:"-"`
	Questions      []QuestionAnswer `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	TokenBlacklist []TokenBlacklist `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}
