package enrollment

import (
	"errors"

	"github.com/courseloom/lms-api/model"
	"github.com/courseloom/lms-api/utils/middleware"
	"github.com/courseloom/lms-api/utils/response"
	"github.com/courseloom/lms-api/utils/validation"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EnrollmentHandler handles course enrollment requests
type EnrollmentHandler struct {
	db        *gorm.DB
	validator *validation.Validator
	open      bool
}

// NewEnrollmentHandler creates a new enrollment handler
func NewEnrollmentHandler(db *gorm.DB, open bool) *EnrollmentHandler {
	return &EnrollmentHandler{
		db:        db,
		validator: validation.NewValidator(),
		open:      open,
	}
}

// CreateEnrollmentRequest represents the request body for enrolling in a
// course. StudentID is honored for admins only; everyone else enrolls
// themself. There is no price field: the price always comes from the
// course.
type CreateEnrollmentRequest struct {
	CourseID  uint `json:"course_id" validate:"required,min=1"`
	StudentID uint `json:"student_id,omitempty"`
}

// ListEnrollments handles GET /api/v1/enrollments. Admins see all,
// students see their own, teachers see enrollments of their courses.
func (h *EnrollmentHandler) ListEnrollments(c *fiber.Ctx) error {
	caller, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	query := h.db.Model(&model.Enrollment{}).Preload("Course").Preload("Course.Category")

	if !h.open {
		switch caller.Role {
		case model.RoleAdmin:
			// all enrollments
		case model.RoleTeacher:
			query = query.Where("course_id IN (?)",
				h.db.Model(&model.Course{}).Select("id").Where("instructor_id = ?", caller.ID))
		case model.RoleStudent:
			query = query.Where("student_id = ?", caller.ID)
		default:
			return response.Forbidden(c, "Unauthorized role")
		}
	}

	var enrollments []model.Enrollment
	if err := query.Order("created_at DESC").Find(&enrollments).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch enrollments")
	}

	return response.Success(c, enrollments)
}

// GetEnrollment handles GET /api/v1/enrollments/:id
func (h *EnrollmentHandler) GetEnrollment(c *fiber.Ctx) error {
	caller, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	id := c.Params("id")

	var enrollment model.Enrollment
	if err := h.db.Preload("Course").First(&enrollment, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Enrollment not found")
		}
		return response.InternalServerError(c, "Failed to fetch enrollment")
	}

	if !h.canView(caller, &enrollment) {
		return response.Forbidden(c, "")
	}

	return response.Success(c, enrollment)
}

// CreateEnrollment handles POST /api/v1/enrollments. A student enrolls
// themself; an admin may enroll any student. The target user must hold
// the student role and each (student, course) pair enrolls at most once.
func (h *EnrollmentHandler) CreateEnrollment(c *fiber.Ctx) error {
	caller, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	var req CreateEnrollmentRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	// Resolve the target student
	studentID := caller.ID
	if req.StudentID != 0 && req.StudentID != caller.ID {
		if caller.Role != model.RoleAdmin {
			return response.Forbidden(c, "Only an admin can enroll another user")
		}
		studentID = req.StudentID
	}

	var student model.User
	if err := h.db.First(&student, studentID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Student not found")
		}
		return response.InternalServerError(c, "Failed to fetch student")
	}
	if student.Role != model.RoleStudent {
		return response.BadRequest(c, "Only users with the student role can enroll")
	}

	var course model.Course
	if err := h.db.First(&course, req.CourseID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Course not found")
		}
		return response.InternalServerError(c, "Failed to fetch course")
	}
	if !course.IsActive {
		return response.BadRequest(c, "Course is not open for enrollment")
	}

	var existing int64
	if err := h.db.Model(&model.Enrollment{}).
		Where("student_id = ? AND course_id = ?", student.ID, course.ID).
		Count(&existing).Error; err != nil {
		return response.InternalServerError(c, "Failed to check enrollment")
	}
	if existing > 0 {
		return response.Conflict(c, "Student is already enrolled in this course")
	}

	enrollment := model.Enrollment{
		StudentID: student.ID,
		CourseID:  course.ID,
		IsActive:  true,
		Price:     course.Price,
	}

	if err := h.db.Create(&enrollment).Error; err != nil {
		// Unique index backstop for concurrent double-enrolls
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return response.Conflict(c, "Student is already enrolled in this course")
		}
		return response.InternalServerError(c, "Failed to create enrollment")
	}

	h.db.Preload("Course").First(&enrollment, enrollment.ID)

	return response.Created(c, enrollment)
}

// UpdateProgressRequest represents a progress report
type UpdateProgressRequest struct {
	Progress *int `json:"progress" validate:"required"`
}

// UpdateProgress handles PATCH /api/v1/enrollments/:id/progress. The
// reported value is clamped to [0,100]; reaching 100 marks the
// enrollment completed and completion never unwinds. The row is locked
// for the duration of the update so concurrent reports cannot lose
// writes.
func (h *EnrollmentHandler) UpdateProgress(c *fiber.Ctx) error {
	caller, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	var req UpdateProgressRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.Progress == nil {
		return response.BadRequest(c, "Progress is required")
	}

	id := c.Params("id")

	var enrollment model.Enrollment
	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&enrollment, id).Error; err != nil {
			return err
		}

		if caller.Role != model.RoleAdmin && caller.ID != enrollment.StudentID {
			return errForbidden
		}
		if !enrollment.IsActive {
			return errInactive
		}

		enrollment.ApplyProgress(*req.Progress)

		return tx.Model(&enrollment).Updates(map[string]interface{}{
			"progress":     enrollment.Progress,
			"is_completed": enrollment.IsCompleted,
		}).Error
	})
	switch {
	case err == nil:
	case errors.Is(err, gorm.ErrRecordNotFound):
		return response.NotFound(c, "Enrollment not found")
	case errors.Is(err, errForbidden):
		return response.Forbidden(c, "Only the enrolled student can report progress")
	case errors.Is(err, errInactive):
		return response.BadRequest(c, "Enrollment is inactive")
	default:
		return response.InternalServerError(c, "Failed to update progress")
	}

	return response.SuccessWithMessage(c, "Progress updated", enrollment)
}

// GradeRequest represents a grading request. CertificateReady may be
// set true only for a completed enrollment.
type GradeRequest struct {
	TotalMark        *float64 `json:"total_mark" validate:"required,gte=0"`
	CertificateReady *bool    `json:"certificate_ready,omitempty"`
}

// Grade handles POST /api/v1/enrollments/:id/grade. Admin or the course
// instructor assigns the final mark and, for completed enrollments,
// releases the certificate.
func (h *EnrollmentHandler) Grade(c *fiber.Ctx) error {
	caller, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	var req GradeRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	id := c.Params("id")

	var enrollment model.Enrollment
	if err := h.db.Preload("Course").First(&enrollment, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Enrollment not found")
		}
		return response.InternalServerError(c, "Failed to fetch enrollment")
	}

	if caller.Role != model.RoleAdmin && caller.ID != enrollment.Course.InstructorID {
		return response.Forbidden(c, "Only the course instructor can grade enrollments")
	}

	updates := map[string]interface{}{
		"total_mark": *req.TotalMark,
	}
	if req.CertificateReady != nil && *req.CertificateReady {
		if !enrollment.IsCompleted {
			return response.BadRequest(c, "Certificate requires a completed enrollment")
		}
		updates["is_certificate_ready"] = true
	}

	if err := h.db.Model(&enrollment).Updates(updates).Error; err != nil {
		return response.InternalServerError(c, "Failed to grade enrollment")
	}

	return response.SuccessWithMessage(c, "Enrollment graded", enrollment)
}

// Deactivate handles POST /api/v1/enrollments/:id/deactivate. Admin or
// the course instructor only. There is no automatic reactivation.
func (h *EnrollmentHandler) Deactivate(c *fiber.Ctx) error {
	caller, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	id := c.Params("id")

	var enrollment model.Enrollment
	if err := h.db.Preload("Course").First(&enrollment, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Enrollment not found")
		}
		return response.InternalServerError(c, "Failed to fetch enrollment")
	}

	if caller.Role != model.RoleAdmin && caller.ID != enrollment.Course.InstructorID {
		return response.Forbidden(c, "Only the course instructor can deactivate enrollments")
	}

	if err := h.db.Model(&enrollment).Update("is_active", false).Error; err != nil {
		return response.InternalServerError(c, "Failed to deactivate enrollment")
	}

	return response.SuccessWithMessage(c, "Enrollment deactivated", enrollment)
}

func (h *EnrollmentHandler) canView(caller *model.User, e *model.Enrollment) bool {
	switch caller.Role {
	case model.RoleAdmin:
		return true
	case model.RoleTeacher:
		return caller.ID == e.Course.InstructorID
	case model.RoleStudent:
		return caller.ID == e.StudentID
	default:
		return false
	}
}

var (
	errForbidden = errors.New("forbidden")
	errInactive  = errors.New("enrollment inactive")
)
