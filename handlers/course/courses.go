package course

import (
	"github.com/courseloom/lms-api/model"
	"github.com/courseloom/lms-api/services/storage"
	"github.com/courseloom/lms-api/utils/middleware"
	"github.com/courseloom/lms-api/utils/response"
	"github.com/courseloom/lms-api/utils/validation"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// CourseHandler handles course catalog requests
type CourseHandler struct {
	db        *gorm.DB
	media     *storage.MediaStore
	validator *validation.Validator
}

// NewCourseHandler creates a new course handler. media may be nil when
// no object store is configured; banner uploads are then rejected.
func NewCourseHandler(db *gorm.DB, media *storage.MediaStore) *CourseHandler {
	return &CourseHandler{
		db:        db,
		media:     media,
		validator: validation.NewValidator(),
	}
}

// CreateCourseRequest represents the request body for creating a course.
// There is no instructor field: the instructor is always the caller.
type CreateCourseRequest struct {
	Title       string   `json:"title" validate:"required,min=3,max=255"`
	Description string   `json:"description" validate:"omitempty,max=5000"`
	Price       *float64 `json:"price" validate:"required,gte=0"`
	Duration    *float64 `json:"duration" validate:"required,gte=0"`
	CategoryID  uint     `json:"category_id" validate:"required,min=1"`
	IsActive    *bool    `json:"is_active,omitempty"`
}

// UpdateCourseRequest represents the request body for updating a course
type UpdateCourseRequest struct {
	Title       string   `json:"title" validate:"omitempty,min=3,max=255"`
	Description string   `json:"description" validate:"omitempty,max=5000"`
	Price       *float64 `json:"price" validate:"omitempty,gte=0"`
	Duration    *float64 `json:"duration" validate:"omitempty,gte=0"`
	CategoryID  *uint    `json:"category_id" validate:"omitempty,min=1"`
	IsActive    *bool    `json:"is_active,omitempty"`
}

// ListCourses handles GET /api/v1/courses. The visible set depends on
// the caller's role: admins and students see all courses, teachers see
// only their own. The role set is closed; anything else is rejected.
func (h *CourseHandler) ListCourses(c *fiber.Ctx) error {
	caller, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	query := h.db.Model(&model.Course{})

	switch caller.Role {
	case model.RoleAdmin:
		// all courses
	case model.RoleTeacher:
		query = query.Where("instructor_id = ?", caller.ID)
	case model.RoleStudent:
		// all courses; enrollment state does not restrict browsing
	default:
		return response.Forbidden(c, "Unauthorized role")
	}

	var courses []model.Course
	if err := query.Preload("Category").Order("created_at DESC").Find(&courses).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch courses")
	}

	return response.Success(c, courses)
}

// GetCourse handles GET /api/v1/courses/:id. The detail view is gated
// to admins and the owning instructor.
func (h *CourseHandler) GetCourse(c *fiber.Ctx) error {
	caller, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	id := c.Params("id")

	var course model.Course
	if err := h.db.Preload("Category").Preload("Lessons").Preload("Materials").First(&course, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Course not found")
		}
		return response.InternalServerError(c, "Failed to fetch course")
	}

	if caller.Role != model.RoleAdmin && caller.ID != course.InstructorID {
		return response.Forbidden(c, "")
	}

	return response.Success(c, course)
}

// CreateCourse handles POST /api/v1/courses (teacher only, enforced in
// the router). The instructor is forcibly the caller, which also
// guarantees the instructor has the teacher role.
func (h *CourseHandler) CreateCourse(c *fiber.Ctx) error {
	caller, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	var req CreateCourseRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	// Check if category exists
	var category model.Category
	if err := h.db.First(&category, req.CategoryID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.BadRequest(c, "Unknown category")
		}
		return response.InternalServerError(c, "Failed to verify category")
	}

	course := model.Course{
		Title:        validation.SanitizeString(req.Title),
		Description:  validation.SanitizeString(req.Description),
		Price:        *req.Price,
		Duration:     *req.Duration,
		CategoryID:   req.CategoryID,
		InstructorID: caller.ID,
		IsActive:     true,
	}
	if req.IsActive != nil {
		course.IsActive = *req.IsActive
	}

	if err := h.db.Create(&course).Error; err != nil {
		return response.InternalServerError(c, "Failed to create course")
	}

	h.db.Preload("Category").First(&course, course.ID)

	return response.Created(c, course)
}

// UpdateCourse handles PUT /api/v1/courses/:id. Only the owning teacher
// may update; admins do not bypass ownership here.
func (h *CourseHandler) UpdateCourse(c *fiber.Ctx) error {
	caller, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	id := c.Params("id")

	var course model.Course
	if err := h.db.First(&course, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Course not found")
		}
		return response.InternalServerError(c, "Failed to fetch course")
	}

	if caller.Role != model.RoleTeacher || caller.ID != course.InstructorID {
		return response.Forbidden(c, "Only the course owner can update this course")
	}

	var req UpdateCourseRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	// Update fields if provided
	if req.Title != "" {
		course.Title = validation.SanitizeString(req.Title)
	}
	if req.Description != "" {
		course.Description = validation.SanitizeString(req.Description)
	}
	if req.Price != nil {
		course.Price = *req.Price
	}
	if req.Duration != nil {
		course.Duration = *req.Duration
	}
	if req.CategoryID != nil {
		var category model.Category
		if err := h.db.First(&category, *req.CategoryID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return response.BadRequest(c, "Unknown category")
			}
			return response.InternalServerError(c, "Failed to verify category")
		}
		course.CategoryID = *req.CategoryID
	}
	if req.IsActive != nil {
		course.IsActive = *req.IsActive
	}

	if err := h.db.Save(&course).Error; err != nil {
		return response.InternalServerError(c, "Failed to update course")
	}

	h.db.Preload("Category").First(&course, course.ID)

	return response.SuccessWithMessage(c, "Course updated successfully", course)
}

// DeleteCourse handles DELETE /api/v1/courses/:id. Only the owning
// teacher may delete. The delete cascades to lessons, materials,
// enrollments and lesson discussions.
func (h *CourseHandler) DeleteCourse(c *fiber.Ctx) error {
	caller, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	id := c.Params("id")

	var course model.Course
	if err := h.db.Preload("Lessons").Preload("Materials").First(&course, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Course not found")
		}
		return response.InternalServerError(c, "Failed to fetch course")
	}

	if caller.Role != model.RoleTeacher || caller.ID != course.InstructorID {
		return response.Forbidden(c, "Only the course owner can delete this course")
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		// Lesson discussions first, then content, then the course row
		lessonIDs := tx.Model(&model.Lesson{}).Select("id").Where("course_id = ?", course.ID)
		if err := tx.Where("lesson_id IN (?)", lessonIDs).Delete(&model.QuestionAnswer{}).Error; err != nil {
			return err
		}
		if err := tx.Where("course_id = ?", course.ID).Delete(&model.Lesson{}).Error; err != nil {
			return err
		}
		if err := tx.Where("course_id = ?", course.ID).Delete(&model.Material{}).Error; err != nil {
			return err
		}
		if err := tx.Where("course_id = ?", course.ID).Delete(&model.Enrollment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&course).Error
	})
	if err != nil {
		return response.InternalServerError(c, "Failed to delete course")
	}

	// Best-effort media cleanup after the rows are gone
	if h.media != nil {
		h.media.Delete(c.Context(), course.Banner)
		for _, lesson := range course.Lessons {
			h.media.Delete(c.Context(), lesson.Video)
		}
		for _, material := range course.Materials {
			h.media.Delete(c.Context(), material.File)
		}
	}

	return response.NoContent(c)
}
