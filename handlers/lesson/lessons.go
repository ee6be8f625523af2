package lesson

import (
	"github.com/courseloom/lms-api/model"
	"github.com/courseloom/lms-api/services/storage"
	"github.com/courseloom/lms-api/utils/middleware"
	"github.com/courseloom/lms-api/utils/response"
	"github.com/courseloom/lms-api/utils/validation"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// LessonHandler handles course lesson requests. When open is false the
// endpoints are hardened: creation is limited to the course instructor
// or an admin, and students only see lessons of courses they are
// enrolled in.
type LessonHandler struct {
	db        *gorm.DB
	media     *storage.MediaStore
	validator *validation.Validator
	open      bool
}

// NewLessonHandler creates a new lesson handler
func NewLessonHandler(db *gorm.DB, media *storage.MediaStore, open bool) *LessonHandler {
	return &LessonHandler{
		db:        db,
		media:     media,
		validator: validation.NewValidator(),
		open:      open,
	}
}

// CreateLessonRequest represents the request body for creating a lesson
type CreateLessonRequest struct {
	Title       string `json:"title" validate:"required,min=3,max=255"`
	Description string `json:"description" validate:"omitempty,max=5000"`
	CourseID    uint   `json:"course_id" validate:"required,min=1"`
	IsActive    *bool  `json:"is_active,omitempty"`
}

// ListLessons handles GET /api/v1/lessons (?course_id= filters to one
// course). Visibility depends on the access policy and the caller role.
func (h *LessonHandler) ListLessons(c *fiber.Ctx) error {
	query := h.db.Model(&model.Lesson{}).Preload("Course")

	if courseID := c.Query("course_id"); courseID != "" {
		query = query.Where("course_id = ?", courseID)
	}

	if !h.open {
		caller, ok := middleware.GetUser(c)
		if !ok {
			return response.Unauthorized(c, "")
		}

		switch caller.Role {
		case model.RoleAdmin:
			// all lessons
		case model.RoleTeacher:
			query = query.Where("course_id IN (?)",
				h.db.Model(&model.Course{}).Select("id").Where("instructor_id = ?", caller.ID))
		case model.RoleStudent:
			query = query.Where("course_id IN (?)",
				h.db.Model(&model.Enrollment{}).Select("course_id").
					Where("student_id = ? AND is_active = ?", caller.ID, true))
		default:
			return response.Forbidden(c, "Unauthorized role")
		}
	}

	var lessons []model.Lesson
	if err := query.Order("created_at ASC").Find(&lessons).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch lessons")
	}

	return response.Success(c, lessons)
}

// GetLesson handles GET /api/v1/lessons/:id
func (h *LessonHandler) GetLesson(c *fiber.Ctx) error {
	id := c.Params("id")

	var lesson model.Lesson
	if err := h.db.Preload("Course").First(&lesson, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Lesson not found")
		}
		return response.InternalServerError(c, "Failed to fetch lesson")
	}

	if !h.open {
		caller, ok := middleware.GetUser(c)
		if !ok {
			return response.Unauthorized(c, "")
		}
		if allowed, err := h.canAccessCourse(caller, lesson.CourseID); err != nil {
			return response.InternalServerError(c, "Failed to check course access")
		} else if !allowed {
			return response.Forbidden(c, "")
		}
	}

	return response.Success(c, lesson)
}

// CreateLesson handles POST /api/v1/lessons
func (h *LessonHandler) CreateLesson(c *fiber.Ctx) error {
	var req CreateLessonRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	var course model.Course
	if err := h.db.First(&course, req.CourseID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.BadRequest(c, "Unknown course")
		}
		return response.InternalServerError(c, "Failed to verify course")
	}

	if !h.open {
		caller, ok := middleware.GetUser(c)
		if !ok {
			return response.Unauthorized(c, "")
		}
		if caller.Role != model.RoleAdmin && caller.ID != course.InstructorID {
			return response.Forbidden(c, "Only the course instructor can add lessons")
		}
	}

	lesson := model.Lesson{
		Title:       validation.SanitizeString(req.Title),
		Description: validation.SanitizeString(req.Description),
		CourseID:    req.CourseID,
		IsActive:    true,
	}
	if req.IsActive != nil {
		lesson.IsActive = *req.IsActive
	}

	if err := h.db.Create(&lesson).Error; err != nil {
		return response.InternalServerError(c, "Failed to create lesson")
	}

	return response.Created(c, lesson)
}

// DeleteLesson handles DELETE /api/v1/lessons/:id. Course instructor or
// admin only, regardless of the access policy. Deletes the lesson's
// discussion thread with it.
func (h *LessonHandler) DeleteLesson(c *fiber.Ctx) error {
	caller, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	id := c.Params("id")

	var lesson model.Lesson
	if err := h.db.Preload("Course").First(&lesson, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Lesson not found")
		}
		return response.InternalServerError(c, "Failed to fetch lesson")
	}

	if caller.Role != model.RoleAdmin && caller.ID != lesson.Course.InstructorID {
		return response.Forbidden(c, "Only the course instructor can delete lessons")
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("lesson_id = ?", lesson.ID).Delete(&model.QuestionAnswer{}).Error; err != nil {
			return err
		}
		return tx.Delete(&lesson).Error
	})
	if err != nil {
		return response.InternalServerError(c, "Failed to delete lesson")
	}

	if h.media != nil {
		h.media.Delete(c.Context(), lesson.Video)
	}

	return response.NoContent(c)
}

// canAccessCourse reports whether the caller may view a course's
// content under the hardened policy.
func (h *LessonHandler) canAccessCourse(caller *model.User, courseID uint) (bool, error) {
	switch caller.Role {
	case model.RoleAdmin:
		return true, nil
	case model.RoleTeacher:
		var count int64
		err := h.db.Model(&model.Course{}).
			Where("id = ? AND instructor_id = ?", courseID, caller.ID).
			Count(&count).Error
		return count > 0, err
	case model.RoleStudent:
		var count int64
		err := h.db.Model(&model.Enrollment{}).
			Where("course_id = ? AND student_id = ? AND is_active = ?", courseID, caller.ID, true).
			Count(&count).Error
		return count > 0, err
	default:
		return false, nil
	}
}
