package question

import (
	"github.com/courseloom/lms-api/model"
	"github.com/courseloom/lms-api/utils/middleware"
	"github.com/courseloom/lms-api/utils/response"
	"github.com/courseloom/lms-api/utils/validation"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// QuestionHandler handles lesson discussion threads
type QuestionHandler struct {
	db        *gorm.DB
	validator *validation.Validator
	open      bool
}

// NewQuestionHandler creates a new question handler
func NewQuestionHandler(db *gorm.DB, open bool) *QuestionHandler {
	return &QuestionHandler{
		db:        db,
		validator: validation.NewValidator(),
		open:      open,
	}
}

// CreateQuestionRequest represents the request body for posting to a
// lesson thread. The author is always the caller.
type CreateQuestionRequest struct {
	LessonID    uint   `json:"lesson_id" validate:"required,min=1"`
	Description string `json:"description" validate:"required,min=1,max=5000"`
}

// ListQuestions handles GET /api/v1/questions (?lesson_id= filters to
// one thread)
func (h *QuestionHandler) ListQuestions(c *fiber.Ctx) error {
	if !h.open {
		if _, ok := middleware.GetUser(c); !ok {
			return response.Unauthorized(c, "")
		}
	}

	query := h.db.Model(&model.QuestionAnswer{}).Preload("User").Preload("Lesson")

	if lessonID := c.Query("lesson_id"); lessonID != "" {
		query = query.Where("lesson_id = ?", lessonID)
	}

	var questions []model.QuestionAnswer
	if err := query.Order("created_at ASC").Find(&questions).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch questions")
	}

	return response.Success(c, questions)
}

// CreateQuestion handles POST /api/v1/questions. Under the hardened
// policy posting is limited to users enrolled in the lesson's course,
// the course instructor, or an admin.
func (h *QuestionHandler) CreateQuestion(c *fiber.Ctx) error {
	caller, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	var req CreateQuestionRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	var lesson model.Lesson
	if err := h.db.Preload("Course").First(&lesson, req.LessonID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.BadRequest(c, "Unknown lesson")
		}
		return response.InternalServerError(c, "Failed to verify lesson")
	}

	if !h.open {
		allowed, err := h.canPost(caller, &lesson)
		if err != nil {
			return response.InternalServerError(c, "Failed to check course access")
		}
		if !allowed {
			return response.Forbidden(c, "Enroll in the course to join the discussion")
		}
	}

	question := model.QuestionAnswer{
		UserID:      caller.ID,
		LessonID:    req.LessonID,
		Description: validation.SanitizeString(req.Description),
		IsActive:    true,
	}

	if err := h.db.Create(&question).Error; err != nil {
		return response.InternalServerError(c, "Failed to create question")
	}

	h.db.Preload("User").First(&question, question.ID)

	return response.Created(c, question)
}

// DeleteQuestion handles DELETE /api/v1/questions/:id. The author, the
// course instructor or an admin may delete a post.
func (h *QuestionHandler) DeleteQuestion(c *fiber.Ctx) error {
	caller, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	id := c.Params("id")

	var question model.QuestionAnswer
	if err := h.db.Preload("Lesson.Course").First(&question, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Question not found")
		}
		return response.InternalServerError(c, "Failed to fetch question")
	}

	if caller.Role != model.RoleAdmin &&
		caller.ID != question.UserID &&
		caller.ID != question.Lesson.Course.InstructorID {
		return response.Forbidden(c, "")
	}

	if err := h.db.Delete(&question).Error; err != nil {
		return response.InternalServerError(c, "Failed to delete question")
	}

	return response.NoContent(c)
}

func (h *QuestionHandler) canPost(caller *model.User, lesson *model.Lesson) (bool, error) {
	if caller.Role == model.RoleAdmin || caller.ID == lesson.Course.InstructorID {
		return true, nil
	}
	var count int64
	err := h.db.Model(&model.Enrollment{}).
		Where("course_id = ? AND student_id = ? AND is_active = ?", lesson.CourseID, caller.ID, true).
		Count(&count).Error
	return count > 0, err
}
