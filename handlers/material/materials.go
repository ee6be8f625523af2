package material

import (
	"github.com/courseloom/lms-api/model"
	"github.com/courseloom/lms-api/services/storage"
	"github.com/courseloom/lms-api/utils/middleware"
	"github.com/courseloom/lms-api/utils/response"
	"github.com/courseloom/lms-api/utils/validation"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// MaterialHandler handles course material requests. Access follows the
// same policy as lessons: hardened by default, open when configured.
type MaterialHandler struct {
	db        *gorm.DB
	media     *storage.MediaStore
	validator *validation.Validator
	open      bool
}

// NewMaterialHandler creates a new material handler
func NewMaterialHandler(db *gorm.DB, media *storage.MediaStore, open bool) *MaterialHandler {
	return &MaterialHandler{
		db:        db,
		media:     media,
		validator: validation.NewValidator(),
		open:      open,
	}
}

// CreateMaterialRequest represents the request body for creating a material
type CreateMaterialRequest struct {
	Title       string `json:"title" validate:"required,min=3,max=255"`
	Description string `json:"description" validate:"omitempty,max=5000"`
	FileType    string `json:"file_type" validate:"omitempty,max=50"`
	CourseID    uint   `json:"course_id" validate:"required,min=1"`
	IsActive    *bool  `json:"is_active,omitempty"`
}

// ListMaterials handles GET /api/v1/materials (?course_id= filters to
// one course)
func (h *MaterialHandler) ListMaterials(c *fiber.Ctx) error {
	query := h.db.Model(&model.Material{}).Preload("Course")

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
			// all materials
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

	var materials []model.Material
	if err := query.Order("created_at ASC").Find(&materials).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch materials")
	}

	return response.Success(c, materials)
}

// CreateMaterial handles POST /api/v1/materials
func (h *MaterialHandler) CreateMaterial(c *fiber.Ctx) error {
	var req CreateMaterialRequest
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
			return response.Forbidden(c, "Only the course instructor can add materials")
		}
	}

	material := model.Material{
		Title:       validation.SanitizeString(req.Title),
		Description: validation.SanitizeString(req.Description),
		FileType:    validation.SanitizeString(req.FileType),
		CourseID:    req.CourseID,
		IsActive:    true,
	}
	if req.IsActive != nil {
		material.IsActive = *req.IsActive
	}

	if err := h.db.Create(&material).Error; err != nil {
		return response.InternalServerError(c, "Failed to create material")
	}

	return response.Created(c, material)
}

// DeleteMaterial handles DELETE /api/v1/materials/:id. Course
// instructor or admin only.
func (h *MaterialHandler) DeleteMaterial(c *fiber.Ctx) error {
	caller, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	id := c.Params("id")

	var material model.Material
	if err := h.db.Preload("Course").First(&material, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Material not found")
		}
		return response.InternalServerError(c, "Failed to fetch material")
	}

	if caller.Role != model.RoleAdmin && caller.ID != material.Course.InstructorID {
		return response.Forbidden(c, "Only the course instructor can delete materials")
	}

	if err := h.db.Delete(&material).Error; err != nil {
		return response.InternalServerError(c, "Failed to delete material")
	}

	if h.media != nil {
		h.media.Delete(c.Context(), material.File)
	}

	return response.NoContent(c)
}

// UploadFile handles POST /api/v1/materials/:id/file. Multipart form
// with a "file" field. Course instructor or admin only.
func (h *MaterialHandler) UploadFile(c *fiber.Ctx) error {
	caller, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	if h.media == nil {
		return response.InternalServerError(c, "Media storage is not configured")
	}

	id := c.Params("id")

	var material model.Material
	if err := h.db.Preload("Course").First(&material, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Material not found")
		}
		return response.InternalServerError(c, "Failed to fetch material")
	}

	if caller.Role != model.RoleAdmin && caller.ID != material.Course.InstructorID {
		return response.Forbidden(c, "Only the course instructor can upload material files")
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return response.BadRequest(c, "File is required")
	}
	if fileHeader.Size > 50*1024*1024 {
		return response.BadRequest(c, "File must be smaller than 50MB")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return response.InternalServerError(c, "Failed to read file")
	}
	defer file.Close()

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	key := storage.ObjectKey("course_materials", fileHeader.Filename)
	if err := h.media.Upload(c.Context(), key, file, contentType); err != nil {
		return response.InternalServerError(c, "Failed to store file")
	}

	oldKey := material.File
	if err := h.db.Model(&material).Update("file", key).Error; err != nil {
		h.media.Delete(c.Context(), key)
		return response.InternalServerError(c, "Failed to update material")
	}
	if oldKey != "" {
		h.media.Delete(c.Context(), oldKey)
	}

	return response.SuccessWithMessage(c, "File uploaded successfully", fiber.Map{
		"file":     key,
		"file_url": h.media.URL(key),
	})
}
