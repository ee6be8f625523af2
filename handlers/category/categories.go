package category

import (
	"github.com/courseloom/lms-api/model"
	"github.com/courseloom/lms-api/utils/response"
	"github.com/courseloom/lms-api/utils/validation"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// CategoryHandler handles catalog category requests
type CategoryHandler struct {
	db        *gorm.DB
	validator *validation.Validator
}

// NewCategoryHandler creates a new category handler
func NewCategoryHandler(db *gorm.DB) *CategoryHandler {
	return &CategoryHandler{
		db:        db,
		validator: validation.NewValidator(),
	}
}

// CreateCategoryRequest represents the request body for creating a category
type CreateCategoryRequest struct {
	Title    string `json:"title" validate:"required,min=2,max=255"`
	IsActive *bool  `json:"is_active,omitempty"`
}

// ListCategories handles GET /api/v1/categories (any authenticated caller)
func (h *CategoryHandler) ListCategories(c *fiber.Ctx) error {
	var categories []model.Category
	if err := h.db.Order("created_at DESC").Find(&categories).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch categories")
	}

	return response.Success(c, categories)
}

// CreateCategory handles POST /api/v1/categories (admin only, enforced
// in the router)
func (h *CategoryHandler) CreateCategory(c *fiber.Ctx) error {
	var req CreateCategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	category := model.Category{
		Title:    validation.SanitizeString(req.Title),
		IsActive: true,
	}
	if req.IsActive != nil {
		category.IsActive = *req.IsActive
	}

	if err := h.db.Create(&category).Error; err != nil {
		return response.InternalServerError(c, "Failed to create category")
	}

	return response.Created(c, category)
}
