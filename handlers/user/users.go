package user

import (
	"github.com/courseloom/lms-api/handlers/auth"
	"github.com/courseloom/lms-api/model"
	authutil "github.com/courseloom/lms-api/utils/auth"
	"github.com/courseloom/lms-api/utils/middleware"
	"github.com/courseloom/lms-api/utils/response"
	"github.com/courseloom/lms-api/utils/validation"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// UserHandler handles user management requests
type UserHandler struct {
	db        *gorm.DB
	validator *validation.Validator
}

// NewUserHandler creates a new user handler
func NewUserHandler(db *gorm.DB) *UserHandler {
	return &UserHandler{
		db:        db,
		validator: validation.NewValidator(),
	}
}

// ListUsers handles GET /api/v1/users. Admins see every user; any other
// authenticated caller sees only their own record.
func (h *UserHandler) ListUsers(c *fiber.Ctx) error {
	caller, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	query := h.db.Model(&model.User{})
	if caller.Role != model.RoleAdmin {
		query = query.Where("id = ?", caller.ID)
	}

	var users []model.User
	if err := query.Order("created_at DESC").Find(&users).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch users")
	}

	res := make([]auth.UserResponse, 0, len(users))
	for i := range users {
		res = append(res, auth.NewUserResponse(&users[i]))
	}

	return response.Success(c, res)
}

// GetUser handles GET /api/v1/users/:id (admin only)
func (h *UserHandler) GetUser(c *fiber.Ctx) error {
	id := c.Params("id")

	var user model.User
	if err := h.db.First(&user, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "User not found")
		}
		return response.InternalServerError(c, "Failed to fetch user")
	}

	return response.Success(c, auth.NewUserResponse(&user))
}

// UpdateUserRequest represents the admin update request body. Unlike
// self-service profile updates, an admin may change the role.
type UpdateUserRequest struct {
	Email    string `json:"email,omitempty" validate:"omitempty,email"`
	Role     string `json:"role,omitempty"`
	MobileNo string `json:"mobile_no,omitempty" validate:"omitempty,max=15"`
	Password string `json:"password,omitempty" validate:"omitempty,min=8"`
}

// UpdateUser handles PUT /api/v1/users/:id (admin only)
func (h *UserHandler) UpdateUser(c *fiber.Ctx) error {
	id := c.Params("id")

	var req UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	var user model.User
	if err := h.db.First(&user, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "User not found")
		}
		return response.InternalServerError(c, "Failed to fetch user")
	}

	// Update fields if provided
	if req.Email != "" {
		user.Email = validation.SanitizeString(req.Email)
	}
	if req.Role != "" {
		role := model.Role(req.Role)
		if !role.Valid() {
			return response.BadRequest(c, "Invalid role. Must be 'admin', 'teacher' or 'student'")
		}
		user.Role = role
	}
	if req.MobileNo != "" {
		user.MobileNo = validation.SanitizeString(req.MobileNo)
	}
	if req.Password != "" {
		hash, err := authutil.HashPassword(req.Password)
		if err != nil {
			return response.BadRequest(c, err.Error())
		}
		user.PasswordHash = hash
	}

	if err := h.db.Save(&user).Error; err != nil {
		return response.InternalServerError(c, "Failed to update user")
	}

	return response.SuccessWithMessage(c, "User updated successfully", auth.NewUserResponse(&user))
}

// DeleteUser handles DELETE /api/v1/users/:id (admin only). The delete
// is permanent; owned rows go with it via FK cascade.
func (h *UserHandler) DeleteUser(c *fiber.Ctx) error {
	id := c.Params("id")

	var user model.User
	if err := h.db.First(&user, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "User not found")
		}
		return response.InternalServerError(c, "Failed to fetch user")
	}

	if err := h.db.Delete(&user).Error; err != nil {
		return response.InternalServerError(c, "Failed to delete user")
	}

	return response.NoContent(c)
}
