package auth

import (
	authutil "github.com/courseloom/lms-api/utils/auth"
	"github.com/courseloom/lms-api/utils/middleware"
	"github.com/courseloom/lms-api/utils/response"
	"github.com/courseloom/lms-api/utils/validation"
	"github.com/gofiber/fiber/v2"
)

// UpdateProfileRequest represents a profile update request. All fields
// are optional; the password is re-hashed only when present. Role is
// deliberately absent: only an admin can change a user's role.
type UpdateProfileRequest struct {
	Email    string `json:"email,omitempty" validate:"omitempty,email"`
	MobileNo string `json:"mobile_no,omitempty" validate:"omitempty,max=15"`
	Password string `json:"password,omitempty" validate:"omitempty,min=8"`
}

// GetProfile retrieves the current user's profile
func (h *AuthHandler) GetProfile(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	return response.Success(c, NewUserResponse(user))
}

// UpdateProfile updates the current user's profile
func (h *AuthHandler) UpdateProfile(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	var req UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	// Update fields if provided
	if req.Email != "" {
		user.Email = validation.SanitizeString(req.Email)
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

	if err := h.db.Save(user).Error; err != nil {
		return response.InternalServerError(c, "Failed to update profile")
	}

	return response.SuccessWithMessage(c, "Profile updated successfully", NewUserResponse(user))
}
