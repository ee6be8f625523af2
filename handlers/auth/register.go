package auth

import (
	"github.com/courseloom/lms-api/model"
	authutil "github.com/courseloom/lms-api/utils/auth"
	"github.com/courseloom/lms-api/utils/response"
	"github.com/courseloom/lms-api/utils/validation"
	"github.com/gofiber/fiber/v2"
)

// RegisterRequest represents a user registration request
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=30"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role,omitempty"` // Optional, defaults to "student"
	MobileNo string `json:"mobile_no,omitempty" validate:"omitempty,max=15"`
}

// RegisterResponse represents a successful registration response
type RegisterResponse struct {
	User         UserResponse `json:"user"`
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresIn    int          `json:"expires_in"` // in seconds
}

// Register handles user registration
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	// Validate request
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	if ok, msg := validation.ValidateUsername(req.Username); !ok {
		return response.BadRequest(c, msg)
	}

	// Set default role if not provided
	if req.Role == "" {
		req.Role = string(model.RoleStudent)
	}

	role := model.Role(req.Role)
	if !role.Valid() {
		return response.BadRequest(c, "Invalid role. Must be 'admin', 'teacher' or 'student'")
	}

	// Check for duplicate username or email
	var existingUser model.User
	if err := h.db.Where("username = ? OR email = ?", req.Username, req.Email).First(&existingUser).Error; err == nil {
		return response.Conflict(c, "User with this username or email already exists")
	}

	// Hash password
	hashedPassword, err := authutil.HashPassword(req.Password)
	if err != nil {
		if err == authutil.ErrPasswordTooShort {
			return response.BadRequest(c, err.Error())
		}
		return response.InternalServerError(c, "Failed to process password")
	}

	// Create user
	user := model.User{
		Username:     validation.SanitizeString(req.Username),
		Email:        validation.SanitizeString(req.Email),
		PasswordHash: hashedPassword,
		Role:         role,
		MobileNo:     validation.SanitizeString(req.MobileNo),
		TokenVersion: 0,
	}

	if err := h.db.Create(&user).Error; err != nil {
		return response.InternalServerError(c, "Failed to create user")
	}

	// Generate tokens with token version
	accessToken, _, err := h.jwtManager.GenerateAccessToken(user.ID, user.Username, user.Role, user.TokenVersion)
	if err != nil {
		return response.InternalServerError(c, "Failed to generate access token")
	}

	refreshToken, _, err := h.jwtManager.GenerateRefreshToken(user.ID, user.Username, user.Role, user.TokenVersion)
	if err != nil {
		return response.InternalServerError(c, "Failed to generate refresh token")
	}

	res := RegisterResponse{
		User:         NewUserResponse(&user),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    24 * 60 * 60, // 24 hours in seconds
	}

	return response.Created(c, res)
}
