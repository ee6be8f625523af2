package middleware

import (
	"errors"
	"fmt"
	"strings"

	"github.com/courseloom/lms-api/model"
	"github.com/courseloom/lms-api/utils/auth"
	"github.com/courseloom/lms-api/utils/response"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// errServerFault marks authentication failures caused by the server
// (DB lookups) rather than by the credentials themselves; those map to
// 500, everything else to 401.
var errServerFault = errors.New("authentication check failed")

// AuthMiddleware handles JWT authentication
type AuthMiddleware struct {
	jwtManager       *auth.JWTManager
	blacklistService *auth.BlacklistService
	db               *gorm.DB
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(jwtManager *auth.JWTManager, db *gorm.DB) *AuthMiddleware {
	return &AuthMiddleware{
		jwtManager:       jwtManager,
		blacklistService: auth.NewBlacklistService(db),
		db:               db,
	}
}

// authenticate validates the bearer token and loads the user. A non-nil
// error means the request is not authenticated; the caller decides how
// to respond.
func (m *AuthMiddleware) authenticate(c *fiber.Ctx) (*model.User, *auth.Claims, error) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return nil, nil, errors.New("Missing authorization token")
	}

	// Extract token from "Bearer <token>"
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, nil, errors.New("Invalid authorization format")
	}

	claims, err := m.jwtManager.ValidateToken(parts[1])
	if err != nil {
		if err == auth.ErrExpiredToken {
			return nil, nil, errors.New("Token has expired")
		}
		return nil, nil, errors.New("Invalid token")
	}

	if claims.TokenType != "access" {
		return nil, nil, errors.New("Invalid token type")
	}

	// Check if token is revoked (blacklisted)
	isRevoked, err := m.blacklistService.IsTokenRevoked(c.Context(), claims.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: token status lookup", errServerFault)
	}
	if isRevoked {
		return nil, nil, errors.New("Token has been revoked")
	}

	// Load user from database and verify token version
	var user model.User
	if err := m.db.First(&user, claims.UserID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil, errors.New("User not found")
		}
		return nil, nil, fmt.Errorf("%w: user lookup", errServerFault)
	}

	if user.TokenVersion != claims.TokenVersion {
		return nil, nil, errors.New("Token has been invalidated")
	}

	return &user, claims, nil
}

// respondAuthError maps an authenticate error onto the wire
func respondAuthError(c *fiber.Ctx, err error) error {
	if errors.Is(err, errServerFault) {
		return response.InternalServerError(c, "")
	}
	return response.Unauthorized(c, err.Error())
}

func storeUser(c *fiber.Ctx, user *model.User, claims *auth.Claims) {
	c.Locals("user_id", user.ID)
	c.Locals("user_role", user.Role)
	c.Locals("claims", claims)
	c.Locals("user", user)
	c.Locals("token_jti", claims.ID)
}

// Required is middleware that requires a valid JWT token
func (m *AuthMiddleware) Required() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, claims, err := m.authenticate(c)
		if err != nil {
			return respondAuthError(c, err)
		}
		storeUser(c, user, claims)
		return c.Next()
	}
}

// Optional is middleware that allows requests with or without a token.
// Invalid credentials do not fail the request; it continues anonymously.
func (m *AuthMiddleware) Optional() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Get("Authorization") == "" {
			return c.Next()
		}
		user, claims, err := m.authenticate(c)
		if err != nil {
			return c.Next()
		}
		storeUser(c, user, claims)
		return c.Next()
	}
}

// RequireRole is middleware that requires one of the given roles. The
// role set is closed; unknown role values never pass.
func (m *AuthMiddleware) RequireRole(roles ...model.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, claims, err := m.authenticate(c)
		if err != nil {
			return respondAuthError(c, err)
		}

		for _, r := range roles {
			if user.Role == r {
				storeUser(c, user, claims)
				return c.Next()
			}
		}

		return response.Forbidden(c, "Insufficient permissions")
	}
}

// RequireAdmin is middleware that requires the admin role
func (m *AuthMiddleware) RequireAdmin() fiber.Handler {
	return m.RequireRole(model.RoleAdmin)
}

// GetUserID extracts user ID from context
func GetUserID(c *fiber.Ctx) (uint, bool) {
	userID := c.Locals("user_id")
	if userID == nil {
		return 0, false
	}
	id, ok := userID.(uint)
	return id, ok
}

// GetUserRole extracts user role from context
func GetUserRole(c *fiber.Ctx) (model.Role, bool) {
	role := c.Locals("user_role")
	if role == nil {
		return "", false
	}
	r, ok := role.(model.Role)
	return r, ok
}

// GetUser extracts the full user object from context
func GetUser(c *fiber.Ctx) (*model.User, bool) {
	user := c.Locals("user")
	if user == nil {
		return nil, false
	}
	u, ok := user.(*model.User)
	return u, ok
}

// GetClaims extracts full claims from context
func GetClaims(c *fiber.Ctx) (*auth.Claims, bool) {
	claims := c.Locals("claims")
	if claims == nil {
		return nil, false
	}
	claimsData, ok := claims.(*auth.Claims)
	return claimsData, ok
}

// GetTokenJTI extracts the token JTI from context
func GetTokenJTI(c *fiber.Ctx) (string, bool) {
	jti := c.Locals("token_jti")
	if jti == nil {
		return "", false
	}
	j, ok := jti.(string)
	return j, ok
}
