package middleware

import (
	"encoding/json"
	"strconv"

	"github.com/courseloom/lms-api/model"
	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AdminAuditLog records an audit trail entry after a successful admin
// action. It must run behind RequireAdmin so the admin user is in context.
func AdminAuditLog(db *gorm.DB, action, resource string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()
		if err != nil {
			return err
		}

		// Only log successful mutations
		if c.Response().StatusCode() >= 400 {
			return nil
		}

		admin, ok := GetUser(c)
		if !ok {
			return nil
		}

		var resourceID uint
		if id, convErr := strconv.ParseUint(c.Params("id"), 10, 64); convErr == nil {
			resourceID = uint(id)
		}

		details, _ := json.Marshal(map[string]string{
			"method": c.Method(),
			"path":   c.Path(),
		})

		entry := model.AdminAuditLog{
			AdminID:    admin.ID,
			Action:     action,
			Resource:   resource,
			ResourceID: resourceID,
			Details:    datatypes.JSON(details),
			IPAddress:  c.IP(),
		}
		db.Create(&entry)

		return nil
	}
}
