package handlers

import (
	"github.com/courseloom/lms-api/database"
	"github.com/courseloom/lms-api/utils/response"
	"github.com/gofiber/fiber/v2"
)

// HealthCheck reports service and database health
func HealthCheck(store database.Storage) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := store.HealthCheck(); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status":   "unhealthy",
				"database": "down",
			})
		}
		return response.Success(c, fiber.Map{
			"status":   "ok",
			"database": "up",
		})
	}
}
