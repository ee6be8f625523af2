package course

import (
	"github.com/courseloom/lms-api/model"
	"github.com/courseloom/lms-api/services/storage"
	"github.com/courseloom/lms-api/utils/middleware"
	"github.com/courseloom/lms-api/utils/response"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

const maxBannerSize = 5 * 1024 * 1024

// UploadBanner handles POST /api/v1/courses/:id/banner. Multipart form
// with a "banner" file field. Owner teacher only.
func (h *CourseHandler) UploadBanner(c *fiber.Ctx) error {
	caller, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	if h.media == nil {
		return response.InternalServerError(c, "Media storage is not configured")
	}

	id := c.Params("id")

	var course model.Course
	if err := h.db.First(&course, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Course not found")
		}
		return response.InternalServerError(c, "Failed to fetch course")
	}

	if caller.Role != model.RoleTeacher || caller.ID != course.InstructorID {
		return response.Forbidden(c, "Only the course owner can upload a banner")
	}

	fileHeader, err := c.FormFile("banner")
	if err != nil {
		return response.BadRequest(c, "Banner file is required")
	}
	if fileHeader.Size > maxBannerSize {
		return response.BadRequest(c, "Banner must be smaller than 5MB")
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType != "image/jpeg" && contentType != "image/png" && contentType != "image/webp" {
		return response.BadRequest(c, "Banner must be a JPEG, PNG or WebP image")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return response.InternalServerError(c, "Failed to read banner file")
	}
	defer file.Close()

	key := storage.ObjectKey("course_banners", fileHeader.Filename)
	if err := h.media.Upload(c.Context(), key, file, contentType); err != nil {
		return response.InternalServerError(c, "Failed to store banner")
	}

	oldKey := course.Banner
	if err := h.db.Model(&course).Update("banner", key).Error; err != nil {
		h.media.Delete(c.Context(), key)
		return response.InternalServerError(c, "Failed to update course")
	}
	if oldKey != "" {
		h.media.Delete(c.Context(), oldKey)
	}

	return response.SuccessWithMessage(c, "Banner uploaded successfully", fiber.Map{
		"banner":     key,
		"banner_url": h.media.URL(key),
	})
}
