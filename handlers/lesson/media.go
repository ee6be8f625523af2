package lesson

import (
	"strings"

	"github.com/courseloom/lms-api/model"
	"github.com/courseloom/lms-api/services/storage"
	"github.com/courseloom/lms-api/utils/middleware"
	"github.com/courseloom/lms-api/utils/response"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

const maxVideoSize = 500 * 1024 * 1024

// UploadVideo handles POST /api/v1/lessons/:id/video. Multipart form
// with a "video" file field. Course instructor or admin only, even when
// content access is open.
func (h *LessonHandler) UploadVideo(c *fiber.Ctx) error {
	caller, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	if h.media == nil {
		return response.InternalServerError(c, "Media storage is not configured")
	}

	id := c.Params("id")

	var lesson model.Lesson
	if err := h.db.Preload("Course").First(&lesson, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Lesson not found")
		}
		return response.InternalServerError(c, "Failed to fetch lesson")
	}

	if caller.Role != model.RoleAdmin && caller.ID != lesson.Course.InstructorID {
		return response.Forbidden(c, "Only the course instructor can upload lesson video")
	}

	fileHeader, err := c.FormFile("video")
	if err != nil {
		return response.BadRequest(c, "Video file is required")
	}
	if fileHeader.Size > maxVideoSize {
		return response.BadRequest(c, "Video must be smaller than 500MB")
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "video/") {
		return response.BadRequest(c, "File must be a video")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return response.InternalServerError(c, "Failed to read video file")
	}
	defer file.Close()

	key := storage.ObjectKey("lesson_videos", fileHeader.Filename)
	if err := h.media.Upload(c.Context(), key, file, contentType); err != nil {
		return response.InternalServerError(c, "Failed to store video")
	}

	oldKey := lesson.Video
	if err := h.db.Model(&lesson).Update("video", key).Error; err != nil {
		h.media.Delete(c.Context(), key)
		return response.InternalServerError(c, "Failed to update lesson")
	}
	if oldKey != "" {
		h.media.Delete(c.Context(), oldKey)
	}

	return response.SuccessWithMessage(c, "Video uploaded successfully", fiber.Map{
		"video":     key,
		"video_url": h.media.URL(key),
	})
}
