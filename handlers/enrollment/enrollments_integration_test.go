package enrollment_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/courseloom/lms-api/config"
	"github.com/courseloom/lms-api/database"
	"github.com/courseloom/lms-api/model"
	"github.com/courseloom/lms-api/router"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// These tests exercise the enrollment lifecycle against a real Postgres
// instance. They require:
// 1. RUN_INTEGRATION_TESTS=true
// 2. DB_* environment variables pointing at a test database
func setupApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()

	if os.Getenv("RUN_INTEGRATION_TESTS") != "true" {
		t.Skip("Skipping integration test. Set RUN_INTEGRATION_TESTS=true to run")
	}

	store, err := database.StartGORM()
	require.NoError(t, err)
	require.NoError(t, store.Init())

	env, err := config.Get()
	require.NoError(t, err)
	if env.JWT_SECRET == "" {
		env.JWT_SECRET = "integration-test-secret"
	}

	app := fiber.New()
	router.SetupRoutes(app, store, env)

	return app, store.GetDB()
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, payload interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()

	body := bytes.NewBuffer(nil)
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewBuffer(raw)
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := app.Test(req, 10000)
	require.NoError(t, err)

	parsed := map[string]interface{}{}
	if res.StatusCode != fiber.StatusNoContent {
		_ = json.NewDecoder(res.Body).Decode(&parsed)
	}
	res.Body.Close()

	return res, parsed
}

func registerUser(t *testing.T, app *fiber.App, role string) (string, uint) {
	t.Helper()

	name := fmt.Sprintf("%s-%s", role, uuid.New().String()[:8])
	res, body := doJSON(t, app, "POST", "/api/v1/auth/register", "", fiber.Map{
		"username": name,
		"email":    name + "@example.com",
		"password": "password12345",
		"role":     role,
	})
	require.Equal(t, fiber.StatusCreated, res.StatusCode, "register %s: %v", role, body)

	data := body["data"].(map[string]interface{})
	user := data["user"].(map[string]interface{})
	return data["access_token"].(string), uint(user["id"].(float64))
}

// seedCourse creates a category and course directly in the DB and
// returns the course. The instructor is registered through the API so
// the returned token is usable for graded operations.
func seedCourse(t *testing.T, app *fiber.App, db *gorm.DB, price float64) (model.Course, string) {
	t.Helper()

	teacherToken, teacherID := registerUser(t, app, "teacher")

	category := model.Category{Title: "Category " + uuid.New().String()[:8], IsActive: true}
	require.NoError(t, db.Create(&category).Error)

	course := model.Course{
		Title:        "Course " + uuid.New().String()[:8],
		Price:        price,
		Duration:     10,
		CategoryID:   category.ID,
		InstructorID: teacherID,
		IsActive:     true,
	}
	require.NoError(t, db.Create(&course).Error)

	return course, teacherToken
}

func enroll(t *testing.T, app *fiber.App, token string, courseID uint) uint {
	t.Helper()
	res, body := doJSON(t, app, "POST", "/api/v1/enrollments", token, fiber.Map{
		"course_id": courseID,
	})
	require.Equal(t, fiber.StatusCreated, res.StatusCode, "enroll: %v", body)
	data := body["data"].(map[string]interface{})
	return uint(data["id"].(float64))
}

func TestEnrollmentPriceComesFromCourse(t *testing.T) {
	app, db := setupApp(t)

	studentToken, _ := registerUser(t, app, "student")
	course, _ := seedCourse(t, app, db, 149.50)

	// The price in the request body must be ignored
	res, body := doJSON(t, app, "POST", "/api/v1/enrollments", studentToken, fiber.Map{
		"course_id": course.ID,
		"price":     0.01,
	})
	require.Equal(t, fiber.StatusCreated, res.StatusCode, "%v", body)

	data := body["data"].(map[string]interface{})
	assert.Equal(t, 149.50, data["price"])
	assert.Equal(t, float64(0), data["progress"])
	assert.Equal(t, false, data["is_completed"])
	assert.Equal(t, false, data["is_certificate_ready"])
}

func TestDuplicateEnrollmentConflicts(t *testing.T) {
	app, db := setupApp(t)

	studentToken, _ := registerUser(t, app, "student")
	course, _ := seedCourse(t, app, db, 20)

	enroll(t, app, studentToken, course.ID)

	res, _ := doJSON(t, app, "POST", "/api/v1/enrollments", studentToken, fiber.Map{
		"course_id": course.ID,
	})
	assert.Equal(t, fiber.StatusConflict, res.StatusCode)
}

func TestDuplicateEnrollmentTranslatesToDuplicatedKey(t *testing.T) {
	app, db := setupApp(t)

	_, studentID := registerUser(t, app, "student")
	course, _ := seedCourse(t, app, db, 20)

	first := model.Enrollment{StudentID: studentID, CourseID: course.ID, IsActive: true, Price: course.Price}
	require.NoError(t, db.Create(&first).Error)

	// A second insert for the same (student, course) pair must surface
	// as gorm.ErrDuplicatedKey, which is what the create handler's
	// concurrency backstop matches to return 409
	second := model.Enrollment{StudentID: studentID, CourseID: course.ID, IsActive: true, Price: course.Price}
	err := db.Create(&second).Error
	require.Error(t, err)
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestTeachersCannotEnroll(t *testing.T) {
	app, db := setupApp(t)

	course, teacherToken := seedCourse(t, app, db, 20)

	res, _ := doJSON(t, app, "POST", "/api/v1/enrollments", teacherToken, fiber.Map{
		"course_id": course.ID,
	})
	assert.Equal(t, fiber.StatusBadRequest, res.StatusCode)
}

func TestProgressClampAndStickyCompletion(t *testing.T) {
	app, db := setupApp(t)

	studentToken, _ := registerUser(t, app, "student")
	course, _ := seedCourse(t, app, db, 20)
	enrollmentID := enroll(t, app, studentToken, course.ID)

	path := fmt.Sprintf("/api/v1/enrollments/%d/progress", enrollmentID)

	// Over-reporting clamps to 100 and completes
	res, body := doJSON(t, app, "PATCH", path, studentToken, fiber.Map{"progress": 250})
	require.Equal(t, fiber.StatusOK, res.StatusCode, "%v", body)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, float64(100), data["progress"])
	assert.Equal(t, true, data["is_completed"])

	// Re-reporting 100 is idempotent
	res, body = doJSON(t, app, "PATCH", path, studentToken, fiber.Map{"progress": 100})
	require.Equal(t, fiber.StatusOK, res.StatusCode)
	data = body["data"].(map[string]interface{})
	assert.Equal(t, float64(100), data["progress"])
	assert.Equal(t, true, data["is_completed"])

	// A lower report never clears completion
	res, body = doJSON(t, app, "PATCH", path, studentToken, fiber.Map{"progress": 10})
	require.Equal(t, fiber.StatusOK, res.StatusCode)
	data = body["data"].(map[string]interface{})
	assert.Equal(t, float64(10), data["progress"])
	assert.Equal(t, true, data["is_completed"])

	// Negative clamps to zero
	res, body = doJSON(t, app, "PATCH", path, studentToken, fiber.Map{"progress": -5})
	require.Equal(t, fiber.StatusOK, res.StatusCode)
	data = body["data"].(map[string]interface{})
	assert.Equal(t, float64(0), data["progress"])
}

func TestOnlyTheEnrolledStudentReportsProgress(t *testing.T) {
	app, db := setupApp(t)

	studentToken, _ := registerUser(t, app, "student")
	intruderToken, _ := registerUser(t, app, "student")
	course, _ := seedCourse(t, app, db, 20)
	enrollmentID := enroll(t, app, studentToken, course.ID)

	path := fmt.Sprintf("/api/v1/enrollments/%d/progress", enrollmentID)
	res, _ := doJSON(t, app, "PATCH", path, intruderToken, fiber.Map{"progress": 50})
	assert.Equal(t, fiber.StatusForbidden, res.StatusCode)
}

func TestGradeRequiresCompletionForCertificate(t *testing.T) {
	app, db := setupApp(t)

	studentToken, _ := registerUser(t, app, "student")
	course, teacherToken := seedCourse(t, app, db, 20)
	enrollmentID := enroll(t, app, studentToken, course.ID)

	gradePath := fmt.Sprintf("/api/v1/enrollments/%d/grade", enrollmentID)

	// Certificate before completion is rejected
	res, _ := doJSON(t, app, "POST", gradePath, teacherToken, fiber.Map{
		"total_mark":        85.0,
		"certificate_ready": true,
	})
	assert.Equal(t, fiber.StatusBadRequest, res.StatusCode)

	// Complete, then grade with certificate
	progressPath := fmt.Sprintf("/api/v1/enrollments/%d/progress", enrollmentID)
	res, _ = doJSON(t, app, "PATCH", progressPath, studentToken, fiber.Map{"progress": 100})
	require.Equal(t, fiber.StatusOK, res.StatusCode)

	res, body := doJSON(t, app, "POST", gradePath, teacherToken, fiber.Map{
		"total_mark":        85.0,
		"certificate_ready": true,
	})
	require.Equal(t, fiber.StatusOK, res.StatusCode, "%v", body)

	var enrollment model.Enrollment
	require.NoError(t, db.First(&enrollment, enrollmentID).Error)
	assert.Equal(t, 85.0, enrollment.TotalMark)
	assert.True(t, enrollment.IsCertificateReady)
}

func TestGradeIsInstructorOrAdminOnly(t *testing.T) {
	app, db := setupApp(t)

	studentToken, _ := registerUser(t, app, "student")
	course, _ := seedCourse(t, app, db, 20)
	enrollmentID := enroll(t, app, studentToken, course.ID)

	gradePath := fmt.Sprintf("/api/v1/enrollments/%d/grade", enrollmentID)
	res, _ := doJSON(t, app, "POST", gradePath, studentToken, fiber.Map{"total_mark": 100.0})
	assert.Equal(t, fiber.StatusForbidden, res.StatusCode)
}

func TestDeactivateEnrollment(t *testing.T) {
	app, db := setupApp(t)

	studentToken, _ := registerUser(t, app, "student")
	course, teacherToken := seedCourse(t, app, db, 20)
	enrollmentID := enroll(t, app, studentToken, course.ID)

	path := fmt.Sprintf("/api/v1/enrollments/%d/deactivate", enrollmentID)
	res, body := doJSON(t, app, "POST", path, teacherToken, nil)
	require.Equal(t, fiber.StatusOK, res.StatusCode, "%v", body)

	var enrollment model.Enrollment
	require.NoError(t, db.First(&enrollment, enrollmentID).Error)
	assert.False(t, enrollment.IsActive)

	// Progress reports against an inactive enrollment are rejected
	progressPath := fmt.Sprintf("/api/v1/enrollments/%d/progress", enrollmentID)
	res, _ = doJSON(t, app, "PATCH", progressPath, studentToken, fiber.Map{"progress": 50})
	assert.Equal(t, fiber.StatusBadRequest, res.StatusCode)
}

func TestListEnrollmentsIsRoleFiltered(t *testing.T) {
	app, db := setupApp(t)

	studentAToken, studentAID := registerUser(t, app, "student")
	studentBToken, _ := registerUser(t, app, "student")
	course, teacherToken := seedCourse(t, app, db, 20)

	enroll(t, app, studentAToken, course.ID)
	enroll(t, app, studentBToken, course.ID)

	// A student sees only their own enrollments
	res, body := doJSON(t, app, "GET", "/api/v1/enrollments", studentAToken, nil)
	require.Equal(t, fiber.StatusOK, res.StatusCode)
	for _, item := range body["data"].([]interface{}) {
		enrollment := item.(map[string]interface{})
		assert.Equal(t, float64(studentAID), enrollment["student_id"])
	}

	// The instructor sees both enrollments for their course
	res, body = doJSON(t, app, "GET", "/api/v1/enrollments", teacherToken, nil)
	require.Equal(t, fiber.StatusOK, res.StatusCode)
	count := 0
	for _, item := range body["data"].([]interface{}) {
		enrollment := item.(map[string]interface{})
		if uint(enrollment["course_id"].(float64)) == course.ID {
			count++
		}
	}
	assert.Equal(t, 2, count)
}
