package router

import (
	"log"
	"time"

	"github.com/courseloom/lms-api/config"
	"github.com/courseloom/lms-api/database"
	"github.com/courseloom/lms-api/handlers"
	auth_handlers "github.com/courseloom/lms-api/handlers/auth"
	category_handlers "github.com/courseloom/lms-api/handlers/category"
	course_handlers "github.com/courseloom/lms-api/handlers/course"
	enrollment_handlers "github.com/courseloom/lms-api/handlers/enrollment"
	lesson_handlers "github.com/courseloom/lms-api/handlers/lesson"
	material_handlers "github.com/courseloom/lms-api/handlers/material"
	question_handlers "github.com/courseloom/lms-api/handlers/question"
	user_handlers "github.com/courseloom/lms-api/handlers/user"
	"github.com/courseloom/lms-api/model"
	"github.com/courseloom/lms-api/services/storage"
	"github.com/courseloom/lms-api/utils/auth"
	"github.com/courseloom/lms-api/utils/cache"
	"github.com/courseloom/lms-api/utils/middleware"
	"github.com/gofiber/fiber/v2"
)

// SetupRoutes wires all HTTP routes onto the Fiber app
func SetupRoutes(app *fiber.App, store database.Storage, env *config.EnvironmentVariable) {
	if env.JWT_SECRET == "" {
		log.Fatal("JWT_SECRET environment variable is not set")
	}

	jwtIssuer := env.JWT_ISSUER
	if jwtIssuer == "" {
		jwtIssuer = "lms-api"
	}

	jwtManager := auth.NewJWTManager(auth.JWTConfig{
		Secret:        env.JWT_SECRET,
		Expiry:        24 * time.Hour,
		RefreshExpiry: 7 * 24 * time.Hour,
		Issuer:        jwtIssuer,
	})

	db := store.GetDB()

	// Redis-backed brute force protection; login still works without it
	redisURL := env.REDIS_URL
	if redisURL == "" {
		redisURL = "redis://localhost:6379/0"
	}
	var bruteForceProtection *middleware.BruteForceProtection
	if redisCache, err := cache.NewRedisCache(redisURL); err != nil {
		log.Printf("Warning: Failed to connect to Redis: %v. Brute force protection will be disabled.", err)
	} else {
		bruteForceProtection = middleware.NewBruteForceProtection(redisCache)
	}

	// Media store is optional: without credentials the API runs, upload
	// endpoints report storage as unconfigured
	var mediaStore *storage.MediaStore
	if env.MEDIA_ACCESS_KEY != "" && env.MEDIA_SECRET_KEY != "" {
		ms, err := storage.NewMediaStore(storage.MediaConfig{
			AccessKey: env.MEDIA_ACCESS_KEY,
			SecretKey: env.MEDIA_SECRET_KEY,
			Bucket:    env.MEDIA_BUCKET,
			Region:    env.MEDIA_REGION,
			Endpoint:  env.MEDIA_ENDPOINT,
			CDNURL:    env.MEDIA_CDN_URL,
		})
		if err != nil {
			log.Printf("Warning: Failed to initialize media storage: %v. Uploads will be disabled.", err)
		} else {
			mediaStore = ms
		}
	}

	authMiddleware := middleware.NewAuthMiddleware(jwtManager, db)

	openContent := env.OPEN_CONTENT_ACCESS

	authHandler := auth_handlers.NewAuthHandler(db, jwtManager, bruteForceProtection)
	userHandler := user_handlers.NewUserHandler(db)
	categoryHandler := category_handlers.NewCategoryHandler(db)
	courseHandler := course_handlers.NewCourseHandler(db, mediaStore)
	lessonHandler := lesson_handlers.NewLessonHandler(db, mediaStore, openContent)
	materialHandler := material_handlers.NewMaterialHandler(db, mediaStore, openContent)
	enrollmentHandler := enrollment_handlers.NewEnrollmentHandler(db, openContent)
	questionHandler := question_handlers.NewQuestionHandler(db, openContent)

	middleware.SetupSecurity(app, middleware.SecurityConfig{
		AllowedOrigins:    "http://localhost:3000,http://localhost:3001",
		RateLimitRequests: 100,
		RateLimitWindow:   1 * time.Minute,
	})

	// Health check endpoint (public)
	app.Get("/ping", handlers.HealthCheck(store))

	api := app.Group("/api/v1")

	// Auth routes (public)
	authGroup := api.Group("/auth")
	authGroup.Post("/register", authHandler.Register)
	if bruteForceProtection != nil {
		authGroup.Post("/login", bruteForceProtection.CheckAndRecordAttempt(), authHandler.Login)
	} else {
		authGroup.Post("/login", authHandler.Login)
	}
	authGroup.Post("/refresh", authHandler.RefreshToken)

	// Protected auth routes
	authGroup.Post("/logout", authMiddleware.Required(), authHandler.Logout)
	authGroup.Post("/change-password", authMiddleware.Required(), authHandler.ChangePassword)

	// Profile routes (protected)
	profileGroup := api.Group("/profile", authMiddleware.Required())
	profileGroup.Get("/", authHandler.GetProfile)
	profileGroup.Put("/", authHandler.UpdateProfile)

	// Users: list is role-filtered in the handler, /me is the caller's own
	// record, the rest is admin only. /me must register before /:id.
	users := api.Group("/users")
	users.Get("/", authMiddleware.Required(), userHandler.ListUsers)
	users.Get("/me", authMiddleware.Required(), authHandler.GetProfile)
	users.Put("/me", authMiddleware.Required(), authHandler.UpdateProfile)
	users.Get("/:id", authMiddleware.RequireAdmin(), userHandler.GetUser)
	users.Put("/:id", authMiddleware.RequireAdmin(),
		middleware.AdminAuditLog(db, "update", "user"), userHandler.UpdateUser)
	users.Delete("/:id", authMiddleware.RequireAdmin(),
		middleware.AdminAuditLog(db, "delete", "user"), userHandler.DeleteUser)

	// Categories
	categories := api.Group("/categories")
	categories.Get("/", authMiddleware.Required(), categoryHandler.ListCategories)
	categories.Post("/", authMiddleware.RequireAdmin(),
		middleware.AdminAuditLog(db, "create", "category"), categoryHandler.CreateCategory)

	// Courses: visibility and ownership rules live in the handler
	courses := api.Group("/courses")
	courses.Get("/", authMiddleware.Required(), courseHandler.ListCourses)
	courses.Get("/:id", authMiddleware.Required(), courseHandler.GetCourse)
	courses.Post("/", authMiddleware.RequireRole(model.RoleTeacher), courseHandler.CreateCourse)
	courses.Put("/:id", authMiddleware.Required(), courseHandler.UpdateCourse)
	courses.Delete("/:id", authMiddleware.Required(), courseHandler.DeleteCourse)
	courses.Post("/:id/banner", authMiddleware.Required(), courseHandler.UploadBanner)

	// Content routes honor the access policy: hardened installs require
	// authentication, open installs accept anonymous reads and writes
	contentAuth := authMiddleware.Required()
	if openContent {
		contentAuth = authMiddleware.Optional()
	}

	lessons := api.Group("/lessons")
	lessons.Get("/", contentAuth, lessonHandler.ListLessons)
	lessons.Get("/:id", contentAuth, lessonHandler.GetLesson)
	lessons.Post("/", contentAuth, lessonHandler.CreateLesson)
	lessons.Delete("/:id", authMiddleware.Required(), lessonHandler.DeleteLesson)
	lessons.Post("/:id/video", authMiddleware.Required(), lessonHandler.UploadVideo)

	materials := api.Group("/materials")
	materials.Get("/", contentAuth, materialHandler.ListMaterials)
	materials.Post("/", contentAuth, materialHandler.CreateMaterial)
	materials.Delete("/:id", authMiddleware.Required(), materialHandler.DeleteMaterial)
	materials.Post("/:id/file", authMiddleware.Required(), materialHandler.UploadFile)

	// Enrollments always require an authenticated caller; the open policy
	// only widens what a caller may list
	enrollments := api.Group("/enrollments", authMiddleware.Required())
	enrollments.Get("/", enrollmentHandler.ListEnrollments)
	enrollments.Get("/:id", enrollmentHandler.GetEnrollment)
	enrollments.Post("/", enrollmentHandler.CreateEnrollment)
	enrollments.Patch("/:id/progress", enrollmentHandler.UpdateProgress)
	enrollments.Post("/:id/grade", enrollmentHandler.Grade)
	enrollments.Post("/:id/deactivate", enrollmentHandler.Deactivate)

	// Lesson discussions
	questions := api.Group("/questions")
	questions.Get("/", contentAuth, questionHandler.ListQuestions)
	questions.Post("/", authMiddleware.Required(), questionHandler.CreateQuestion)
	questions.Delete("/:id", authMiddleware.Required(), questionHandler.DeleteQuestion)
}
