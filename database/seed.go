package database

import (
	"fmt"
	"log"
	"os"

	"github.com/courseloom/lms-api/model"
	"github.com/courseloom/lms-api/utils/auth"
	"gorm.io/gorm"
)

// Seeder handles database seeding operations
type Seeder struct {
	db *gorm.DB
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{db: db}
}

// SeedAll runs all seed functions
func (s *Seeder) SeedAll() error {
	log.Println("Starting database seeding...")

	// Run seeds in order (respecting foreign key constraints)
	if err := s.SeedAdminUser(); err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}

	if err := s.SeedCategories(); err != nil {
		return fmt.Errorf("failed to seed categories: %w", err)
	}

	log.Println("Database seeding completed")
	return nil
}

// SeedAdminUser creates the initial admin account if none exists.
// Credentials come from ADMIN_USERNAME / ADMIN_EMAIL / ADMIN_PASSWORD.
func (s *Seeder) SeedAdminUser() error {
	var count int64
	if err := s.db.Model(&model.User{}).Where("role = ?", model.RoleAdmin).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		log.Println("Admin user already exists, skipping")
		return nil
	}

	username := os.Getenv("ADMIN_USERNAME")
	if username == "" {
		username = "admin"
	}
	email := os.Getenv("ADMIN_EMAIL")
	if email == "" {
		email = "admin@localhost"
	}
	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		log.Println("ADMIN_PASSWORD not set, skipping admin seed")
		return nil
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	admin := model.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         model.RoleAdmin,
	}
	if err := s.db.Create(&admin).Error; err != nil {
		return err
	}

	log.Printf("Seeded admin user %q", username)
	return nil
}

// SeedCategories creates a starter set of catalog categories.
func (s *Seeder) SeedCategories() error {
	var count int64
	if err := s.db.Model(&model.Category{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		log.Println("Categories already exist, skipping")
		return nil
	}

	titles := []string{"Programming", "Mathematics", "Languages", "Business"}
	for _, title := range titles {
		category := model.Category{Title: title, IsActive: true}
		if err := s.db.Create(&category).Error; err != nil {
			return err
		}
	}

	log.Printf("Seeded %d categories", len(titles))
	return nil
}
