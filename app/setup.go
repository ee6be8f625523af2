package app

import (
	"fmt"
	"log"
	"os"

	"github.com/courseloom/lms-api/api"
	"github.com/courseloom/lms-api/config"
	"github.com/courseloom/lms-api/database"
	"github.com/courseloom/lms-api/router"
	"github.com/courseloom/lms-api/services/cron"
)

// SetupAndRunServer loads configuration, connects the database, starts
// background jobs and serves the API. It blocks until the listener
// stops.
func SetupAndRunServer() error {
	if err := config.LoadENV(); err != nil {
		return err
	}

	env, err := config.Get()
	if err != nil {
		return err
	}

	store, err := database.StartGORM()
	if err != nil {
		return fmt.Errorf("failed to connect to database (is Postgres running?): %w", err)
	}

	if err := store.Init(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// Seed the admin account and default categories when configured
	seeder := database.NewSeeder(store.GetDB())
	if err := seeder.SeedAll(); err != nil {
		log.Printf("Warning: seeding failed: %v", err)
	}

	// Background maintenance jobs, enabled unless CRON_ENABLED=false
	var cronManager *cron.CronManager
	if os.Getenv("CRON_ENABLED") != "false" {
		cronManager = cron.NewCronManager(store.GetDB())
		if err := cronManager.Start(); err != nil {
			log.Printf("Warning: failed to start cron jobs: %v", err)
		}
	}

	defer func() {
		if cronManager != nil {
			cronManager.Stop()
		}
		store.Close()
	}()

	server := api.NewAPIServer(fmt.Sprintf(":%d", env.PORT))

	router.SetupRoutes(server.GetEngine(), store, env)

	return server.Run()
}
