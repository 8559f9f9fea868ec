package main

import (
	"context"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/andreaseirich/tutorflow-sub001/internal/config"
	"github.com/andreaseirich/tutorflow-sub001/internal/database"
	"github.com/andreaseirich/tutorflow-sub001/internal/routes"
	"github.com/andreaseirich/tutorflow-sub001/internal/services"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if cfg.AppEnv == "development" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	if cfg.DBUrl == "" {
		log.Fatal().Msg("DB_URL is required")
	}
	if err := database.ConnectDB(cfg.DBUrl); err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer database.CloseDB()

	app := fiber.New()

	app.Use(cors.New())
	app.Use(fiberlogger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
		})
	})
	if err := routes.RegisterRoutes(app, cfg, database.DB); err != nil {
		log.Fatal().Err(err).Msg("failed to register routes")
	}

	// Nightly job that flips past planned lessons to taught. The same
	// update is reachable on demand through the API.
	statusService := services.NewStatusService(database.DB)
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.StatusUpdateSchedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		updated, err := statusService.UpdatePastLessonsToTaught(ctx, nil)
		if err != nil {
			log.Error().Err(err).Msg("scheduled status update failed")
			return
		}
		log.Info().Int("updated", updated).Msg("scheduled status update finished")
	}); err != nil {
		log.Fatal().Err(err).Str("schedule", cfg.StatusUpdateSchedule).Msg("invalid status update schedule")
	}
	scheduler.Start()
	defer scheduler.Stop()

	log.Info().Str("port", cfg.Port).Msg("server starting")
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server failed to start")
	}
}
