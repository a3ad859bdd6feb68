package main

import (
	"net/http"
	"os"
	"time"

	"downtime/config"
	"downtime/database"
	"downtime/handlers"
	"downtime/middleware"
	"downtime/models"
	"downtime/store"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

func main() {
	// Load configuration
	cfg := config.Load()

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
		Level(level).
		With().Timestamp().Logger()

	// Initialize JWT secret
	middleware.SetJWTSecret(cfg.JWTSecret)

	// Open database
	db, err := database.Open(cfg.DatabaseURL, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}

	// Initialize stores
	downtimes := store.NewDowntimeStore(db, log)
	reports := store.NewReportStore(db, log)
	refs := store.NewReferenceStore(db, log)
	audit := store.NewAuditStore(db, log)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(cfg, db, log)
	downtimeHandler := handlers.NewDowntimeHandler(downtimes, audit, log)
	reportHandler := handlers.NewReportHandler(reports, log)
	referenceHandler := handlers.NewReferenceHandler(refs, log)

	// Setup router
	router := chi.NewRouter()
	router.Use(chimiddleware.Logger)
	router.Use(chimiddleware.Recoverer)

	// Public routes
	router.Post("/login", authHandler.Login)

	// Protected routes
	router.Group(func(r chi.Router) {
		r.Use(middleware.Auth(db))

		r.Get("/logout", authHandler.Logout)
		r.Post("/change-password", authHandler.ChangePassword)

		// Reference data
		r.Get("/api/facilities", referenceHandler.Facilities)
		r.Get("/api/lines", referenceHandler.Lines)
		r.Get("/api/categories", referenceHandler.Categories)
		r.Get("/api/shifts", referenceHandler.Shifts)

		// Downtime entries (all authenticated users)
		r.Post("/api/downtimes", downtimeHandler.Create)
		r.Get("/api/downtimes", downtimeHandler.List)
		r.Get("/api/downtimes/{id}", downtimeHandler.Get)
		r.Patch("/api/downtimes/{id}", downtimeHandler.Update)

		// Reports
		r.Get("/api/reports/summary", reportHandler.Summary)
		r.Get("/api/reports/top-issues", reportHandler.TopIssues)
		r.Get("/api/reports/statistics", reportHandler.Statistics)

		// Supervisor and admin only routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(models.RoleAdmin, models.RoleSupervisor))
			r.Delete("/api/downtimes/{id}", downtimeHandler.Delete)
			r.Post("/api/downtimes/{id}/restore", downtimeHandler.Restore)
			r.Get("/api/downtimes/{id}/history", downtimeHandler.History)
		})
	})

	log.Info().Str("port", cfg.ServerPort).Msg("server starting")
	if err := http.ListenAndServe(":"+cfg.ServerPort, router); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
