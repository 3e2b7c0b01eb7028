package main

import (
	"context"

	"cityideas/internal/config"
	"cityideas/internal/db"
	"cityideas/internal/logger"
	"cityideas/internal/router"
	"cityideas/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg := config.Load()
	logger.Configure(logger.ParseLevel(cfg.LogLevel), cfg.LogFile)
	gin.SetMode(cfg.GinMode)

	db.Init(cfg.DatabaseDriver, cfg.DatabaseURL)

	// Bootstrap admin from the environment so a fresh deploy can moderate.
	if cfg.AdminUsername != "" && cfg.AdminPassword != "" {
		created, err := services.NewAuthService(db.DB).EnsureAdmin(context.Background(), cfg.AdminUsername, cfg.AdminEmail, cfg.AdminPassword)
		if err != nil {
			log.Error().Err(err).Str("username", cfg.AdminUsername).Msg("Failed to ensure admin account")
		} else if created {
			log.Info().Str("username", cfg.AdminUsername).Msg("Admin account created")
		}
	}

	r := router.New(cfg, db.DB, "web")

	log.Info().Str("port", cfg.Port).Str("site", cfg.SiteURL).Msg("City of Ideas server starting")
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("Server stopped")
	}
}
