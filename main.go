package main

import (
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"retailpos/m/internal/api"
	"retailpos/m/internal/config"
	"retailpos/m/internal/database"
	"retailpos/m/internal/migrations"
	"retailpos/m/internal/seed"
)

func main() {
	_ = godotenv.Load()

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg := config.Load()
	db, err := database.Connect(cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	if err := migrations.Run(db); err != nil {
		logger.Fatal().Err(err).Msg("migration failed")
	}
	seed.LoadProducts(db, "assets/products.csv", logger)
	seed.EnsureAdmin(db, os.Getenv("ADMIN_PASSWORD"), logger)

	handler := api.New(db, cfg.Secret, logger)

	logger.Info().Str("port", cfg.HTTPPort).Msg("POS server starting")
	if err := http.ListenAndServe(":"+cfg.HTTPPort, handler.Router()); err != nil {
		logger.Fatal().Err(err).Msg("server error")
	}
}
