package main

import (
	"messbook/config"
	"messbook/di"
	"messbook/helper"
	"messbook/shared/logger"

	"github.com/rs/zerolog/log"
)

// @title Messbook API
// @version 1.0
// @description Student mess accommodation marketplace: listings, seat booking and payment reconciliation.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg := config.Get()

	logger.InitLogger()
	logger.UseJSONOutput(cfg)

	logger.SetLogLevel(cfg)

	if cfg.DB.Postgres.AutoMigrate {
		if err := helper.Up(cfg); err != nil {
			log.Fatal().Err(err).Msg("failed to run database migrations")
		}
	}

	http := di.InitializeService()
	http.Serve()
}
