package main

import (
	"context"
	"log"

	"edaworkspace/internal/config"
	"edaworkspace/internal/container"
	"edaworkspace/internal/logging"
	"edaworkspace/ui"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// A missing .env is fine; the environment may already be configured
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.New(appConfig.Logging.Level, appConfig.Server.GinMode == "debug")
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	appContainer, err := container.New(appConfig, logger)
	if err != nil {
		logger.Fatal("Failed to create application container", zap.Error(err))
	}
	defer appContainer.Close()

	if err := appContainer.InitStore(context.Background()); err != nil {
		logger.Fatal("Failed to initialize analysis store", zap.Error(err))
	}

	server, err := ui.NewServer(appContainer)
	if err != nil {
		logger.Fatal("Failed to initialize server", zap.Error(err))
	}

	logger.Info("services configured",
		zap.String("subsetting", appConfig.Services.SubsettingURL),
		zap.String("data", appConfig.Services.DataURL),
		zap.String("store", appConfig.Store.Driver))
	if err := server.Start(":" + appConfig.Server.Port); err != nil {
		logger.Fatal("Server stopped", zap.Error(err))
	}
}
