package main

import (
	"time"

	"go.uber.org/zap"

	"github.com/quangptt0910/SaccadeSync-sub000/internal/config"
	"github.com/quangptt0910/SaccadeSync-sub000/internal/database"
	"github.com/quangptt0910/SaccadeSync-sub000/internal/handlers"
	logger "github.com/quangptt0910/SaccadeSync-sub000/internal/logging"
	"github.com/quangptt0910/SaccadeSync-sub000/internal/models"
	"github.com/quangptt0910/SaccadeSync-sub000/internal/router"
	"github.com/quangptt0910/SaccadeSync-sub000/internal/services"
)

const (
	janitorInterval = time.Minute
	sessionMaxAge   = 30 * time.Minute
)

func main() {
	// Configuration is needed before the real logger exists, so config init
	// runs against a plain bootstrap logger.
	bootLog, err := zap.NewProduction()
	if err != nil {
		panic("failed to initialize bootstrap logger: " + err.Error())
	}
	if err := config.Init(".", bootLog); err != nil {
		bootLog.Fatal("Failed to load configuration", zap.Error(err))
	}

	// Initialize Logger
	log, err := logger.Init(config.Conf.Logging)
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer log.Sync()

	// Initialize Database
	database.Init(log)

	// Load the screening protocol at startup
	protocol, err := models.LoadProtocol("config/protocol.yaml")
	if err != nil {
		log.Fatal("Failed to load protocol", zap.Error(err))
	}

	// Background sweep for abandoned sessions
	janitor := services.NewJanitor(log, janitorInterval, sessionMaxAge)
	janitor.Start()

	// Setup router, passing the logger and the live pipeline registry to it
	registry := handlers.NewRegistry(log)
	r := router.Setup(log, registry, protocol)

	// Start the Gin server
	port := ":" + config.Conf.Server.Port
	log.Info("Server listening on http://localhost" + port)
	if err := r.Run(port); err != nil {
		log.Fatal("Failed to run Gin server", zap.Error(err))
	}
}
