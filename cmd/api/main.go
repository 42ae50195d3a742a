package main

import (
	"fmt"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/dvsilva/tech-challenge-2/internal/config"
	"github.com/dvsilva/tech-challenge-2/internal/database"
	"github.com/dvsilva/tech-challenge-2/internal/events"
	"github.com/dvsilva/tech-challenge-2/internal/logger"
	"github.com/dvsilva/tech-challenge-2/internal/server"
	"github.com/dvsilva/tech-challenge-2/internal/validator"
)

// @title           ByteBank API
// @version         1.0
// @description     Banking demo backend: accounts, cards, statements and investments.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @securityDefinitions.apikey AdminKey
// @in header
// @name X-API-Key

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	dbManager, err := database.NewManager(database.NewConfig(cfg))
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	defer dbManager.Close()

	if err := dbManager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	var publisher events.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.KafkaBrokers)
		log.Infow("Publishing ledger events to Kafka", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	} else {
		publisher = events.NewLogPublisher(logger.Named("events"))
	}
	defer publisher.Close()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	validator.Register()

	svc := server.NewServices(dbManager.DB(), publisher, cfg.KafkaTopic)

	if cfg.AutoInitDB {
		result, err := svc.Seed.Initialize(false)
		if err != nil {
			return fmt.Errorf("failed to seed demo data: %w", err)
		}
		if result.Skipped {
			log.Info("Demo data already present, skipping seed")
		}
	}

	router := server.NewRouter(cfg, svc)

	log.Infof("Starting ByteBank API on port %s", cfg.Port)
	log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", cfg.Port)
	return router.Run(":" + cfg.Port)
}
