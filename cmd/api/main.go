package main

import (
	internal "stayhaven/internal/app"
	"stayhaven/pkg/cache"
	"stayhaven/pkg/config"
	"stayhaven/pkg/database"
	"stayhaven/pkg/logger"
	"stayhaven/pkg/queue"
	"stayhaven/pkg/s3"
)

// @title           Stayhaven API
// @version         1.0
// @description     Apartment booking platform with wallet, escrow and payment reconciliation

// @contact.name   API Support
// @contact.email  support@stayhaven.app

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	if cfg.JWTSecret == "your-secret-key-change-in-production" || cfg.JWTSecret == "" {
		panic("JWT_SECRET must be set in environment variables")
	}
	if err := cfg.ValidateGateway(); err != nil {
		panic(err)
	}

	log := logger.New()
	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		log.Error("Failed to connect to database: %v", err)
		panic(err)
	}

	// Migrations are handled by goose - see cmd/migrate/main.go

	redisClient, err := cache.NewRedisClient(cfg)
	if err != nil {
		log.Error("Failed to connect to redis: %v", err)
		panic(err)
	}

	s3Client, err := s3.NewClient(cfg)
	if err != nil {
		log.Error("Failed to create S3 client: %v", err)
		panic(err)
	}

	queueClient, err := queue.NewRabbitMQClient(cfg, log)
	if err != nil {
		log.Error("Failed to connect to RabbitMQ: %v", err)
		panic(err)
	}

	internal.Run(cfg, log, db, s3Client, queueClient, redisClient)
}
