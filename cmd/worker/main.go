package main

import (
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"assistant-backend/cmd"
	"assistant-backend/internal/database"
	"assistant-backend/internal/messaging"
	"assistant-backend/internal/turnlog"

	"github.com/caarlos0/env/v11"
)

type WorkerConfig struct {
	DatabaseURL string `env:"DATABASE_URL,notEmpty,required"`
	RabbitMQURL string `env:"RABBITMQ_URL,notEmpty,required"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
}

func main() {
	cmd.LoadEnvFile()

	var cfg WorkerConfig
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("error parsing config: %v", err)
	}

	cmd.InitLogging(cfg.LogLevel)

	slog.Info("starting turn log worker")

	db, err := database.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	receiver, err := messaging.NewRabbitMQReceiver(cfg.RabbitMQURL, messaging.TurnEventsQueue)
	if err != nil {
		log.Fatalf("Failed to connect to RabbitMQ: %v", err)
	}

	processor := turnlog.NewProcessor(db, receiver)
	go processor.Start()

	slog.Info("worker started, waiting for turn events")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutdown signal received, stopping worker")
	processor.Stop()

	slog.Info("worker process stopped")
}
