package main

import (
	"flag"
	stdlog "log"
	"os"
	"strconv"

	"go.uber.org/zap"

	"github.com/kdimtricp/pulsecam/internal/database"
	"github.com/kdimtricp/pulsecam/internal/logger"
)

func main() {
	var migrationsPath = flag.String("path", "./migrations", "Migrations directory")
	flag.Parse()

	log, err := logger.New(getEnv("LOG_LEVEL", "info"), "console", "migrate")
	if err != nil {
		stdlog.Fatal("Failed to initialize logger:", err)
	}
	defer log.Sync()

	port, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		log.Fatal("invalid DB_PORT", zap.Error(err))
	}

	db, err := database.NewDB(database.Config{
		Type:     "postgres",
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     port,
		User:     getEnv("DB_USER", "pulsecam"),
		Password: getEnv("DB_PASSWORD", "pulsecam_dev"),
		Name:     getEnv("DB_NAME", "pulsecam"),
	})
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := database.NewMigrator(db.Conn(), "postgres", log).Run(*migrationsPath); err != nil {
		log.Fatal("migration failed", zap.Error(err))
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
