package main

import (
	stdlog "log"
	"net/http"
	"os"
	"strconv"

	"go.uber.org/zap"

	"github.com/kdimtricp/pulsecam/internal/api"
	"github.com/kdimtricp/pulsecam/internal/database"
	"github.com/kdimtricp/pulsecam/internal/hardware"
	"github.com/kdimtricp/pulsecam/internal/logger"
	"github.com/kdimtricp/pulsecam/internal/session"
)

func main() {
	log, err := logger.New(getEnv("LOG_LEVEL", "info"), getEnv("LOG_FORMAT", "json"), "pulsed")
	if err != nil {
		stdlog.Fatal("Failed to initialize logger:", err)
	}
	defer log.Sync()

	port := getEnv("PORT", "8080")

	// Database configuration
	dbType := getEnv("DB_TYPE", "sqlite")

	var dbConfig database.Config
	dbConfig.Type = dbType

	if dbType == "postgres" {
		dbConfig.Host = getEnv("DB_HOST", "localhost")
		dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
		if err != nil {
			log.Fatal("invalid DB_PORT", zap.Error(err))
		}
		dbConfig.Port = dbPort
		dbConfig.User = getEnv("DB_USER", "pulsecam")
		dbConfig.Password = getEnv("DB_PASSWORD", "pulsecam_dev")
		dbConfig.Name = getEnv("DB_NAME", "pulsecam")
	} else {
		dbConfig.SQLitePath = getEnv("DB_PATH", "./pulsecam.db")
	}

	db, err := database.NewDB(dbConfig)
	if err != nil {
		log.Fatal("failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	migrationsPath := getEnv("MIGRATIONS_PATH", "./migrations")
	if err := database.NewMigrator(db.Conn(), dbType, log).Run(migrationsPath); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}

	sessionRepo := database.NewSessionRepository(db)

	// The camera collaborator. The synthetic source stands in for a platform
	// camera driver; its pulse parameters are configurable for development.
	camCfg := hardware.SyntheticConfig{
		FrameRate: getEnvFloat("CAMERA_FPS", 30),
		BPM:       getEnvFloat("SIM_BPM", 72),
		Noise:     getEnvFloat("SIM_NOISE", 0.02),
	}
	cam := hardware.NewSyntheticCamera(camCfg)

	sessionCfg := session.DefaultConfig()
	sessionCfg.WarmupSeconds = getEnvFloat("MEASURE_WARMUP_S", sessionCfg.WarmupSeconds)
	sessionCfg.TimeLimitSeconds = getEnvFloat("MEASURE_TIME_LIMIT_S", sessionCfg.TimeLimitSeconds)
	sessionCfg.Smoother.TimeLimit = sessionCfg.TimeLimitSeconds
	sessionCfg.Sampler.SampleRate = camCfg.FrameRate

	controller := session.NewController(cam, hardware.NopDisplay{}, hardware.NopHaptics{}, sessionRepo, log, sessionCfg)
	defer controller.Close()

	app := &api.App{
		Controller: controller,
		Sessions:   sessionRepo,
		Log:        log,
	}
	router := api.NewRouter(app)

	log.Info("server starting",
		zap.String("port", port),
		zap.String("db_type", dbType),
		zap.Float64("camera_fps", camCfg.FrameRate))

	if err := http.ListenAndServe(":"+port, router); err != nil {
		log.Fatal("server failed", zap.Error(err))
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}
