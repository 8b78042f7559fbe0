package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port             int
	ModelPath        string
	ConfigPath       string
	SpoolDirectory   string
	DatabasePath     string
	LogDirectory     string
	DetectionTimeout int   // Seconds allowed per detection call
	MaxUploadSize    int64 // Maximum multipart upload size in MB
}

func Load() *Config {
	// Missing .env is fine, env vars and defaults still apply
	_ = godotenv.Load()

	return &Config{
		Port:             getEnvAsInt("PORT", 8080),
		ModelPath:        getEnv("MODEL_PATH", filepath.Join(".", "models", "frozen_inference_graph.pb")),
		ConfigPath:       getEnv("CONFIG_PATH", filepath.Join(".", "models", "ssd_mobilenet_v1_coco_2017_11_17.pbtxt")),
		SpoolDirectory:   getEnv("SPOOL_DIR", filepath.Join(".", "spool")),
		DatabasePath:     getEnv("DB_PATH", filepath.Join(".", "data", "runs.db")),
		LogDirectory:     getEnv("LOG_DIR", filepath.Join(".", "logs")),
		DetectionTimeout: getEnvAsInt("DETECTION_TIMEOUT", 10),
		MaxUploadSize:    getEnvAsInt64("MAX_UPLOAD_MB", 100),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}
