package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTP struct {
		Port int
	}
	Store struct {
		Backend string // memory | file | postgres | redis
		FileDir string
	}
	DB struct {
		Host     string
		Port     int
		User     string
		Password string
		Database string
	}
	Redis struct {
		Address  string
		Password string
		DB       int
	}
	RabbitMQ struct {
		Enabled  bool
		Host     string
		Port     int
		User     string
		Password string
	}
	JWT struct {
		Secret string
	}
}

// LoadConfig reads the env file (if present) and resolves all settings
// from the environment with sensible local defaults.
func LoadConfig(filename string) (*Config, error) {
	// A missing env file is fine, the environment may already be populated.
	if _, err := os.Stat(filename); err == nil {
		if err := godotenv.Load(filename); err != nil {
			return nil, err
		}
	}

	cfg := &Config{}
	cfg.HTTP.Port = getEnvAsInt("HTTP_PORT", 3000)

	cfg.Store.Backend = getEnv("STORE_BACKEND", "file")
	cfg.Store.FileDir = getEnv("STORE_FILE_DIR", "data")

	cfg.DB.Host = getEnv("DB_HOST", "localhost")
	cfg.DB.Port = getEnvAsInt("DB_PORT", 5432)
	cfg.DB.User = getEnv("DB_USER", "booking_user")
	cfg.DB.Password = getEnv("DB_PASS", "booking_pass")
	cfg.DB.Database = getEnv("DB_NAME", "booking_db")

	cfg.Redis.Address = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASS", "")
	cfg.Redis.DB = getEnvAsInt("REDIS_DB", 0)

	cfg.RabbitMQ.Enabled = getEnvAsBool("RABBITMQ_ENABLED", false)
	cfg.RabbitMQ.Host = getEnv("RABBITMQ_HOST", "localhost")
	cfg.RabbitMQ.Port = getEnvAsInt("RABBITMQ_PORT", 5672)
	cfg.RabbitMQ.User = getEnv("RABBITMQ_USER", "guest")
	cfg.RabbitMQ.Password = getEnv("RABBITMQ_PASS", "guest")

	cfg.JWT.Secret = getEnv("JWT_SECRET", "local-dev-secret")

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return fallback
}
