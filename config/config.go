package config

import (
	"log"
	"os"

	"budget-tracker/utils"
)

// Config is the environment-driven server configuration.
type Config struct {
	Port        string
	DataFile    string
	FrontendURL string
}

// Load reads the configuration from the environment, applying defaults.
// Running in release mode with the default JWT secret is refused outright.
func Load() *Config {
	cfg := &Config{
		Port:        getenv("PORT", "8080"),
		DataFile:    getenv("DATA_FILE", "data/users.json"),
		FrontendURL: getenv("FRONTEND_URL", "http://localhost:3000"),
	}

	if os.Getenv("GIN_MODE") == "release" && getenv("JWT_SECRET", utils.DefaultJWTSecret) == utils.DefaultJWTSecret {
		log.Fatal("JWT_SECRET must be set in production")
	}

	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
