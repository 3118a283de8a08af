package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

var (
	PORT        string
	DB_URL      string
	JWT_SECRET  string
	CORS_ORIGIN string

	// Revision retention: how many revisions to keep per page, and how often
	// (minutes) the background sweep runs. 0 disables the sweep.
	REVISION_KEEP          int
	REVISION_SWEEP_MINUTES int
)

func LoadEnv() {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found. Using system environment variables.")
	}

	PORT = getEnv("PORT", "8080")
	DB_URL = mustEnv("DB_URL")
	JWT_SECRET = mustEnv("JWT_SECRET")
	CORS_ORIGIN = getEnv("CORS_ORIGIN", "http://localhost:3000")

	REVISION_KEEP = getEnvInt("REVISION_KEEP", 50)
	REVISION_SWEEP_MINUTES = getEnvInt("REVISION_SWEEP_MINUTES", 0)
}

// RevisionKeep returns the configured retention cap, defaulting to 50 when
// config has not been loaded (tests) or the value is nonsense.
func RevisionKeep() int {
	if REVISION_KEEP < 1 {
		return 50
	}
	return REVISION_KEEP
}

func mustEnv(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("Missing required environment variable: %s", key)
	}
	return v
}

func getEnv(key string, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Fatalf("Environment variable %s must be an integer, got %q", key, value)
	}
	return n
}
