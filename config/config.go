package config

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is read from environment variables, optionally seeded by a .env file.
type Config struct {
	Port          string
	SheetsURL     string // unset => demo mode (in-memory store)
	DriveFolderID string
	DatabaseURL   string // set => postgres-backed gateway instead of sheets
	RedisAddr     string
	RedisPwd      string
	WebOrigin     string
	SessionTTL    time.Duration
	AdminUsername string
	AdminPassword string
	Environment   string
}

func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file, using environment")
	}
}

func Load() Config {
	get := func(k, def string) string {
		v := os.Getenv(k)
		if v == "" {
			return def
		}
		return v
	}
	ttl := 24 * time.Hour
	if d, err := time.ParseDuration(get("SESSION_TTL_SECONDS", "86400") + "s"); err == nil {
		ttl = d
	}
	return Config{
		Port:          get("PORT", "3001"),
		SheetsURL:     strings.TrimSpace(os.Getenv("SHEETS_URL")),
		DriveFolderID: strings.TrimSpace(os.Getenv("DRIVE_FOLDER_ID")),
		DatabaseURL:   strings.TrimSpace(os.Getenv("DATABASE_URL")),
		RedisAddr:     get("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPwd:      os.Getenv("REDIS_PASSWORD"),
		WebOrigin:     get("WEB_ORIGIN", "http://localhost:5173"),
		SessionTTL:    ttl,
		AdminUsername: get("ADMIN_USERNAME", "admin"),
		AdminPassword: get("ADMIN_PASSWORD", "spkadmin"),
		Environment:   get("ENVIRONMENT", "development"),
	}
}
