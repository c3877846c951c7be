package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Settings holds all runtime configuration. Values come from the
// environment, with a .env file loaded first if present.
type Settings struct {
	// HTTP server
	ListenAddr string

	// Seoul cultural event open API
	SeoulAPIBaseURL  string
	SeoulAPIKey      string
	SeoulAPIService  string
	SeoulAPIPageSize int

	// Catalog refresh
	RefreshInterval time.Duration

	// Storage
	DataDir      string
	DatabasePath string

	// Backups retained by cleanup; 0 keeps everything.
	BackupRetention int

	// Extra CORS origins beyond localhost/private networks.
	AllowedOrigins []string

	// Logging
	LogFile string
}

// Load reads configuration from the environment. A missing .env file is not
// an error; explicit environment variables always win over .env entries.
func Load() Settings {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("[config] .env not loaded: %v", err)
	}

	dataDir := envString("DATA_DIR", "./data")

	return Settings{
		ListenAddr:       envString("LISTEN_ADDR", ":8000"),
		SeoulAPIBaseURL:  envString("SEOUL_EVENT_BASE_URL", "http://openapi.seoul.go.kr:8088"),
		SeoulAPIKey:      envString("SEOUL_EVENT_API_KEY", ""),
		SeoulAPIService:  envString("SEOUL_EVENT_SERVICE", "culturalEventInfo"),
		SeoulAPIPageSize: envInt("SEOUL_EVENT_PAGE_SIZE", 1000),
		RefreshInterval:  envDuration("REFRESH_INTERVAL", 24*time.Hour),
		DataDir:          dataDir,
		DatabasePath:     envString("DATABASE_PATH", dataDir+"/seoulfest.db"),
		BackupRetention:  envInt("BACKUP_RETENTION", 10),
		AllowedOrigins:   envList("CORS_ALLOWED_ORIGINS"),
		LogFile:          envString("LOG_FILE", ""),
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("[config] invalid %s=%q, using %d", key, v, fallback)
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("[config] invalid %s=%q, using %s", key, v, fallback)
		return fallback
	}
	return d
}
