package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	TasksAPIURL    string
	ProjectsAPIURL string
	LoginAPIURL    string

	ListenAddr     string
	AllowedOrigins []string

	SessionSecret []byte
	SessionTTL    time.Duration

	HTTPTimeout time.Duration
	HTTPRetries int

	LogLevel string
	LogJSON  bool
}

// Load reads an optional .env file, then the process environment.
// Missing or unparsable values fall back to local development defaults.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		TasksAPIURL:    getenv("TASKS_API_URL", "http://localhost:5002"),
		ProjectsAPIURL: getenv("PROJECTS_API_URL", "http://localhost:8001"),
		LoginAPIURL:    getenv("LOGIN_API_URL", "http://localhost:5000"),

		ListenAddr: getenv("LISTEN_ADDR", ":5173"),
		AllowedOrigins: splitList(getenv("ALLOWED_ORIGINS",
			"http://localhost:5173,http://127.0.0.1:5173")),

		// TODO: refuse to start with the dev secret once deploys set SESSION_SECRET
		SessionSecret: []byte(getenv("SESSION_SECRET", "dev-session-secret")),
		SessionTTL:    getDuration("SESSION_TTL", 24*time.Hour),

		HTTPTimeout: getDuration("HTTP_TIMEOUT", 10*time.Second),
		HTTPRetries: getInt("HTTP_RETRIES", 0),

		LogLevel: getenv("LOG_LEVEL", "info"),
		LogJSON:  getBool("LOG_JSON", false),
	}
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

func getBool(key string, fallback bool) bool {
	b, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return b
}

func getDuration(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
