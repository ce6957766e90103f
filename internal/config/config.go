package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Load reads the .env file specified by CANON_ENV (or .env by default),
// then loads the corresponding .secret file if it exists.
// All config is flat env vars read via os.Getenv after loading.
func Load() error {
	envFile := os.Getenv("CANON_ENV")
	if envFile == "" {
		envFile = ".env"
	}

	// Load main env file (ignore error if file doesn't exist)
	_ = godotenv.Load(envFile)

	// Load secret sidecar if it exists
	_ = godotenv.Load(envFile + ".secret")

	return nil
}

func ServerPort() int {
	port, err := strconv.Atoi(os.Getenv("SERVER_PORT"))
	if err != nil {
		return 8080
	}
	return port
}

func ServerAddr() string {
	return fmt.Sprintf(":%d", ServerPort())
}

func DatabaseURL() string {
	return os.Getenv("DATABASE_URL")
}

// LogLevel returns the log level (debug, info, warn, error).
// Defaults to "info" if not set.
func LogLevel() string {
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		return "info"
	}
	return level
}

// RateLimitRPS returns requests per second limit.
// Defaults to 100 if not set.
func RateLimitRPS() float64 {
	rps, err := strconv.ParseFloat(os.Getenv("RATE_LIMIT_RPS"), 64)
	if err != nil || rps <= 0 {
		return 100
	}
	return rps
}

// RateLimitBurst returns the burst size for rate limiting.
// Defaults to 20 if not set.
func RateLimitBurst() int {
	burst, err := strconv.Atoi(os.Getenv("RATE_LIMIT_BURST"))
	if err != nil || burst <= 0 {
		return 20
	}
	return burst
}

// SegmentWidth returns the drift-segmentation bucket width as a Go duration.
// Defaults to one week. A parseable but non-positive value is returned as-is
// so the engine constructor can reject it.
func SegmentWidth() time.Duration {
	raw := os.Getenv("SEGMENT_WIDTH")
	if raw == "" {
		return 7 * 24 * time.Hour
	}
	width, err := time.ParseDuration(raw)
	if err != nil {
		return 7 * 24 * time.Hour
	}
	return width
}

// CategoryMap parses CATEGORY_MAP, a comma-separated list of
// attribute=category pairs used to bucket drift signals
// (e.g. "employer=professional,location=personal").
// Attributes absent from the map fall into the "general" bucket.
func CategoryMap() (map[string]string, error) {
	raw := strings.TrimSpace(os.Getenv("CATEGORY_MAP"))
	categories := make(map[string]string)
	if raw == "" {
		return categories, nil
	}
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		attr, category, ok := strings.Cut(pair, "=")
		attr = strings.TrimSpace(attr)
		category = strings.TrimSpace(category)
		if !ok || attr == "" || category == "" {
			return nil, fmt.Errorf("malformed CATEGORY_MAP entry %q", pair)
		}
		categories[strings.ToLower(attr)] = category
	}
	return categories, nil
}
