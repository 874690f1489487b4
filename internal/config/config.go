package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreMongo    = "mongo"
)

type APIConfig struct {
	Addr           string
	StoreDriver    string
	DatabaseURL    string
	MongoURI       string
	MongoDatabase  string
	JWTSecret      string
	SessionTTL     time.Duration
	TicketTTL      time.Duration
	AllowedOrigins []string
	SecureCookies  bool
	LoginPerMinute float64
	EconomyFile    string
	RequestTimeout time.Duration
}

type MigrateConfig struct {
	StoreDriver   string
	DatabaseURL   string
	MongoURI      string
	MongoDatabase string
	EconomyFile   string
	DryRun        bool
}

type CLIConfig struct {
	APIBaseURL string
}

func LoadAPIFromEnv() (APIConfig, error) {
	addr := os.Getenv("PORT")
	if addr != "" {
		if !strings.HasPrefix(addr, ":") {
			addr = ":" + addr
		}
	} else {
		addr = envDefault("AQUARIUM_API_ADDR", ":8080")
	}

	cfg := APIConfig{
		Addr:           addr,
		StoreDriver:    envStoreDefault(),
		DatabaseURL:    strings.TrimSpace(os.Getenv("DATABASE_URL")),
		MongoURI:       strings.TrimSpace(os.Getenv("MONGODB_URI")),
		MongoDatabase:  envDefault("MONGODB_DATABASE", "aquarium"),
		JWTSecret:      strings.TrimSpace(os.Getenv("JWT_SECRET")),
		SessionTTL:     envDurationDefault("AQUARIUM_SESSION_TTL", 30*24*time.Hour),
		TicketTTL:      envDurationDefault("AQUARIUM_CATCH_TICKET_TTL", 10*time.Minute),
		AllowedOrigins: envListDefault("ALLOWED_ORIGINS", []string{"http://localhost:5173"}),
		SecureCookies:  envBoolDefault("AQUARIUM_SECURE_COOKIES", false),
		LoginPerMinute: envFloatDefault("AQUARIUM_LOGIN_PER_MINUTE", 5),
		EconomyFile:    strings.TrimSpace(os.Getenv("AQUARIUM_ECONOMY_FILE")),
		RequestTimeout: envDurationDefault("AQUARIUM_REQUEST_TIMEOUT", 15*time.Second),
	}
	if err := requireStore(cfg.StoreDriver, cfg.DatabaseURL, cfg.MongoURI); err != nil {
		return cfg, err
	}
	if cfg.JWTSecret == "" {
		return cfg, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.LoginPerMinute <= 0 {
		return cfg, fmt.Errorf("AQUARIUM_LOGIN_PER_MINUTE must be positive")
	}
	return cfg, nil
}

func LoadMigrateFromEnv() (MigrateConfig, error) {
	cfg := MigrateConfig{
		StoreDriver:   envStoreDefault(),
		DatabaseURL:   strings.TrimSpace(os.Getenv("DATABASE_URL")),
		MongoURI:      strings.TrimSpace(os.Getenv("MONGODB_URI")),
		MongoDatabase: envDefault("MONGODB_DATABASE", "aquarium"),
		EconomyFile:   strings.TrimSpace(os.Getenv("AQUARIUM_ECONOMY_FILE")),
		DryRun:        envBoolDefault("AQUARIUM_MIGRATE_DRY_RUN", false),
	}
	if cfg.StoreDriver == StoreMemory {
		return cfg, fmt.Errorf("nothing to migrate for the %s store", StoreMemory)
	}
	return cfg, requireStore(cfg.StoreDriver, cfg.DatabaseURL, cfg.MongoURI)
}

func LoadCLIFromEnv() CLIConfig {
	return CLIConfig{
		APIBaseURL: strings.TrimRight(envDefault("TANK_API_BASE_URL", "http://localhost:8080"), "/"),
	}
}

func requireStore(driver, databaseURL, mongoURI string) error {
	switch driver {
	case StorePostgres:
		if databaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the %s store", driver)
		}
	case StoreMongo:
		if mongoURI == "" {
			return fmt.Errorf("MONGODB_URI is required for the %s store", driver)
		}
	case StoreMemory:
	default:
		return fmt.Errorf("unknown AQUARIUM_STORE %q", driver)
	}
	return nil
}

// envStoreDefault picks postgres when DATABASE_URL is set, mongo when only
// MONGODB_URI is set, and memory otherwise.
func envStoreDefault() string {
	if v := strings.ToLower(strings.TrimSpace(os.Getenv("AQUARIUM_STORE"))); v != "" {
		return v
	}
	switch {
	case strings.TrimSpace(os.Getenv("DATABASE_URL")) != "":
		return StorePostgres
	case strings.TrimSpace(os.Getenv("MONGODB_URI")) != "":
		return StoreMongo
	default:
		return StoreMemory
	}
}

func envDefault(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func envListDefault(key string, fallback []string) []string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

func envDurationDefault(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func envFloatDefault(key string, fallback float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func envBoolDefault(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
