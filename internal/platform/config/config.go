package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
)

const (
	EnvProduction  = "production"
	EnvDevelopment = "development"

	// devJWTSecret is only accepted outside production.
	devJWTSecret = "wecare-dev-secret-change-me"
)

var devAllowedOrigins = []string{
	"http://localhost:3000",
	"http://localhost:5173",
	"http://localhost:5174",
	"http://127.0.0.1:3000",
	"http://127.0.0.1:5173",
}

type Config struct {
	ServiceName string
	AppEnv      string
	LoggerLevel string

	Port     int
	AuthMode string

	StorageBackend string
	SQLitePath     string
	DatabaseURL    string

	JWTSecret string
	JWTIssuer string
	JWTTTL    time.Duration

	AllowedOrigins []string

	EnableDevDBReset     bool
	EnableDevDBSeed      bool
	ResetDBConfirmPhrase string
	SeedOnStart          bool

	RideConflictWindow time.Duration
	DuplicateWindow    time.Duration

	LockoutMaxAttempts int
	LockoutDuration    time.Duration
	LockoutWindow      time.Duration
	LoginRateLimit     int
}

func (c Config) IsProduction() bool { return c.AppEnv == EnvProduction }

// JWT returns the token settings derived from c.
func (c Config) JWT() JWTConfig {
	return JWTConfig{
		Secret:    c.JWTSecret,
		Issuer:    c.JWTIssuer,
		TTL:       c.JWTTTL,
		ClockSkew: 30 * time.Second,
	}
}

// Load reads .env (if present) and the process environment.
func Load() (Config, error) {
	_ = godotenv.Load(".env")

	cfg := Config{}

	cfg.ServiceName = cast.ToString(getOrReturnDefault("SERVICE_NAME", "wecare-api"))
	cfg.AppEnv = strings.ToLower(cast.ToString(getOrReturnDefault("APP_ENV", EnvDevelopment)))
	cfg.LoggerLevel = cast.ToString(getOrReturnDefault("LOGGER_LEVEL", "debug"))
	cfg.Port = cast.ToInt(getOrReturnDefault("PORT", 8080))
	cfg.AuthMode = strings.ToLower(cast.ToString(getOrReturnDefault("AUTH_MODE", "jwt")))

	cfg.StorageBackend = cast.ToString(getOrReturnDefault("STORAGE_BACKEND", "memory"))
	cfg.SQLitePath = cast.ToString(getOrReturnDefault("SQLITE_PATH", "wecare.db"))
	cfg.DatabaseURL = cast.ToString(getOrReturnDefault("DATABASE_URL", ""))

	cfg.JWTSecret = cast.ToString(getOrReturnDefault("JWT_SECRET", ""))
	cfg.JWTIssuer = cast.ToString(getOrReturnDefault("JWT_ISSUER", "wecare-api"))

	cfg.AllowedOrigins = splitList(cast.ToString(getOrReturnDefault("ALLOWED_ORIGINS", "")))
	cfg.EnableDevDBReset = cast.ToBool(getOrReturnDefault("ENABLE_DEV_DB_RESET", false))
	cfg.EnableDevDBSeed = cast.ToBool(getOrReturnDefault("ENABLE_DEV_DB_SEED", false))
	cfg.ResetDBConfirmPhrase = cast.ToString(getOrReturnDefault("RESET_DB_CONFIRM_PHRASE", "CONFIRM_RESET_DB"))
	cfg.SeedOnStart = cast.ToBool(getOrReturnDefault("SEED_ON_START", cfg.AppEnv != EnvProduction))

	cfg.LockoutMaxAttempts = cast.ToInt(getOrReturnDefault("LOCKOUT_MAX_ATTEMPTS", 5))
	cfg.LoginRateLimit = cast.ToInt(getOrReturnDefault("LOGIN_RATE_LIMIT", 5))

	var err error
	durations := []struct {
		key string
		def string
		dst *time.Duration
	}{
		{"JWT_TTL", "24h", &cfg.JWTTTL},
		{"RIDE_CONFLICT_WINDOW", "1h", &cfg.RideConflictWindow},
		{"DUPLICATE_WINDOW", "5s", &cfg.DuplicateWindow},
		{"LOCKOUT_DURATION", "15m", &cfg.LockoutDuration},
		{"LOCKOUT_WINDOW", "15m", &cfg.LockoutWindow},
	}
	for _, d := range durations {
		raw := cast.ToString(getOrReturnDefault(d.key, d.def))
		if *d.dst, err = time.ParseDuration(raw); err != nil {
			return Config{}, fmt.Errorf("%s must be a duration (e.g. %s): %w", d.key, d.def, err)
		}
	}

	if cfg.JWTSecret == "" {
		if cfg.IsProduction() {
			return Config{}, fmt.Errorf("JWT_SECRET is required when APP_ENV=%s", EnvProduction)
		}
		cfg.JWTSecret = devJWTSecret
	}
	switch cfg.AuthMode {
	case "jwt":
	case "dev":
		// dev mode trusts X-Debug-Subject.
		if cfg.IsProduction() {
			return Config{}, fmt.Errorf("AUTH_MODE=dev is not allowed when APP_ENV=%s", EnvProduction)
		}
	default:
		return Config{}, fmt.Errorf("unknown AUTH_MODE %q (want jwt or dev)", cfg.AuthMode)
	}
	if len(cfg.AllowedOrigins) == 0 && !cfg.IsProduction() {
		cfg.AllowedOrigins = append([]string(nil), devAllowedOrigins...)
	}
	switch cfg.StorageBackend {
	case "memory", "sqlite":
	case "postgres":
		if cfg.DatabaseURL == "" {
			return Config{}, fmt.Errorf("DATABASE_URL is required when STORAGE_BACKEND=postgres")
		}
	default:
		return Config{}, fmt.Errorf("unknown STORAGE_BACKEND %q (want memory, sqlite or postgres)", cfg.StorageBackend)
	}

	return cfg, nil
}

func getOrReturnDefault(key string, defaultValue interface{}) interface{} {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
