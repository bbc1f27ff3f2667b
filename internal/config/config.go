package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	Port        string

	DataDir   string
	PublicDir string

	OTLPEndpoint string

	Push PushMetricsConfig

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	SQLitePath        string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int

	SearchMaxLimit int
	InsightsTopN   int

	ReloadOnStart  bool
	ReloadInterval time.Duration
	FileTimeout    time.Duration

	AliasesFile  string
	SeedDemoData bool
}

// PushMetricsConfig controls pushing of reload-run metrics to an
// external Prometheus endpoint.
type PushMetricsConfig struct {
	Enabled   bool
	Exporter  string
	Endpoint  string
	AuthToken string
	Interval  time.Duration
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		AppName:     getenv("APP_SERVICE", "rollcall"),
		AppVersion:  getenv("APP_VERSION", "0.1.0"),
		Environment: getenv("ENVIRONMENT", "development"),
		Port:        getenv("PORT", "8080"),

		DataDir:   getenv("DATA_DIR", "my_exports"),
		PublicDir: getenv("PUBLIC_DIR", "public"),

		OTLPEndpoint: getenv("OTLP_ENDPOINT", "localhost:4317"),

		Push: PushMetricsConfig{
			Enabled:   getenvBool("PUSH_METRICS_ENABLED", false),
			Exporter:  strings.ToLower(getenv("PUSH_METRICS_EXPORTER", "")),
			Endpoint:  strings.TrimSpace(getenv("PUSH_METRICS_ENDPOINT", "")),
			AuthToken: strings.TrimSpace(getenv("PUSH_METRICS_AUTH_TOKEN", "")),
			Interval:  getenvDuration("PUSH_METRICS_INTERVAL", 15*time.Minute),
		},

		DBType:            getenv("DATABASE_TYPE", "sqlite"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "rollcall"),
		DBUser:            getenv("DATABASE_USER", "rollcall"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		SQLitePath:        getenv("SQLITE_PATH", "rollcall.db"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 2),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 10),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 3600),

		SearchMaxLimit: getenvInt("SEARCH_MAX_LIMIT", 100),
		InsightsTopN:   getenvInt("INSIGHTS_TOP_N", 6),

		ReloadOnStart:  getenvBool("RELOAD_ON_START", true),
		ReloadInterval: getenvDuration("RELOAD_INTERVAL", 0),
		FileTimeout:    getenvDuration("FILE_TIMEOUT", 30*time.Second),

		AliasesFile:  strings.TrimSpace(getenv("ALIASES_FILE", "")),
		SeedDemoData: getenvBool("SEED_DEMO_DATA", false),
	}

	if cfg.SearchMaxLimit <= 0 {
		cfg.SearchMaxLimit = 100
	}
	if cfg.InsightsTopN <= 0 {
		cfg.InsightsTopN = 6
	}
	if cfg.FileTimeout <= 0 {
		cfg.FileTimeout = 30 * time.Second
	}

	return cfg
}

var Module = fx.Module("config",
	fx.Provide(Load),
	fx.Provide(NewAliasConfigHolder),
)

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvDuration(key string, def time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return def
	}
	return parsed
}
