package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

var (
	AppConfig Config
	envLoaded bool
)

type RedisConfig struct {
	Enabled  bool   `json:"enabled"`
	Address  string `json:"address"`
	Password string `json:"-"`
	DB       int    `json:"db"`
}

type TelegramConfig struct {
	BotToken       string        `json:"-"`
	AdminIDs       []int64       `json:"admin_ids"`
	Timeout        time.Duration `json:"timeout"`
	InitDataMaxAge time.Duration `json:"init_data_max_age"`
}

type SheetsConfig struct {
	SpreadsheetID   string        `json:"spreadsheet_id"`
	CredentialsFile string        `json:"credentials_file"`
	Timeout         time.Duration `json:"timeout"`
}

type Config struct {
	Environment      string         `json:"environment"`
	ServerPort       string         `json:"server_port"`
	AppURL           string         `json:"app_url"`
	LogLevel         string         `json:"log_level"`
	SentryDSN        string         `json:"-"`
	CORSOrigins      []string       `json:"cors_origins"`
	DBDriver         string         `json:"db_driver"`
	DBHost           string         `json:"db_host"`
	DBPort           string         `json:"db_port"`
	DBUser           string         `json:"db_user"`
	DBPassword       string         `json:"-"`
	DBName           string         `json:"db_name"`
	DBSSLMode        string         `json:"db_ssl_mode"`
	DBMaxIdleConns   int            `json:"db_max_idle_conns"`
	DBMaxOpenConns   int            `json:"db_max_open_conns"`
	SQLitePath       string         `json:"sqlite_path"`
	JWTSecret        string         `json:"-"`
	JWTTTL           time.Duration  `json:"jwt_ttl"`
	AuthRequired     bool           `json:"auth_required"`
	RateLimitReports int            `json:"rate_limit_reports"`
	Telegram         TelegramConfig `json:"telegram"`
	Sheets           SheetsConfig   `json:"sheets"`
	Redis            RedisConfig    `json:"redis"`
}

func init() {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()
	envLoaded = true
}

func LoadConfig() error {
	adminIDs, err := parseIDList(getEnv("TELEGRAM_ADMIN_IDS", ""))
	if err != nil {
		return fmt.Errorf("TELEGRAM_ADMIN_IDS: %w", err)
	}

	AppConfig = Config{
		Environment:    getEnv("ENVIRONMENT", "development"),
		ServerPort:     getEnv("SERVER_PORT", "3000"),
		AppURL:         getEnv("APP_URL", "http://localhost:3000"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		SentryDSN:      getEnv("SENTRY_DSN", ""),
		CORSOrigins:    splitList(getEnv("CORS_ORIGINS", "")),
		DBDriver:       getEnv("DB_DRIVER", "postgres"),
		DBHost:         getEnv("DB_HOST", "localhost"),
		DBPort:         getEnv("DB_PORT", "5432"),
		DBUser:         getEnv("DB_USER", "postgres"),
		DBPassword:     getEnv("DB_PASSWORD", ""),
		DBName:         getEnv("DB_NAME", "teamreports"),
		DBSSLMode:      getEnv("DB_SSL_MODE", "disable"),
		DBMaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 10),
		DBMaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 50),
		SQLitePath:     getEnv("SQLITE_PATH", "reports.db"),

		JWTSecret:        getEnv("JWT_SECRET", ""),
		JWTTTL:           getEnvAsDuration("JWT_TTL", 24*time.Hour),
		AuthRequired:     getEnvAsBool("AUTH_REQUIRED", false),
		RateLimitReports: getEnvAsInt("RATE_LIMIT_REPORTS", 30),

		Telegram: TelegramConfig{
			BotToken:       getEnv("TELEGRAM_BOT_TOKEN", ""),
			AdminIDs:       adminIDs,
			Timeout:        getEnvAsDuration("TELEGRAM_TIMEOUT", 10*time.Second),
			InitDataMaxAge: getEnvAsDuration("INIT_DATA_MAX_AGE", 24*time.Hour),
		},
		Sheets: SheetsConfig{
			SpreadsheetID:   getEnv("GOOGLE_SHEETS_ID", ""),
			CredentialsFile: getEnv("GOOGLE_CREDENTIALS_FILE", ""),
			Timeout:         getEnvAsDuration("SHEETS_TIMEOUT", 15*time.Second),
		},
		Redis: RedisConfig{
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
			Address:  getEnv("REDIS_ADDRESS", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
	}

	if err := AppConfig.Validate(); err != nil {
		return err
	}

	logConfig()
	return nil
}

// Validate checks the combinations of settings the server cannot start without.
func (c Config) Validate() error {
	switch c.DBDriver {
	case "postgres":
		if c.DBPassword == "" {
			return fmt.Errorf("DB_PASSWORD is required")
		}
	case "sqlite":
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required when DB_DRIVER=sqlite")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	if c.AuthRequired && c.Telegram.BotToken == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN is required when AUTH_REQUIRED is set")
	}
	if c.AuthRequired && c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required when AUTH_REQUIRED is set")
	}
	if c.Environment == "production" && c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required in production")
	}
	if c.Sheets.SpreadsheetID != "" && c.Sheets.CredentialsFile == "" {
		return fmt.Errorf("GOOGLE_CREDENTIALS_FILE is required when GOOGLE_SHEETS_ID is set")
	}
	return nil
}

// SheetsEnabled reports whether report mirroring to Google Sheets is configured.
func (c Config) SheetsEnabled() bool {
	return c.Sheets.SpreadsheetID != "" && c.Sheets.CredentialsFile != ""
}

// Helper functions
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	if !envLoaded && fallback == "" {
		logrus.Warnf("Environment variable %s not found and no fallback provided", key)
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return fallback
	}
	return value
}

func getEnvAsBool(key string, fallback bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return fallback
	}
	return value
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return fallback
	}
	return value
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseIDList(s string) ([]int64, error) {
	var ids []int64
	for _, part := range splitList(s) {
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid telegram id %q", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func logConfig() {
	logrus.WithFields(logrus.Fields{
		"environment":   AppConfig.Environment,
		"port":          AppConfig.ServerPort,
		"db_driver":     AppConfig.DBDriver,
		"admin_ids":     len(AppConfig.Telegram.AdminIDs),
		"bot":           AppConfig.Telegram.BotToken != "",
		"sheets":        AppConfig.SheetsEnabled(),
		"redis":         AppConfig.Redis.Enabled,
		"auth_required": AppConfig.AuthRequired,
	}).Info("Loaded configuration")
}
