package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Mail      MailConfig
	Storage   StorageConfig
	Sheets    SheetsConfig
	Telegram  TelegramConfig
	OpenFGA   OpenFGAConfig
	Telemetry TelemetryConfig
	Security  SecurityConfig
	Event     EventConfig
}

type ServerConfig struct {
	Host         string
	Port         string
	BaseURL      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	Environment  string
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	SessionTable string
}

// DSN returns the postgres connection URL.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s", c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode)
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type MailConfig struct {
	// Provider is one of smtp, sendgrid or console.
	Provider       string
	Host           string
	Port           int
	Username       string
	Password       string
	FromAddress    string
	FromName       string
	Organiser      string
	SendgridAPIKey string
	TestRecipients []string
	BatchSize      int
}

type StorageConfig struct {
	// Type is local or s3.
	Type      string
	LocalPath string
	S3Bucket  string
	S3Region  string
	URLExpiry time.Duration
}

type SheetsConfig struct {
	SpreadsheetID      string
	ServiceAccountJSON string
}

func (c SheetsConfig) Enabled() bool {
	return c.SpreadsheetID != "" && c.ServiceAccountJSON != ""
}

type TelegramConfig struct {
	BotToken string
	ChatID   int64
}

func (c TelegramConfig) Enabled() bool {
	return c.BotToken != "" && c.ChatID != 0
}

type OpenFGAConfig struct {
	Enabled  bool
	APIURL   string
	APIToken string
	StoreID  string
	ModelID  string
	Object   string
}

type TelemetryConfig struct {
	Enabled        bool
	ExporterURL    string
	ServiceName    string
	ServiceVersion string
	Environment    string
	SamplingRatio  float64
}

type SecurityConfig struct {
	CSRFEnabled       bool
	CookieSecure      bool
	SessionExpiration time.Duration
	FormRateLimit     int
	FormRateWindow    time.Duration
	MaxLoginAttempts  int
	LoginWindow       time.Duration
}

// Load reads .env (when present), the environment and the optional event file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("Failed to load .env file", "error", err)
	}

	cfg := NewConfig()

	if path := getEnv("EVENT_CONFIG_FILE", ""); path != "" {
		event, err := LoadEventFile(path, cfg.Event)
		if err != nil {
			return nil, fmt.Errorf("config: failed to load event file %s: %w", path, err)
		}
		cfg.Event = event
	}

	return cfg, nil
}

func NewConfig() *Config {
	environment := getEnv("SERVER_ENVIRONMENT", "development")

	return &Config{
		Server: ServerConfig{
			Host:         getEnv("SERVER_HOST", "0.0.0.0"),
			Port:         getEnv("PORT", "8080"),
			BaseURL:      strings.TrimRight(getEnv("BASE_URL", "http://localhost:8080"), "/"),
			ReadTimeout:  getEnvDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getEnvDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			Environment:  environment,
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnvInt("DB_PORT", 5432),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", "postgres"),
			Name:         getEnv("DB_NAME", "norwegianopen"),
			SSLMode:      getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 10),
			SessionTable: getEnv("DB_SESSION_TABLE", "sessions"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Mail: MailConfig{
			Provider:       getEnv("MAIL_PROVIDER", "console"),
			Host:           getEnv("SMTP_HOST", "smtp.gmail.com"),
			Port:           getEnvInt("SMTP_PORT", 587),
			Username:       getEnv("SMTP_USERNAME", ""),
			Password:       getEnv("SMTP_PASSWORD", ""),
			FromAddress:    getEnv("MAIL_FROM_ADDRESS", "noreply@localhost"),
			FromName:       getEnv("MAIL_FROM_NAME", "Norwegian Open"),
			Organiser:      getEnv("MAIL_ORGANISER_ADDRESS", ""),
			SendgridAPIKey: getEnv("SENDGRID_API_KEY", ""),
			TestRecipients: getEnvList("MAIL_TEST_RECIPIENTS"),
			BatchSize:      getEnvInt("MAIL_BATCH_SIZE", 50),
		},
		Storage: StorageConfig{
			Type:      getEnv("STORAGE_TYPE", "local"),
			LocalPath: getEnv("STORAGE_LOCAL_PATH", "./exports"),
			S3Bucket:  getEnv("STORAGE_S3_BUCKET", ""),
			S3Region:  getEnv("STORAGE_S3_REGION", ""),
			URLExpiry: getEnvDuration("STORAGE_URL_EXPIRY", 15*time.Minute),
		},
		Sheets: SheetsConfig{
			SpreadsheetID:      getEnv("GOOGLE_SHEETS_SPREADSHEET_ID", ""),
			ServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		},
		Telegram: TelegramConfig{
			BotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
			ChatID:   int64(getEnvInt("TELEGRAM_CHAT_ID", 0)),
		},
		OpenFGA: OpenFGAConfig{
			Enabled:  getEnvBool("OPENFGA_ENABLED", false),
			APIURL:   getEnv("OPENFGA_API_URL", "http://localhost:8080"),
			APIToken: getEnv("OPENFGA_API_TOKEN", ""),
			StoreID:  getEnv("OPENFGA_STORE_ID", ""),
			ModelID:  getEnv("OPENFGA_AUTHORIZATION_MODEL_ID", ""),
			Object:   getEnv("OPENFGA_EVENT_OBJECT", "event:norwegian-open"),
		},
		Telemetry: TelemetryConfig{
			Enabled:        getEnvBool("TELEMETRY_ENABLED", false),
			ExporterURL:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "norwegianopen"),
			ServiceVersion: getEnv("SERVICE_VERSION", "dev"),
			Environment:    environment,
			SamplingRatio:  getEnvFloat("OTEL_SAMPLING_RATIO", 1.0),
		},
		Security: SecurityConfig{
			CSRFEnabled:       getEnvBool("CSRF_ENABLED", true),
			CookieSecure:      environment == "production",
			SessionExpiration: getEnvDuration("SESSION_EXPIRATION", 12*time.Hour),
			FormRateLimit:     getEnvInt("FORM_RATE_LIMIT", 10),
			FormRateWindow:    getEnvDuration("FORM_RATE_WINDOW", 15*time.Minute),
			MaxLoginAttempts:  getEnvInt("MAX_LOGIN_ATTEMPTS", 5),
			LoginWindow:       getEnvDuration("LOGIN_WINDOW", 15*time.Minute),
		},
		Event: DefaultEventConfig(),
	}
}

func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if durationValue, err := time.ParseDuration(value); err == nil {
			return durationValue
		}
	}
	return defaultValue
}

func getEnvList(key string) []string {
	value, exists := os.LookupEnv(key)
	if !exists {
		return nil
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
