package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/mamadbah2/dpr/internal/domain/models"
)

// Config represents the full application configuration surface.
type Config struct {
	Server       ServerConfig
	MongoDB      MongoDBConfig
	Redis        RedisConfig
	Sheets       SheetsConfig
	SMTP         SMTPConfig
	WhatsApp     WhatsAppConfig
	Distribution DistributionConfig
	Log          LogConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port string
}

// MongoDBConfig holds settings for MongoDB.
type MongoDBConfig struct {
	URI    string
	DBName string
}

// RedisConfig enables the distribution run lock when Address is set.
type RedisConfig struct {
	Address  string
	Password string
	DB       int
}

// SheetsConfig enables the Google Sheets mirror when both fields are set.
type SheetsConfig struct {
	CredentialsPath string
	SpreadsheetID   string
}

// Enabled reports whether the mirror is configured.
func (c SheetsConfig) Enabled() bool {
	return c.CredentialsPath != "" && c.SpreadsheetID != ""
}

// SMTPConfig contains the mail submission settings.
type SMTPConfig struct {
	Server     string
	Port       int
	Username   string
	Password   string
	SenderMail string
	SenderName string
}

// WhatsAppConfig contains credentials and options for the Meta WhatsApp Cloud API.
type WhatsAppConfig struct {
	AccessToken   string
	PhoneNumberID string
	BaseURL       string
	APIVersion    string
}

// DistributionConfig holds the scheduled send settings.
type DistributionConfig struct {
	ProjectName   string
	Sites         []string
	Channel       string
	Timezone      string
	SendTime      string
	WindowMinutes int
	CronSchedule  string
	Parallelism   int
	LockTTL       time.Duration
}

// LogConfig controls the optional rolling log file.
type LogConfig struct {
	Level      string
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// Channel names accepted by DELIVERY_CHANNEL.
const (
	ChannelSMTP     = "smtp"
	ChannelWhatsApp = "whatsapp"
)

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// Missing .env files are acceptable when configuration comes from the
		// environment directly.
		_ = godotenv.Load()
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getenvWithDefault("APP_PORT", "8080"),
		},
		MongoDB: MongoDBConfig{
			URI:    os.Getenv("MONGODB_URI"),
			DBName: getenvWithDefault("MONGODB_DB_NAME", "dpr"),
		},
		Redis: RedisConfig{
			Address:  os.Getenv("REDIS_ADDRESS"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getenvInt("REDIS_DB", 0),
		},
		Sheets: SheetsConfig{
			CredentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
			SpreadsheetID:   os.Getenv("GOOGLE_SHEET_DATABASE_ID"),
		},
		SMTP: SMTPConfig{
			Server:     getenvWithDefault("SMTP_SERVER", "smtp.gmail.com"),
			Port:       getenvInt("SMTP_PORT", 587),
			Username:   os.Getenv("SMTP_USERNAME"),
			Password:   os.Getenv("SMTP_PASSWORD"),
			SenderMail: os.Getenv("SENDER_EMAIL"),
			SenderName: getenvWithDefault("SENDER_NAME", "MAHSR-T3 DPR System"),
		},
		WhatsApp: WhatsAppConfig{
			AccessToken:   os.Getenv("WHATSAPP_TOKEN"),
			PhoneNumberID: os.Getenv("WHATSAPP_PHONE_NUMBER_ID"),
			BaseURL:       getenvWithDefault("WHATSAPP_BASE_URL", "https://graph.facebook.com"),
			APIVersion:    getenvWithDefault("WHATSAPP_API_VERSION", "v20.0"),
		},
		Distribution: DistributionConfig{
			ProjectName:   getenvWithDefault("PROJECT_NAME", "MAHSR-T3"),
			Sites:         getenvList("DPR_SITES", models.SiteCodes()),
			Channel:       strings.ToLower(getenvWithDefault("DELIVERY_CHANNEL", ChannelSMTP)),
			Timezone:      getenvWithDefault("REPORT_TIMEZONE", "Asia/Kolkata"),
			SendTime:      getenvWithDefault("REPORT_SEND_TIME", "10:30"),
			WindowMinutes: getenvInt("REPORT_WINDOW_MINUTES", 5),
			CronSchedule:  getenvWithDefault("REPORT_CRON_SCHEDULE", "*/5 * * * *"),
			Parallelism:   getenvInt("DELIVERY_PARALLELISM", 1),
			LockTTL:       time.Duration(getenvInt("DISTRIBUTION_LOCK_TTL_SECONDS", 600)) * time.Second,
		},
		Log: LogConfig{
			Level:      getenvWithDefault("LOG_LEVEL", "info"),
			Path:       os.Getenv("LOG_PATH"),
			MaxSizeMB:  getenvInt("LOG_MAX_SIZE_MB", 100),
			MaxBackups: getenvInt("LOG_MAX_BACKUPS", 3),
			MaxAgeDays: getenvInt("LOG_MAX_AGE_DAYS", 7),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated. Delivery
// credentials are deliberately not checked here: a missing credential is
// reported by the distribution run itself, before any send.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}

	if c.MongoDB.URI == "" {
		return errors.New("MONGODB_URI must be provided")
	}

	if c.MongoDB.DBName == "" {
		return errors.New("MONGODB_DB_NAME must not be empty")
	}

	if len(c.Distribution.Sites) == 0 {
		return errors.New("DPR_SITES must list at least one site")
	}
	for _, code := range c.Distribution.Sites {
		if _, ok := models.LookupSite(code); !ok {
			return fmt.Errorf("DPR_SITES: %w %q", models.ErrUnknownSite, code)
		}
	}

	switch c.Distribution.Channel {
	case ChannelSMTP, ChannelWhatsApp:
	default:
		return fmt.Errorf("DELIVERY_CHANNEL %q is not supported", c.Distribution.Channel)
	}

	if _, err := time.LoadLocation(c.Distribution.Timezone); err != nil {
		return fmt.Errorf("REPORT_TIMEZONE: %w", err)
	}

	if _, _, err := c.Distribution.SendClock(); err != nil {
		return err
	}

	if c.Distribution.WindowMinutes < 0 {
		return errors.New("REPORT_WINDOW_MINUTES must not be negative")
	}

	if c.Distribution.CronSchedule == "" {
		return errors.New("REPORT_CRON_SCHEDULE must be provided")
	}

	if c.Distribution.Parallelism < 1 {
		c.Distribution.Parallelism = 1
	}

	return nil
}

// SendClock parses REPORT_SEND_TIME as hour and minute.
func (d DistributionConfig) SendClock() (int, int, error) {
	t, err := time.Parse("15:04", d.SendTime)
	if err != nil {
		return 0, 0, fmt.Errorf("REPORT_SEND_TIME %q must be HH:MM: %w", d.SendTime, err)
	}
	return t.Hour(), t.Minute(), nil
}

// Location resolves the reference timezone, falling back to UTC.
func (d DistributionConfig) Location() *time.Location {
	loc, err := time.LoadLocation(d.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return n
}

func getenvList(key string, fallback []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
