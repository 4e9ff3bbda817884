package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"robotrent/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	Telegram   TelegramConfig   `yaml:"telegram"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Google     GoogleConfig     `yaml:"google"`
	Calendar   CalendarConfig   `yaml:"calendar"`
	Bot        BotConfig        `yaml:"bot"`
	Managers   []int64          `yaml:"managers"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	API        APIConfig        `yaml:"api"`
	Scheduler  SchedulerConfig  `yaml:"scheduler"`
	Exports    ExportConfig     `yaml:"exports"`
	Backup     BackupConfig     `yaml:"backup"`
	Logging    LoggingConfig    `yaml:"logging"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type TelegramConfig struct {
	BotToken string `yaml:"bot_token"`
	Debug    bool   `yaml:"debug"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type GoogleConfig struct {
	CredentialsFile   string  `yaml:"credentials_file"`
	CredentialsJSON   string  `yaml:"credentials_json"`
	SpreadsheetID     string  `yaml:"spreadsheet_id"`
	CalendarSheet     string  `yaml:"calendar_sheet"`
	ContentSheet      string  `yaml:"content_sheet"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

type CalendarConfig struct {
	FreeStatus     string        `yaml:"free_status"`
	ReservedStatus string        `yaml:"reserved_status"`
	Cutoff         time.Duration `yaml:"cutoff"`
	WindowDays     int           `yaml:"window_days"`
	Timezone       string        `yaml:"timezone"`
	LockTTL        time.Duration `yaml:"lock_ttl"`
	LockWait       time.Duration `yaml:"lock_wait"`
}

type BotConfig struct {
	AdminChatID       int64 `yaml:"admin_chat_id"`
	Workers           int   `yaml:"workers"`
	RateLimitMessages int   `yaml:"rate_limit_messages"`
	RateLimitWindow   int   `yaml:"rate_limit_window"`
	ExportDays        int   `yaml:"export_days"`
	SessionTTL        int   `yaml:"session_ttl"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

// APIConfig описывает HTTP API только для чтения.
type APIConfig struct {
	Enabled   bool               `yaml:"enabled"`
	Port      int                `yaml:"port"`
	Auth      APIAuthConfig      `yaml:"auth"`
	RateLimit APIRateLimitConfig `yaml:"rate_limit"`
}

type APIAuthConfig struct {
	Enabled      bool           `yaml:"enabled"`
	HeaderAPIKey string         `yaml:"header_api_key"`
	HeaderExtra  string         `yaml:"header_extra"`
	APIKeys      []APIClientKey `yaml:"api_keys"`
}

type APIClientKey struct {
	Key         string   `yaml:"key"`
	Extra       string   `yaml:"extra"`
	Name        string   `yaml:"name"`
	Permissions []string `yaml:"permissions"`
}

type APIRateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type SchedulerConfig struct {
	ContentRefresh string `yaml:"content_refresh"`
	Audit          string `yaml:"audit"`
	Backup         string `yaml:"backup"`
}

type ExportConfig struct {
	Path string `yaml:"path"`
}

type BackupConfig struct {
	Enabled       bool   `yaml:"enabled"`
	StoragePath   string `yaml:"storage_path"`
	RetentionDays int    `yaml:"retention_days"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

func Load(configPath string) (*Config, error) {
	// .env необязателен: в контейнере переменные приходят из окружения
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	// Предварительная замена переменных окружения в YAML
	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if c.Telegram.BotToken == "" || c.Telegram.BotToken == "YOUR_BOT_TOKEN_HERE" {
		return errors.New("telegram bot token is required")
	}

	if c.Google.SpreadsheetID == "" {
		return errors.New("google spreadsheet id is required")
	}

	if c.Google.CredentialsFile == "" && c.Google.CredentialsJSON == "" {
		return errors.New("google credentials_file or credentials_json is required")
	}

	if c.Bot.AdminChatID == 0 {
		return errors.New("bot admin_chat_id is required")
	}

	if c.Calendar.Cutoff < 0 || c.Calendar.Cutoff >= 24*time.Hour {
		return fmt.Errorf("calendar cutoff %s is outside of a day", c.Calendar.Cutoff)
	}

	if _, err := time.LoadLocation(c.Calendar.Timezone); err != nil {
		return fmt.Errorf("calendar timezone: %w", err)
	}

	if c.API.Enabled && c.API.Auth.Enabled && len(c.API.Auth.APIKeys) == 0 {
		return errors.New("api auth is enabled but no api_keys configured")
	}

	if c.API.Enabled && c.Monitoring.PrometheusEnabled && c.API.Port == c.Monitoring.PrometheusPort {
		return fmt.Errorf("api and monitoring cannot share port %d", c.API.Port)
	}

	return nil
}

// Location returns the calendar time zone, falling back to local time.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Calendar.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// IsManager reports whether the user may run admin commands.
func (c *Config) IsManager(userID int64) bool {
	for _, id := range c.Managers {
		if id == userID {
			return true
		}
	}
	return false
}

func (c *Config) applyDefaults() {
	if c.Database.Path == "" {
		c.Database.Path = "data/reservations.db"
	}
	if c.Exports.Path == "" {
		c.Exports.Path = "exports"
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
	if c.API.Enabled && c.API.Port == 0 {
		c.API.Port = 8080
	}

	// Google defaults
	if c.Google.CalendarSheet == "" {
		c.Google.CalendarSheet = "Sheet1"
	}
	if c.Google.ContentSheet == "" {
		c.Google.ContentSheet = "Context"
	}
	if c.Google.RequestsPerSecond <= 0 {
		c.Google.RequestsPerSecond = 1
	}
	if c.Google.Burst <= 0 {
		c.Google.Burst = 5
	}

	// Calendar defaults
	if c.Calendar.FreeStatus == "" {
		c.Calendar.FreeStatus = models.StatusFree
	}
	if c.Calendar.ReservedStatus == "" {
		c.Calendar.ReservedStatus = models.StatusReserved
	}
	if c.Calendar.Cutoff == 0 {
		c.Calendar.Cutoff = models.DefaultCutoff
	}
	if c.Calendar.WindowDays <= 0 {
		c.Calendar.WindowDays = models.DefaultWindowDays
	}
	if c.Calendar.Timezone == "" {
		c.Calendar.Timezone = models.DefaultTimezone
	}
	if c.Calendar.LockTTL == 0 {
		c.Calendar.LockTTL = 30 * time.Second
	}
	if c.Calendar.LockWait == 0 {
		c.Calendar.LockWait = 5 * time.Second
	}

	// Bot defaults
	if c.Bot.Workers <= 0 {
		c.Bot.Workers = 4
	}
	if c.Bot.RateLimitMessages == 0 {
		c.Bot.RateLimitMessages = models.RateLimitMessages
	}
	if c.Bot.RateLimitWindow == 0 {
		c.Bot.RateLimitWindow = models.RateLimitWindow
	}
	if c.Bot.ExportDays == 0 {
		c.Bot.ExportDays = models.DefaultExportDays
	}
	if c.Bot.SessionTTL == 0 {
		c.Bot.SessionTTL = models.DefaultSessionTTL
	}

	if c.Scheduler.ContentRefresh == "" {
		c.Scheduler.ContentRefresh = "@every 30m"
	}
	if c.Scheduler.Audit == "" {
		c.Scheduler.Audit = "0 9 * * *"
	}
	if c.Scheduler.Backup == "" {
		c.Scheduler.Backup = "@daily"
	}
	if c.Backup.StoragePath == "" {
		c.Backup.StoragePath = "backups"
	}
}
