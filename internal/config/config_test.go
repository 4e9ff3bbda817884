package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"robotrent/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	t.Setenv("TEST_SPREADSHEET_ID", "sheet-123")

	yamlContent := `
telegram:
  bot_token: "test_token"
google:
  credentials_json: "{}"
  spreadsheet_id: "${TEST_SPREADSHEET_ID}"
calendar:
  cutoff: 13h30m
bot:
  admin_chat_id: 42
managers: [1, 2]
`
	require.NoError(t, os.WriteFile(configPath, []byte(yamlContent), 0o644))

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, "test_token", cfg.Telegram.BotToken)
	assert.Equal(t, "sheet-123", cfg.Google.SpreadsheetID)
	assert.Equal(t, 13*time.Hour+30*time.Minute, cfg.Calendar.Cutoff)
	assert.Equal(t, int64(42), cfg.Bot.AdminChatID)
	assert.True(t, cfg.IsManager(2))
	assert.False(t, cfg.IsManager(3))
}

func TestValidateConfig(t *testing.T) {
	valid := func() Config {
		c := Config{
			Telegram: TelegramConfig{BotToken: "token"},
			Google:   GoogleConfig{SpreadsheetID: "id", CredentialsFile: "creds.json"},
			Bot:      BotConfig{AdminChatID: 1},
		}
		c.applyDefaults()
		return c
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid config", mutate: func(*Config) {}},
		{name: "missing token", mutate: func(c *Config) { c.Telegram.BotToken = "" }, wantErr: true},
		{name: "placeholder token", mutate: func(c *Config) { c.Telegram.BotToken = "YOUR_BOT_TOKEN_HERE" }, wantErr: true},
		{name: "missing spreadsheet", mutate: func(c *Config) { c.Google.SpreadsheetID = "" }, wantErr: true},
		{name: "missing credentials", mutate: func(c *Config) { c.Google.CredentialsFile = "" }, wantErr: true},
		{name: "inline credentials", mutate: func(c *Config) {
			c.Google.CredentialsFile = ""
			c.Google.CredentialsJSON = "{}"
		}},
		{name: "missing admin chat", mutate: func(c *Config) { c.Bot.AdminChatID = 0 }, wantErr: true},
		{name: "cutoff past midnight", mutate: func(c *Config) { c.Calendar.Cutoff = 25 * time.Hour }, wantErr: true},
		{name: "unknown timezone", mutate: func(c *Config) { c.Calendar.Timezone = "Mars/Olympus" }, wantErr: true},
		{name: "api auth without keys", mutate: func(c *Config) {
			c.API.Enabled = true
			c.API.Auth.Enabled = true
		}, wantErr: true},
		{name: "api and metrics on one port", mutate: func(c *Config) {
			c.API.Enabled = true
			c.API.Port = 9090
			c.Monitoring.PrometheusEnabled = true
			c.Monitoring.PrometheusPort = 9090
		}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.applyDefaults()

	assert.Equal(t, models.StatusFree, cfg.Calendar.FreeStatus)
	assert.Equal(t, models.StatusReserved, cfg.Calendar.ReservedStatus)
	assert.Equal(t, models.DefaultCutoff, cfg.Calendar.Cutoff)
	assert.Equal(t, models.DefaultWindowDays, cfg.Calendar.WindowDays)
	assert.Equal(t, models.DefaultTimezone, cfg.Calendar.Timezone)
	assert.Equal(t, "Sheet1", cfg.Google.CalendarSheet)
	assert.Equal(t, "Context", cfg.Google.ContentSheet)
	assert.Equal(t, models.RateLimitMessages, cfg.Bot.RateLimitMessages)
	assert.Equal(t, 4, cfg.Bot.Workers)
	assert.Equal(t, 0, cfg.Monitoring.PrometheusPort)
	assert.Equal(t, 0, cfg.API.Port)

	enabled := &Config{API: APIConfig{Enabled: true}, Monitoring: MonitoringConfig{PrometheusEnabled: true}}
	enabled.applyDefaults()
	assert.Equal(t, 8080, enabled.API.Port)
	assert.Equal(t, 9090, enabled.Monitoring.PrometheusPort)
}

func TestLocation(t *testing.T) {
	cfg := &Config{Calendar: CalendarConfig{Timezone: "Europe/Kyiv"}}
	assert.Equal(t, "Europe/Kyiv", cfg.Location().String())

	cfg.Calendar.Timezone = "nowhere"
	assert.Equal(t, time.Local, cfg.Location())
}
