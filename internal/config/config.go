// Package config loads server settings from config files and the
// environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Banks     BanksConfig     `mapstructure:"banks"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Sheets    SheetsConfig    `mapstructure:"sheets"`
	Slack     SlackConfig     `mapstructure:"slack"`
	SendGrid  SendGridConfig  `mapstructure:"sendgrid"`
	Ledger    LedgerConfig    `mapstructure:"ledger"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

type ServerConfig struct {
	Addr       string `mapstructure:"addr"`
	PublicDir  string `mapstructure:"public_dir"`
	ReportsDir string `mapstructure:"reports_dir"`
	PublicURL  string `mapstructure:"public_url"`
}

type BanksConfig struct {
	Dir    string `mapstructure:"dir"`
	SOPDir string `mapstructure:"sop_dir"`
}

type LLMConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	Model   string        `mapstructure:"model"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type SheetsConfig struct {
	SpreadsheetID string `mapstructure:"spreadsheet_id"`
	Token         string `mapstructure:"token"`
	BaseURL       string `mapstructure:"base_url"`
}

type SlackConfig struct {
	WebhookURL string `mapstructure:"webhook_url"`
}

type SendGridConfig struct {
	APIKey string `mapstructure:"api_key"`
	Sender string `mapstructure:"sender"`
}

type LedgerConfig struct {
	Path string `mapstructure:"path"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type TelemetryConfig struct {
	Endpoint    string `mapstructure:"endpoint"`
	ServiceName string `mapstructure:"service_name"`
}

// Load reads config.yaml from the working directory (if present),
// applies defaults and environment overrides, and returns the merged
// configuration. A local .env file is loaded first so container and
// bare-metal deployments behave the same.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.AutomaticEnv()
	applyEnvOverrides(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.public_dir", "public")
	v.SetDefault("server.reports_dir", "reports")
	v.SetDefault("server.public_url", "")

	v.SetDefault("banks.dir", "banks")
	v.SetDefault("banks.sop_dir", "sops")

	v.SetDefault("llm.model", "claude-sonnet-4-20250514")
	v.SetDefault("llm.timeout", "90s")

	v.SetDefault("sheets.base_url", "")

	v.SetDefault("ledger.path", "kontify.db")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("telemetry.endpoint", "")
	v.SetDefault("telemetry.service_name", "kontify-brain")
}

// applyEnvOverrides maps the well-known deployment variables onto
// config keys. These take precedence over the config file.
func applyEnvOverrides(v *viper.Viper) {
	overrides := map[string]string{
		"llm.api_key":           "ANTHROPIC_API_KEY",
		"slack.webhook_url":     "SLACK_WEBHOOK_URL",
		"sendgrid.api_key":      "SENDGRID_API_KEY",
		"sendgrid.sender":       "SENDGRID_SENDER",
		"sheets.spreadsheet_id": "GOOGLE_SHEETS_ID",
		"sheets.token":          "GOOGLE_SHEETS_TOKEN",
		"telemetry.endpoint":    "OTEL_EXPORTER_OTLP_ENDPOINT",
	}
	for key, env := range overrides {
		if val := os.Getenv(env); val != "" {
			v.Set(key, val)
		}
	}
}
