// Package config provides configuration loading and validation for the
// bot. Values come from defaults, an optional config.yaml, and BOT_*
// environment variables, in that order.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config defines the application configuration.
type Config struct {
	Log      LogConfig      `mapstructure:"log"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Database DatabaseConfig `mapstructure:"database"`
	Reminder ReminderConfig `mapstructure:"reminder"`
}

// LogConfig controls log verbosity and output format.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// TelegramConfig holds the bot credentials.
type TelegramConfig struct {
	Token   string `mapstructure:"token"    validate:"required"`
	AdminID int64  `mapstructure:"admin_id" validate:"required,gt=0"`
}

// DatabaseConfig locates the SQLite database file.
type DatabaseConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// ReminderConfig tunes the reminder engine.
type ReminderConfig struct {
	// GraceWindow bounds how far past-due a reminder may still fire after a
	// restart instead of being dropped.
	GraceWindow    time.Duration `mapstructure:"grace_window"     validate:"min=1m,max=24h"`
	MaxLeadMinutes int           `mapstructure:"max_lead_minutes" validate:"min=1,max=1440"`
}

// Load reads configuration from the given path (or ./config.yaml when
// empty), applies environment overrides, and validates the result.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("BOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; env and defaults still apply.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)

	v.SetDefault("database.path", "skyclock.db")

	v.SetDefault("reminder.grace_window", 15*time.Minute)
	v.SetDefault("reminder.max_lead_minutes", 1440)
}
