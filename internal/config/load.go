package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads configuration from environment variables and an optional config
// file. A .env file in the working directory is loaded first, then
// environment variables with the LEXI_ prefix override file values.
// Returns a validated Config or an error.
func Load(configFile string) (*Config, error) {
	// Best effort; a missing .env is the normal case outside development.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("LEXI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.log_level", "info")

	// Registered with an empty default so AutomaticEnv can populate it;
	// validation rejects the empty value.
	v.SetDefault("database.url", "")

	v.SetDefault("scheduler.area_question", "General Area")
	v.SetDefault("scheduler.eligible_role", "participant")
	v.SetDefault("scheduler.assignment_hours", []int{9, 12, 15, 18})
	v.SetDefault("scheduler.daily_task_cap", 3)
	v.SetDefault("scheduler.areas_per_day", 5)
	v.SetDefault("scheduler.tasks_per_area", 2)
	v.SetDefault("scheduler.expiry_window_hours", 24)
	v.SetDefault("scheduler.creation_hour", 18)
	v.SetDefault("scheduler.creation_minute", 15)
	v.SetDefault("scheduler.sweep_interval_minutes", 10)
	v.SetDefault("scheduler.policy", "fairness")
	v.SetDefault("scheduler.proximity_bonus", 0.5)
	v.SetDefault("scheduler.lock_dir", ".")
}
