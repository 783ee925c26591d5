package config

import "time"

// Config holds all application configuration, grouped by concern.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"    validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database"  validate:"required"`
	Scheduler SchedulerConfig `mapstructure:"scheduler" validate:"required"`
}

// ServerConfig contains the HTTP server settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains the database settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required"`
}

// SchedulerConfig contains the task lifecycle knobs. AreaQuestion is the
// canonical text of the area-selector question; a workspace that does not
// declare it is skipped by generation and assignment.
type SchedulerConfig struct {
	AreaQuestion         string  `mapstructure:"area_question"          validate:"required"`
	EligibleRole         string  `mapstructure:"eligible_role"          validate:"required"`
	AssignmentHours      []int   `mapstructure:"assignment_hours"       validate:"required,min=1,dive,gte=0,lte=23"`
	DailyTaskCap         int     `mapstructure:"daily_task_cap"         validate:"required,gt=0"`
	AreasPerDay          int     `mapstructure:"areas_per_day"          validate:"required,gt=0"`
	TasksPerArea         int     `mapstructure:"tasks_per_area"         validate:"required,gt=0"`
	ExpiryWindowHours    int     `mapstructure:"expiry_window_hours"    validate:"required,gt=0"`
	CreationHour         int     `mapstructure:"creation_hour"          validate:"gte=0,lte=23"`
	CreationMinute       int     `mapstructure:"creation_minute"        validate:"gte=0,lte=59"`
	SweepIntervalMinutes int     `mapstructure:"sweep_interval_minutes" validate:"required,gt=0"`
	Policy               string  `mapstructure:"policy"                 validate:"required,oneof=fairness proximity"`
	ProximityBonus       float64 `mapstructure:"proximity_bonus"        validate:"gte=0"`
	LockDir              string  `mapstructure:"lock_dir"               validate:"required"`
}

// ExpiryWindow returns the expiry window as a duration.
func (c SchedulerConfig) ExpiryWindow() time.Duration {
	return time.Duration(c.ExpiryWindowHours) * time.Hour
}

// SweepInterval returns the sweep cadence as a duration.
func (c SchedulerConfig) SweepInterval() time.Duration {
	return time.Duration(c.SweepIntervalMinutes) * time.Minute
}

// AssignmentHour reports whether h is one of the configured assignment hours.
func (c SchedulerConfig) AssignmentHour(h int) bool {
	for _, hour := range c.AssignmentHours {
		if hour == h {
			return true
		}
	}
	return false
}
