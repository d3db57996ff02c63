package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	EnvConfigPath     = "TASKER_CONFIG"
	DefaultConfigPath = "tasker.yaml"

	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// MaxReminderInterval bounds both poll intervals. A longer gap can step
// over the 3 minute wide early-reminder window without ever landing in it.
const MaxReminderInterval = 3 * time.Minute

var ErrInvalidConfig = errors.New("config: invalid")

type Config struct {
	Store         StoreConfig         `yaml:"store"`
	Reminders     RemindersConfig     `yaml:"reminders"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Log           LogConfig           `yaml:"log"`
	Metrics       MetricsConfig       `yaml:"metrics"`
}

type StoreConfig struct {
	Backend    string      `yaml:"backend"`
	SQLitePath string      `yaml:"sqlite_path"`
	Redis      RedisConfig `yaml:"redis"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

type RemindersConfig struct {
	ForegroundInterval time.Duration `yaml:"foreground_interval"`
	BackgroundInterval time.Duration `yaml:"background_interval"`
	ReplyTimeout       time.Duration `yaml:"reply_timeout"`
	NativeAlarms       bool          `yaml:"native_alarms"`
	AlarmBuffer        int           `yaml:"alarm_buffer"`
	// Timezone names the zone due dates are read in; empty means local.
	Timezone string `yaml:"timezone"`
}

type NotificationsConfig struct {
	Desktop bool `yaml:"desktop"`
}

type LogConfig struct {
	File       string `yaml:"file"`
	Level      string `yaml:"level"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	Console    bool   `yaml:"console"`
}

type MetricsConfig struct {
	// Addr is where /metrics is served; empty disables it.
	Addr string `yaml:"addr"`
}

func Default() Config {
	return Config{
		Store: StoreConfig{
			Backend:    BackendSQLite,
			SQLitePath: "tasker.db",
			Redis: RedisConfig{
				Addr:   "localhost:6379",
				Prefix: "tasker:",
			},
		},
		Reminders: RemindersConfig{
			ForegroundInterval: 60 * time.Second,
			BackgroundInterval: 30 * time.Second,
			ReplyTimeout:       time.Second,
			NativeAlarms:       true,
			AlarmBuffer:        64,
		},
		Notifications: NotificationsConfig{Desktop: false},
		Log: LogConfig{
			File:       "tasker.log",
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}

// Load reads the YAML file at path on top of the defaults, then applies
// TASKER_* environment overrides. An empty path falls back to
// $TASKER_CONFIG and then tasker.yaml; a missing file is not an error.
func Load(path string) (Config, error) {
	if path == "" {
		path = strings.TrimSpace(os.Getenv(EnvConfigPath))
	}
	if path == "" {
		path = DefaultConfigPath
	}

	cfg := Default()
	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return Config{}, fmt.Errorf("read %s: %w", path, err)
	}

	cfg = FromEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func FromEnv(base Config) Config {
	cfg := base
	if v, ok := getEnvString("TASKER_STORE_BACKEND"); ok {
		cfg.Store.Backend = strings.ToLower(v)
	}
	if v, ok := getEnvString("TASKER_SQLITE_PATH"); ok {
		cfg.Store.SQLitePath = v
	}
	if v, ok := getEnvString("TASKER_REDIS_ADDR"); ok {
		cfg.Store.Redis.Addr = v
	}
	if v, ok := getEnvString("TASKER_REDIS_PASSWORD"); ok {
		cfg.Store.Redis.Password = v
	}
	if v, ok := getEnvInt("TASKER_REDIS_DB"); ok && v >= 0 {
		cfg.Store.Redis.DB = v
	}
	if v, ok := getEnvDuration("TASKER_FOREGROUND_INTERVAL"); ok {
		cfg.Reminders.ForegroundInterval = v
	}
	if v, ok := getEnvDuration("TASKER_BACKGROUND_INTERVAL"); ok {
		cfg.Reminders.BackgroundInterval = v
	}
	if v, ok := getEnvDuration("TASKER_REPLY_TIMEOUT"); ok {
		cfg.Reminders.ReplyTimeout = v
	}
	if v, ok := getEnvBool("TASKER_NATIVE_ALARMS"); ok {
		cfg.Reminders.NativeAlarms = v
	}
	if v, ok := getEnvInt("TASKER_SCHEDULER_BUFFER"); ok && v > 0 {
		cfg.Reminders.AlarmBuffer = v
	}
	if v, ok := getEnvString("TASKER_TIMEZONE"); ok {
		cfg.Reminders.Timezone = v
	}
	if v, ok := getEnvBool("TASKER_DESKTOP_NOTIFICATIONS"); ok {
		cfg.Notifications.Desktop = v
	}
	if v, ok := getEnvString("TASKER_LOG_FILE"); ok {
		cfg.Log.File = v
	}
	if v, ok := getEnvString("TASKER_LOG_LEVEL"); ok {
		cfg.Log.Level = v
	}
	if v, ok := getEnvBool("TASKER_LOG_CONSOLE"); ok {
		cfg.Log.Console = v
	}
	if v, ok := getEnvString("TASKER_METRICS_ADDR"); ok {
		cfg.Metrics.Addr = v
	}
	return cfg
}

func (c Config) Validate() error {
	switch c.Store.Backend {
	case BackendSQLite:
		if strings.TrimSpace(c.Store.SQLitePath) == "" {
			return fmt.Errorf("%w: store.sqlite_path is required", ErrInvalidConfig)
		}
	case BackendRedis:
		if strings.TrimSpace(c.Store.Redis.Addr) == "" {
			return fmt.Errorf("%w: store.redis.addr is required", ErrInvalidConfig)
		}
	case BackendMemory:
	default:
		return fmt.Errorf("%w: unknown store.backend %q", ErrInvalidConfig, c.Store.Backend)
	}
	if c.Reminders.ForegroundInterval <= 0 || c.Reminders.BackgroundInterval <= 0 {
		return fmt.Errorf("%w: reminder intervals must be positive", ErrInvalidConfig)
	}
	if c.Reminders.ForegroundInterval >= MaxReminderInterval || c.Reminders.BackgroundInterval >= MaxReminderInterval {
		return fmt.Errorf("%w: reminder intervals must be shorter than %s", ErrInvalidConfig, MaxReminderInterval)
	}
	if c.Reminders.ReplyTimeout <= 0 {
		return fmt.Errorf("%w: reminders.reply_timeout must be positive", ErrInvalidConfig)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves reminders.timezone.
func (c Config) Location() (*time.Location, error) {
	if c.Reminders.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Reminders.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: reminders.timezone: %v", ErrInvalidConfig, err)
	}
	return loc, nil
}

func getEnvString(name string) (string, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	return raw, raw != ""
}

func getEnvInt(name string) (int, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}

func getEnvDuration(name string) (time.Duration, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return 0, false
	}
	v, err := time.ParseDuration(raw)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}

func getEnvBool(name string) (bool, bool) {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if raw == "" {
		return false, false
	}
	switch raw {
	case "1", "true", "yes", "y", "on":
		return true, true
	case "0", "false", "no", "n", "off":
		return false, true
	default:
		return false, false
	}
}
