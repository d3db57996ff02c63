package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := Default()
	if cfg.Reminders.ForegroundInterval != time.Minute || cfg.Reminders.BackgroundInterval != 30*time.Second {
		t.Fatalf("unexpected interval defaults: %+v", cfg.Reminders)
	}
	if cfg.Reminders.ReplyTimeout != time.Second || cfg.Reminders.AlarmBuffer != 64 {
		t.Fatalf("unexpected reminder defaults: %+v", cfg.Reminders)
	}
	if cfg.Store.Backend != BackendSQLite || cfg.Store.SQLitePath != "tasker.db" {
		t.Fatalf("unexpected store defaults: %+v", cfg.Store)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Store.Backend != BackendSQLite {
		t.Fatalf("expected default backend, got %q", cfg.Store.Backend)
	}
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasker.yaml")
	body := `
store:
  backend: redis
  redis:
    addr: redis:6379
    db: 2
reminders:
  foreground_interval: 2m
  background_interval: 15s
  native_alarms: false
  timezone: UTC
notifications:
  desktop: true
log:
  level: debug
metrics:
  addr: ":9102"
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Store.Backend != BackendRedis || cfg.Store.Redis.Addr != "redis:6379" || cfg.Store.Redis.DB != 2 {
		t.Fatalf("unexpected store config: %+v", cfg.Store)
	}
	if cfg.Store.SQLitePath != "tasker.db" {
		t.Fatalf("unset keys should keep defaults: %+v", cfg.Store)
	}
	if cfg.Reminders.ForegroundInterval != 2*time.Minute || cfg.Reminders.BackgroundInterval != 15*time.Second {
		t.Fatalf("unexpected intervals: %+v", cfg.Reminders)
	}
	if cfg.Reminders.NativeAlarms || !cfg.Notifications.Desktop {
		t.Fatalf("unexpected toggles: %+v", cfg)
	}
	loc, err := cfg.Location()
	if err != nil || loc != time.UTC {
		t.Fatalf("unexpected location: %v %v", loc, err)
	}
	if cfg.Metrics.Addr != ":9102" || cfg.Log.Level != "debug" {
		t.Fatalf("unexpected ambient config: %+v", cfg)
	}
}

func TestLoadUsesEnvPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	if err := os.WriteFile(path, []byte("store:\n  backend: memory\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(EnvConfigPath, path)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Store.Backend != BackendMemory {
		t.Fatalf("expected memory backend, got %q", cfg.Store.Backend)
	}
}

func TestLoadRejectsBrokenYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasker.yaml")
	if err := os.WriteFile(path, []byte("store: [unclosed"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv("TASKER_STORE_BACKEND", "MEMORY")
	t.Setenv("TASKER_DESKTOP_NOTIFICATIONS", "true")
	t.Setenv("TASKER_FOREGROUND_INTERVAL", "90s")
	t.Setenv("TASKER_BACKGROUND_INTERVAL", "nonsense")
	t.Setenv("TASKER_SCHEDULER_BUFFER", "128")
	t.Setenv("TASKER_NATIVE_ALARMS", "off")
	t.Setenv("TASKER_REDIS_DB", "3")

	cfg := FromEnv(Default())
	if cfg.Store.Backend != BackendMemory {
		t.Fatalf("unexpected backend: %q", cfg.Store.Backend)
	}
	if !cfg.Notifications.Desktop {
		t.Fatal("expected desktop notifications true from env")
	}
	if cfg.Reminders.ForegroundInterval != 90*time.Second {
		t.Fatalf("unexpected foreground interval: %s", cfg.Reminders.ForegroundInterval)
	}
	if cfg.Reminders.BackgroundInterval != 30*time.Second {
		t.Fatalf("invalid override should be ignored: %s", cfg.Reminders.BackgroundInterval)
	}
	if cfg.Reminders.AlarmBuffer != 128 || cfg.Reminders.NativeAlarms {
		t.Fatalf("unexpected reminder overrides: %+v", cfg.Reminders)
	}
	if cfg.Store.Redis.DB != 3 {
		t.Fatalf("unexpected redis db: %d", cfg.Store.Redis.DB)
	}
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"unknown backend":  func(c *Config) { c.Store.Backend = "postgres" },
		"empty sqlite":     func(c *Config) { c.Store.SQLitePath = " " },
		"zero interval":    func(c *Config) { c.Reminders.BackgroundInterval = 0 },
		"slow foreground":  func(c *Config) { c.Reminders.ForegroundInterval = 3 * time.Minute },
		"slow background":  func(c *Config) { c.Reminders.BackgroundInterval = 10 * time.Minute },
		"zero timeout":     func(c *Config) { c.Reminders.ReplyTimeout = 0 },
		"unknown timezone": func(c *Config) { c.Reminders.Timezone = "Mars/Olympus" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(&cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestValidateAcceptsIntervalJustUnderWindow(t *testing.T) {
	cfg := Default()
	cfg.Reminders.ForegroundInterval = MaxReminderInterval - time.Second
	cfg.Reminders.BackgroundInterval = MaxReminderInterval - time.Second
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}
