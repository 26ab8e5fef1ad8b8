package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Addr          string        // API bind address
	LogDir        string        // logs directory
	DatabaseURL   string        // postgres DSN; empty means use SQLite
	SQLitePath    string        // SQLite file used when DatabaseURL is empty
	ProbeInterval time.Duration // cadence of scheduler ticks
	ProbeTimeout  time.Duration // hard per-probe deadline
	Concurrency   int           // max probes in flight per tick
	RetryAttempts int           // per-probe attempts on transport failure
	RetryBackoff  time.Duration // backoff between retry attempts
	SuccessBelow  int           // status codes below this count as up
	RatePerMin    int           // API rate limit per client IP; 0 disables
	RateBurst     int
}

// fileConfig is the YAML shape; durations are strings ("60s", "500ms").
type fileConfig struct {
	Addr          string `yaml:"addr"`
	LogDir        string `yaml:"log_dir"`
	DatabaseURL   string `yaml:"database_url"`
	SQLitePath    string `yaml:"sqlite_path"`
	ProbeInterval string `yaml:"probe_interval"`
	ProbeTimeout  string `yaml:"probe_timeout"`
	Concurrency   int    `yaml:"concurrency"`
	RetryAttempts int    `yaml:"retry_attempts"`
	RetryBackoff  string `yaml:"retry_backoff"`
	SuccessBelow  int    `yaml:"success_below"`
	RatePerMin    int    `yaml:"rate_per_min"`
	RateBurst     int    `yaml:"rate_burst"`
}

func defaults() Config {
	return Config{
		Addr:          "127.0.0.1:8080",
		LogDir:        "logs",
		SQLitePath:    "sitepulse.db",
		ProbeInterval: time.Minute, // aligned with the one-log-per-minute constraint
		ProbeTimeout:  10 * time.Second,
		Concurrency:   10,
		RetryAttempts: 1,
		RetryBackoff:  300 * time.Millisecond,
		SuccessBelow:  500,
		RatePerMin:    120,
		RateBurst:     60,
	}
}

// Load reads an optional YAML file, then applies env overrides on top.
func Load(path string) (Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config file: %w", err)
		}
		var f fileConfig
		if err := yaml.Unmarshal(data, &f); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
		if err := f.apply(&cfg); err != nil {
			return cfg, err
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

func (f *fileConfig) apply(cfg *Config) error {
	setStr(&cfg.Addr, f.Addr)
	setStr(&cfg.LogDir, f.LogDir)
	setStr(&cfg.DatabaseURL, f.DatabaseURL)
	setStr(&cfg.SQLitePath, f.SQLitePath)
	if err := setDur(&cfg.ProbeInterval, f.ProbeInterval, "probe_interval"); err != nil {
		return err
	}
	if err := setDur(&cfg.ProbeTimeout, f.ProbeTimeout, "probe_timeout"); err != nil {
		return err
	}
	if err := setDur(&cfg.RetryBackoff, f.RetryBackoff, "retry_backoff"); err != nil {
		return err
	}
	setInt(&cfg.Concurrency, f.Concurrency)
	setInt(&cfg.RetryAttempts, f.RetryAttempts)
	setInt(&cfg.SuccessBelow, f.SuccessBelow)
	setInt(&cfg.RatePerMin, f.RatePerMin)
	setInt(&cfg.RateBurst, f.RateBurst)
	return nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("ADDR"); v != "" {
		cfg.Addr = v
	}
	if v := os.Getenv("LOG_DIR"); v != "" {
		cfg.LogDir = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.SQLitePath = v
	}
	envMS("PROBE_INTERVAL_MS", &cfg.ProbeInterval)
	envMS("PROBE_TIMEOUT_MS", &cfg.ProbeTimeout)
	envMS("RETRY_BACKOFF_MS", &cfg.RetryBackoff)
	envInt("MAX_CONCURRENT_PROBES", &cfg.Concurrency)
	envInt("RETRY_ATTEMPTS", &cfg.RetryAttempts)
	envInt("SUCCESS_BELOW", &cfg.SuccessBelow)
	envInt("RATE_PER_MIN", &cfg.RatePerMin)
	envInt("RATE_BURST", &cfg.RateBurst)
}

func setStr(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

func setDur(dst *time.Duration, v, key string) error {
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("parse %s: %w", key, err)
	}
	*dst = d
	return nil
}

func envMS(name string, dst *time.Duration) {
	if v := os.Getenv(name); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms >= 0 {
			*dst = time.Duration(ms) * time.Millisecond
		}
	}
}

func envInt(name string, dst *int) {
	if v := os.Getenv(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			*dst = n
		}
	}
}
