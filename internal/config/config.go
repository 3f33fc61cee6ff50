// Package config loads runtime settings from an optional YAML file, a .env
// file and ROOMIE_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const envPrefix = "ROOMIE_"

type Config struct {
	Port      string `yaml:"port"`
	DBPath    string `yaml:"db_path"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	CalendarLookaheadDays int `yaml:"calendar_lookahead_days"`
	StatsWindowDays       int `yaml:"stats_window_days"`

	SessionTTL time.Duration `yaml:"session_ttl"`
	CacheTTL   time.Duration `yaml:"cache_ttl"`

	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`

	BackupDir        string `yaml:"backup_dir"`
	BackupPassphrase string `yaml:"-"`
	BackupS3Endpoint string `yaml:"backup_s3_endpoint"`
	BackupS3Bucket   string `yaml:"backup_s3_bucket"`
	BackupS3Region   string `yaml:"backup_s3_region"`
	BackupS3Access   string `yaml:"backup_s3_access_key"`
	BackupS3Secret   string `yaml:"-"`
}

func Default() Config {
	return Config{
		Port:                  "8080",
		DBPath:                "roomie.db",
		LogLevel:              "info",
		LogFormat:             "text",
		CalendarLookaheadDays: 60,
		StatsWindowDays:       30,
		SessionTTL:            30 * 24 * time.Hour,
		CacheTTL:              5 * time.Minute,
		BackupDir:             ".",
		BackupS3Region:        "us-east-1",
	}
}

// Load builds the configuration. path may be empty; a missing .env file is
// ignored.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	str := func(name string, dst *string) {
		if v := os.Getenv(envPrefix + name); v != "" {
			*dst = v
		}
	}
	num := func(name string, dst *int) error {
		v := os.Getenv(envPrefix + name)
		if v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", envPrefix, name, err)
		}
		*dst = n
		return nil
	}
	dur := func(name string, dst *time.Duration) error {
		v := os.Getenv(envPrefix + name)
		if v == "" {
			return nil
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", envPrefix, name, err)
		}
		*dst = d
		return nil
	}

	str("PORT", &cfg.Port)
	str("DB_PATH", &cfg.DBPath)
	str("LOG_LEVEL", &cfg.LogLevel)
	str("LOG_FORMAT", &cfg.LogFormat)
	str("REDIS_ADDR", &cfg.RedisAddr)
	str("REDIS_PASSWORD", &cfg.RedisPassword)
	str("BACKUP_DIR", &cfg.BackupDir)
	str("BACKUP_PASSPHRASE", &cfg.BackupPassphrase)
	str("BACKUP_S3_ENDPOINT", &cfg.BackupS3Endpoint)
	str("BACKUP_S3_BUCKET", &cfg.BackupS3Bucket)
	str("BACKUP_S3_REGION", &cfg.BackupS3Region)
	str("BACKUP_S3_ACCESS_KEY", &cfg.BackupS3Access)
	str("BACKUP_S3_SECRET_KEY", &cfg.BackupS3Secret)

	return errors.Join(
		num("CALENDAR_LOOKAHEAD_DAYS", &cfg.CalendarLookaheadDays),
		num("STATS_WINDOW_DAYS", &cfg.StatsWindowDays),
		num("REDIS_DB", &cfg.RedisDB),
		dur("SESSION_TTL", &cfg.SessionTTL),
		dur("CACHE_TTL", &cfg.CacheTTL),
	)
}

func (c Config) Validate() error {
	var errs []error
	if c.Port == "" {
		errs = append(errs, errors.New("port is required"))
	}
	if c.DBPath == "" {
		errs = append(errs, errors.New("db_path is required"))
	}
	if c.CalendarLookaheadDays <= 0 {
		errs = append(errs, fmt.Errorf("calendar_lookahead_days must be positive, got %d", c.CalendarLookaheadDays))
	}
	if c.StatsWindowDays <= 0 {
		errs = append(errs, fmt.Errorf("stats_window_days must be positive, got %d", c.StatsWindowDays))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, fmt.Errorf("session_ttl must be positive, got %s", c.SessionTTL))
	}
	if c.CacheTTL <= 0 {
		errs = append(errs, fmt.Errorf("cache_ttl must be positive, got %s", c.CacheTTL))
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log_format must be text or json, got %q", c.LogFormat))
	}
	return errors.Join(errs...)
}
