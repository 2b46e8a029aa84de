package config

import (
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigPath is used when --config is not provided.
	DefaultConfigPath = "config.yml"

	defaultPort       = 3000
	defaultEnv        = "development"
	defaultDBHost     = "127.0.0.1"
	defaultDBPort     = 3306
	defaultDBUser     = "root"
	defaultDBPassword = "password"
	defaultDBName     = "surelink"
	defaultDBCharset  = "utf8mb4"
	defaultRedisURL   = "redis://localhost:6379/0"
)

// Load reads the YAML config file, applies defaults and environment
// overrides, and validates the result. A missing file is not an error: the
// app can run entirely from env vars and defaults.
func Load(configPath string) (*AppConfig, error) {
	path := strings.TrimSpace(configPath)
	if path == "" {
		path = DefaultConfigPath
	}

	cfg := defaultAppConfig()

	content, err := os.ReadFile(path)
	switch {
	case err == nil:
		decoder := yaml.NewDecoder(bytes.NewReader(content))
		decoder.KnownFields(true)
		raw := rawAppConfig{}
		if err := decoder.Decode(&raw); err != nil {
			return nil, fmt.Errorf("parse config file %q: %w", path, err)
		}
		applyRaw(&cfg, raw)
	case os.IsNotExist(err):
		// defaults + env only
	default:
		return nil, fmt.Errorf("read config file %q: %w", path, err)
	}

	applyEnv(&cfg)
	cfg.normalize()

	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid port %d, expected 1-65535", cfg.Port)
	}
	if cfg.Realtime.EncounterThresholdMeters <= 0 {
		return nil, fmt.Errorf("invalid encounter_threshold_meters %v, expected > 0", cfg.Realtime.EncounterThresholdMeters)
	}
	if cfg.Realtime.EncounterCooldown <= 0 || cfg.Realtime.PresenceTimeout <= 0 {
		return nil, fmt.Errorf("encounter_cooldown_ms and presence_timeout_ms must be > 0")
	}

	return &cfg, nil
}

func defaultAppConfig() AppConfig {
	return AppConfig{
		Port:     defaultPort,
		Env:      defaultEnv,
		RedisURL: defaultRedisURL,
		Database: DatabaseConfig{
			Host:     defaultDBHost,
			Port:     defaultDBPort,
			User:     defaultDBUser,
			Password: defaultDBPassword,
			Name:     defaultDBName,
			Charset:  defaultDBCharset,
		},
		Realtime: RealtimeConfig{
			EncounterThresholdMeters: 50,
			EncounterCooldown:        5 * time.Minute,
			PresenceTimeout:          5 * time.Minute,
			PresenceEvictInterval:    5 * time.Minute,
			LedgerSweepInterval:      time.Minute,
		},
		RateLimit: RateLimitConfig{
			Chat:     RatePolicyConfig{Max: 10, WindowMS: 60000},
			Location: RatePolicyConfig{Max: 60, WindowMS: 60000},
			General:  RatePolicyConfig{Max: 30, WindowMS: 60000},
		},
		ChatHistoryLimit:     50,
		MessageRetentionDays: 30,
	}
}

func applyRaw(cfg *AppConfig, raw rawAppConfig) {
	if raw.Port != 0 {
		cfg.Port = raw.Port
	}
	if raw.Env != "" {
		cfg.Env = raw.Env
	}
	if raw.DSN != "" {
		cfg.DSN = raw.DSN
	}
	if raw.RedisURL != "" {
		cfg.RedisURL = raw.RedisURL
	}
	if raw.AdminSecret != "" {
		cfg.AdminSecret = raw.AdminSecret
	}
	if len(raw.AllowedOrigins) > 0 {
		cfg.AllowedOrigins = raw.AllowedOrigins
	}

	if raw.Database.Host != "" {
		cfg.Database.Host = raw.Database.Host
	}
	if raw.Database.Port != 0 {
		cfg.Database.Port = raw.Database.Port
	}
	if raw.Database.User != "" {
		cfg.Database.User = raw.Database.User
	}
	if raw.Database.Password != "" {
		cfg.Database.Password = raw.Database.Password
	}
	if raw.Database.Name != "" {
		cfg.Database.Name = raw.Database.Name
	}
	if raw.Database.Charset != "" {
		cfg.Database.Charset = raw.Database.Charset
	}

	if raw.Realtime.EncounterThresholdMeters != nil {
		cfg.Realtime.EncounterThresholdMeters = *raw.Realtime.EncounterThresholdMeters
	}
	if raw.Realtime.EncounterCooldownMS != nil {
		cfg.Realtime.EncounterCooldown = time.Duration(*raw.Realtime.EncounterCooldownMS) * time.Millisecond
	}
	if raw.Realtime.PresenceTimeoutMS != nil {
		cfg.Realtime.PresenceTimeout = time.Duration(*raw.Realtime.PresenceTimeoutMS) * time.Millisecond
	}

	applyRawPolicy(&cfg.RateLimit.Chat, raw.RateLimit.Chat)
	applyRawPolicy(&cfg.RateLimit.Location, raw.RateLimit.Location)
	applyRawPolicy(&cfg.RateLimit.General, raw.RateLimit.General)

	if raw.ChatHistoryLimit != 0 {
		cfg.ChatHistoryLimit = raw.ChatHistoryLimit
	}
	if raw.MessageRetentionDays != 0 {
		cfg.MessageRetentionDays = raw.MessageRetentionDays
	}
}

func applyRawPolicy(dst *RatePolicyConfig, raw rawRatePolicy) {
	if raw.Max != nil {
		dst.Max = *raw.Max
	}
	if raw.WindowMS != nil {
		dst.WindowMS = *raw.WindowMS
	}
}

func applyEnv(cfg *AppConfig) {
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Port = port
		}
	}
	if v := os.Getenv("NODE_ENV"); v != "" {
		cfg.Env = v
	}
	if v := os.Getenv("ENV"); v != "" {
		cfg.Env = v
	}
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		cfg.DSN = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.RedisURL = v
	}
	if v := os.Getenv("ADMIN_SECRET"); v != "" {
		cfg.AdminSecret = v
	}
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		parts := strings.Split(v, ",")
		origins := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				origins = append(origins, p)
			}
		}
		cfg.AllowedOrigins = origins
	}
	if v := os.Getenv("ENCOUNTER_THRESHOLD_METERS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Realtime.EncounterThresholdMeters = f
		}
	}
	if v := os.Getenv("ENCOUNTER_COOLDOWN_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil {
			cfg.Realtime.EncounterCooldown = time.Duration(ms) * time.Millisecond
		}
	}
	if v := os.Getenv("PRESENCE_TIMEOUT_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil {
			cfg.Realtime.PresenceTimeout = time.Duration(ms) * time.Millisecond
		}
	}
}

// normalize fills the DSN from discrete database fields when it was not
// given directly.
func (c *AppConfig) normalize() {
	if c.DSN == "" {
		c.DSN = fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=True&loc=Local",
			c.Database.User, c.Database.Password, c.Database.Host, c.Database.Port,
			c.Database.Name, c.Database.Charset)
	}
	if c.Realtime.PresenceEvictInterval <= 0 {
		c.Realtime.PresenceEvictInterval = c.Realtime.PresenceTimeout
	}
}

// IsDev reports whether the app runs in development mode.
func (c *AppConfig) IsDev() bool {
	return strings.EqualFold(c.Env, "development") || strings.EqualFold(c.Env, "dev")
}
