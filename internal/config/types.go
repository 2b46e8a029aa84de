package config

import "time"

// AppConfig holds runtime startup configuration loaded from YAML plus env
// overrides.
type AppConfig struct {
	Port           int             `yaml:"port"`
	Env            string          `yaml:"env"` // "development" | "production"
	DSN            string          `yaml:"dsn"` // MySQL DSN
	RedisURL       string          `yaml:"redis_url"`
	AdminSecret    string          `yaml:"admin_secret"`
	AllowedOrigins []string        `yaml:"allowed_origins"`
	Database       DatabaseConfig  `yaml:"database"`
	Realtime       RealtimeConfig  `yaml:"realtime"`
	RateLimit      RateLimitConfig `yaml:"rate_limit"`

	ChatHistoryLimit     int `yaml:"chat_history_limit"`
	MessageRetentionDays int `yaml:"message_retention_days"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	Charset  string `yaml:"charset"`
}

// RealtimeConfig tunes the encounter pipeline.
type RealtimeConfig struct {
	EncounterThresholdMeters float64
	EncounterCooldown        time.Duration
	PresenceTimeout          time.Duration
	PresenceEvictInterval    time.Duration
	LedgerSweepInterval      time.Duration
}

// RatePolicyConfig is one event type's quota.
type RatePolicyConfig struct {
	Max      int `yaml:"max"`
	WindowMS int `yaml:"window_ms"`
}

// Window returns the policy window as a duration.
func (p RatePolicyConfig) Window() time.Duration {
	return time.Duration(p.WindowMS) * time.Millisecond
}

type RateLimitConfig struct {
	Chat     RatePolicyConfig `yaml:"chat"`
	Location RatePolicyConfig `yaml:"location"`
	General  RatePolicyConfig `yaml:"general"`
}

type rawAppConfig struct {
	Port                 int               `yaml:"port"`
	Env                  string            `yaml:"env"`
	DSN                  string            `yaml:"dsn"`
	RedisURL             string            `yaml:"redis_url"`
	AdminSecret          string            `yaml:"admin_secret"`
	AllowedOrigins       []string          `yaml:"allowed_origins"`
	Database             rawDatabaseConfig `yaml:"database"`
	Realtime             rawRealtimeConfig `yaml:"realtime"`
	RateLimit            rawRateLimit      `yaml:"rate_limit"`
	ChatHistoryLimit     int               `yaml:"chat_history_limit"`
	MessageRetentionDays int               `yaml:"message_retention_days"`
}

type rawDatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	Charset  string `yaml:"charset"`
}

type rawRealtimeConfig struct {
	EncounterThresholdMeters *float64 `yaml:"encounter_threshold_meters"`
	EncounterCooldownMS      *int     `yaml:"encounter_cooldown_ms"`
	PresenceTimeoutMS        *int     `yaml:"presence_timeout_ms"`
}

type rawRatePolicy struct {
	Max      *int `yaml:"max"`
	WindowMS *int `yaml:"window_ms"`
}

type rawRateLimit struct {
	Chat     rawRatePolicy `yaml:"chat"`
	Location rawRatePolicy `yaml:"location"`
	General  rawRatePolicy `yaml:"general"`
}
