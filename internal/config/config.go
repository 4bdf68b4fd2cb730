package config

import (
	"fmt"
	"log"
	"time"
	_ "time/tzdata" // schedule.timezone must resolve in minimal images

	"sitemaster/pkg/config"
)

type ScheduleConfig struct {
	// Timezone anchors "today" for the fallback window and for month boundaries.
	Timezone string        `yaml:"timezone"`
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

// Location falls back to UTC when Timezone is empty.
func (c ScheduleConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid schedule.timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

type OutboxConfig struct {
	Interval   time.Duration `yaml:"interval"`
	BatchSize  int           `yaml:"batch_size"`
	MaxRetries int           `yaml:"max_retries"`
}

type RateLimitConfig struct {
	// ImportPerMinute is the per-user budget for CSV imports.
	ImportPerMinute float64 `yaml:"import_per_minute"`
	ImportBurst     int     `yaml:"import_burst"`
}

type WorkerConfig struct {
	MaxRetries int64         `yaml:"max_retries"`
	DedupTTL   time.Duration `yaml:"dedup_ttl"`
}

type Config struct {
	DB        config.DBConfig     `yaml:"db"`
	MQ        config.MQConfig     `yaml:"mq"`
	Redis     config.RedisConfig  `yaml:"redis"`
	JWT       config.JWTConfig    `yaml:"jwt"`
	Server    config.ServerConfig `yaml:"server"`
	Log       config.LogConfig    `yaml:"log"`
	OTel      config.OTelConfig   `yaml:"otel"`
	Schedule  ScheduleConfig      `yaml:"schedule"`
	Outbox    OutboxConfig        `yaml:"outbox"`
	RateLimit RateLimitConfig     `yaml:"rate_limit"`
	Worker    WorkerConfig        `yaml:"worker"`
}

// LoadFrom merges <dir>/base.yaml, <dir>/<env>.yaml and secrets, then applies env overrides.
func LoadFrom(env, dir string) (*Config, error) {
	cfgMap, err := config.LoadConfig(env, dir)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := config.Decode(cfgMap, &cfg); err != nil {
		return nil, err
	}

	// 环境变量覆盖（优先级最高）
	config.OverrideDBFromEnv(&cfg.DB)
	config.OverrideMQFromEnv(&cfg.MQ)
	config.OverrideRedisFromEnv(&cfg.Redis)
	config.OverrideJWTFromEnv(&cfg.JWT)
	config.OverrideServerFromEnv(&cfg.Server)
	config.OverrideLogFromEnv(&cfg.Log)

	if _, err := cfg.Schedule.Location(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Load 使用统一配置中心：CONFIG_ENV 选择环境，CONFIG_DIR 选择目录
func Load() *Config {
	env := config.GetConfigEnv()
	dir := config.GetEnv("CONFIG_DIR", "configs")

	cfg, err := LoadFrom(env, dir)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}
