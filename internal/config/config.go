package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Env      string         `mapstructure:"env"`
	LogLevel string         `mapstructure:"log_level"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Game     GameConfig     `mapstructure:"game"`
}

type DatabaseConfig struct {
	DSN string `mapstructure:"dsn"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type GameConfig struct {
	RakePercent    int `mapstructure:"rake_percent"`
	ThinkDelayMs   int `mapstructure:"think_delay_ms"`
	SettleDelaySec int `mapstructure:"settle_delay_sec"`
	PollIntervalMs int `mapstructure:"poll_interval_ms"`
	LockTTLSec     int `mapstructure:"lock_ttl_sec"`
}

func (c *Config) IsDevelopment() bool {
	return c.Env != "production"
}

// Load reads the YAML config file and overlays environment variables
// (POKER_DATABASE_DSN overrides database.dsn, and so on). A missing
// file is fine; env plus defaults must then carry everything.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetDefault("env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("game.rake_percent", 10)
	v.SetDefault("game.think_delay_ms", 1500)
	v.SetDefault("game.settle_delay_sec", 8)
	v.SetDefault("game.poll_interval_ms", 500)
	v.SetDefault("game.lock_ttl_sec", 10)

	v.SetEnvPrefix("POKER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && path != "" {
			// Keep going on a missing file, fail on a malformed one.
			if !strings.Contains(err.Error(), "no such file") {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if cfg.Database.DSN == "" {
		return nil, fmt.Errorf("database.dsn is required")
	}
	return &cfg, nil
}
