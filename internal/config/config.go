package config

import (
	"fmt"

	"github.com/spf13/viper"
)

type Config struct {
	Port              string `mapstructure:"PORT"`
	Env               string `mapstructure:"ENV"`
	DatabaseURL       string `mapstructure:"DATABASE_URL"`
	RedisAddr         string `mapstructure:"REDIS_ADDR"`
	JWTSecret         string `mapstructure:"JWT_SECRET"`
	RealtimeAppKey    string `mapstructure:"REALTIME_APP_KEY"`
	RealtimeAppSecret string `mapstructure:"REALTIME_APP_SECRET"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("REDIS_ADDR", "localhost:6379")

	// Bind env vars explicitly so Unmarshal picks them up.
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("REDIS_ADDR")
	v.BindEnv("JWT_SECRET")
	v.BindEnv("REALTIME_APP_KEY")
	v.BindEnv("REALTIME_APP_SECRET")

	// Try reading .env, but don't fail if missing.
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.RealtimeAppKey == "" || c.RealtimeAppSecret == "" {
		return fmt.Errorf("REALTIME_APP_KEY and REALTIME_APP_SECRET are required")
	}
	return nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}
