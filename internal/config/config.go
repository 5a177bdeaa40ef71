package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type ServerConfig struct {
	Port string
}

type BackendConfig struct {
	BaseURL string
	UserID  string
}

type PriceFeedConfig struct {
	URL string
}

type DatabaseConfig struct {
	DSN string
}

type RefreshConfig struct {
	Interval time.Duration
}

type LoggingConfig struct {
	Level string
}

type AppConfig struct {
	Server    ServerConfig
	Backend   BackendConfig
	PriceFeed PriceFeedConfig
	Database  DatabaseConfig
	Refresh   RefreshConfig
	Logging   LoggingConfig
}

func Load() (*AppConfig, error) {
	_ = godotenv.Load()

	viper.AutomaticEnv()

	viper.SetDefault("SERVER_PORT", "3000")
	viper.SetDefault("BACKEND_URL", "https://api.hcfinvest.com/api")
	viper.SetDefault("PRICE_FEED_URL", "wss://api.hcfinvest.com/ws/prices")
	viper.SetDefault("DATABASE_DSN", "data/orderbook.db")
	viper.SetDefault("REFRESH_INTERVAL", "30s")
	viper.SetDefault("LOG_LEVEL", "info")

	interval, err := time.ParseDuration(viper.GetString("REFRESH_INTERVAL"))
	if err != nil {
		return nil, fmt.Errorf("invalid refresh interval: %w", err)
	}

	cfg := &AppConfig{
		Server: ServerConfig{
			Port: viper.GetString("SERVER_PORT"),
		},
		Backend: BackendConfig{
			BaseURL: viper.GetString("BACKEND_URL"),
			UserID:  viper.GetString("BACKEND_USER_ID"),
		},
		PriceFeed: PriceFeedConfig{
			URL: viper.GetString("PRICE_FEED_URL"),
		},
		Database: DatabaseConfig{
			DSN: viper.GetString("DATABASE_DSN"),
		},
		Refresh: RefreshConfig{
			Interval: interval,
		},
		Logging: LoggingConfig{
			Level: viper.GetString("LOG_LEVEL"),
		},
	}

	if cfg.Backend.UserID == "" {
		return nil, fmt.Errorf("BACKEND_USER_ID is required")
	}

	return cfg, nil
}
