package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	Port                          string        `mapstructure:"PORT"`
	DatabaseDriver                string        `mapstructure:"DATABASE_DRIVER"`
	DatabasePath                  string        `mapstructure:"DATABASE_PATH"`
	DatabaseURL                   string        `mapstructure:"DATABASE_URL"`
	JWTSecret                     string        `mapstructure:"JWT_SECRET"`
	StaffTokenTTL                 time.Duration `mapstructure:"STAFF_TOKEN_TTL"`
	BootstrapAPIKey               string        `mapstructure:"BOOTSTRAP_API_KEY"`
	DiscordBotToken               string        `mapstructure:"DISCORD_BOT_TOKEN"`
	DiscordNotificationsChannelID string        `mapstructure:"DISCORD_NOTIFICATIONS_CHANNEL_ID"`
	AMQPURL                       string        `mapstructure:"AMQP_URL"`
	AMQPExchange                  string        `mapstructure:"AMQP_EXCHANGE"`
	RedisURL                      string        `mapstructure:"REDIS_URL"`
	StatsCacheTTL                 time.Duration `mapstructure:"STATS_CACHE_TTL"`
	LogLevel                      string        `mapstructure:"LOG_LEVEL"`
	LogPretty                     bool          `mapstructure:"LOG_PRETTY"`
	CouponIssueAttempts           int           `mapstructure:"COUPON_ISSUE_ATTEMPTS"`
}

// LoadConfig reads an optional .env file and then the process environment.
func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}

	cfg, err := load(viper.New())
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	return cfg
}

func load(v *viper.Viper) (*Config, error) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("DATABASE_DRIVER", DriverSQLite)
	v.SetDefault("DATABASE_PATH", "checkin.db")
	v.SetDefault("STAFF_TOKEN_TTL", 12*time.Hour)
	v.SetDefault("AMQP_EXCHANGE", "checkin.events")
	v.SetDefault("STATS_CACHE_TTL", 30*time.Second)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_PRETTY", false)
	v.SetDefault("COUPON_ISSUE_ATTEMPTS", 5)

	v.BindEnv("DATABASE_URL")
	v.BindEnv("JWT_SECRET")
	v.BindEnv("BOOTSTRAP_API_KEY")
	v.BindEnv("DISCORD_BOT_TOKEN")
	v.BindEnv("DISCORD_NOTIFICATIONS_CHANNEL_ID")
	v.BindEnv("AMQP_URL")
	v.BindEnv("REDIS_URL")

	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	switch config.DatabaseDriver {
	case DriverSQLite, DriverPostgres:
	default:
		return nil, fmt.Errorf("unsupported DATABASE_DRIVER %q", config.DatabaseDriver)
	}
	if config.DatabaseDriver == DriverPostgres && config.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required for the postgres driver")
	}
	if config.CouponIssueAttempts < 1 {
		config.CouponIssueAttempts = 1
	}

	return &config, nil
}
