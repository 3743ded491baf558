// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	App           AppConfig           `mapstructure:"app"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Steam         SteamConfig         `mapstructure:"steam"`
	Market        MarketConfig        `mapstructure:"market"`
	Pricing       PricingConfig       `mapstructure:"pricing"`
	Engine        EngineConfig        `mapstructure:"engine"`
	Notifications NotificationsConfig `mapstructure:"notifications"`
	Telemetry     TelemetryConfig     `mapstructure:"telemetry"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	DSN            string        `mapstructure:"dsn"`
	MaxConns       int32         `mapstructure:"max_conns"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

// SteamConfig holds the trade network account and protocol settings.
type SteamConfig struct {
	APIBaseURL     string        `mapstructure:"api_base_url"`
	CommunityURL   string        `mapstructure:"community_url"`
	StreamURL      string        `mapstructure:"stream_url"`
	AccountName    string        `mapstructure:"account_name"`
	Password       string        `mapstructure:"password"`
	SharedSecret   string        `mapstructure:"shared_secret"`
	IdentitySecret string        `mapstructure:"identity_secret"`
	DeviceID       string        `mapstructure:"device_id"`
	AppID          int           `mapstructure:"app_id"`
	ContextID      int           `mapstructure:"context_id"`
	OfferMessage   string        `mapstructure:"offer_message"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`

	// Login throttle recovery ("too many recent logins").
	ThrottleBackoff  time.Duration `mapstructure:"throttle_backoff"`
	ThrottleAttempts int           `mapstructure:"throttle_attempts"`

	// Offer submission retry for transient protocol codes.
	SendAttempts int           `mapstructure:"send_attempts"`
	SendBackoff  time.Duration `mapstructure:"send_backoff"`

	// Confirmation sub-protocol bounds.
	ConfirmStreamWait   time.Duration `mapstructure:"confirm_stream_wait"`
	ConfirmPollAttempts int           `mapstructure:"confirm_poll_attempts"`
	ConfirmPollBackoff  time.Duration `mapstructure:"confirm_poll_backoff"`
}

// MarketConfig holds the secondary marketplace settings.
type MarketConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	APIKey         string        `mapstructure:"api_key"`
	FeePercent     float64       `mapstructure:"fee_percent"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// FeeRate returns the marketplace fee as a decimal fraction (5 -> 0.05).
func (c *MarketConfig) FeeRate() decimal.Decimal {
	return decimal.NewFromFloat(c.FeePercent).Div(decimal.NewFromInt(100))
}

// PricingConfig holds the price feed and cache settings.
type PricingConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	RedisAddr      string        `mapstructure:"redis_addr"`
	RedisPassword  string        `mapstructure:"redis_password"`
	RedisDB        int           `mapstructure:"redis_db"`
	CacheTTL       time.Duration `mapstructure:"cache_ttl"`
}

// EngineConfig holds the fulfillment scheduler settings.
type EngineConfig struct {
	TickInterval    time.Duration `mapstructure:"tick_interval"`
	BatchSize       int           `mapstructure:"batch_size"`
	DispatchRate    float64       `mapstructure:"dispatch_rate"` // withdrawals per second within a tick
	TradeSentMaxAge time.Duration `mapstructure:"trade_sent_max_age"`
	TUIMode         bool          `mapstructure:"-"` // Set at runtime, not from config file
}

// NotificationsConfig holds the Kafka notification sink settings.
type NotificationsConfig struct {
	Brokers      []string      `mapstructure:"brokers"`
	Topic        string        `mapstructure:"topic"`
	BatchTimeout time.Duration `mapstructure:"batch_timeout"`
}

// TelemetryConfig holds observability configuration.
type TelemetryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	ServiceName    string `mapstructure:"service_name"`
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	PrometheusPort int    `mapstructure:"prometheus_port"`
}

// Load loads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables
	v.SetEnvPrefix("FFB")
	v.AutomaticEnv()

	bindEnvVars(v)
	setDefaults(v)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found is OK, use env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func bindEnvVars(v *viper.Viper) {
	// App
	v.BindEnv("app.name", "FFB_APP_NAME", "SERVICE_NAME")
	v.BindEnv("app.environment", "FFB_ENVIRONMENT", "ENVIRONMENT")
	v.BindEnv("app.log_level", "FFB_LOG_LEVEL", "LOG_LEVEL")

	// Database
	v.BindEnv("database.dsn", "FFB_DATABASE_DSN", "DATABASE_URL")

	// Steam account
	v.BindEnv("steam.account_name", "FFB_STEAM_ACCOUNT", "STEAM_ACCOUNT")
	v.BindEnv("steam.password", "FFB_STEAM_PASSWORD", "STEAM_PASSWORD")
	v.BindEnv("steam.shared_secret", "FFB_STEAM_SHARED_SECRET", "STEAM_SHARED_SECRET")
	v.BindEnv("steam.identity_secret", "FFB_STEAM_IDENTITY_SECRET", "STEAM_IDENTITY_SECRET")
	v.BindEnv("steam.device_id", "FFB_STEAM_DEVICE_ID", "STEAM_DEVICE_ID")

	// Market
	v.BindEnv("market.base_url", "FFB_MARKET_URL")
	v.BindEnv("market.api_key", "FFB_MARKET_API_KEY", "MARKET_API_KEY")

	// Pricing
	v.BindEnv("pricing.base_url", "FFB_PRICING_URL")
	v.BindEnv("pricing.redis_addr", "FFB_REDIS_ADDR", "REDIS_ADDR")
	v.BindEnv("pricing.redis_password", "FFB_REDIS_PASSWORD", "REDIS_PASSWORD")

	// Notifications
	v.BindEnv("notifications.brokers", "FFB_KAFKA_BROKERS", "KAFKA_BROKERS")
	v.BindEnv("notifications.topic", "FFB_KAFKA_TOPIC")

	// Telemetry
	v.BindEnv("telemetry.enabled", "FFB_OTEL_ENABLED", "OTEL_ENABLED")
	v.BindEnv("telemetry.service_name", "FFB_OTEL_SERVICE_NAME", "OTEL_SERVICE_NAME")
	v.BindEnv("telemetry.otlp_endpoint", "FFB_OTEL_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "fulfillment-bot")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	// Database defaults
	v.SetDefault("database.max_conns", 8)
	v.SetDefault("database.connect_timeout", "10s")

	// Steam defaults
	v.SetDefault("steam.api_base_url", "https://api.steampowered.com")
	v.SetDefault("steam.community_url", "https://steamcommunity.com")
	v.SetDefault("steam.app_id", 730) // CS2 items
	v.SetDefault("steam.context_id", 2)
	v.SetDefault("steam.offer_message", "Your skinflow withdrawal. Enjoy!")
	v.SetDefault("steam.request_timeout", "15s")
	v.SetDefault("steam.throttle_backoff", "10m")
	v.SetDefault("steam.throttle_attempts", 3)
	v.SetDefault("steam.send_attempts", 3)
	v.SetDefault("steam.send_backoff", "5s")
	v.SetDefault("steam.confirm_stream_wait", "10s")
	v.SetDefault("steam.confirm_poll_attempts", 5)
	v.SetDefault("steam.confirm_poll_backoff", "2s")

	// Market defaults
	v.SetDefault("market.base_url", "https://market.csgo.com/api/v2")
	v.SetDefault("market.fee_percent", 5)
	v.SetDefault("market.request_timeout", "15s")

	// Pricing defaults
	v.SetDefault("pricing.request_timeout", "10s")
	v.SetDefault("pricing.redis_addr", "localhost:6379")
	v.SetDefault("pricing.cache_ttl", "5m")

	// Engine defaults
	v.SetDefault("engine.tick_interval", "30s")
	v.SetDefault("engine.batch_size", 10)
	v.SetDefault("engine.dispatch_rate", 0.5)
	v.SetDefault("engine.trade_sent_max_age", "2h")

	// Notifications defaults
	v.SetDefault("notifications.brokers", []string{"localhost:9092"})
	v.SetDefault("notifications.topic", "user-notifications")
	v.SetDefault("notifications.batch_timeout", "100ms")

	// Telemetry defaults
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "fulfillment-bot")
	v.SetDefault("telemetry.prometheus_port", 9090)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required")
	}
	if c.Steam.AccountName == "" {
		return fmt.Errorf("steam.account_name is required")
	}
	if c.Steam.SharedSecret == "" || c.Steam.IdentitySecret == "" {
		return fmt.Errorf("steam.shared_secret and steam.identity_secret are required")
	}
	if _, err := url.Parse(c.Market.BaseURL); err != nil {
		return fmt.Errorf("invalid market.base_url: %w", err)
	}
	if c.Market.FeePercent < 0 || c.Market.FeePercent > 100 {
		return fmt.Errorf("market.fee_percent must be within [0, 100]")
	}
	if c.Engine.BatchSize <= 0 {
		return fmt.Errorf("engine.batch_size must be positive")
	}
	if c.Engine.TickInterval <= 0 {
		return fmt.Errorf("engine.tick_interval must be positive")
	}
	return nil
}
