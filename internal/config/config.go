package config

import (
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Server   Server   `mapstructure:"server"`
	Database Database `mapstructure:"database"`
	Redis    Redis    `mapstructure:"redis"`
	JWT      JWT      `mapstructure:"jwt"`
	Market   Market   `mapstructure:"market"`
	Payment  Payment  `mapstructure:"payment"`
	Logger   Logger   `mapstructure:"logger"`
	Worker   Worker   `mapstructure:"worker"`
}

// Server holds the configuration for the web server.
type Server struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

// Database holds the configuration for PostgreSQL.
type Database struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// Redis holds the configuration for the quote cache.
type Redis struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// JWT holds the verification settings for externally issued session tokens.
// This service never signs tokens; it only validates them.
type JWT struct {
	Secret string `mapstructure:"secret"`
	Issuer string `mapstructure:"issuer"`
}

// Market holds the configuration for upstream quote providers and the feed.
type Market struct {
	FinnhubKey       string  `mapstructure:"finnhub_key"`
	FinnhubBaseURL   string  `mapstructure:"finnhub_base_url"`
	CoinGeckoBaseURL string  `mapstructure:"coingecko_base_url"`
	RateLimit        float64 `mapstructure:"rate_limit"`
	RateLimitBurst   int     `mapstructure:"rate_limit_burst"`
	CacheTTLSeconds  int     `mapstructure:"cache_ttl_seconds"`
	PollIntervalMs   int     `mapstructure:"poll_interval_ms"`
	JitterIntervalMs int     `mapstructure:"jitter_interval_ms"`
}

// Payment holds the per-gateway credentials.
type Payment struct {
	Card   CardGateway   `mapstructure:"card"`
	Wallet WalletGateway `mapstructure:"wallet"`
}

// CardGateway is the card-processor configuration.
type CardGateway struct {
	SecretKey string `mapstructure:"secret_key"`
	BaseURL   string `mapstructure:"base_url"`
}

// WalletGateway is the regional wallet-aggregator configuration.
type WalletGateway struct {
	APIKey         string `mapstructure:"api_key"`
	BaseURL        string `mapstructure:"base_url"`
	CallbackSecret string `mapstructure:"callback_secret"`
	SiteURL        string `mapstructure:"site_url"`
}

// Logger holds the configuration for the logger.
type Logger struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Dir    string `mapstructure:"dir"`
}

// Worker holds the background worker intervals.
type Worker struct {
	ExpiryIntervalMs int `mapstructure:"expiry_interval_ms"`
}

// Load reads configuration from the given directory (config.yaml) with
// environment variable overrides (SERVER_PORT, DB_HOST, ...).
func Load(path string) (*Config, error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.mode", "debug")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("redis.enabled", true)
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("market.finnhub_base_url", "https://finnhub.io/api/v1")
	viper.SetDefault("market.coingecko_base_url", "https://api.coingecko.com/api/v3")
	viper.SetDefault("market.rate_limit", 10)
	viper.SetDefault("market.rate_limit_burst", 5)
	viper.SetDefault("market.cache_ttl_seconds", 5)
	viper.SetDefault("market.poll_interval_ms", 5000)
	viper.SetDefault("market.jitter_interval_ms", 200)
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.format", "json")
	viper.SetDefault("logger.dir", "logs")
	viper.SetDefault("worker.expiry_interval_ms", 1000)

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DSN returns the PostgreSQL connection string
func (c *Database) DSN() string {
	return "host=" + c.Host +
		" port=" + strconv.Itoa(c.Port) +
		" user=" + c.User +
		" password=" + c.Password +
		" dbname=" + c.DBName +
		" sslmode=" + c.SSLMode
}
