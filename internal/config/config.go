package config

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ServerConfig HTTP server settings
type ServerConfig struct {
	Addr    string
	BaseURL string
	// AllowOrigins is the CORS allow-list for the storefront and admin UIs
	AllowOrigins []string
	// AllowRegistration opens POST /register. Keep it off in production.
	AllowRegistration bool
}

// DatabaseConfig MySQL connection
type DatabaseConfig struct {
	DSN string
}

// RedisConfig catalog cache. An empty Addr disables caching.
type RedisConfig struct {
	Addr     string
	PoolSize int
	TTL      time.Duration
}

// RabbitMQConfig payment event queue. An empty URL runs the in-process worker.
type RabbitMQConfig struct {
	URL   string
	Queue string
}

// JWTConfig admin token signing
type JWTConfig struct {
	Secret string
	TTL    time.Duration
}

// PaymentConfig payment provider credentials and endpoints
type PaymentConfig struct {
	BaseURL     string
	POSKey      string
	PayeeEmail  string
	RedirectURL string
	CallbackURL string
	Timeout     time.Duration
}

// ConversionConfig purchase conversion endpoint (ads/analytics)
type ConversionConfig struct {
	Endpoint    string
	AccessToken string
	Timeout     time.Duration
}

// CheckoutConfig shipping fee rules
type CheckoutConfig struct {
	ShippingFeeHuf       int64
	FreeShippingAboveHuf int64
}

// AIConfig admin assistant
type AIConfig struct {
	GeminiAPIKey string
	Model        string
}

// Config is the whole application configuration
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	RabbitMQ   RabbitMQConfig
	JWT        JWTConfig
	Payment    PaymentConfig
	Conversion ConversionConfig
	Checkout   CheckoutConfig
	AI         AIConfig
}

// Default returns a config that runs locally with only a database.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:         ":8080",
			BaseURL:      "http://localhost:8080",
			AllowOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
		},
		Redis: RedisConfig{
			PoolSize: 10,
			TTL:      30 * time.Second,
		},
		RabbitMQ: RabbitMQConfig{
			Queue: "payment_events",
		},
		JWT: JWTConfig{
			Secret: "change-me",
			TTL:    24 * time.Hour,
		},
		Payment: PaymentConfig{
			BaseURL: "https://api.test.barion.com",
			Timeout: 10 * time.Second,
		},
		Conversion: ConversionConfig{
			Timeout: 5 * time.Second,
		},
		Checkout: CheckoutConfig{
			ShippingFeeHuf:       2990,
			FreeShippingAboveHuf: 100000,
		},
		AI: AIConfig{
			Model: "gemini-2.0-flash-001",
		},
	}
}

// Load reads .env (if present) and the process environment on top of Default.
// Keys are the upper-cased dotted paths, e.g. DATABASE_DSN or PAYMENT_POS_KEY.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("config: no .env file found, using process environment")
	}

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, Default())
	// older deployments set these without the section prefix
	_ = v.BindEnv("ai.gemini_api_key", "AI_GEMINI_API_KEY", "GEMINI_API_KEY")
	_ = v.BindEnv("server.allow_registration", "SERVER_ALLOW_REGISTRATION", "ALLOW_REGISTRATION")
	_ = v.BindEnv("server.base_url", "SERVER_BASE_URL", "BASE_URL")

	cfg := Default()
	cfg.Server.Addr = v.GetString("server.addr")
	cfg.Server.BaseURL = v.GetString("server.base_url")
	cfg.Server.AllowOrigins = splitList(v.GetString("server.allow_origins"))
	cfg.Server.AllowRegistration = v.GetBool("server.allow_registration")

	cfg.Database.DSN = v.GetString("database.dsn")

	cfg.Redis.Addr = v.GetString("redis.addr")
	cfg.Redis.PoolSize = v.GetInt("redis.pool_size")
	cfg.Redis.TTL = v.GetDuration("redis.ttl")

	cfg.RabbitMQ.URL = v.GetString("rabbitmq.url")
	cfg.RabbitMQ.Queue = v.GetString("rabbitmq.queue")

	cfg.JWT.Secret = v.GetString("jwt.secret")
	cfg.JWT.TTL = v.GetDuration("jwt.ttl")

	cfg.Payment.BaseURL = v.GetString("payment.base_url")
	cfg.Payment.POSKey = v.GetString("payment.pos_key")
	cfg.Payment.PayeeEmail = v.GetString("payment.payee_email")
	cfg.Payment.RedirectURL = v.GetString("payment.redirect_url")
	cfg.Payment.CallbackURL = v.GetString("payment.callback_url")
	cfg.Payment.Timeout = v.GetDuration("payment.timeout")

	cfg.Conversion.Endpoint = v.GetString("conversion.endpoint")
	cfg.Conversion.AccessToken = v.GetString("conversion.access_token")
	cfg.Conversion.Timeout = v.GetDuration("conversion.timeout")

	cfg.Checkout.ShippingFeeHuf = v.GetInt64("checkout.shipping_fee_huf")
	cfg.Checkout.FreeShippingAboveHuf = v.GetInt64("checkout.free_shipping_above_huf")

	cfg.AI.GeminiAPIKey = v.GetString("ai.gemini_api_key")
	cfg.AI.Model = v.GetString("ai.model")

	return cfg, cfg.Validate()
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.base_url", d.Server.BaseURL)
	v.SetDefault("server.allow_origins", strings.Join(d.Server.AllowOrigins, ","))
	v.SetDefault("server.allow_registration", d.Server.AllowRegistration)
	v.SetDefault("database.dsn", d.Database.DSN)
	v.SetDefault("redis.addr", d.Redis.Addr)
	v.SetDefault("redis.pool_size", d.Redis.PoolSize)
	v.SetDefault("redis.ttl", d.Redis.TTL)
	v.SetDefault("rabbitmq.url", d.RabbitMQ.URL)
	v.SetDefault("rabbitmq.queue", d.RabbitMQ.Queue)
	v.SetDefault("jwt.secret", d.JWT.Secret)
	v.SetDefault("jwt.ttl", d.JWT.TTL)
	v.SetDefault("payment.base_url", d.Payment.BaseURL)
	v.SetDefault("payment.pos_key", d.Payment.POSKey)
	v.SetDefault("payment.payee_email", d.Payment.PayeeEmail)
	v.SetDefault("payment.redirect_url", d.Payment.RedirectURL)
	v.SetDefault("payment.callback_url", d.Payment.CallbackURL)
	v.SetDefault("payment.timeout", d.Payment.Timeout)
	v.SetDefault("conversion.endpoint", d.Conversion.Endpoint)
	v.SetDefault("conversion.access_token", d.Conversion.AccessToken)
	v.SetDefault("conversion.timeout", d.Conversion.Timeout)
	v.SetDefault("checkout.shipping_fee_huf", d.Checkout.ShippingFeeHuf)
	v.SetDefault("checkout.free_shipping_above_huf", d.Checkout.FreeShippingAboveHuf)
	v.SetDefault("ai.gemini_api_key", d.AI.GeminiAPIKey)
	v.SetDefault("ai.model", d.AI.Model)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate rejects configs the server cannot start with.
func (c *Config) Validate() error {
	if c.Database.DSN == "" {
		return errors.New("config: DATABASE_DSN is required")
	}
	if c.JWT.Secret == "" {
		return errors.New("config: JWT_SECRET is required")
	}
	return nil
}
