package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	Env               string `mapstructure:"ENV"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	JWTSecret         string `mapstructure:"JWT_SECRET"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`

	// Storage. STORE_DRIVER is "mongo" or "memory".
	StoreDriver  string `mapstructure:"STORE_DRIVER"`
	DatabaseURL  string `mapstructure:"DATABASE_URL"`
	DatabaseName string `mapstructure:"DATABASE_NAME"`
	LedgerDSN    string `mapstructure:"LEDGER_DSN"`

	// Redis configuration.
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisCacheDB  int    `mapstructure:"REDIS_CACHE_DB"`
	RedisQueueDB  int    `mapstructure:"REDIS_QUEUE_DB"`

	AMQPURL       string `mapstructure:"AMQP_URL"`
	StripeKey     string `mapstructure:"STRIPE_KEY"`
	CloudinaryURL string `mapstructure:"CLOUDINARY_URL"`

	// Reservation timing.
	HoldTTL            time.Duration `mapstructure:"HOLD_TTL"`
	HoldMaxTTL         time.Duration `mapstructure:"HOLD_MAX_TTL"`
	ConfirmationWindow time.Duration `mapstructure:"CONFIRMATION_WINDOW"`
	SlotHorizonDays    int           `mapstructure:"SLOT_HORIZON_DAYS"`
	CalendarCacheTTL   time.Duration `mapstructure:"CALENDAR_CACHE_TTL"`
	SweepInterval      time.Duration `mapstructure:"SWEEP_INTERVAL"`

	// Ledger replay of settled bookings.
	LedgerReconcileInterval time.Duration `mapstructure:"LEDGER_RECONCILE_INTERVAL"`
	LedgerReconcileWindow   time.Duration `mapstructure:"LEDGER_RECONCILE_WINDOW"`

	// PlatformFeeRate is fixed; it is only exposed for reporting.
	PlatformFeeRate float64 `mapstructure:"PLATFORM_FEE_RATE"`
}

var AppConfig Config

// PlatformFeeRate is the commission taken on every booking.
const PlatformFeeRate = 0.15

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()

	// Set default values.
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("JWT_SECRET", "")
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 100)
	viper.SetDefault("STORE_DRIVER", "mongo")
	viper.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	viper.SetDefault("DATABASE_NAME", "reservo")
	viper.SetDefault("LEDGER_DSN", "")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_CACHE_DB", 0)
	viper.SetDefault("REDIS_QUEUE_DB", 1)
	viper.SetDefault("AMQP_URL", "")
	viper.SetDefault("STRIPE_KEY", "")
	viper.SetDefault("CLOUDINARY_URL", "")
	viper.SetDefault("HOLD_TTL", "10m")
	viper.SetDefault("HOLD_MAX_TTL", "30m")
	viper.SetDefault("CONFIRMATION_WINDOW", "48h")
	viper.SetDefault("SLOT_HORIZON_DAYS", 90)
	viper.SetDefault("CALENDAR_CACHE_TTL", "15s")
	viper.SetDefault("SWEEP_INTERVAL", "1m")
	viper.SetDefault("LEDGER_RECONCILE_INTERVAL", "10m")
	viper.SetDefault("LEDGER_RECONCILE_WINDOW", "168h")
	viper.SetDefault("PLATFORM_FEE_RATE", PlatformFeeRate)

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if AppConfig.PlatformFeeRate != PlatformFeeRate {
		log.Printf("PLATFORM_FEE_RATE is fixed at %.2f, ignoring %.2f", PlatformFeeRate, AppConfig.PlatformFeeRate)
		AppConfig.PlatformFeeRate = PlatformFeeRate
	}
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}

// UseMemoryStore reports whether the in-process store replaces mongo, postgres and redis.
func UseMemoryStore() bool {
	return AppConfig.StoreDriver == "memory"
}
