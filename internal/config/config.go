package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	ServiceName string `mapstructure:"OTEL_SERVICE_NAME"`
	Environment string `mapstructure:"ENVIRONMENT"`
	LogLevel    string `mapstructure:"LOG_LEVEL"`

	HTTPPort string `mapstructure:"HTTP_PORT"`
	GRPCPort string `mapstructure:"GRPC_PORT"`

	// Tracing
	JaegerEndpoint   string  `mapstructure:"JAEGER_ENDPOINT"`
	TraceSampleRatio float64 `mapstructure:"TRACE_SAMPLE_RATIO"`

	// Catalog store
	StoreDriver  string        `mapstructure:"STORE_DRIVER"` // postgres | memory
	StoreTimeout time.Duration `mapstructure:"STORE_TIMEOUT"`
	DBHost       string        `mapstructure:"DB_HOST"`
	DBPort       string        `mapstructure:"DB_PORT"`
	DBUser       string        `mapstructure:"DB_USER"`
	DBPassword   string        `mapstructure:"DB_PASSWORD"`
	DBName       string        `mapstructure:"DB_NAME"`
	DBSSLMode    string        `mapstructure:"DB_SSLMODE"`

	// Redis barcode cache, disabled when empty
	RedisAddr       string        `mapstructure:"REDIS_ADDR"`
	RedisPassword   string        `mapstructure:"REDIS_PASSWORD"`
	BarcodeCacheTTL time.Duration `mapstructure:"BARCODE_CACHE_TTL"`

	// Kafka, disabled when empty (comma separated)
	KafkaBrokers string `mapstructure:"KAFKA_BROKERS"`
	KafkaGroupID string `mapstructure:"KAFKA_GROUP_ID"`

	// Scanner
	ScanInterval  time.Duration `mapstructure:"SCAN_INTERVAL"`
	ScanCooldown  time.Duration `mapstructure:"SCAN_COOLDOWN"`
	CameraEnabled bool          `mapstructure:"CAMERA_ENABLED"`

	// Jobs
	ReconcileSchedule string `mapstructure:"RECONCILE_SCHEDULE"`
}

// Load reads configuration from environment variables (and optional .env file).
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AutomaticEnv()

	setDefaults(v)

	// Optional .env file for local development
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("OTEL_SERVICE_NAME", "stock-scanner")
	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("HTTP_PORT", "8084")
	v.SetDefault("GRPC_PORT", "9094")
	v.SetDefault("JAEGER_ENDPOINT", "")
	v.SetDefault("TRACE_SAMPLE_RATIO", 1.0)

	v.SetDefault("STORE_DRIVER", "postgres")
	v.SetDefault("STORE_TIMEOUT", 5*time.Second)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "inventorydb")
	v.SetDefault("DB_SSLMODE", "disable")

	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("BARCODE_CACHE_TTL", 5*time.Minute)

	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("KAFKA_GROUP_ID", "stock-scanner")

	v.SetDefault("SCAN_INTERVAL", 100*time.Millisecond)
	v.SetDefault("SCAN_COOLDOWN", 3*time.Second)
	v.SetDefault("CAMERA_ENABLED", true)

	v.SetDefault("RECONCILE_SCHEDULE", "@every 10m")
}

// IsDevelopment reports whether pretty console logging should be used
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// Brokers splits the configured Kafka broker list
func (c *Config) Brokers() []string {
	if strings.TrimSpace(c.KafkaBrokers) == "" {
		return nil
	}
	var brokers []string
	for _, b := range strings.Split(c.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}
