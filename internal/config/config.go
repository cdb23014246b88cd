package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/invoicegen/invoicegen/internal/types"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Configuration struct {
	Deployment DeploymentConfig `validate:"required"`
	Server     ServerConfig     `validate:"required"`
	Logging    LoggingConfig    `validate:"required"`
	Postgres   PostgresConfig   `validate:"required"`
	Auth       AuthConfig       `validate:"required"`
	Invoice    InvoiceConfig    `validate:"required"`
	PDF        PDFConfig        `mapstructure:"pdf" validate:"required"`
	Cache      CacheConfig
	S3         S3Config         `mapstructure:"s3"`
	Sentry     SentryConfig
	PubSub     PubSubConfig     `mapstructure:"pubsub"`
	Kafka      KafkaConfig
}

type DeploymentConfig struct {
	Mode types.RunMode `validate:"required,oneof=local api aws_lambda_api"`
}

type ServerConfig struct {
	Address string `validate:"required"`
	// RateLimit is the steady number of PDF requests per second the process accepts; 0 disables it
	RateLimit float64 `mapstructure:"rate_limit" validate:"gte=0"`
	RateBurst int     `mapstructure:"rate_burst" validate:"gte=0"`
}

type LoggingConfig struct {
	Level types.LogLevel `validate:"required"`
}

type PostgresConfig struct {
	Host                   string
	Port                   int
	User                   string
	Password               string
	DBName                 string `mapstructure:"dbname"`
	SSLMode                string `mapstructure:"sslmode"`
	MaxOpenConns           int    `mapstructure:"max_open_conns"`
	MaxIdleConns           int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `mapstructure:"conn_max_lifetime_minutes"`
	AutoMigrate            bool   `mapstructure:"auto_migrate"`
}

type AuthConfig struct {
	Provider types.AuthProvider `validate:"required"`
	Secret   string             `validate:"required"`
	// TokenTTL is how long an issued login token stays valid
	TokenTTL time.Duration `mapstructure:"token_ttl"`
}

type InvoiceConfig struct {
	TaxRatePercent float64 `mapstructure:"tax_rate_percent" validate:"gte=0,lte=100"`
	CurrencySymbol string  `mapstructure:"currency_symbol"`
	DateFormat     string  `mapstructure:"date_format" validate:"required"`
	NumberPrefix   string  `mapstructure:"number_prefix" validate:"required"`
	PrerenderPDF   bool    `mapstructure:"prerender_pdf"`
}

type PDFConfig struct {
	ChromePath    string        `mapstructure:"chrome_path"`
	Timeout       time.Duration `validate:"required"`
	MaxConcurrent int64         `mapstructure:"max_concurrent" validate:"gte=1"`
	NoSandbox     bool          `mapstructure:"no_sandbox"`
}

type CacheConfig struct {
	Enabled         bool
	TTL             time.Duration `mapstructure:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

type S3Config struct {
	Enabled               bool
	Region                string
	Bucket                string
	KeyPrefix             string        `mapstructure:"key_prefix"`
	PresignExpiryDuration time.Duration `mapstructure:"presign_expiry_duration"`
}

type SentryConfig struct {
	Enabled     bool
	DSN         string `mapstructure:"dsn"`
	Environment string
	SampleRate  float64 `mapstructure:"sample_rate"`
}

type PubSubConfig struct {
	Type            types.PubSubType `validate:"omitempty,oneof=memory kafka"`
	Topic           string
	MaxRetries      int           `mapstructure:"max_retries"`
	InitialInterval time.Duration `mapstructure:"initial_interval"`
	MaxInterval     time.Duration `mapstructure:"max_interval"`
}

type KafkaConfig struct {
	Brokers       []string
	ConsumerGroup string `mapstructure:"consumer_group"`
	ClientID      string `mapstructure:"client_id"`
	TLS           bool   `mapstructure:"tls"`
	UseSASL       bool   `mapstructure:"use_sasl"`
	SASLMechanism string `mapstructure:"sasl_mechanism"`
	SASLUser      string `mapstructure:"sasl_user"`
	SASLPassword  string `mapstructure:"sasl_password"`
}

func NewConfig() (*Configuration, error) {
	// a missing .env is fine, the environment may already be populated
	_ = godotenv.Load()

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./internal/config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/invoicegen")

	v.SetEnvPrefix("INVOICEGEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(
		".", "_",
		"-", "_",
	))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("Error reading config file: %v\n", err)
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, err
		}
	} else {
		fmt.Printf("Using config file: %s\n", v.ConfigFileUsed())
	}

	var config Configuration
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// setDefaults registers every key so env overrides work without a config file
func setDefaults(v *viper.Viper) {
	d := GetDefaultConfig()

	v.SetDefault("deployment.mode", d.Deployment.Mode)
	v.SetDefault("server.address", d.Server.Address)
	v.SetDefault("server.rate_limit", d.Server.RateLimit)
	v.SetDefault("server.rate_burst", d.Server.RateBurst)
	v.SetDefault("logging.level", d.Logging.Level)

	v.SetDefault("postgres.host", d.Postgres.Host)
	v.SetDefault("postgres.port", d.Postgres.Port)
	v.SetDefault("postgres.user", d.Postgres.User)
	v.SetDefault("postgres.password", d.Postgres.Password)
	v.SetDefault("postgres.dbname", d.Postgres.DBName)
	v.SetDefault("postgres.sslmode", d.Postgres.SSLMode)
	v.SetDefault("postgres.max_open_conns", d.Postgres.MaxOpenConns)
	v.SetDefault("postgres.max_idle_conns", d.Postgres.MaxIdleConns)
	v.SetDefault("postgres.conn_max_lifetime_minutes", d.Postgres.ConnMaxLifetimeMinutes)
	v.SetDefault("postgres.auto_migrate", d.Postgres.AutoMigrate)

	v.SetDefault("auth.provider", d.Auth.Provider)
	v.SetDefault("auth.secret", d.Auth.Secret)
	v.SetDefault("auth.token_ttl", d.Auth.TokenTTL)

	v.SetDefault("invoice.tax_rate_percent", d.Invoice.TaxRatePercent)
	v.SetDefault("invoice.currency_symbol", d.Invoice.CurrencySymbol)
	v.SetDefault("invoice.date_format", d.Invoice.DateFormat)
	v.SetDefault("invoice.number_prefix", d.Invoice.NumberPrefix)
	v.SetDefault("invoice.prerender_pdf", d.Invoice.PrerenderPDF)

	v.SetDefault("pdf.chrome_path", d.PDF.ChromePath)
	v.SetDefault("pdf.timeout", d.PDF.Timeout)
	v.SetDefault("pdf.max_concurrent", d.PDF.MaxConcurrent)
	v.SetDefault("pdf.no_sandbox", d.PDF.NoSandbox)

	v.SetDefault("cache.enabled", d.Cache.Enabled)
	v.SetDefault("cache.ttl", d.Cache.TTL)
	v.SetDefault("cache.cleanup_interval", d.Cache.CleanupInterval)

	v.SetDefault("s3.enabled", d.S3.Enabled)
	v.SetDefault("s3.region", d.S3.Region)
	v.SetDefault("s3.bucket", d.S3.Bucket)
	v.SetDefault("s3.key_prefix", d.S3.KeyPrefix)
	v.SetDefault("s3.presign_expiry_duration", d.S3.PresignExpiryDuration)

	v.SetDefault("sentry.enabled", d.Sentry.Enabled)
	v.SetDefault("sentry.dsn", d.Sentry.DSN)
	v.SetDefault("sentry.environment", d.Sentry.Environment)
	v.SetDefault("sentry.sample_rate", d.Sentry.SampleRate)

	v.SetDefault("pubsub.type", d.PubSub.Type)
	v.SetDefault("pubsub.topic", d.PubSub.Topic)
	v.SetDefault("pubsub.max_retries", d.PubSub.MaxRetries)
	v.SetDefault("pubsub.initial_interval", d.PubSub.InitialInterval)
	v.SetDefault("pubsub.max_interval", d.PubSub.MaxInterval)

	v.SetDefault("kafka.brokers", d.Kafka.Brokers)
	v.SetDefault("kafka.consumer_group", d.Kafka.ConsumerGroup)
	v.SetDefault("kafka.client_id", d.Kafka.ClientID)
	v.SetDefault("kafka.tls", d.Kafka.TLS)
	v.SetDefault("kafka.use_sasl", d.Kafka.UseSASL)
	v.SetDefault("kafka.sasl_mechanism", d.Kafka.SASLMechanism)
	v.SetDefault("kafka.sasl_user", d.Kafka.SASLUser)
	v.SetDefault("kafka.sasl_password", d.Kafka.SASLPassword)
}

func (c Configuration) Validate() error {
	validate := validator.New()
	return validate.Struct(c)
}

// GetDefaultConfig returns a default configuration for local development
// This is useful for running scripts or other non-web applications
func GetDefaultConfig() *Configuration {
	return &Configuration{
		Deployment: DeploymentConfig{Mode: types.ModeLocal},
		Server:     ServerConfig{Address: ":8080", RateLimit: 10, RateBurst: 20},
		Logging:    LoggingConfig{Level: types.LogLevelDebug},
		Postgres: PostgresConfig{
			Host:                   "localhost",
			Port:                   5432,
			User:                   "invoicegen",
			Password:               "invoicegen",
			DBName:                 "invoicegen",
			SSLMode:                "disable",
			MaxOpenConns:           10,
			MaxIdleConns:           5,
			ConnMaxLifetimeMinutes: 60,
			AutoMigrate:            true,
		},
		Auth: AuthConfig{
			Provider: types.AuthProviderInvoicegen,
			Secret:   "local-development-secret",
			TokenTTL: 30 * 24 * time.Hour,
		},
		Invoice: InvoiceConfig{
			TaxRatePercent: 18,
			CurrencySymbol: "₹",
			DateFormat:     "02/01/2006",
			NumberPrefix:   "INV-",
		},
		PDF: PDFConfig{
			Timeout:       30 * time.Second,
			MaxConcurrent: 4,
			NoSandbox:     true,
		},
		Cache: CacheConfig{
			Enabled:         true,
			TTL:             30 * time.Minute,
			CleanupInterval: 10 * time.Minute,
		},
		S3: S3Config{
			Region:                "ap-south-1",
			KeyPrefix:             "invoices",
			PresignExpiryDuration: 15 * time.Minute,
		},
		Sentry: SentryConfig{Environment: "local", SampleRate: 1.0},
		PubSub: PubSubConfig{
			Type:            types.PubSubMemory,
			Topic:           "invoice.created",
			MaxRetries:      3,
			InitialInterval: time.Second,
			MaxInterval:     10 * time.Second,
		},
		Kafka: KafkaConfig{
			Brokers:       []string{"localhost:9092"},
			ConsumerGroup: "invoicegen",
			ClientID:      "invoicegen",
		},
	}
}

func (c PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"user=%s password=%s dbname=%s host=%s port=%d sslmode=%s",
		c.User,
		c.Password,
		c.DBName,
		c.Host,
		c.Port,
		c.SSLMode,
	)
}
