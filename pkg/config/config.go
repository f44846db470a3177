package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/cloud-wave-best-zizon/cart-service/pkg/tls"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

const (
	CatalogSourceHTTP     = "http"
	CatalogSourceDynamoDB = "dynamodb"

	IDStrategyTimestamp = "timestamp"
	IDStrategyRemote    = "remote"
)

type Config struct {
	Port     string `envconfig:"PORT" default:"8080" validate:"required"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`

	CatalogSource    string        `envconfig:"CATALOG_SOURCE" default:"http" validate:"oneof=http dynamodb"`
	CatalogBaseURL   string        `envconfig:"CATALOG_BASE_URL" default:"https://fakestoreapi.com" validate:"omitempty,url"`
	CatalogTimeout   time.Duration `envconfig:"CATALOG_TIMEOUT" default:"10s" validate:"gt=0"`
	CatalogPageSize  int           `envconfig:"CATALOG_PAGE_SIZE" default:"4" validate:"gt=0"`
	CatalogTableName string        `envconfig:"CATALOG_TABLE_NAME" default:"products-table"`
	AWSRegion        string        `envconfig:"AWS_REGION" default:"ap-northeast-2"`

	// Totals are computed from these for the lifetime of the process.
	TaxRate      decimal.Decimal `envconfig:"TAX_RATE" default:"0.2"`
	ShippingFlat decimal.Decimal `envconfig:"SHIPPING_FLAT" default:"100"`
	Currency     string          `envconfig:"CURRENCY" default:"GBP" validate:"len=3"`
	Locale       string          `envconfig:"LOCALE" default:"en" validate:"required"`

	RandomPriceMin float64 `envconfig:"RANDOM_PRICE_MIN" default:"9.99" validate:"gte=0"`
	RandomPriceMax float64 `envconfig:"RANDOM_PRICE_MAX" default:"199.99" validate:"gtefield=RandomPriceMin"`
	IDStrategy     string  `envconfig:"ID_STRATEGY" default:"timestamp" validate:"oneof=timestamp remote"`

	KafkaBrokers    string        `envconfig:"KAFKA_BROKERS" default:""`
	CartEventsTopic string        `envconfig:"CART_EVENTS_TOPIC" default:"cart-events"`
	RedisAddr       string        `envconfig:"REDIS_ADDR" default:""`
	CatalogCacheTTL time.Duration `envconfig:"CATALOG_CACHE_TTL" default:"5m"`

	tls.TLSConfig
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.CatalogSource == CatalogSourceHTTP && c.CatalogBaseURL == "" {
		return fmt.Errorf("invalid config: CATALOG_BASE_URL is required for the http catalog")
	}
	if c.CatalogSource == CatalogSourceDynamoDB && c.IDStrategy != IDStrategyTimestamp {
		return fmt.Errorf("invalid config: the dynamodb catalog requires ID_STRATEGY=timestamp")
	}
	if c.TaxRate.IsNegative() {
		return fmt.Errorf("invalid config: TAX_RATE must not be negative")
	}
	if c.ShippingFlat.IsNegative() {
		return fmt.Errorf("invalid config: SHIPPING_FLAT must not be negative")
	}
	if _, err := currency.ParseISO(c.Currency); err != nil {
		return fmt.Errorf("invalid config: CURRENCY %q: %w", c.Currency, err)
	}
	return nil
}

func (c *Config) KafkaEnabled() bool {
	return c.KafkaBrokers != ""
}

func (c *Config) CacheEnabled() bool {
	return c.RedisAddr != "" && c.CatalogCacheTTL > 0
}
