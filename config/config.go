package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	Server   ServerConfig
	Logger   LoggerConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Sales    SalesConfig
	Currency CurrencyConfig
}

type ServerConfig struct {
	AppEnv         string        `envconfig:"APP_ENV" default:"dev"`
	HTTPPort       string        `envconfig:"HTTP_PORT" default:":8080"`
	GRPCPort       string        `envconfig:"GRPC_PORT" default:":8082"`
	RateLimitRPS   float64       `envconfig:"RATE_LIMIT_RPS" default:"100"`
	RateLimitBurst int           `envconfig:"RATE_LIMIT_BURST" default:"50"`
	HealthInterval time.Duration `envconfig:"HEALTH_CHECK_INTERVAL" default:"15s"`
}

type LoggerConfig struct {
	Level             string `envconfig:"LOGGER_LEVEL" default:"debug"`
	Encoding          string `envconfig:"LOGGER_ENCODING" default:"console"`
	DisableCaller     bool   `envconfig:"LOGGER_DISABLE_CALLER" default:"false"`
	DisableStacktrace bool   `envconfig:"LOGGER_DISABLE_STACKTRACE" default:"true"`
}

type PostgresConfig struct {
	Host            string `envconfig:"POSTGRES_HOST" default:"localhost"`
	Port            string `envconfig:"POSTGRES_PORT" default:"5433"`
	User            string `envconfig:"POSTGRES_USER" default:"omnipos"`
	Password        string `envconfig:"POSTGRES_PASSWORD" default:"omnipos"`
	DBName          string `envconfig:"POSTGRES_DB" default:"omnipos_sales"`
	SSLMode         string `envconfig:"POSTGRES_SSLMODE" default:"disable"`
	MaxOpenConns    int    `envconfig:"POSTGRES_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int    `envconfig:"POSTGRES_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime int    `envconfig:"POSTGRES_CONN_MAX_LIFETIME" default:"300"`
	ConnMaxIdleTime int    `envconfig:"POSTGRES_CONN_MAX_IDLE_TIME" default:"60"`
}

// DSN renders the libpq connection URL understood by pgx.
func (p PostgresConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(p.User, p.Password),
		Host:     fmt.Sprintf("%s:%s", p.Host, p.Port),
		Path:     p.DBName,
		RawQuery: url.Values{"sslmode": []string{p.SSLMode}}.Encode(),
	}
	return u.String()
}

type RedisConfig struct {
	Addr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	Password string `envconfig:"REDIS_PASSWORD" default:""`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

type KafkaConfig struct {
	Enabled    bool     `envconfig:"KAFKA_ENABLED" default:"false"`
	Brokers    []string `envconfig:"KAFKA_BROKERS" default:"localhost:9092"`
	StockTopic string   `envconfig:"KAFKA_TOPIC_STOCK" default:"inventory.stock-changed"`
	RateTopic  string   `envconfig:"KAFKA_TOPIC_RATES" default:"currency.rates"`
	GroupID    string   `envconfig:"KAFKA_GROUP_SALES" default:"sales"`
}

type SalesConfig struct {
	BaseCurrency   string          `envconfig:"BASE_CURRENCY" default:"USD"`
	TaxRate        decimal.Decimal `envconfig:"TAX_RATE" default:"0.08"`
	InvoicePrefix  string          `envconfig:"INVOICE_PREFIX" default:"INV"`
	InvoiceRetries int             `envconfig:"INVOICE_RETRIES" default:"5"`
}

type CurrencyConfig struct {
	Cache    string        `envconfig:"CURRENCY_CACHE" default:"memory"` // memory or redis
	CacheTTL time.Duration `envconfig:"CURRENCY_CACHE_TTL" default:"10m"`
}

// LoadEnv reads an optional .env file and then the process environment.
func LoadEnv() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	sections := []any{
		&cfg.Server, &cfg.Logger, &cfg.Postgres, &cfg.Redis,
		&cfg.Kafka, &cfg.Sales, &cfg.Currency,
	}
	for _, s := range sections {
		if err := envconfig.Process("", s); err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
	}
	if cfg.Sales.TaxRate.IsNegative() {
		return nil, fmt.Errorf("load config: TAX_RATE must not be negative")
	}
	return cfg, nil
}
