package config

import "time"

// Config is parsed once at startup and handed out by pointer. Nothing
// writes to it afterwards.
type Config struct {
	Environment Environment
	Log         Log
	HTTP        HTTPServer
	BaseURL     string `env:"BASE_URL"`
	DatabaseURL string `env:"DATABASE_URL"`

	Gateway Gateway `envPrefix:"GATEWAY_"`
	Auth    Auth    `envPrefix:"AUTH_"`
	Redis   Redis   `envPrefix:"REDIS_"`
	Kafka   Kafka   `envPrefix:"KAFKA_"`
	Pricing Pricing `envPrefix:"PRICING_"`
}

type Gateway struct {
	BaseApiURL   string        `env:"BASE_API_URL"`
	MerchantCode string        `env:"MERCHANT_CODE"`
	SecretKey    string        `env:"SECRET_KEY"`
	CallbackURL  string        `env:"CALLBACK_URL"`
	ReturnURL    string        `env:"RETURN_URL"`
	Timeout      time.Duration `env:"TIMEOUT" envDefault:"15s"`
	ExpiryPeriod int           `env:"EXPIRY_MINUTES" envDefault:"60"`
	// fail | ignore
	UnknownResultPolicy string `env:"UNKNOWN_RESULT_POLICY" envDefault:"fail"`
}

type Auth struct {
	JWTSecret   string   `env:"JWT_SECRET"`
	PublicPaths []string `env:"PUBLIC_PATHS" envSeparator:"," envDefault:"/api/health,/api/payments/callback,/metrics"`
}

type Redis struct {
	Addr           string        `env:"ADDR"`
	Password       string        `env:"PASSWORD"`
	DB             int           `env:"DB" envDefault:"0"`
	IdempotencyTTL time.Duration `env:"IDEMPOTENCY_TTL" envDefault:"24h"`
}

type Kafka struct {
	Brokers      []string      `env:"BROKERS" envSeparator:","`
	PollInterval time.Duration `env:"POLL_INTERVAL" envDefault:"2s"`
	BatchSize    int           `env:"BATCH_SIZE" envDefault:"100"`
}

type Pricing struct {
	// fiat units per coin
	CoinRate int64 `env:"COIN_RATE" envDefault:"1000"`
}

type Environment struct {
	Name string `env:"ENVIRONMENT" envDefault:"development"`
}

type Log struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

type HTTPServer struct {
	Host string `env:"HTTP_HOST" envDefault:"0.0.0.0"`
	Port string `env:"HTTP_PORT" envDefault:"8080"`
}
