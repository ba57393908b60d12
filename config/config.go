// Package config loads server settings from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/truefans/server/db"
)

const (
	IdentityFirebase = "firebase"
	IdentityMemory   = "memory"

	PaymentStripe = "stripe"
	PaymentMock   = "mock"
)

type Config struct {
	AppEnv string `env:"APP_ENV" envDefault:"development"`
	Port   string `env:"PORT" envDefault:"8080"`

	DBDriver    string `env:"DB_DRIVER" envDefault:"sqlite"`
	DatabaseURL string `env:"DATABASE_URL" envDefault:"file:truefans.db?_pragma=foreign_keys(1)"`

	CloudSQLConnectionName string `env:"CLOUDSQL_CONNECTION_NAME"`
	CloudSQLUser           string `env:"CLOUDSQL_USER"`
	CloudSQLPassword       string `env:"CLOUDSQL_PASSWORD"`
	CloudSQLDatabase       string `env:"CLOUDSQL_DATABASE_NAME"`

	IdentityProvider  string `env:"IDENTITY_PROVIDER" envDefault:"memory"`
	FirebaseAPIKey    string `env:"FIREBASE_API_KEY"`
	FirebaseProjectID string `env:"FIREBASE_PROJECT_ID"`

	PaymentProcessor    string        `env:"PAYMENT_PROCESSOR" envDefault:"mock"`
	StripeKey           string        `env:"STRIPE_KEY"`
	StripeCurrency      string        `env:"STRIPE_CURRENCY" envDefault:"usd"`
	StripePaymentMethod string        `env:"STRIPE_PAYMENT_METHOD"`
	MockPaymentDelay    time.Duration `env:"MOCK_PAYMENT_DELAY" envDefault:"1500ms"`

	MailgunDomain string `env:"MAILGUN_DOMAIN"`
	MailgunKey    string `env:"MAILGUN_KEY"`
	MailSender    string `env:"MAIL_SENDER" envDefault:"TrueFans <no-reply@truefans.example>"`

	DemoAdminEmail     string `env:"DEMO_ADMIN_EMAIL" envDefault:"admin@example.com"`
	DemoAdminPassword  string `env:"DEMO_ADMIN_PASSWORD" envDefault:"pass123"`
	LegacyAdminSignals bool   `env:"LEGACY_ADMIN_SIGNALS" envDefault:"true"`

	CORSOrigins  []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173"`
	EmbedBaseURL string   `env:"EMBED_BASE_URL" envDefault:"https://truefans-connect.vercel.app"`

	HTTPReadTimeout  time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"15s"`
	HTTPWriteTimeout time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"30s"`
	HTTPIdleTimeout  time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"60s"`
}

// Load reads an optional .env file into the environment, then parses and
// validates the configuration. Variables already set win over the file.
func Load(files ...string) (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load(files...)

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that every setting the selected backends need is set.
func (c *Config) Validate() error {
	switch c.DBDriver {
	case db.DriverPostgres, db.DriverSQLite:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for %s", c.DBDriver)
		}
	case db.DriverCloudSQLPostgres:
		if c.CloudSQLConnectionName == "" || c.CloudSQLUser == "" {
			return fmt.Errorf("CLOUDSQL_CONNECTION_NAME and CLOUDSQL_USER are required for %s", c.DBDriver)
		}
	default:
		return fmt.Errorf("unknown DB_DRIVER %q", c.DBDriver)
	}

	switch c.IdentityProvider {
	case IdentityMemory:
	case IdentityFirebase:
		if c.FirebaseAPIKey == "" {
			return fmt.Errorf("FIREBASE_API_KEY is required for the firebase identity provider")
		}
	default:
		return fmt.Errorf("unknown IDENTITY_PROVIDER %q", c.IdentityProvider)
	}

	switch c.PaymentProcessor {
	case PaymentMock:
	case PaymentStripe:
		if c.StripeKey == "" {
			return fmt.Errorf("STRIPE_KEY is required for the stripe payment processor")
		}
	default:
		return fmt.Errorf("unknown PAYMENT_PROCESSOR %q", c.PaymentProcessor)
	}

	if (c.MailgunDomain == "") != (c.MailgunKey == "") {
		return fmt.Errorf("MAILGUN_DOMAIN and MAILGUN_KEY must be set together")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// DBOptions selects the database from the configured driver.
func (c *Config) DBOptions() db.Options {
	return db.Options{
		Driver:                 c.DBDriver,
		URL:                    c.DatabaseURL,
		CloudSQLConnectionName: c.CloudSQLConnectionName,
		CloudSQLUser:           c.CloudSQLUser,
		CloudSQLPassword:       c.CloudSQLPassword,
		CloudSQLDatabase:       c.CloudSQLDatabase,
	}
}
