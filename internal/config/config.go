package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	HTTPPort string `envconfig:"APP_PORT" default:"8080"`
	DB       DBConfig
	JWT      JWTConfig
	Kafka    KafkaConfig
	Webhook  WebhookConfig
	Twilio   TwilioConfig
	Fraud    FraudConfig
}

type DBConfig struct {
	Host     string `envconfig:"POSTGRES_HOST"     required:"true"`
	Port     string `envconfig:"POSTGRES_PORT"     required:"true"`
	User     string `envconfig:"POSTGRES_USER"     required:"true"`
	Password string `envconfig:"POSTGRES_PASSWORD" required:"true"`
	DBName   string `envconfig:"POSTGRES_DB"       required:"true"`
	SSLMode  string `envconfig:"POSTGRES_SSLMODE"  default:"disable"`
}

type JWTConfig struct {
	Secret     string        `envconfig:"JWT_SECRET" required:"true"`
	Expiration time.Duration `envconfig:"JWT_EXPIRATION" default:"24h"`
}

type KafkaConfig struct {
	Brokers         []string `envconfig:"KAFKA_BROKERS" default:"localhost:9092"`
	Topic           string   `envconfig:"KAFKA_TOPIC" default:"transactions"`
	GroupID         string   `envconfig:"KAFKA_GROUP_ID" default:"transaction-group"`
	Workers         int      `envconfig:"KAFKA_WORKERS" default:"3"`
	DeadLetterTopic string   `envconfig:"KAFKA_DLQ_TOPIC" default:"transactions-dead-letter"`
	Enabled         bool     `envconfig:"KAFKA_ENABLED" default:"true"`
}

// WebhookConfig параметры проверки подписи платежного шлюза.
// Tolerance ограничивает возраст timestamp в подписи (защита от replay).
type WebhookConfig struct {
	StripeSecret string        `envconfig:"STRIPE_WEBHOOK_SECRET" required:"true"`
	Tolerance    time.Duration `envconfig:"WEBHOOK_TOLERANCE" default:"5m"`
}

type TwilioConfig struct {
	AccountSID string        `envconfig:"TWILIO_ACCOUNT_SID"`
	AuthToken  string        `envconfig:"TWILIO_AUTH_TOKEN"`
	FromNumber string        `envconfig:"TWILIO_PHONE_NUMBER"`
	AlertPhone string        `envconfig:"ALERT_RECEIVER_PHONE"`
	APIURL     string        `envconfig:"TWILIO_API_URL" default:"https://api.twilio.com"`
	Timeout    time.Duration `envconfig:"TWILIO_TIMEOUT" default:"10s"`
	Enabled    bool          `envconfig:"TWILIO_ENABLED" default:"true"`
}

type FraudConfig struct {
	Threshold     decimal.Decimal `envconfig:"FRAUD_THRESHOLD" default:"1000"`
	SweepInterval time.Duration   `envconfig:"FRAUD_SWEEP_INTERVAL" default:"1m"`
}

func NewConfig() (*Config, error) {
	envFile := "config.env"

	if err := godotenv.Load(envFile); err != nil {
		log.Printf("warning: не удалось загрузить файл %s, используются только системные переменные окружения: %v", envFile, err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("ошибка парсинга конфигурации: %w", err)
	}

	return &cfg, nil
}

func (d *DBConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

func (d *DBConfig) MigrationURL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}
