package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Email    EmailConfig
	Gateway  GatewayConfig
	FCM      FCMConfig
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type DatabaseConfig struct {
	Host         string
	Port         string
	Username     string
	Password     string
	Database     string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
}

type RedisConfig struct {
	Addr string
}

type KafkaConfig struct {
	Brokers []string
	Topics  TopicConfig
	Enabled bool
}

type TopicConfig struct {
	OrderCreated       string
	OrderStatusChanged string
	PaymentCompleted   string
}

type EmailConfig struct {
	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	From         string
}

// GatewayConfig holds the payment gateway credentials. The secret signs and
// verifies payment signatures; the webhook secret is optional.
type GatewayConfig struct {
	BaseURL       string
	KeyID         string
	KeySecret     string
	WebhookSecret string
}

type FCMConfig struct {
	Endpoint  string
	ServerKey string
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", ":8080"),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			Username:     getEnv("DB_USERNAME", "juice_user"),
			Password:     getEnv("DB_PASSWORD", "juice_pass"),
			Database:     getEnv("DB_NAME", "juice_platform"),
			MaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvInt("DB_MAX_IDLE_CONNS", 25),
			MaxLifetime:  time.Duration(getEnvInt("DB_MAX_LIFETIME_MINUTES", 5)) * time.Minute,
		},
		Redis: RedisConfig{
			Addr: getEnv("REDIS_ADDR", "localhost:6379"),
		},
		Kafka: KafkaConfig{
			Brokers: []string{getEnv("KAFKA_BROKERS", "localhost:9092")},
			Enabled: getEnvBool("KAFKA_ENABLED", true),
			Topics: TopicConfig{
				OrderCreated:       getEnv("KAFKA_TOPIC_ORDER_CREATED", "order-created"),
				OrderStatusChanged: getEnv("KAFKA_TOPIC_ORDER_STATUS", "order-status-changed"),
				PaymentCompleted:   getEnv("KAFKA_TOPIC_PAYMENT_COMPLETED", "payment-completed"),
			},
		},
		Email: EmailConfig{
			SMTPHost:     getEnv("SMTP_HOST", "smtp.gmail.com"),
			SMTPPort:     getEnv("SMTP_PORT", "587"),
			SMTPUsername: getEnv("SMTP_USERNAME", ""),
			SMTPPassword: getEnv("SMTP_PASSWORD", ""),
			From:         getEnv("EMAIL_FROM", "orders@peelojuice.com"),
		},
		Gateway: GatewayConfig{
			BaseURL:       getEnv("GATEWAY_BASE_URL", "https://api.razorpay.com/v1"),
			KeyID:         getEnv("GATEWAY_KEY_ID", ""),
			KeySecret:     getEnv("GATEWAY_KEY_SECRET", ""),
			WebhookSecret: getEnv("GATEWAY_WEBHOOK_SECRET", ""),
		},
		FCM: FCMConfig{
			Endpoint:  getEnv("FCM_ENDPOINT", "https://fcm.googleapis.com/fcm/send"),
			ServerKey: getEnv("FCM_SERVER_KEY", ""),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
