package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server  ServerConfig
	Catalog CatalogConfig
	Redis   RedisConfig
	Booking BookingConfig
	Sink    SinkConfig
	Kafka   KafkaConfig
	Email   EmailConfig
}

type ServerConfig struct {
	Port         string
	SinkPort     string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type CatalogConfig struct {
	// Source is a local path or an http(s) URL serving {"events": [...]}.
	Source       string
	FetchTimeout time.Duration
}

type RedisConfig struct {
	Addr      string
	DB        int
	LedgerKey string
}

type BookingConfig struct {
	MaxTicketsPerBooking int
	Currency             string
	SubmitLockTTL        time.Duration
	ClearConfirmTTL      time.Duration
	// FormTTL bounds how long an opened but unfinished form is kept.
	FormTTL time.Duration
}

type SinkConfig struct {
	// URL of the remote booking sink. Empty disables remote sync.
	URL     string
	Timeout time.Duration
	// Mode is "no-cors" (response unreadable) or "readable".
	Mode     string
	DBDriver string
	DBDSN    string
}

type KafkaConfig struct {
	Enabled       bool
	Brokers       []string
	GroupID       string
	BookingsTopic string
}

type EmailConfig struct {
	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	From         string
	ContactEmail string
	ContactPhone string
	SMTPTimeout  time.Duration
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", ":8080"),
			SinkPort:     getEnv("SINK_PORT", ":8090"),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Catalog: CatalogConfig{
			Source:       getEnv("CATALOG_SOURCE", "events.json"),
			FetchTimeout: getEnvDuration("CATALOG_TIMEOUT", 10*time.Second),
		},
		Redis: RedisConfig{
			Addr:      getEnv("REDIS_ADDR", "localhost:6379"),
			DB:        getEnvInt("REDIS_DB", 0),
			LedgerKey: getEnv("LEDGER_KEY", "ayatBookings"),
		},
		Booking: BookingConfig{
			MaxTicketsPerBooking: getEnvInt("MAX_TICKETS_PER_BOOKING", 10),
			Currency:             getEnv("CURRENCY", "INR"),
			SubmitLockTTL:        time.Duration(getEnvInt("SUBMIT_LOCK_TTL_SECONDS", 60)) * time.Second,
			ClearConfirmTTL:      time.Duration(getEnvInt("CLEAR_CONFIRM_TTL_SECONDS", 120)) * time.Second,
			FormTTL:              getEnvDuration("FORM_TTL", 30*time.Minute),
		},
		Sink: SinkConfig{
			URL:      getEnv("SINK_URL", ""),
			Timeout:  getEnvDuration("SINK_TIMEOUT", 10*time.Second),
			Mode:     getEnv("SINK_MODE", "no-cors"),
			DBDriver: getEnv("SINK_DB_DRIVER", "sqlite"),
			DBDSN:    getEnv("SINK_DB_DSN", "file:bookings.db?cache=shared"),
		},
		Kafka: KafkaConfig{
			Enabled:       getEnvBool("KAFKA_ENABLED", false),
			Brokers:       splitList(getEnv("KAFKA_BROKERS", "localhost:9092")),
			GroupID:       getEnv("KAFKA_GROUP_ID", "ayat-notifier"),
			BookingsTopic: getEnv("KAFKA_TOPIC_BOOKINGS", "ayat.bookings.recorded"),
		},
		Email: EmailConfig{
			SMTPHost:     getEnv("SMTP_HOST", "smtp.gmail.com"),
			SMTPPort:     getEnv("SMTP_PORT", "587"),
			SMTPUsername: getEnv("SMTP_USERNAME", ""),
			SMTPPassword: getEnv("SMTP_PASSWORD", ""),
			From:         getEnv("EMAIL_FROM", "Ayat Team <info@ayatbaithak.com>"),
			ContactEmail: getEnv("CONTACT_EMAIL", "info@ayatbaithak.com"),
			ContactPhone: getEnv("CONTACT_PHONE", "+91 98765 43210"),
			SMTPTimeout:  getEnvDuration("SMTP_TIMEOUT", 30*time.Second),
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

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
