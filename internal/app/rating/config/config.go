package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Config содержит все настройки rating-service:
// HTTP-сервер, PostgreSQL, страница источника, cron и Kafka.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Source   SourceConfig
	Cron     CronConfig
	Kafka    KafkaConfig
}

// ServerConfig - настройки HTTP-сервера read API
type ServerConfig struct {
	Host string
	Port string `validate:"required"`
}

// DatabaseConfig - настройки подключения к PostgreSQL
type DatabaseConfig struct {
	Host     string `validate:"required"`
	Port     string `validate:"required"`
	User     string `validate:"required"`
	Password string
	DBName   string `validate:"required"`
	SSLMode  string
}

// SourceConfig - страница-источник рейтинга.
// URL фиксированный: отфильтрованный (4-5 звезд) список отзывов
// в конкретной локали; стратегии извлечения заточены под него.
type SourceConfig struct {
	URL        string `validate:"required,url"`
	UserAgent  string `validate:"required"`
	TimeoutSec int    `validate:"gt=0"`
}

// CronConfig - расписание фонового обновления и секрет триггер-эндпоинта
type CronConfig struct {
	Schedule string `validate:"required"`
	Secret   string // пусто = эндпоинт триггера не требует авторизации
}

// KafkaConfig - публикация событий RATING_UPDATED (опционально)
type KafkaConfig struct {
	Enabled bool
	Brokers []string
	Topic   string
}

// Load загружает конфигурацию из переменных окружения и валидирует ее
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnv("SERVER_PORT", "8080"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "rating_service"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Source: SourceConfig{
			URL:        getEnv("SOURCE_URL", "https://se.trustpilot.com/review/www.sporttema.se?languages=all&stars=4&stars=5"),
			UserAgent:  getEnv("SOURCE_USER_AGENT", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"),
			TimeoutSec: getEnvInt("SOURCE_TIMEOUT_SEC", 30),
		},
		Cron: CronConfig{
			// По умолчанию обновляем раз в сутки
			Schedule: getEnv("CRON_SCHEDULE", "0 6 * * *"),
			Secret:   getEnv("CRON_SECRET", ""),
		},
		Kafka: KafkaConfig{
			Enabled: getEnvBool("KAFKA_ENABLED", false),
			Brokers: strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),
			Topic:   getEnv("KAFKA_TOPIC", "rating_events"),
		},
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// DSN возвращает строку подключения к PostgreSQL в формате libpq
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// Address возвращает адрес HTTP-сервера в формате host:port
func (c *ServerConfig) Address() string {
	return c.Host + ":" + c.Port
}

// getEnv получает значение переменной окружения или значение по умолчанию
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt получает значение переменной окружения как int
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvBool получает значение переменной окружения как bool
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
