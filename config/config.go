package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type (
	APP struct {
		Name          string
		Host          string
		Port          string
		Env           string
		JWTSecret     string
		ClientURL     string
		Locales       []string
		DefaultLocale string
	}
	DB struct {
		User     string
		Password string
		Name     string
		Host     string
		Port     string
	}
	Storage struct {
		Endpoint      string
		AccessKey     string
		SecretKey     string
		UseSSL        bool
		BucketUploads string
	}
	MQ struct {
		User            string
		Password        string
		Vhost           string
		Host            string
		AmqpPort        string
		Exchange        string
		ExchangeType    string
		QueueName       string
		PrefetchCount   int
		MaxRetries      int
		ConsumerTimeout time.Duration
	}
	Redis struct {
		Host     string
		Port     string
		Password string
	}

	Config struct {
		App     APP
		DB      DB
		Storage Storage
		MQ      MQ
		Redis   Redis
	}
)

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func Load() Config {
	app := APP{
		Name:          getEnv("SERVICE_NAME", ""),
		Host:          getEnv("SERVICE_HOST", ""),
		Port:          getEnv("SERVICE_PORT", ""),
		Env:           getEnv("SERVICE_ENV", ""),
		JWTSecret:     getEnv("SERVICE_JWT_SECRET", ""),
		ClientURL:     getEnv("CLIENT_URL", ""),
		Locales:       splitLocales(getEnv("LOCALES", "en")),
		DefaultLocale: getEnv("DEFAULT_LOCALE", "en"),
	}
	db := DB{
		User:     getEnv("POSTGRES_USER", ""),
		Password: getEnv("POSTGRES_PASSWORD", ""),
		Name:     getEnv("POSTGRES_DB", ""),
		Host:     getEnv("POSTGRES_HOST", ""),
		Port:     getEnv("POSTGRES_PORT", ""),
	}
	storage := Storage{
		Endpoint:      getEnv("STORAGE_ENDPOINT", ""),
		AccessKey:     getEnv("STORAGE_ACCESS_KEY", ""),
		SecretKey:     getEnv("STORAGE_SECRET_KEY", ""),
		UseSSL:        getEnv("STORAGE_USE_SSL", "") == "true",
		BucketUploads: getEnv("STORAGE_BUCKET_UPLOADS", ""),
	}
	mq := MQ{
		User:            getEnv("RABBITMQ_USER", ""),
		Password:        getEnv("RABBITMQ_PASSWORD", ""),
		Vhost:           getEnv("RABBITMQ_VHOST", ""),
		Host:            getEnv("RABBITMQ_HOST", ""),
		AmqpPort:        getEnv("RABBITMQ_AMQP_PORT", ""),
		Exchange:        getEnv("RABBITMQ_EXCHANGE", ""),
		ExchangeType:    getEnv("RABBITMQ_EXCHANGE_TYPE", ""),
		QueueName:       getEnv("RABBITMQ_QUEUE_NAME", ""),
		PrefetchCount:   getEnvInt("RABBITMQ_PREFETCH_COUNT", 1),
		MaxRetries:      getEnvInt("RABBITMQ_MAX_RETRIES", 3),
		ConsumerTimeout: getEnvDuration("RABBITMQ_CONSUMER_TIMEOUT", 30*time.Second),
	}
	redis := Redis{
		Host:     getEnv("REDIS_HOST", ""),
		Port:     getEnv("REDIS_PORT", ""),
		Password: getEnv("REDIS_PASSWORD", ""),
	}

	return Config{
		App:     app,
		DB:      db,
		Storage: storage,
		MQ:      mq,
		Redis:   redis,
	}
}

func splitLocales(s string) []string {
	parts := strings.Split(s, ",")
	locales := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			locales = append(locales, p)
		}
	}
	return locales
}

func (c Config) DBDSN() (string, error) {
	if c.DB.User == "" || c.DB.Name == "" || c.DB.Host == "" || c.DB.Port == "" {
		return "", fmt.Errorf("incomplete DB config")
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s",
		c.DB.User,
		c.DB.Password,
		c.DB.Host,
		c.DB.Port,
		c.DB.Name,
	), nil
}

func (c Config) AMQPDSN() (string, error) {
	if c.MQ.User == "" || c.MQ.Host == "" || c.MQ.AmqpPort == "" {
		return "", fmt.Errorf("invalid MQ config: user, host and amqp port are required")
	}

	return fmt.Sprintf(
		"%s://%s@%s:%s/%s",
		"amqp",
		url.UserPassword(c.MQ.User, c.MQ.Password).String(),
		c.MQ.Host,
		c.MQ.AmqpPort,
		url.PathEscape(c.MQ.Vhost),
	), nil
}

func (c Config) RedisAddr() (string, error) {
	if c.Redis.Host == "" || c.Redis.Port == "" {
		return "", fmt.Errorf("invalid Redis config: host and port are required")
	}
	return c.Redis.Host + ":" + c.Redis.Port, nil
}
