package config

import (
	"os"
	"strconv"
	"strings"

	"availability-service/pkg/database"

	"go.uber.org/zap"
)

type Config struct {
	Port string
	DB   DB

	Redis Redis

	KafkaBrokers          []string
	KafkaFeedTopic        string
	KafkaFeedGroupID      string
	KafkaCascadeTopic     string
	KafkaPMSOutboundTopic string
}

type DB struct {
	database.Config
}

type Redis struct {
	Enabled    bool
	Addr       string
	Password   string
	DB         int
	TTLSeconds int
}

func Load(log *zap.Logger) *Config {
	return &Config{
		Port: getEnv("APP_PORT", log),
		DB: DB{
			Config: database.Config{
				Host:     getEnv("DB_HOST", log),
				Port:     getEnv("DB_PORT", log),
				User:     getEnv("DB_USER", log),
				Password: getEnv("DB_PASSWORD", log),
				Name:     getEnv("DB_NAME", log),
				SSLMode:  getEnv("DB_SSLMODE", log),
			},
		},
		Redis: Redis{
			Enabled:    os.Getenv("REDIS_ENABLED") == "true",
			Addr:       os.Getenv("REDIS_ADDR"),
			Password:   os.Getenv("REDIS_PASSWORD"),
			DB:         atoiDefault(os.Getenv("REDIS_DB"), 0),
			TTLSeconds: atoiDefault(os.Getenv("CACHE_TTL_SECONDS"), 300),
		},
		KafkaBrokers:          splitAndTrim(getEnv("KAFKA_BROKERS", log)),
		KafkaFeedTopic:        getEnv("KAFKA_TOPIC_PMS_FEED", log),
		KafkaFeedGroupID:      getEnv("KAFKA_GROUP_PMS_FEED", log),
		KafkaCascadeTopic:     getEnv("KAFKA_TOPIC_CASCADE", log),
		KafkaPMSOutboundTopic: getEnv("KAFKA_TOPIC_PMS_OUTBOUND", log),
	}
}

func getEnv(key string, log *zap.Logger) string {
	if val, exists := os.LookupEnv(key); exists {
		return val
	}
	log.Error("Обязательная переменная окружения не установлена", zap.String("key", key))
	panic("missing required environment variable: " + key)
}

func atoiDefault(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	parts := []string{}
	for _, p := range strings.Split(s, ",") {
		pt := strings.TrimSpace(p)
		if pt != "" {
			parts = append(parts, pt)
		}
	}
	return parts
}
