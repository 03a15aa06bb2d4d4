package config

import (
	"encoding/json"
	"log"
	"os"
)

type Config struct {
	Server        ServerConfig        `json:"server"`
	Database      DatabaseConfig      `json:"database"`
	Redis         RedisConfig         `json:"redis"`
	Kafka         KafkaConfig         `json:"kafka"`
	Auth          AuthConfig          `json:"auth"`
	Conversations ConversationsConfig `json:"conversations"`
}

type ServerConfig struct {
	Addr           string   `json:"addr"`
	AllowedOrigins []string `json:"allowed_origins"`
}

type DatabaseConfig struct {
	DSN string `json:"dsn"`
}

type RedisConfig struct {
	Addr     string `json:"addr"`
	Password string `json:"password"`
	DB       int    `json:"db"`
	PoolSize int    `json:"pool_size"`
}

type KafkaConfig struct {
	Brokers           []string `json:"brokers"`
	NotificationTopic string   `json:"notification_topic"`
	Username          string   `json:"username"`
	Password          string   `json:"password"`
	SASLMechanism     string   `json:"sasl_mechanism"` // PLAIN, SCRAM-SHA-256, SCRAM-SHA-512
	UseTLS            bool     `json:"use_tls"`
	CertFile          string   `json:"cert_file"`
	KeyFile           string   `json:"key_file"`
	CAFile            string   `json:"ca_file"`
}

type AuthConfig struct {
	JWTSecret     string `json:"jwt_secret"`
	TokenExpiry   int    `json:"token_expiry"`   // in hours
	RefreshExpiry int    `json:"refresh_expiry"` // in hours
}

type ConversationsConfig struct {
	// When true, a platform user reply moves an active conversation to
	// waiting_lawyer. Off by default: platform replies leave the status
	// untouched and only lawyer replies drive the waiting states.
	ClientReplySetsWaiting bool `json:"client_reply_sets_waiting"`
}

func LoadConfig() (config Config, err error) {
	path := os.Getenv("AVOCADOLEGAL_CONFIG")
	if path == "" {
		path = "config/config.json"
	}
	file, err := os.Open(path)
	if err != nil {
		return config, err
	}
	defer func(file *os.File) {
		closeErr := file.Close()
		if closeErr != nil {
			log.Printf("Error closing config file: %v", closeErr)
		}
	}(file)
	decoder := json.NewDecoder(file)
	err = decoder.Decode(&config)
	if err != nil {
		return config, err
	}
	if config.Server.Addr == "" {
		config.Server.Addr = ":8080"
	}
	if config.Kafka.NotificationTopic == "" {
		config.Kafka.NotificationTopic = "avocadolegal.notifications"
	}
	return config, nil
}
