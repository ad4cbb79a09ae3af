package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort int
	JWTSecret  string
	Database   DatabaseConfig
	Judge0     Judge0Config
	Storage    StorageConfig
	MQ         MQConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	UseSSL   bool
}

// Judge0Config holds the connection settings for the sandboxed code
// execution backend.
type Judge0Config struct {
	BaseURL         string
	APIKey          string
	APIHost         string
	PollInterval    time.Duration
	MaxPollAttempts int
	HTTPTimeout     time.Duration
}

// StorageConfig selects and configures the object storage backend used
// to archive uploaded test case bundles.
type StorageConfig struct {
	// Provider is "minio", "gcs", or "" to disable archiving.
	Provider string
	Minio    MinioConfig
	GCS      GCSConfig
}

type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type GCSConfig struct {
	ProjectID       string
	Bucket          string
	CredentialsFile string
}

// MQConfig selects and configures the broker used to publish
// submission.graded events for the feed and leaderboard services.
type MQConfig struct {
	// Provider is "rabbitmq", "pubsub", or "" to disable publishing.
	Provider    string
	GradedTopic string
	RabbitMQ    RabbitMQConfig
	PubSub      PubSubConfig
}

type RabbitMQConfig struct {
	URL             string
	QueueDurable    bool
	QueueAutoDelete bool
	PrefetchCount   int
}

type PubSubConfig struct {
	ProjectID          string
	CredentialsFile    string
	SubscriptionSuffix string
}

func LoadConfig() Config {
	if os.Getenv("ENV") == "dev" {
		godotenv.Load()
	}

	return Config{
		ServerPort: getEnvInt("SERVER_PORT", 8080),
		JWTSecret:  getEnv("JWT_SECRET", ""),
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "brainjam"),
			Password: getEnv("DB_PASSWORD", "password"),
			DBName:   getEnv("DB_NAME", "brainjam_db"),
			UseSSL:   getEnvBool("DB_USE_SSL", false),
		},
		Judge0: Judge0Config{
			BaseURL:         getEnv("JUDGE0_BASE_URL", "https://judge0-ce.p.rapidapi.com"),
			APIKey:          getEnv("JUDGE0_API_KEY", ""),
			APIHost:         getEnv("JUDGE0_API_HOST", "judge0-ce.p.rapidapi.com"),
			PollInterval:    getEnvDuration("JUDGE0_POLL_INTERVAL", time.Second),
			MaxPollAttempts: getEnvInt("JUDGE0_MAX_POLL_ATTEMPTS", 10),
			HTTPTimeout:     getEnvDuration("JUDGE0_HTTP_TIMEOUT", 30*time.Second),
		},
		Storage: StorageConfig{
			Provider: getEnv("STORAGE_PROVIDER", ""),
			Minio: MinioConfig{
				Endpoint:  getEnv("MINIO_ENDPOINT", "localhost:9000"),
				AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
				SecretKey: getEnv("MINIO_SECRET_KEY", ""),
				Bucket:    getEnv("MINIO_BUCKET", "brainjam-testcases"),
				UseSSL:    getEnvBool("MINIO_USE_SSL", false),
			},
			GCS: GCSConfig{
				ProjectID:       getEnv("GCS_PROJECT_ID", ""),
				Bucket:          getEnv("GCS_BUCKET", "brainjam-testcases"),
				CredentialsFile: getEnv("GCS_CREDENTIALS_FILE", ""),
			},
		},
		MQ: MQConfig{
			Provider:    getEnv("MQ_PROVIDER", ""),
			GradedTopic: getEnv("MQ_GRADED_TOPIC", "submission.graded"),
			RabbitMQ: RabbitMQConfig{
				URL:             getEnv("RABBITMQ_URL", ""),
				QueueDurable:    getEnvBool("RABBITMQ_QUEUE_DURABLE", true),
				QueueAutoDelete: getEnvBool("RABBITMQ_QUEUE_AUTODELETE", false),
				PrefetchCount:   getEnvInt("RABBITMQ_PREFETCH_COUNT", 1),
			},
			PubSub: PubSubConfig{
				ProjectID:          getEnv("PUBSUB_PROJECT_ID", ""),
				CredentialsFile:    getEnv("PUBSUB_CREDENTIALS_FILE", ""),
				SubscriptionSuffix: getEnv("PUBSUB_SUBSCRIPTION_SUFFIX", "-sub"),
			},
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if valueStr, exists := os.LookupEnv(key); exists {
		var value int
		fmt.Sscanf(valueStr, "%d", &value)
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if valueStr, exists := os.LookupEnv(key); exists {
		return valueStr == "true" || valueStr == "1"
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if valueStr, exists := os.LookupEnv(key); exists {
		if value, err := time.ParseDuration(valueStr); err == nil {
			return value
		}
	}
	return defaultValue
}
