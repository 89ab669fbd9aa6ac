package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration.
type Config struct {
	Env  string
	Port string

	AWSRegion string

	ObjectStoreType string
	S3Bucket        string
	LocalStoreDir   string
	MinioEndpoint   string
	MinioAccessKey  string
	MinioSecretKey  string
	MinioUseSSL     bool

	InferenceProvider string
	ModelID           string
	OpenAIAPIKey      string
	// OpenAITimeout bounds each OpenAI HTTP call; zero means no client-side limit.
	OpenAITimeout time.Duration

	RecordStoreType string
	DynamoTable     string
	DatabaseURL     string

	SQSQueueURL string
}

var (
	// ErrMissingTable is reported when the DynamoDB record store has no table name.
	ErrMissingTable = errors.New("DYNAMODB_TABLE_NAME is required")
	// ErrMissingModel is reported when a remote inference provider has no model id.
	ErrMissingModel = errors.New("BEDROCK_MODEL_ID is required")
	// ErrMissingBucket is reported when no object-store bucket is configured.
	ErrMissingBucket = errors.New("S3_BUCKET_NAME is required")
)

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	return Config{
		Env:               normalizeEnv(getEnv("ENV", "production")),
		Port:              getEnv("PORT", "8080"),
		AWSRegion:         getEnv("AWS_REGION", ""),
		ObjectStoreType:   normalizeStoreType(getEnv("OBJECT_STORE", "s3")),
		S3Bucket:          getEnv("S3_BUCKET_NAME", ""),
		LocalStoreDir:     getEnv("LOCAL_STORE_DIR", "./data"),
		MinioEndpoint:     getEnv("MINIO_ENDPOINT", "localhost:9000"),
		MinioAccessKey:    getEnv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey:    getEnv("MINIO_SECRET_KEY", ""),
		MinioUseSSL:       getEnvBool("MINIO_USE_SSL", false),
		InferenceProvider: normalizeProvider(getEnv("INFERENCE_PROVIDER", "bedrock")),
		ModelID:           getEnv("BEDROCK_MODEL_ID", ""),
		OpenAIAPIKey:      getEnv("OPENAI_API_KEY", ""),
		OpenAITimeout:     getEnvSeconds("OPENAI_TIMEOUT_SECONDS"),
		RecordStoreType:   normalizeRecordStore(getEnv("RECORD_STORE", "dynamodb")),
		DynamoTable:       getEnv("DYNAMODB_TABLE_NAME", ""),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		SQSQueueURL:       getEnv("SQS_QUEUE_URL", ""),
	}
}

// Validate reports the first missing required setting.
func (c Config) Validate() error {
	if c.RecordStoreType == "dynamodb" && strings.TrimSpace(c.DynamoTable) == "" {
		return ErrMissingTable
	}
	if c.RecordStoreType == "postgres" && strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required when RECORD_STORE=postgres")
	}
	if c.InferenceProvider != "local" && strings.TrimSpace(c.ModelID) == "" {
		return ErrMissingModel
	}
	if strings.TrimSpace(c.S3Bucket) == "" {
		return ErrMissingBucket
	}
	return nil
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return val
}

// getEnvSeconds parses a positive whole number of seconds, returning zero
// when the variable is unset or invalid.
func getEnvSeconds(key string) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return 0
	}
	val, err := strconv.Atoi(raw)
	if err != nil || val <= 0 {
		return 0
	}
	return time.Duration(val) * time.Second
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "staging":
		return "staging"
	case "local":
		return "local"
	case "development", "dev":
		return "dev"
	default:
		return "production"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "minio":
		return "minio"
	case "local":
		return "local"
	default:
		return "s3"
	}
}

func normalizeProvider(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "openai":
		return "openai"
	case "local":
		return "local"
	default:
		return "bedrock"
	}
}

func normalizeRecordStore(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "postgres", "pg":
		return "postgres"
	case "memory":
		return "memory"
	default:
		return "dynamodb"
	}
}
