package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Bedrock   BedrockConfig
	Valkey    ValkeyConfig
	MinIO     MinIOConfig
	Crawler   CrawlerConfig
	Extractor ExtractorConfig
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
	MaxConns int32
	MinConns int32
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode)
}

type BedrockConfig struct {
	Region  string
	ModelID string
}

type ValkeyConfig struct {
	Addr     string
	Password string
	DB       int
}

type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type CrawlerConfig struct {
	MaxPages       int
	MaxDepth       int
	RequestTimeout time.Duration
	UserAgent      string
}

// ExtractorConfig carries chunking parameters and code-block classifier
// thresholds. Thresholds are operation-wide: set them too strictly and every
// block in every document is rejected without any error being raised, so
// changes here should be paired with watching the zero-accepted warning logs.
type ExtractorConfig struct {
	MinBlockLength int
	MaxProseRatio  float64
	MinIndicators  int
	ChunkSize      int
	ChunkOverlap   int
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:         getEnv("SERVER_HOST", "0.0.0.0"),
			Port:         getEnvInt("SERVER_PORT", 8080),
			ReadTimeout:  time.Duration(getEnvInt("SERVER_READ_TIMEOUT_SECS", 30)) * time.Second,
			WriteTimeout: time.Duration(getEnvInt("SERVER_WRITE_TIMEOUT_SECS", 60)) * time.Second,
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "curator"),
			Password: getEnv("DB_PASSWORD", "curator"),
			Name:     getEnv("DB_NAME", "curator"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			MaxConns: int32(getEnvInt("DB_MAX_CONNS", 25)),
			MinConns: int32(getEnvInt("DB_MIN_CONNS", 5)),
		},
		Bedrock: BedrockConfig{
			Region:  getEnv("BEDROCK_REGION", "us-east-1"),
			ModelID: getEnv("BEDROCK_MODEL_ID", "cohere.embed-english-v4"),
		},
		Valkey: ValkeyConfig{
			Addr:     getEnv("VALKEY_ADDR", "localhost:6379"),
			Password: getEnv("VALKEY_PASSWORD", ""),
			DB:       getEnvInt("VALKEY_DB", 0),
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", "localhost:9000"),
			AccessKey: getEnv("MINIO_ACCESS_KEY", "curator"),
			SecretKey: getEnv("MINIO_SECRET_KEY", "curator123"),
			Bucket:    getEnv("MINIO_BUCKET", "curator"),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
		Crawler: CrawlerConfig{
			MaxPages:       getEnvInt("CRAWL_MAX_PAGES", 100),
			MaxDepth:       getEnvInt("CRAWL_MAX_DEPTH", 3),
			RequestTimeout: time.Duration(getEnvInt("CRAWL_REQUEST_TIMEOUT_SECS", 30)) * time.Second,
			UserAgent:      getEnv("CRAWL_USER_AGENT", "curator-bot/1.0"),
		},
		Extractor: ExtractorConfig{
			MinBlockLength: getEnvInt("CODE_BLOCK_MIN_LENGTH", 120),
			MaxProseRatio:  getEnvFloat("CODE_BLOCK_MAX_PROSE_RATIO", 0.35),
			MinIndicators:  getEnvInt("CODE_BLOCK_MIN_INDICATORS", 2),
			ChunkSize:      getEnvInt("CHUNK_SIZE", 1500),
			ChunkOverlap:   getEnvInt("CHUNK_OVERLAP", 100),
		},
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
