package config

import (
	"os"
	"strings"
	"time"
)

// Config captures everything main needs to wire the service. FromEnv keeps
// main lean; empty optional values select in-memory fallbacks.
type Config struct {
	Addr          string
	JWTSigningKey string

	// PostgresDSN backs the application repository and the account read model.
	// Empty selects the in-memory stores (dev/test).
	PostgresDSN string

	// SessionBackend selects "memory" (default) or "redis".
	SessionBackend string
	RedisURL       string

	// KafkaBrokers is a comma-separated broker list for the audit stream.
	// Empty disables publishing; events are logged instead.
	KafkaBrokers []string
	AuditTopic   string

	// DocumentBucket receives uploaded KYC images.
	DocumentBucket string
	// StoragePublicBaseURL, when set, prefixes returned object URLs
	// (e.g. a Supabase or CDN public endpoint).
	StoragePublicBaseURL string
	AWSRegion            string

	// Vertex AI project/region for the extraction models.
	VertexProject string
	VertexRegion  string

	// FaceMatchThreshold is the Rekognition similarity cutoff in percent.
	FaceMatchThreshold float32

	RequestTimeout time.Duration
}

// SessionTTL bounds how long an abandoned conversation survives in Redis.
var SessionTTL = 24 * time.Hour

func FromEnv() Config {
	cfg := Config{
		Addr:                 getenv("BANKASSIST_ADDR", ":8080"),
		JWTSigningKey:        getenv("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		PostgresDSN:          os.Getenv("DATABASE_URL"),
		SessionBackend:       getenv("SESSION_BACKEND", "memory"),
		RedisURL:             os.Getenv("REDIS_URL"),
		AuditTopic:           getenv("AUDIT_TOPIC", "bankassist.audit"),
		DocumentBucket:       getenv("DOCUMENT_BUCKET", "kyc-documents"),
		StoragePublicBaseURL: os.Getenv("STORAGE_PUBLIC_BASE_URL"),
		AWSRegion:            getenv("AWS_REGION", "ap-south-1"),
		VertexProject:        os.Getenv("VERTEX_PROJECT"),
		VertexRegion:         getenv("VERTEX_REGION", "asia-south1"),
		FaceMatchThreshold:   90,
		RequestTimeout:       60 * time.Second,
	}

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}
	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
