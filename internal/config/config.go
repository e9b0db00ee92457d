package config

import (
	"os"
	"time"
)

type Config struct {
	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// JWT
	JWTSecret string
	JWTExpiry time.Duration

	// External IP resolution (ban-gate diagnostics)
	IPLookupURL     string
	IPLookupTimeout time.Duration

	// Content advisory (AI risk assessment, purely advisory)
	AdvisoryAPIKey  string
	AdvisoryAPIURL  string
	AdvisoryModel   string
	AdvisoryTimeout time.Duration

	// Attachment object storage
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string
	S3Region    string
	S3PublicURL string
	S3UseSSL    bool

	// Server
	Port        string
	CORSOrigins string
}

func Load() *Config {
	return &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "talkboard"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       0,

		JWTSecret: getEnv("JWT_SECRET", ""),
		JWTExpiry: parseDuration(getEnv("JWT_EXPIRY", "24h"), 24*time.Hour),

		IPLookupURL:     getEnv("IP_LOOKUP_URL", "https://api.ipify.org?format=json"),
		IPLookupTimeout: parseDuration(getEnv("IP_LOOKUP_TIMEOUT", "5s"), 5*time.Second),

		AdvisoryAPIKey:  getEnv("ADVISORY_API_KEY", ""),
		AdvisoryAPIURL:  getEnv("ADVISORY_API_URL", "https://api.deepseek.com/v1/chat/completions"),
		AdvisoryModel:   getEnv("ADVISORY_MODEL", "deepseek-chat"),
		AdvisoryTimeout: parseDuration(getEnv("ADVISORY_TIMEOUT", "30s"), 30*time.Second),

		S3Endpoint:  getEnv("S3_ENDPOINT", ""),
		S3AccessKey: getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey: getEnv("S3_SECRET_KEY", ""),
		S3Bucket:    getEnv("S3_BUCKET", "talkboard-attachments"),
		S3Region:    getEnv("S3_REGION", ""),
		S3PublicURL: getEnv("S3_PUBLIC_URL", ""),
		S3UseSSL:    getEnv("S3_USE_SSL", "true") == "true",

		Port:        getEnv("PORT", "8080"),
		CORSOrigins: getEnv("CORS_ORIGINS", "*"),
	}
}

func (c *Config) DSN() string {
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=" + c.DBSSLMode +
		" TimeZone=UTC"
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}
