package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all viewer settings.
type Config struct {
	// Server
	HTTPPort string
	GRPCPort string
	LogLevel string

	// Windowing and detection
	WindowDivisor        int
	FilterCutoffHz       float64
	HeadPeakThreshold    float64
	MachinePeakThreshold float64
	RiseStdDevs          float64
	BaselineMS           float64

	// Plot
	PlotAnnotate     bool
	CursorTracksData string
	CursorUseBlit    bool

	// Export
	ExportDir     string
	ExportParquet bool
	SinkTimeout   time.Duration

	// Redis, disabled when RedisAddr is empty
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisTTL      time.Duration

	// PostgreSQL, disabled when PostgresDSN is empty
	PostgresDSN string

	// S3, disabled when S3Bucket is empty
	S3Bucket    string
	S3Region    string
	S3Endpoint  string
	S3Prefix    string
	S3AccessKey string
	S3SecretKey string
}

// Load reads the configuration from the environment with defaults.
func Load() *Config {
	return &Config{
		HTTPPort: getEnvString("HTTP_PORT", "8080"),
		GRPCPort: getEnvString("GRPC_PORT", "50061"),
		LogLevel: getEnvString("LOG_LEVEL", "info"),

		WindowDivisor:        getEnvInt("WINDOW_DIVISOR", 8), // 1/8 s windows
		FilterCutoffHz:       getEnvFloat("FILTER_CUTOFF_HZ", 1650),
		HeadPeakThreshold:    getEnvFloat("HEAD_PEAK_THRESHOLD", 5.0),
		MachinePeakThreshold: getEnvFloat("MACHINE_PEAK_THRESHOLD", 2.0),
		RiseStdDevs:          getEnvFloat("RISE_STDDEVS", 3),
		BaselineMS:           getEnvFloat("BASELINE_MS", 10),

		PlotAnnotate:     getEnvBool("PLOT_ANNOTATE", true),
		CursorTracksData: getEnvString("CURSOR_TRACKS_DATA", "x"),
		CursorUseBlit:    getEnvBool("CURSOR_USE_BLIT", true),

		ExportDir:     getEnvString("EXPORT_DIR", "./export"),
		ExportParquet: getEnvBool("EXPORT_PARQUET", false),
		SinkTimeout:   time.Duration(getEnvInt64("SINK_TIMEOUT_MS", 5000)) * time.Millisecond,

		RedisAddr:     getEnvString("REDIS_ADDR", ""),
		RedisPassword: getEnvString("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		RedisTTL:      time.Duration(getEnvInt64("REDIS_TTL_SECONDS", 86400)) * time.Second,

		PostgresDSN: getEnvString("POSTGRES_DSN", ""),

		S3Bucket:    getEnvString("S3_BUCKET", ""),
		S3Region:    getEnvString("S3_REGION", "us-east-1"),
		S3Endpoint:  getEnvString("S3_ENDPOINT", ""),
		S3Prefix:    getEnvString("S3_PREFIX", "exports"),
		S3AccessKey: getEnvString("S3_ACCESS_KEY", ""),
		S3SecretKey: getEnvString("S3_SECRET_KEY", ""),
	}
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return b
		}
	}
	return defaultValue
}
