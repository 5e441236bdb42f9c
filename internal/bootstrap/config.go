package bootstrap

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	ServerAddr  string
	LogLevel    string
	MaxUploadMB int

	DatabaseDSN string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	NATSURL string

	SidecarURL     string
	SidecarTimeout time.Duration

	CameraURL string
	DataDir   string

	BufferSize      int
	BurstSize       int
	BurstDelay      time.Duration
	VideoSampleRate int
	VideoFPS        float64
	WebcamDuration  time.Duration
}

func LoadConfig() *Config {
	return &Config{
		ServerAddr:  getEnv("SERVER_ADDR", ":8080"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		MaxUploadMB: getEnvInt("MAX_UPLOAD_MB", 50),

		DatabaseDSN: getEnv("DATABASE_DSN", ""),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		NATSURL: getEnv("NATS_URL", ""),

		SidecarURL:     getEnv("SIDECAR_URL", "http://localhost:8000"),
		SidecarTimeout: getEnvDuration("SIDECAR_TIMEOUT", 30*time.Second),

		CameraURL: getEnv("CAMERA_URL", ""),
		DataDir:   getEnv("DATA_DIR", "./data"),

		BufferSize:      getEnvInt("BUFFER_SIZE", 5),
		BurstSize:       getEnvInt("BURST_SIZE", 5),
		BurstDelay:      getEnvDuration("BURST_DELAY", 500*time.Millisecond),
		VideoSampleRate: getEnvInt("VIDEO_SAMPLE_RATE", 30),
		VideoFPS:        getEnvFloat("VIDEO_FPS", 30),
		WebcamDuration:  getEnvDuration("WEBCAM_DURATION", 10*time.Second),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
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

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
