package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"ocrapi/internal/engine"
	"ocrapi/internal/logger"
	"ocrapi/internal/pixel"
)

type Config struct {
	// Server
	Port string

	// Engine Configuration
	EngineType        string // paddle, tesseract or vision
	PaddleEndpoint    string
	Language          string
	DetectOrientation bool
	UseGPU            bool
	EngineThreads     int
	Accelerate        bool

	// Request Processing
	MaxUploadBytes int64
	OCRConcurrency int64
	OCRTimeout     time.Duration

	// HTTP Server Timeouts
	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration

	// Traffic shaping
	MaxConcurrentRequests int64
	RateLimitEvery        time.Duration
	RateLimitBurst        int

	// Logging Configuration
	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string
}

func Load() (*Config, error) {
	config := &Config{
		Port: envStr("PORT", "8080"),

		EngineType:        envStr("OCR_ENGINE", "paddle"),
		PaddleEndpoint:    envStr("PADDLE_ENDPOINT", "http://localhost:8866/predict/ocr_system"),
		Language:          envStr("OCR_LANGUAGE", "en"),
		DetectOrientation: envBool("OCR_ANGLE_CLS", true),
		UseGPU:            envBool("OCR_USE_GPU", false),
		EngineThreads:     envInt("OCR_THREADS", 1),
		Accelerate:        envBool("OCR_MKLDNN", true),

		MaxUploadBytes: int64(envInt("MAX_UPLOAD_BYTES", pixel.MaxUploadBytes)),
		OCRConcurrency: int64(envInt("OCR_CONCURRENCY", 1)),
		OCRTimeout:     envDur("OCR_TIMEOUT", 60*time.Second),

		ReadHeaderTimeout: envDur("READ_HEADER_TIMEOUT", 10*time.Second),
		ReadTimeout:       envDur("READ_TIMEOUT", 30*time.Second),
		WriteTimeout:      envDur("WRITE_TIMEOUT", 120*time.Second),
		IdleTimeout:       envDur("IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout:   envDur("SHUTDOWN_TIMEOUT", 15*time.Second),

		MaxConcurrentRequests: int64(envInt("MAX_CONCURRENT_REQUESTS", 8)),
		RateLimitEvery:        envDur("RATE_LIMIT_EVERY", 600*time.Millisecond),
		RateLimitBurst:        envInt("RATE_LIMIT_BURST", 20),

		LogLevel:      envStr("LOG_LEVEL", "info"),
		LogFormat:     envStr("LOG_FORMAT", "console"),
		LogTimeFormat: envStr("LOG_TIME_FORMAT", "2006-01-02T15:04:05Z07:00"),
		LogOutput:     envStr("LOG_OUTPUT", "stdout"),
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func (c *Config) validate() error {
	switch c.EngineType {
	case "paddle", "tesseract", "vision":
	default:
		return fmt.Errorf("OCR_ENGINE must be paddle, tesseract or vision, got %q", c.EngineType)
	}
	if c.EngineType == "paddle" && strings.TrimSpace(c.PaddleEndpoint) == "" {
		return fmt.Errorf("PADDLE_ENDPOINT is required for the paddle engine")
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive")
	}
	return nil
}

// GetEngineConfig returns the engine construction configuration.
func (c *Config) GetEngineConfig() engine.Config {
	return engine.Config{
		Type:              c.EngineType,
		Language:          c.Language,
		DetectOrientation: c.DetectOrientation,
		UseGPU:            c.UseGPU,
		Threads:           c.EngineThreads,
		Accelerate:        c.Accelerate,
		Endpoint:          c.PaddleEndpoint,
		Timeout:           c.OCRTimeout,
	}
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

func envStr(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func envInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func envBool(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func envDur(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
