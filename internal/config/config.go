// Package config loads plate-reader settings from the environment.
//
// A .env file in the working directory is read first when present; real
// environment variables always take precedence over it.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all runtime settings.
type Config struct {
	LogLevel string

	// HTTP surface
	HTTPAddr   string
	CaptureDir string

	// Storage. Empty DatabaseURL selects the in-memory store.
	DatabaseURL  string
	HistoryLimit int

	// Detection backends
	Detector        string // "yolo" or "tesseract"
	ModelPath       string
	CharModelPath   string
	ClassNames      []string
	ClassesFile     string
	ONNXLibraryPath string
	TesseractLang   string
	LabelsFile      string
	RegionThreshold float64
	CharThreshold   float64
	RegionPadding   int
	DedupDistance   float64
	Concurrency     int
	AggressiveCrops bool

	// MQTT notifications. Empty broker disables publishing.
	MQTTBroker   string
	MQTTTopic    string
	MQTTClientID string
}

// Load reads .env (if any) and the environment, then validates the result.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from environment variables only.
func FromEnv() (*Config, error) {
	cfg := &Config{
		LogLevel:        getEnvOrDefault("PLATE_LOG_LEVEL", "info"),
		HTTPAddr:        getEnvOrDefault("PLATE_HTTP_ADDR", ":8000"),
		CaptureDir:      getEnvOrDefault("PLATE_CAPTURE_DIR", "static/captures"),
		DatabaseURL:     getEnvOrDefault("PLATE_DATABASE_URL", ""),
		HistoryLimit:    getEnvAsIntOrDefault("PLATE_HISTORY_LIMIT", 5),
		Detector:        getEnvOrDefault("PLATE_DETECTOR", "yolo"),
		ModelPath:       getEnvOrDefault("PLATE_MODEL_PATH", "weights/best.onnx"),
		CharModelPath:   getEnvOrDefault("PLATE_CHAR_MODEL_PATH", ""),
		ClassNames:      splitList(getEnvOrDefault("PLATE_CLASS_NAMES", "")),
		ClassesFile:     getEnvOrDefault("PLATE_CLASSES_FILE", ""),
		ONNXLibraryPath: getEnvOrDefault("PLATE_ONNX_LIBRARY", ""),
		TesseractLang:   getEnvOrDefault("PLATE_TESSERACT_LANG", "ara"),
		LabelsFile:      getEnvOrDefault("PLATE_LABELS_FILE", ""),
		RegionThreshold: getEnvAsFloatOrDefault("PLATE_REGION_THRESHOLD", 0.5),
		CharThreshold:   getEnvAsFloatOrDefault("PLATE_CHAR_THRESHOLD", 0.3),
		RegionPadding:   getEnvAsIntOrDefault("PLATE_REGION_PADDING", 50),
		DedupDistance:   getEnvAsFloatOrDefault("PLATE_DEDUP_DISTANCE", 20),
		Concurrency:     getEnvAsIntOrDefault("PLATE_CONCURRENCY", 1),
		AggressiveCrops: getEnvAsBoolOrDefault("PLATE_AGGRESSIVE_CROPS", false),
		MQTTBroker:      getEnvOrDefault("PLATE_MQTT_BROKER", ""),
		MQTTTopic:       getEnvOrDefault("PLATE_MQTT_TOPIC", "plates/recognized"),
		MQTTClientID:    getEnvOrDefault("PLATE_MQTT_CLIENT_ID", "plate-reader"),
	}
	if cfg.CharModelPath == "" {
		cfg.CharModelPath = cfg.ModelPath
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks ranges and enumerations.
func (c *Config) Validate() error {
	switch c.Detector {
	case "yolo", "tesseract":
	default:
		return fmt.Errorf("PLATE_DETECTOR must be yolo or tesseract, got %q", c.Detector)
	}

	if c.RegionThreshold < 0 || c.RegionThreshold > 1 {
		return fmt.Errorf("PLATE_REGION_THRESHOLD must be within [0,1], got %v", c.RegionThreshold)
	}
	if c.CharThreshold < 0 || c.CharThreshold > 1 {
		return fmt.Errorf("PLATE_CHAR_THRESHOLD must be within [0,1], got %v", c.CharThreshold)
	}
	if c.RegionPadding < 0 {
		return fmt.Errorf("PLATE_REGION_PADDING must not be negative, got %d", c.RegionPadding)
	}
	if c.DedupDistance < 0 {
		return fmt.Errorf("PLATE_DEDUP_DISTANCE must not be negative, got %v", c.DedupDistance)
	}
	if c.Concurrency < 1 || c.Concurrency > 4 {
		return fmt.Errorf("PLATE_CONCURRENCY must be between 1 and 4, got %d", c.Concurrency)
	}
	if c.HistoryLimit < 1 || c.HistoryLimit > 1000 {
		return fmt.Errorf("PLATE_HISTORY_LIMIT must be between 1 and 1000, got %d", c.HistoryLimit)
	}
	if c.MQTTBroker != "" && c.MQTTTopic == "" {
		return fmt.Errorf("PLATE_MQTT_TOPIC is required when PLATE_MQTT_BROKER is set")
	}

	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsIntOrDefault(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloatOrDefault(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBoolOrDefault(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
