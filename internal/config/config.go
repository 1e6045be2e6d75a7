package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	DefaultSeed      uint32
	DatasetCacheSize int
	PresetsFile      string

	// Autoplay configuration.
	PlaybackInterval time.Duration
	PlaybackStepCm   int

	// Remote ROI estimation configuration.
	ROIURL       string
	ROIEnabled   bool
	ROITimeout   time.Duration
	ROICacheSize int
	ROIRateLimit float64

	// Kafka batch evaluation configuration.
	KafkaEnabled       bool
	KafkaBrokers       []string
	KafkaSourceTopic   string
	KafkaSinkTopic     string
	KafkaGroupID       string
	BatchSize          int
	BatchFlushInterval time.Duration
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	flushInterval, err := sharedcfg.ParseBatchFlushInterval()
	if err != nil {
		return nil, err
	}

	roiTimeout, err := parsePositiveDuration("ROI_TIMEOUT", "3s")
	if err != nil {
		return nil, err
	}

	playbackInterval, err := parsePositiveDuration("PLAYBACK_INTERVAL", "250ms")
	if err != nil {
		return nil, err
	}

	seed, err := strconv.ParseUint(sharedcfg.EnvOrDefault("DEFAULT_SEED", "1337"), 10, 32)
	if err != nil {
		return nil, errors.New("invalid DEFAULT_SEED")
	}

	playbackStep, err := parsePositiveInt("PLAYBACK_STEP_CM", 10)
	if err != nil {
		return nil, err
	}

	roiRate, err := strconv.ParseFloat(sharedcfg.EnvOrDefault("ROI_RATE_LIMIT", "5"), 64)
	if err != nil || roiRate <= 0 {
		return nil, errors.New("invalid ROI_RATE_LIMIT")
	}

	roiURL := os.Getenv("ROI_URL")
	roiEnabled := roiURL != ""
	if v := os.Getenv("ROI_ENABLED"); v != "" {
		roiEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		DefaultSeed:      uint32(seed),
		DatasetCacheSize: parseSizeOrDefault("DATASET_CACHE_SIZE", 16),
		PresetsFile:      os.Getenv("PRESETS_FILE"),

		PlaybackInterval: playbackInterval,
		PlaybackStepCm:   playbackStep,

		ROIURL:       roiURL,
		ROIEnabled:   roiEnabled,
		ROITimeout:   roiTimeout,
		ROICacheSize: parseSizeOrDefault("ROI_CACHE_SIZE", 256),
		ROIRateLimit: roiRate,

		KafkaEnabled:       os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers:       sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSourceTopic:   sharedcfg.EnvOrDefault("KAFKA_SOURCE_TOPIC", "flood-scenario-requests"),
		KafkaSinkTopic:     sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "flood-scenario-assessments"),
		KafkaGroupID:       sharedcfg.EnvOrDefault("KAFKA_GROUP_ID", "flood-lab"),
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,
	}

	if cfg.ROIEnabled && cfg.ROIURL == "" {
		return nil, errors.New("ROI_ENABLED is true but ROI_URL is not set")
	}
	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required")
		}
		if cfg.KafkaSourceTopic == "" {
			return nil, errors.New("KAFKA_SOURCE_TOPIC is required")
		}
		if cfg.KafkaSinkTopic == "" {
			return nil, errors.New("KAFKA_SINK_TOPIC is required")
		}
	}

	return cfg, nil
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parsePositiveInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return n, nil
}

func parseSizeOrDefault(key string, def int) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return def
}
