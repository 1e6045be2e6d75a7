package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	defaultBroker = "localhost:9092"
	testROIURL    = "http://localhost:9000"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, uint32(1337), cfg.DefaultSeed)
	assert.Equal(t, 16, cfg.DatasetCacheSize)
	assert.Empty(t, cfg.PresetsFile)
	assert.Equal(t, 250*time.Millisecond, cfg.PlaybackInterval)
	assert.Equal(t, 10, cfg.PlaybackStepCm)
	assert.False(t, cfg.ROIEnabled)
	assert.Empty(t, cfg.ROIURL)
	assert.Equal(t, 3*time.Second, cfg.ROITimeout)
	assert.Equal(t, 256, cfg.ROICacheSize)
	assert.Equal(t, 5.0, cfg.ROIRateLimit)
	assert.False(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{defaultBroker}, cfg.KafkaBrokers)
	assert.Equal(t, "flood-scenario-requests", cfg.KafkaSourceTopic)
	assert.Equal(t, "flood-scenario-assessments", cfg.KafkaSinkTopic)
	assert.Equal(t, "flood-lab", cfg.KafkaGroupID)
	assert.Equal(t, 50, cfg.BatchSize)
	assert.Equal(t, 500*time.Millisecond, cfg.BatchFlushInterval)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("DEFAULT_SEED", "42")
	t.Setenv("DATASET_CACHE_SIZE", "4")
	t.Setenv("PRESETS_FILE", "/etc/flood-lab/presets.yaml")
	t.Setenv("PLAYBACK_INTERVAL", "1s")
	t.Setenv("PLAYBACK_STEP_CM", "5")
	t.Setenv("ROI_URL", testROIURL)
	t.Setenv("ROI_TIMEOUT", "10s")
	t.Setenv("ROI_CACHE_SIZE", "500")
	t.Setenv("ROI_RATE_LIMIT", "0.5")
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_SOURCE_TOPIC", "custom-source")
	t.Setenv("KAFKA_SINK_TOPIC", "custom-sink")
	t.Setenv("KAFKA_GROUP_ID", "custom-group")
	t.Setenv("BATCH_SIZE", "100")
	t.Setenv("BATCH_FLUSH_INTERVAL", "1s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, uint32(42), cfg.DefaultSeed)
	assert.Equal(t, 4, cfg.DatasetCacheSize)
	assert.Equal(t, "/etc/flood-lab/presets.yaml", cfg.PresetsFile)
	assert.Equal(t, time.Second, cfg.PlaybackInterval)
	assert.Equal(t, 5, cfg.PlaybackStepCm)
	assert.True(t, cfg.ROIEnabled)
	assert.Equal(t, testROIURL, cfg.ROIURL)
	assert.Equal(t, 10*time.Second, cfg.ROITimeout)
	assert.Equal(t, 500, cfg.ROICacheSize)
	assert.Equal(t, 0.5, cfg.ROIRateLimit)
	assert.True(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "custom-source", cfg.KafkaSourceTopic)
	assert.Equal(t, "custom-sink", cfg.KafkaSinkTopic)
	assert.Equal(t, "custom-group", cfg.KafkaGroupID)
	assert.Equal(t, 100, cfg.BatchSize)
	assert.Equal(t, time.Second, cfg.BatchFlushInterval)
}

func TestLoad_InvalidShutdownTimeout(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestLoad_InvalidBatchSize(t *testing.T) {
	t.Setenv("BATCH_SIZE", "0")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BATCH_SIZE")
}

func TestLoad_InvalidROITimeout(t *testing.T) {
	t.Setenv("ROI_TIMEOUT", "bad")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ROI_TIMEOUT")
}

func TestLoad_InvalidPlaybackInterval(t *testing.T) {
	t.Setenv("PLAYBACK_INTERVAL", "-1s")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PLAYBACK_INTERVAL")
}

func TestLoad_InvalidPlaybackStep(t *testing.T) {
	t.Setenv("PLAYBACK_STEP_CM", "0")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PLAYBACK_STEP_CM")
}

func TestLoad_InvalidSeed(t *testing.T) {
	tests := []string{"abc", "-1", "4294967296"}
	for _, v := range tests {
		t.Run(v, func(t *testing.T) {
			t.Setenv("DEFAULT_SEED", v)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), "DEFAULT_SEED")
		})
	}
}

func TestLoad_InvalidROIRateLimit(t *testing.T) {
	t.Setenv("ROI_RATE_LIMIT", "0")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ROI_RATE_LIMIT")
}

func TestLoad_ROIEnabledWithoutURL(t *testing.T) {
	t.Setenv("ROI_ENABLED", "true")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ROI_URL")
}

func TestLoad_ROIURLImpliesEnabled(t *testing.T) {
	t.Setenv("ROI_URL", testROIURL)
	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.ROIEnabled)
}

func TestLoad_ROIExplicitlyDisabled(t *testing.T) {
	t.Setenv("ROI_URL", testROIURL)
	t.Setenv("ROI_ENABLED", "false")
	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.ROIEnabled)
}

func TestLoad_InvalidCacheSizeFallsBack(t *testing.T) {
	t.Setenv("DATASET_CACHE_SIZE", "-3")
	t.Setenv("ROI_CACHE_SIZE", "lots")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 16, cfg.DatasetCacheSize)
	assert.Equal(t, 256, cfg.ROICacheSize)
}
