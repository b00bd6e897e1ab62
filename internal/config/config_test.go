package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "stock-scanner", cfg.ServiceName)
	assert.Equal(t, "postgres", cfg.StoreDriver)
	assert.Equal(t, 5*time.Second, cfg.StoreTimeout)
	assert.Equal(t, 100*time.Millisecond, cfg.ScanInterval)
	assert.Equal(t, 3*time.Second, cfg.ScanCooldown)
	assert.True(t, cfg.CameraEnabled)
	assert.True(t, cfg.IsDevelopment())
	assert.Nil(t, cfg.Brokers())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("STORE_TIMEOUT", "250ms")
	t.Setenv("SCAN_COOLDOWN", "1s")
	t.Setenv("CAMERA_ENABLED", "false")
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, ,kafka-2:9092")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.StoreDriver)
	assert.Equal(t, 250*time.Millisecond, cfg.StoreTimeout)
	assert.Equal(t, time.Second, cfg.ScanCooldown)
	assert.False(t, cfg.CameraEnabled)
	assert.False(t, cfg.IsDevelopment())
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Brokers())
}
