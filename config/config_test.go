package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("REPORT_TOP_N", "")
	t.Setenv("REDIS_ENABLED", "")

	cfg := Load()

	assert.Equal(t, StoreDriverPostgres, cfg.Store.Driver)
	assert.Equal(t, 5, cfg.Business.ReportTopN)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "/clothing/api/v1", cfg.Server.BasePath)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "Memory")
	t.Setenv("REPORT_TOP_N", "3")
	t.Setenv("KAFKA_ENABLED", "false")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")

	cfg := Load()

	assert.Equal(t, StoreDriverMemory, cfg.Store.Driver)
	assert.Equal(t, 3, cfg.Business.ReportTopN)
	assert.False(t, cfg.Kafka.Enabled)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
}

func TestLoadRejectsNonPositiveTopN(t *testing.T) {
	t.Setenv("REPORT_TOP_N", "-2")

	cfg := Load()

	assert.Equal(t, 5, cfg.Business.ReportTopN)
}
