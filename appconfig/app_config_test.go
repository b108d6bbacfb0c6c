package appconfig

import (
	"testing"
	"time"

	"github.com/SaiNageswarS/go-api-boot/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDurations(t *testing.T) {
	tests := []struct {
		name      string
		cfg       AppConfig
		execution time.Duration
		delay     time.Duration
	}{
		{"configured", AppConfig{MaxExecutionSeconds: 30, TokenDelayMs: 50}, 30 * time.Second, 50 * time.Millisecond},
		{"unset", AppConfig{}, 0, 0},
		{"pacing disabled", AppConfig{TokenDelayMs: -1}, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.execution, tt.cfg.MaxExecutionTime())
			assert.Equal(t, tt.delay, tt.cfg.TokenDelay())
		})
	}
}

func TestResolveMongoURI(t *testing.T) {
	t.Run("environment wins", func(t *testing.T) {
		t.Setenv("MONGO_URI", "mongodb://env:27017")
		cfg := AppConfig{MongoURI: "mongodb://ini:27017"}
		assert.Equal(t, "mongodb://env:27017", cfg.ResolveMongoURI())
	})

	t.Run("falls back to config file", func(t *testing.T) {
		t.Setenv("MONGO_URI", "")
		cfg := AppConfig{MongoURI: "mongodb://ini:27017"}
		assert.Equal(t, "mongodb://ini:27017", cfg.ResolveMongoURI())
	})

	t.Run("unset everywhere", func(t *testing.T) {
		t.Setenv("MONGO_URI", "")
		assert.Empty(t, (&AppConfig{}).ResolveMongoURI())
	})
}

func TestLoadConfigDefaultSection(t *testing.T) {
	t.Setenv("ENV", "")

	cfg := &AppConfig{}
	require.NoError(t, config.LoadConfig("../config.ini", cfg))

	assert.Equal(t, "krishi", cfg.Tenant)
	assert.Equal(t, ":8000", cfg.HTTPPort)
	assert.Equal(t, 3, cfg.MaxIterations)
	assert.Equal(t, 100, cfg.SearchNumCandidates)
}
