package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/superior-pamerca/admin-api/internal/config"
)

func TestNew_EmitsServiceFields(t *testing.T) {
	t.Setenv("APP_VERSION", "")

	cfg := &config.Config{
		Server: config.ServerConfig{Environment: "test"},
		Log:    config.LogConfig{Level: "info", Format: "json"},
	}

	logger := New(cfg)

	var buf bytes.Buffer
	logger.SetOutput(&buf)

	logger.WithField("action", "arranque").Info("server started")

	line := map[string]interface{}{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))

	assert.Equal(t, "admin-api", line["service"])
	assert.Equal(t, "test", line["environment"])
	assert.Equal(t, "dev", line["version"])
	assert.Equal(t, "arranque", line["action"])
	assert.Equal(t, "server started", line["msg"])
	assert.Equal(t, "info", line["level"])
	assert.NotEmpty(t, line["ts"])
}

func TestServiceFieldsHook_ExplicitFieldWins(t *testing.T) {
	cfg := &config.Config{
		Server: config.ServerConfig{Environment: "test"},
		Log:    config.LogConfig{Level: "info", Format: "json"},
	}

	logger := New(cfg)

	var buf bytes.Buffer
	logger.SetOutput(&buf)

	logger.WithField("environment", "staging").Info("override")

	line := map[string]interface{}{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "staging", line["environment"])
}

func TestNew_InvalidLevelDefaultsToInfo(t *testing.T) {
	cfg := &config.Config{
		Server: config.ServerConfig{Environment: "test"},
		Log:    config.LogConfig{Level: "no-es-nivel", Format: "json"},
	}

	logger := New(cfg)
	assert.Equal(t, "info", logger.GetLevel().String())
}
