package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"citabot/internal/config"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(lc config.LoggingConfig) *config.Config {
	return &config.Config{
		App: config.AppConfig{
			Name:        "test-app",
			Environment: "test",
			Version:     "1.0.0",
		},
		Clinic:  config.ClinicConfig{Name: "Clínica Test"},
		Logging: lc,
	}
}

func TestNewLogger(t *testing.T) {
	t.Run("DefaultStdout", func(t *testing.T) {
		logger, closer, err := New(testConfig(config.LoggingConfig{}))
		require.NoError(t, err)
		assert.NotNil(t, logger)
		assert.Nil(t, closer)
		assert.Equal(t, zerolog.InfoLevel, logger.GetLevel())
	})

	t.Run("Stderr", func(t *testing.T) {
		logger, closer, err := New(testConfig(config.LoggingConfig{Level: "debug", Output: "stderr"}))
		require.NoError(t, err)
		assert.Equal(t, zerolog.DebugLevel, logger.GetLevel())
		assert.Nil(t, closer)
	})

	t.Run("Console", func(t *testing.T) {
		logger, closer, err := New(testConfig(config.LoggingConfig{Level: "warn", Format: "console"}))
		require.NoError(t, err)
		assert.NotNil(t, logger)
		assert.Nil(t, closer)
	})

	t.Run("File", func(t *testing.T) {
		logPath := filepath.Join(t.TempDir(), "test.log")
		logger, closer, err := New(testConfig(config.LoggingConfig{Level: "error", Output: "file", FilePath: logPath}))
		require.NoError(t, err)
		require.NotNil(t, closer)

		logger.Error().Msg("boom")
		require.NoError(t, closer.Close())

		data, err := os.ReadFile(logPath)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"clinic":"Clínica Test"`)
		assert.Contains(t, string(data), "boom")
	})

	t.Run("FileMissingPath", func(t *testing.T) {
		_, _, err := New(testConfig(config.LoggingConfig{Output: "file"}))
		assert.Error(t, err)
	})

	t.Run("UnknownOutput", func(t *testing.T) {
		_, _, err := New(testConfig(config.LoggingConfig{Output: "syslog"}))
		assert.Error(t, err)
	})
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("invalid"))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel(""))
	assert.Equal(t, zerolog.DebugLevel, ParseLevel(" DEBUG "))
}

func TestComponent(t *testing.T) {
	var buf bytes.Buffer
	base := zerolog.New(&buf)
	Component(&base, "player").Info().Msg("tick")
	assert.Contains(t, buf.String(), `"component":"player"`)
}
