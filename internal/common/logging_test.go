package common

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerWithOutputLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithOutput("warn", &buf)

	logger.Info().Msg("suppressed")
	assert.Empty(t, buf.String())

	logger.Warn().Msg("emitted")
	assert.Contains(t, buf.String(), "emitted")
}

func TestNewLoggerUnknownLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithOutput("bogus", &buf)
	assert.Equal(t, zerolog.InfoLevel, logger.GetLevel())
}

func TestNewDefaultLogger(t *testing.T) {
	logger := NewDefaultLogger()
	require.NotNil(t, logger)
	assert.Equal(t, zerolog.InfoLevel, logger.GetLevel())
}
