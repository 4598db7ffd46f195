package logging_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Mohsinsiddi/qbx/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewDefaultsToInfo(t *testing.T) {
	log, err := logging.New("", false, "")
	require.NoError(t, err)
	assert.True(t, log.Core().Enabled(zapcore.InfoLevel))
	assert.False(t, log.Core().Enabled(zapcore.DebugLevel))
}

func TestNewDebugOverridesLevel(t *testing.T) {
	log, err := logging.New("error", true, "")
	require.NoError(t, err)
	assert.True(t, log.Core().Enabled(zapcore.DebugLevel))
}

func TestNewRejectsBadLevel(t *testing.T) {
	_, err := logging.New("loud", false, "")
	assert.ErrorContains(t, err, "log setting")
}

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "qbx.log")
	log, err := logging.New("warn", false, path)
	require.NoError(t, err)

	log.Info("hidden")
	log.Warn("block rejected")
	require.NoError(t, log.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "WARN")
	assert.Contains(t, string(data), "block rejected")
	assert.NotContains(t, string(data), "hidden")
}
