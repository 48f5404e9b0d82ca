package logging

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestSetLevel(t *testing.T) {
	cfg := DefaultConfig()
	require.Equal(t, zapcore.InfoLevel, cfg.Level)

	require.NoError(t, cfg.SetLevel("debug"))
	require.Equal(t, zapcore.DebugLevel, cfg.Level)

	require.Error(t, cfg.SetLevel("loud"))
	require.Equal(t, zapcore.DebugLevel, cfg.Level)
}

func TestInit(t *testing.T) {
	cfg := Config{Level: zapcore.WarnLevel}

	log, level, err := Init(&cfg)
	require.NoError(t, err)
	require.NotNil(t, log)
	require.Equal(t, zapcore.WarnLevel, level.Level())
	require.False(t, log.Desugar().Core().Enabled(zapcore.InfoLevel))

	level.SetLevel(zapcore.DebugLevel)
	require.True(t, log.Desugar().Core().Enabled(zapcore.DebugLevel))
}
