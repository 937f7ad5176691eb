package logger

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitWritesToFile(t *testing.T) {
	saved := Logger
	t.Cleanup(func() { Logger = saved })

	path := filepath.Join(t.TempDir(), "logs", "app.log")
	closer, err := Init(Config{Level: "debug", File: path})
	require.NoError(t, err)

	componentLogger := Component("test")
	componentLogger.Info().Str("k", "v").Msg("写入文件")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"component":"test"`)
	assert.Contains(t, string(data), "写入文件")
}

func TestInitUnknownLevelFallsBackToInfo(t *testing.T) {
	saved := Logger
	t.Cleanup(func() { Logger = saved })

	closer, err := Init(Config{Level: "loud"})
	require.NoError(t, err)
	defer closer.Close()
	assert.Equal(t, zerolog.InfoLevel, Logger.GetLevel())
}

func TestCtxFallsBackToGlobal(t *testing.T) {
	var buf bytes.Buffer
	saved := Logger
	t.Cleanup(func() { Logger = saved })
	Logger = zerolog.New(&buf)

	Ctx(context.Background()).Info().Msg("global")
	assert.Contains(t, buf.String(), "global")

	var scoped bytes.Buffer
	ctx := zerolog.New(&scoped).WithContext(context.Background())
	Ctx(ctx).Info().Msg("scoped")
	assert.Contains(t, scoped.String(), "scoped")
}

func TestHertzLevel(t *testing.T) {
	assert.Equal(t, hlog.LevelDebug, hertzLevel(zerolog.DebugLevel))
	assert.Equal(t, hlog.LevelWarn, hertzLevel(zerolog.WarnLevel))
	assert.Equal(t, hlog.LevelInfo, hertzLevel(zerolog.InfoLevel))
	assert.Equal(t, hlog.LevelFatal, hertzLevel(zerolog.PanicLevel))
}
