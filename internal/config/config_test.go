package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644), "无法写入临时配置文件")
	return path
}

// TestLoadConfigAppliesDefaults 验证最小配置会被补全默认值
func TestLoadConfigAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  address: ":9090"
`)

	cfg, err := LoadConfigFromFileOnly(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Address)
	assert.Equal(t, StorageBackendLocal, cfg.Storage.Backend)
	assert.Equal(t, "docs", cfg.Storage.WorkDir)
	assert.Equal(t, GenAIBackendVertex, cfg.GenAI.Backend)
	assert.Equal(t, DefaultKeywordsQuestion, cfg.Questions.Keywords)
	assert.Equal(t, "X-API-Key", cfg.Auth.Header)

	// 采样参数默认值
	require.NotNil(t, cfg.GenAI.Generation.Temperature)
	assert.Equal(t, float32(1), *cfg.GenAI.Generation.Temperature)
	assert.Equal(t, int32(2000), cfg.GenAI.Generation.MaxOutputTokens)
	require.NotNil(t, cfg.GenAI.Generation.TopP)
	assert.Equal(t, float32(0), *cfg.GenAI.Generation.TopP)
	require.NotNil(t, cfg.GenAI.Generation.TopK)
	assert.Equal(t, float32(1), *cfg.GenAI.Generation.TopK)
}

// TestLoadConfigKeepsExplicitGeneration 显式写出的采样参数不能被默认值覆盖
func TestLoadConfigKeepsExplicitGeneration(t *testing.T) {
	path := writeConfig(t, `
genai:
  backend: gemini
  model: gemini-1.5-pro
  generation:
    temperature: 0.2
    max_output_tokens: 512
    top_p: 0.9
    top_k: 40
questions:
  name: "Nome?"
`)

	cfg, err := LoadConfigFromFileOnly(path)
	require.NoError(t, err)

	assert.Equal(t, GenAIBackendGemini, cfg.GenAI.Backend)
	assert.Equal(t, "gemini-1.5-pro", cfg.GenAI.Model)
	assert.InDelta(t, 0.2, *cfg.GenAI.Generation.Temperature, 1e-6)
	assert.Equal(t, int32(512), cfg.GenAI.Generation.MaxOutputTokens)
	assert.InDelta(t, 0.9, *cfg.GenAI.Generation.TopP, 1e-6)
	assert.InDelta(t, 40, *cfg.GenAI.Generation.TopK, 1e-6)
	assert.Equal(t, "Nome?", cfg.Questions.Name)
	assert.Equal(t, DefaultExperienceQuestion, cfg.Questions.Experience)
}

func TestLoadConfigRejectsUnknownBackend(t *testing.T) {
	path := writeConfig(t, `
storage:
  backend: ftp
`)
	_, err := LoadConfigFromFileOnly(path)
	assert.Error(t, err)

	path = writeConfig(t, `
storage:
  backend: minio
`)
	_, err = LoadConfigFromFileOnly(path)
	assert.Error(t, err, "minio 后端必须配置 endpoint")
}

func TestLoadConfigRejectsNonPositiveSessionDurations(t *testing.T) {
	for _, body := range []string{
		"session:\n  sweep_interval: 0s\n",
		"session:\n  sweep_interval: -1m\n",
		"session:\n  idle_ttl: 0s\n",
		"session:\n  idle_ttl: soon\n",
	} {
		_, err := LoadConfigFromFileOnly(writeConfig(t, body))
		assert.Error(t, err, body)
	}

	cfg := DefaultConfig()
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfigFromFileOnly(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)

	_, err = LoadConfigFromFileOnly("")
	assert.Error(t, err)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
genai:
  project: from-file
`)
	t.Setenv("GOOGLE_CLOUD_PROJECT", "from-env")
	t.Setenv("TRIAGE_API_KEYS", " k1, ,k2 ")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.GenAI.Project)
	assert.Equal(t, []string{"k1", "k2"}, cfg.Auth.APIKeys)
}

func TestCreateSampleConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.yaml")
	require.NoError(t, CreateSampleConfig(path))
	assert.Error(t, CreateSampleConfig(path), "已存在的文件不应被覆盖")

	cfg, err := LoadConfigFromFileOnly(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Server.Address, cfg.Server.Address)
}

func TestGetDuration(t *testing.T) {
	assert.Equal(t, 3*time.Second, GetDuration("3s", time.Minute))
	assert.Equal(t, time.Minute, GetDuration("", time.Minute))
	assert.Equal(t, time.Minute, GetDuration("bogus", time.Minute))
}
