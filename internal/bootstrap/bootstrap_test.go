package bootstrap

import (
	"context"
	"io"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-triage/internal/config"
	"resume-triage/internal/metrics"
	"resume-triage/internal/parser"
	"resume-triage/internal/storage"
)

type nopExtractor struct{}

func (nopExtractor) ExtractText(context.Context, string, io.Reader) (string, error) { return "", nil }
func (nopExtractor) Name() string                                                  { return "nop" }

type nopTerms struct{}

func (nopTerms) ExtractKeywords(context.Context, string, string) ([]string, error) { return nil, nil }
func (nopTerms) Answer(context.Context, string, string) (string, error)            { return "", nil }

func TestGenerationConfig(t *testing.T) {
	assert.Equal(t, parser.DefaultGenerationConfig(), generationConfig(config.GenerationConfig{}))

	temp := float32(0.2)
	got := generationConfig(config.GenerationConfig{Temperature: &temp, MaxOutputTokens: 512})
	assert.Equal(t, float32(0.2), got.Temperature)
	assert.Equal(t, int32(512), got.MaxOutputTokens)
	assert.Equal(t, parser.DefaultGenerationConfig().TopK, got.TopK)
}

func TestNewServicesWithoutOptionalStores(t *testing.T) {
	files, err := storage.NewLocalFileStore(t.TempDir(), zerolog.Nop())
	require.NoError(t, err)
	st := &storage.Storage{Files: files}

	svc, err := NewServices(config.DefaultConfig(), st, nopExtractor{}, nopTerms{}, metrics.New("test"), zerolog.Nop())
	require.NoError(t, err)
	assert.NotNil(t, svc.Resumes)
	assert.NotNil(t, svc.JD)
	assert.NotNil(t, svc.Triage)
}

func TestNewTermExtractorRequiresBackendSettings(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.GenAI.Backend = config.GenAIBackendGemini
	cfg.GenAI.APIKey = ""
	_, err := NewTermExtractor(context.Background(), cfg, zerolog.Nop())
	assert.Error(t, err)
}
