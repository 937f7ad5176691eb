package main

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-triage/internal/bootstrap"
	"resume-triage/internal/config"
	"resume-triage/internal/storage"
)

type plainExtractor struct{}

func (plainExtractor) ExtractText(_ context.Context, _ string, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	return string(data), err
}

func (plainExtractor) Name() string { return "plain" }

type fixedTerms struct{}

func (fixedTerms) ExtractKeywords(context.Context, string, string) ([]string, error) {
	return []string{"go"}, nil
}

func (fixedTerms) Answer(_ context.Context, text, _ string) (string, error) {
	first, _, _ := strings.Cut(text, "\n")
	return first, nil
}

func newServices(t *testing.T) *bootstrap.Services {
	t.Helper()
	files, err := storage.NewLocalFileStore(t.TempDir(), zerolog.Nop())
	require.NoError(t, err)
	svc, err := bootstrap.NewServices(config.DefaultConfig(), &storage.Storage{Files: files}, plainExtractor{}, fixedTerms{}, nil, zerolog.Nop())
	require.NoError(t, err)
	return svc
}

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}
	return dir
}

func TestTriageDirectory(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"a.pdf":     "Ana\nGo e Docker",
		"b.PDF":     "Bruno\nGo e Rust",
		"notas.txt": "ignorado",
	})
	out := t.TempDir()

	var buf bytes.Buffer
	err := triageDirectory(context.Background(), &buf, newServices(t), triageOptions{
		Dir: dir, Job: "Backend", Keywords: "go, rust", Out: out,
	})
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "2/2 currículos processados")
	assert.Contains(t, output, "2 palavras-chave encontradas: b.PDF")
	assert.Contains(t, output, "1 palavra-chave encontrada: a.pdf")

	matches, err := filepath.Glob(filepath.Join(out, "triagem_inteligente_Backend_*.zip"))
	require.NoError(t, err)
	require.Len(t, matches, 1)
	zr, err := zip.OpenReader(matches[0])
	require.NoError(t, err)
	defer zr.Close()
	assert.Len(t, zr.File, 3)
}

func TestTriageDirectoryFromDescription(t *testing.T) {
	dir := writeFiles(t, map[string]string{"a.pdf": "Ana\nGo"})
	var buf bytes.Buffer
	err := triageDirectory(context.Background(), &buf, newServices(t), triageOptions{
		Dir: dir, Job: "Backend", Description: "Vaga Go", Out: t.TempDir(),
	})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Palavras-chave: go")
}

func TestTriageDirectoryNoMatches(t *testing.T) {
	dir := writeFiles(t, map[string]string{"a.pdf": "Ana\nJava"})
	out := t.TempDir()
	var buf bytes.Buffer
	err := triageDirectory(context.Background(), &buf, newServices(t), triageOptions{
		Dir: dir, Job: "Backend", Keywords: "cobol", Out: out,
	})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Nenhum currículo")

	entries, err := os.ReadDir(out)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestTriageDirectoryWithoutPDFs(t *testing.T) {
	dir := writeFiles(t, map[string]string{"notas.txt": "x"})
	err := triageDirectory(context.Background(), io.Discard, newServices(t), triageOptions{Dir: dir, Job: "Backend", Keywords: "go"})
	assert.Error(t, err)
}
