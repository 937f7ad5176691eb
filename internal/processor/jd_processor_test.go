package processor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-triage/internal/config"
)

const backendJD = "Procuramos pessoa desenvolvedora backend com Go e Rust."

func TestDeriveKeywordsEmptyDescription(t *testing.T) {
	terms := &fakeTerms{}
	p, err := NewJDProcessor(terms)
	require.NoError(t, err)

	_, err = p.DeriveKeywords(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyDescription)
	assert.Zero(t, terms.calls)
}

func TestDeriveKeywordsCacheMissThenHit(t *testing.T) {
	terms := &fakeTerms{keywords: []string{"Go", "Rust"}}
	cache := &fakeCache{}
	p, err := NewJDProcessor(terms, WithKeywordCache(cache))
	require.NoError(t, err)

	first, err := p.DeriveKeywords(context.Background(), backendJD)
	require.NoError(t, err)
	assert.Equal(t, []string{"Go", "Rust"}, first)
	assert.Equal(t, 1, terms.calls)
	assert.Equal(t, 1, cache.sets)

	second, err := p.DeriveKeywords(context.Background(), backendJD)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, terms.calls, "命中缓存时不调用模型")
}

func TestDeriveKeywordsCacheErrorsAreIgnored(t *testing.T) {
	terms := &fakeTerms{keywords: []string{"Go"}}
	cache := &fakeCache{getErr: errors.New("redis down"), setErr: errors.New("redis down")}
	p, err := NewJDProcessor(terms, WithKeywordCache(cache))
	require.NoError(t, err)

	kw, err := p.DeriveKeywords(context.Background(), backendJD)
	require.NoError(t, err)
	assert.Equal(t, []string{"Go"}, kw)
}

func TestDeriveKeywordsEmptyAnswerNotCached(t *testing.T) {
	terms := &fakeTerms{keywords: []string{}}
	cache := &fakeCache{}
	p, err := NewJDProcessor(terms, WithKeywordCache(cache))
	require.NoError(t, err)

	kw, err := p.DeriveKeywords(context.Background(), backendJD)
	require.NoError(t, err)
	assert.Empty(t, kw)
	assert.Zero(t, cache.sets)
}

func TestDeriveKeywordsModelFailure(t *testing.T) {
	terms := &fakeTerms{errs: map[string]error{config.DefaultKeywordsQuestion: errors.New("quota exceeded")}}
	p, err := NewJDProcessor(terms)
	require.NoError(t, err)

	_, err = p.DeriveKeywords(context.Background(), backendJD)
	assert.ErrorIs(t, err, ErrKeywordDerivation)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestDeriveTermsNormalizes(t *testing.T) {
	terms := &fakeTerms{keywords: []string{" Go ", "Spring Boot", "go"}}
	p, err := NewJDProcessor(terms)
	require.NoError(t, err)

	set, err := p.DeriveTerms(context.Background(), backendJD)
	require.NoError(t, err)
	assert.Equal(t, []string{"go", "spring boot"}, set.Bases())
}

func TestNewJDProcessorRequiresExtractor(t *testing.T) {
	_, err := NewJDProcessor(nil)
	assert.Error(t, err)
}
