package storage

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-triage/internal/config"
)

func TestJobKeywordsKey(t *testing.T) {
	key := JobKeywordsKey("  Vaga backend Go  ")
	assert.True(t, strings.HasPrefix(key, "triage:job:keywords:"))
	assert.Len(t, strings.TrimPrefix(key, "triage:job:keywords:"), 32)
	assert.Equal(t, key, JobKeywordsKey("Vaga backend Go"), "首尾空白不影响缓存键")
	assert.NotEqual(t, key, JobKeywordsKey("Vaga backend Rust"))
}

// TestRedisJobKeywordsRoundTrip 需要本地 Redis，设置 REDIS_TEST_ADDR 后运行
func TestRedisJobKeywordsRoundTrip(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("未设置 REDIS_TEST_ADDR，跳过Redis集成测试")
	}

	r, err := NewRedisAdapter(&config.RedisConfig{Address: addr, KeywordCacheTTL: "1m"})
	require.NoError(t, err)
	defer r.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	description := "descrição de teste " + time.Now().Format(time.RFC3339Nano)
	_, found, err := r.GetJobKeywords(ctx, description)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, r.SetJobKeywords(ctx, description, []string{"Go", "Kafka"}))
	keywords, found, err := r.GetJobKeywords(ctx, description)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []string{"Go", "Kafka"}, keywords)

	r.Client.Del(ctx, JobKeywordsKey(description))
}
