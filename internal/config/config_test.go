package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("RATE_LIMIT_PER_MINUTE", "")
	t.Setenv("QUESTION_CACHE_TTL_MINUTES", "")
	t.Setenv("ALLOWED_ORIGINS", "")

	cfg := Load()
	require.Equal(t, 120, cfg.RateLimitPerMinute)
	require.Equal(t, 3*time.Hour, cfg.QuestionCacheTTL)
	require.Nil(t, cfg.AllowedOrigins)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("RATE_LIMIT_PER_MINUTE", "30")
	t.Setenv("QUESTION_CACHE_TTL_MINUTES", "5")
	t.Setenv("MAX_DB_CONNS", "not-a-number")
	t.Setenv("ALLOWED_ORIGINS", " https://a.example , ,https://b.example")

	cfg := Load()
	require.Equal(t, 30, cfg.RateLimitPerMinute)
	require.Equal(t, 5*time.Minute, cfg.QuestionCacheTTL)
	require.Equal(t, int32(16), cfg.MaxDBConns)
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
}

func TestCacheKeys(t *testing.T) {
	require.Equal(t, "task:t1:questions", CacheKey.TaskQuestionsKey("t1"))
	require.Equal(t, "submission:s1:answers", CacheKey.SubmissionAnswersKey("s1"))
	require.Equal(t, "submission:s1:closed", CacheKey.SubmissionClosedKey("s1"))
}
