package rediscache_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jinford/tube-rag/internal/core/transcript"
	"github.com/jinford/tube-rag/internal/infra/rediscache"
)

func newTestCache(t *testing.T, opts ...rediscache.Option) (*rediscache.TranscriptCache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return rediscache.New(client, opts...), mr
}

func testTranscript() *transcript.Result {
	return &transcript.Result{
		Info: transcript.VideoInfo{
			VideoID:     "dQw4w9WgXcQ",
			Title:       "Test Video",
			ChannelName: "Test Channel",
			URL:         "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		},
		Text: "hello world",
		Segments: []transcript.Segment{
			{Start: 0, End: 2.5, Duration: 2.5, Text: "hello world"},
		},
	}
}

func TestTranscriptCache_SetAndGet(t *testing.T) {
	// Setup
	ctx := context.Background()
	cache, _ := newTestCache(t)
	original := testTranscript()

	// Execute
	require.NoError(t, cache.Set(ctx, "dQw4w9WgXcQ", original))
	cached, err := cache.Get(ctx, "dQw4w9WgXcQ")

	// Assert
	require.NoError(t, err)
	result, ok := cached.Get()
	require.True(t, ok)
	assert.Equal(t, original.Text, result.Text)
	assert.Equal(t, original.Info.Title, result.Info.Title)
	require.Len(t, result.Segments, 1)
	assert.InDelta(t, 2.5, result.Segments[0].End, 1e-9)
}

func TestTranscriptCache_Get_Miss(t *testing.T) {
	// Setup
	ctx := context.Background()
	cache, _ := newTestCache(t)

	// Execute
	cached, err := cache.Get(ctx, "unknown-id")

	// Assert
	require.NoError(t, err)
	assert.True(t, cached.IsAbsent())
}

func TestTranscriptCache_Get_CorruptEntryTreatedAsMiss(t *testing.T) {
	// Setup
	ctx := context.Background()
	cache, mr := newTestCache(t)
	require.NoError(t, mr.Set("tuberag:transcript:dQw4w9WgXcQ", "not valid json"))

	// Execute
	cached, err := cache.Get(ctx, "dQw4w9WgXcQ")

	// Assert: 壊れたエントリはエラーにせずミス扱い
	require.NoError(t, err)
	assert.True(t, cached.IsAbsent())
}

func TestTranscriptCache_EntryExpires(t *testing.T) {
	// Setup
	ctx := context.Background()
	cache, mr := newTestCache(t, rediscache.WithTTL(time.Minute))
	require.NoError(t, cache.Set(ctx, "dQw4w9WgXcQ", testTranscript()))

	// Execute: TTL経過をシミュレート
	mr.FastForward(2 * time.Minute)
	cached, err := cache.Get(ctx, "dQw4w9WgXcQ")

	// Assert
	require.NoError(t, err)
	assert.True(t, cached.IsAbsent())
}
