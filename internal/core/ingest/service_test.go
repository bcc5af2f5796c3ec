package ingest_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jinford/tube-rag/internal/core/chunker"
	"github.com/jinford/tube-rag/internal/core/ingest"
	"github.com/jinford/tube-rag/internal/core/transcript"
)

type stubRepository struct {
	mu sync.Mutex

	analyses      []*ingest.VideoAnalysis
	chunks        []*ingest.TranscriptChunk
	statusUpdates []ingest.Status

	createAnalysisErr error
	createChunkErr    error
}

func (r *stubRepository) CreateAnalysis(_ context.Context, analysis *ingest.VideoAnalysis) error {
	if r.createAnalysisErr != nil {
		return r.createAnalysisErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	analysis.ID = uuid.New()
	r.analyses = append(r.analyses, analysis)
	return nil
}

func (r *stubRepository) UpdateAnalysisStatus(_ context.Context, _ uuid.UUID, status ingest.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statusUpdates = append(r.statusUpdates, status)
	return nil
}

func (r *stubRepository) FindAnalysis(_ context.Context, _ uuid.UUID) (mo.Option[*ingest.VideoAnalysis], error) {
	return mo.None[*ingest.VideoAnalysis](), nil
}

func (r *stubRepository) ListAnalyses(_ context.Context) ([]*ingest.VideoAnalysis, error) {
	return r.analyses, nil
}

func (r *stubRepository) CreateChunk(_ context.Context, chunk *ingest.TranscriptChunk) error {
	if r.createChunkErr != nil {
		return r.createChunkErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	chunk.ID = uuid.New()
	r.chunks = append(r.chunks, chunk)
	return nil
}

func (r *stubRepository) GetChunks(_ context.Context, _ uuid.UUID) ([]*ingest.TranscriptChunk, error) {
	return r.chunks, nil
}

func (r *stubRepository) CreateQuestion(_ context.Context, _ *ingest.QuestionRecord) error {
	return nil
}

func (r *stubRepository) ListQuestions(_ context.Context, _ uuid.UUID) ([]*ingest.QuestionRecord, error) {
	return nil, nil
}

type stubAcquirer struct {
	result *transcript.Result
	err    error
	calls  int
}

func (a *stubAcquirer) Acquire(_ context.Context, _ string) (*transcript.Result, error) {
	a.calls++
	if a.err != nil {
		return nil, a.err
	}
	return a.result, nil
}

type stubEmbedder struct {
	err error
}

func (e *stubEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	// テキスト長を埋め込むことでチャンクと順序の対応を検証できる
	return []float32{float32(len(text))}, nil
}

type memoryCache struct {
	mu    sync.Mutex
	items map[string]*transcript.Result
}

func newMemoryCache() *memoryCache {
	return &memoryCache{items: make(map[string]*transcript.Result)}
}

func (c *memoryCache) Get(_ context.Context, videoID string) (mo.Option[*transcript.Result], error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if result, ok := c.items[videoID]; ok {
		return mo.Some(result), nil
	}
	return mo.None[*transcript.Result](), nil
}

func (c *memoryCache) Set(_ context.Context, videoID string, result *transcript.Result) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[videoID] = result
	return nil
}

func testResult(text string) *transcript.Result {
	return &transcript.Result{
		Info: transcript.VideoInfo{
			VideoID:     "dQw4w9WgXcQ",
			Title:       "Test Video",
			ChannelName: "Test Channel",
			URL:         "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		},
		Text: text,
	}
}

func manyWords(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("word%d", i)
	}
	return strings.Join(parts, " ")
}

func newTestChunker(t *testing.T) *chunker.Chunker {
	t.Helper()
	c, err := chunker.New(chunker.WithTargetWords(100), chunker.WithOverlapWords(10))
	require.NoError(t, err)
	return c
}

func TestIngestService_Ingest_Success(t *testing.T) {
	// Setup
	ctx := context.Background()
	repo := &stubRepository{}
	acquirer := &stubAcquirer{result: testResult(manyWords(250))}

	service := ingest.NewIngestService(repo, acquirer, &stubEmbedder{}, newTestChunker(t))

	// Execute
	result, err := service.Ingest(ctx, "https://youtu.be/dQw4w9WgXcQ", "user-1")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, ingest.StatusCompleted, result.Analysis.Status)
	assert.Equal(t, "dQw4w9WgXcQ", result.Analysis.VideoID)
	assert.Equal(t, "Test Video", result.Analysis.Title)
	assert.Equal(t, "user-1", result.Analysis.UserID)

	// 250単語、ウィンドウ100、ステップ90 → 3チャンク
	assert.Equal(t, 3, result.ChunkCount)
	assert.Len(t, repo.chunks, 3)

	// 完了ステータスが記録されている
	require.NotEmpty(t, repo.statusUpdates)
	assert.Equal(t, ingest.StatusCompleted, repo.statusUpdates[len(repo.statusUpdates)-1])
}

func TestIngestService_Ingest_PreservesChunkOrder(t *testing.T) {
	// Setup
	ctx := context.Background()
	repo := &stubRepository{}
	acquirer := &stubAcquirer{result: testResult(manyWords(500))}

	service := ingest.NewIngestService(repo, acquirer, &stubEmbedder{}, newTestChunker(t),
		ingest.WithEmbedConcurrency(4),
	)

	// Execute
	_, err := service.Ingest(ctx, "https://youtu.be/dQw4w9WgXcQ", "")

	// Assert: 並列Embeddingでも各チャンクのインデックスと内容の対応が保たれる
	require.NoError(t, err)

	expected := newTestChunker(t).Chunk(manyWords(500))
	require.Len(t, repo.chunks, len(expected))

	byIndex := make(map[int]*ingest.TranscriptChunk)
	for _, chunk := range repo.chunks {
		byIndex[chunk.Index] = chunk
	}
	for i, content := range expected {
		chunk, ok := byIndex[i]
		require.True(t, ok, "chunk %d missing", i)
		assert.Equal(t, content, chunk.Content)
		assert.Equal(t, []float32{float32(len(content))}, chunk.Embedding)
	}
}

func TestIngestService_Ingest_EmptyTranscript(t *testing.T) {
	// Setup
	ctx := context.Background()
	repo := &stubRepository{}
	acquirer := &stubAcquirer{result: testResult("   ")}

	service := ingest.NewIngestService(repo, acquirer, &stubEmbedder{}, newTestChunker(t))

	// Execute
	result, err := service.Ingest(ctx, "https://youtu.be/dQw4w9WgXcQ", "")

	// Assert
	require.Error(t, err)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, ingest.ErrEmptyTranscript)
	assert.Empty(t, repo.analyses, "空トランスクリプトでは解析レコードを作成しない")
}

func TestIngestService_Ingest_AcquisitionError(t *testing.T) {
	// Setup
	ctx := context.Background()
	repo := &stubRepository{}
	acquirer := &stubAcquirer{err: transcript.ErrNoCaptions}

	service := ingest.NewIngestService(repo, acquirer, &stubEmbedder{}, newTestChunker(t))

	// Execute
	result, err := service.Ingest(ctx, "https://youtu.be/dQw4w9WgXcQ", "")

	// Assert
	require.Error(t, err)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, transcript.ErrNoCaptions)
}

func TestIngestService_Ingest_InvalidURL(t *testing.T) {
	// Setup
	ctx := context.Background()
	acquirer := &stubAcquirer{result: testResult("content")}
	service := ingest.NewIngestService(&stubRepository{}, acquirer, &stubEmbedder{}, newTestChunker(t))

	// Execute
	result, err := service.Ingest(ctx, "https://example.com/video", "")

	// Assert
	require.Error(t, err)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, transcript.ErrInvalidURL)
	assert.Equal(t, 0, acquirer.calls)
}

func TestIngestService_Ingest_EmbeddingFailureMarksError(t *testing.T) {
	// Setup
	ctx := context.Background()
	repo := &stubRepository{}
	acquirer := &stubAcquirer{result: testResult(manyWords(250))}
	embedErr := errors.New("embedding api down")

	service := ingest.NewIngestService(repo, acquirer, &stubEmbedder{err: embedErr}, newTestChunker(t))

	// Execute
	result, err := service.Ingest(ctx, "https://youtu.be/dQw4w9WgXcQ", "")

	// Assert
	require.Error(t, err)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, embedErr)

	// 解析レコードは error ステータスで残る
	require.Len(t, repo.analyses, 1)
	require.NotEmpty(t, repo.statusUpdates)
	assert.Equal(t, ingest.StatusError, repo.statusUpdates[len(repo.statusUpdates)-1])
}

func TestIngestService_Ingest_CacheHitSkipsAcquisition(t *testing.T) {
	// Setup
	ctx := context.Background()
	repo := &stubRepository{}
	acquirer := &stubAcquirer{result: testResult(manyWords(150))}
	cache := newMemoryCache()

	service := ingest.NewIngestService(repo, acquirer, &stubEmbedder{}, newTestChunker(t),
		ingest.WithTranscriptCache(cache),
	)

	// Execute: 1回目は取得してキャッシュ、2回目はキャッシュヒット
	_, err := service.Ingest(ctx, "https://youtu.be/dQw4w9WgXcQ", "")
	require.NoError(t, err)
	_, err = service.Ingest(ctx, "https://youtu.be/dQw4w9WgXcQ", "")
	require.NoError(t, err)

	// Assert
	assert.Equal(t, 1, acquirer.calls, "2回目の取り込みはキャッシュから読む")
	assert.Len(t, repo.analyses, 2)
}
