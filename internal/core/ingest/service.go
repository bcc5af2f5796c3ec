package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/samber/mo"
	"golang.org/x/sync/errgroup"

	"github.com/jinford/tube-rag/internal/core/chunker"
	"github.com/jinford/tube-rag/internal/core/transcript"
)

// ErrEmptyTranscript は取得は成功したがトランスクリプトが空だった場合のエラー
var ErrEmptyTranscript = errors.New("acquired transcript is empty")

// DefaultEmbedConcurrency はチャンクEmbeddingの並列数の上限
// プロバイダのレート制限を避けるため、無制限のファンアウトはしない
const DefaultEmbedConcurrency = 4

// Acquirer はトランスクリプト取得のインターフェース
type Acquirer interface {
	Acquire(ctx context.Context, rawURL string) (*transcript.Result, error)
}

// Embedder はテキストのEmbedding生成インターフェース
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// TranscriptCache はトランスクリプトのキャッシュインターフェース（省略可）
type TranscriptCache interface {
	Get(ctx context.Context, videoID string) (mo.Option[*transcript.Result], error)
	Set(ctx context.Context, videoID string, result *transcript.Result) error
}

// IngestService は取り込みのユースケースを提供する
// 取得 → 解析レコード作成 → チャンク化 → Embedding → 永続化 の一連を調停する
type IngestService struct {
	repo        Repository
	acquirer    Acquirer
	embedder    Embedder
	chunker     *chunker.Chunker
	cache       TranscriptCache // nil可
	concurrency int
	logger      *slog.Logger
}

type ingestServiceOptions struct {
	cache       TranscriptCache
	concurrency int
	logger      *slog.Logger
}

// IngestServiceOption は IngestService のオプション設定
type IngestServiceOption func(*ingestServiceOptions)

// WithIngestLogger は IngestService にロガーを設定する
func WithIngestLogger(logger *slog.Logger) IngestServiceOption {
	return func(o *ingestServiceOptions) {
		o.logger = logger
	}
}

// WithTranscriptCache はトランスクリプトキャッシュを設定する
func WithTranscriptCache(cache TranscriptCache) IngestServiceOption {
	return func(o *ingestServiceOptions) {
		o.cache = cache
	}
}

// WithEmbedConcurrency はEmbedding並列数の上限を上書きする
func WithEmbedConcurrency(n int) IngestServiceOption {
	return func(o *ingestServiceOptions) {
		o.concurrency = n
	}
}

// NewIngestService は新しい IngestService を作成する
func NewIngestService(
	repo Repository,
	acquirer Acquirer,
	embedder Embedder,
	textChunker *chunker.Chunker,
	opts ...IngestServiceOption,
) *IngestService {
	options := ingestServiceOptions{
		concurrency: DefaultEmbedConcurrency,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(&options)
	}
	if options.logger == nil {
		options.logger = slog.Default()
	}
	if options.concurrency <= 0 {
		options.concurrency = DefaultEmbedConcurrency
	}

	return &IngestService{
		repo:        repo,
		acquirer:    acquirer,
		embedder:    embedder,
		chunker:     textChunker,
		cache:       options.cache,
		concurrency: options.concurrency,
		logger:      options.logger,
	}
}

// Ingest はYouTube URLを取り込み、チャンク化とEmbeddingまで完了させる
// Embedding途中で失敗した場合、作成済みのチャンクはロールバックせず残す
// （再実行可能な状態であり、破損ではない）
func (s *IngestService) Ingest(ctx context.Context, rawURL, userID string) (*IngestResult, error) {
	startTime := time.Now()

	result, err := s.acquireTranscript(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(result.Text) == "" {
		return nil, ErrEmptyTranscript
	}

	analysis := &VideoAnalysis{
		VideoID:     result.Info.VideoID,
		Title:       result.Info.Title,
		ChannelName: result.Info.ChannelName,
		URL:         result.Info.URL,
		Transcript:  result.Text,
		Status:      StatusProcessing,
		UserID:      userID,
	}
	if err := s.repo.CreateAnalysis(ctx, analysis); err != nil {
		return nil, fmt.Errorf("failed to create analysis: %w", err)
	}

	s.logger.Info("analysis created",
		"analysisID", analysis.ID,
		"videoID", analysis.VideoID,
		"transcriptLength", len(result.Text),
	)

	chunks := s.chunker.Chunk(result.Text)
	if err := s.embedAndStoreChunks(ctx, analysis, chunks); err != nil {
		// 失敗を記録する。作成済みチャンクは再実行のために残す
		if statusErr := s.repo.UpdateAnalysisStatus(ctx, analysis.ID, StatusError); statusErr != nil {
			s.logger.Error("failed to mark analysis as error", "analysisID", analysis.ID, "error", statusErr)
		}
		return nil, err
	}

	if err := s.repo.UpdateAnalysisStatus(ctx, analysis.ID, StatusCompleted); err != nil {
		return nil, fmt.Errorf("failed to mark analysis as completed: %w", err)
	}
	analysis.Status = StatusCompleted

	duration := time.Since(startTime)
	s.logger.Info("ingest completed",
		"analysisID", analysis.ID,
		"videoID", analysis.VideoID,
		"chunks", len(chunks),
		"duration", duration,
	)

	return &IngestResult{
		Analysis:   analysis,
		ChunkCount: len(chunks),
		Duration:   duration,
	}, nil
}

// acquireTranscript はキャッシュを確認してからトランスクリプトを取得する
func (s *IngestService) acquireTranscript(ctx context.Context, rawURL string) (*transcript.Result, error) {
	videoID, err := transcript.ExtractVideoID(rawURL)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, videoID)
		if err != nil {
			s.logger.Warn("transcript cache lookup failed", "videoID", videoID, "error", err)
		} else if result, ok := cached.Get(); ok {
			s.logger.Info("transcript cache hit", "videoID", videoID)
			return result, nil
		}
	}

	result, err := s.acquirer.Acquire(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, videoID, result); err != nil {
			s.logger.Warn("transcript cache store failed", "videoID", videoID, "error", err)
		}
	}

	return result, nil
}

// embedAndStoreChunks はチャンクを並列にEmbeddingして保存する
// 並列数は concurrency で制限し、チャンクの元インデックスは完了順に関係なく保持する
func (s *IngestService) embedAndStoreChunks(ctx context.Context, analysis *VideoAnalysis, chunks []string) error {
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(s.concurrency)

	for i, content := range chunks {
		group.Go(func() error {
			embedding, err := s.embedder.Embed(groupCtx, content)
			if err != nil {
				return fmt.Errorf("failed to embed chunk %d: %w", i, err)
			}

			chunk := &TranscriptChunk{
				AnalysisID: analysis.ID,
				Index:      i,
				Content:    content,
				Embedding:  embedding,
			}
			if err := s.repo.CreateChunk(groupCtx, chunk); err != nil {
				return fmt.Errorf("failed to store chunk %d: %w", i, err)
			}
			return nil
		})
	}

	return group.Wait()
}
