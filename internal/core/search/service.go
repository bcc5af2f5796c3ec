package search

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/jinford/tube-rag/internal/core/ingest"
)

// ErrNoContentIndexed はチャンクが1件も保存されていない解析に対する検索エラー
var ErrNoContentIndexed = errors.New("no content indexed for this analysis")

// DefaultLimit は limit 未指定時の検索結果件数
const DefaultLimit = 10

// Repository はチャンク読み出しのインターフェース（ingest.Repository のサブセット）
type Repository interface {
	GetChunks(ctx context.Context, analysisID uuid.UUID) ([]*ingest.TranscriptChunk, error)
}

// Embedder はクエリのEmbedding生成インターフェース
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Result はスコア付きの検索結果1件を表す
type Result struct {
	Chunk *ingest.TranscriptChunk
	Score float64
}

// SearchService は保存済みチャンクに対するベクトル類似検索を提供する
type SearchService struct {
	repo     Repository
	embedder Embedder
}

// NewSearchService は新しい SearchService を作成する
func NewSearchService(repo Repository, embedder Embedder) *SearchService {
	return &SearchService{
		repo:     repo,
		embedder: embedder,
	}
}

// SemanticSearch はクエリをEmbeddingし、解析の全チャンクを線形走査してコサイン類似度順に返す
// チャンクと同じEmbeddingモデルを使うことが前提（モデル混在はコサイン比較を壊す）
func (s *SearchService) SemanticSearch(ctx context.Context, analysisID uuid.UUID, query string, limit int) ([]*Result, error) {
	if query == "" {
		return nil, fmt.Errorf("query is required")
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	chunks, err := s.repo.GetChunks(ctx, analysisID)
	if err != nil {
		return nil, fmt.Errorf("failed to load chunks: %w", err)
	}
	if len(chunks) == 0 {
		return nil, ErrNoContentIndexed
	}

	queryVector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	results := make([]*Result, 0, len(chunks))
	for _, chunk := range chunks {
		results = append(results, &Result{
			Chunk: chunk,
			Score: CosineSimilarity(queryVector, chunk.Embedding),
		})
	}

	// 同点は元の並び順を保持する（安定ソート）
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}
