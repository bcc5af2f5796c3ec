package qa

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/pkoukk/tiktoken-go"

	"github.com/jinford/tube-rag/internal/core/ingest"
	"github.com/jinford/tube-rag/internal/core/search"
)

const (
	// DefaultScoreThreshold はチャンク採用のデフォルト類似度しきい値
	DefaultScoreThreshold = 0.7

	// DefaultTopChunks はスコア上位から検討するチャンク数
	DefaultTopChunks = 5

	// DefaultContextTokenLimit はコンテキストに渡すトークン数の上限
	DefaultContextTokenLimit = 6000

	// NoRelevantContentAnswer はしきい値を超えるチャンクが無い場合の定型回答
	// LLMは呼ばない（コスト削減とハルシネーション回避のため）。これはエラーではなく正常応答
	NoRelevantContentAnswer = "このトランスクリプトの中に、質問に関連する内容は見つかりませんでした。別の質問を試してください。"
)

// LLMClient はチャット補完のインターフェース
type LLMClient interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// TokenEncoder はコンテキスト切り詰めに使うトークナイザのインターフェース
// *tiktoken.Tiktoken が満たす
type TokenEncoder interface {
	Encode(text string, allowedSpecial, disallowedSpecial []string) []int
}

// Searcher はチャンク類似検索のインターフェース
type Searcher interface {
	SemanticSearch(ctx context.Context, analysisID uuid.UUID, query string, limit int) ([]*search.Result, error)
}

// QuestionStore は質問応答履歴の永続化インターフェース（ingest.Repository のサブセット）
type QuestionStore interface {
	CreateQuestion(ctx context.Context, record *ingest.QuestionRecord) error
}

// QAService はトランスクリプトに接地した質問応答を提供する
type QAService struct {
	searcher   Searcher
	store      QuestionStore
	llm        LLMClient
	encoder    TokenEncoder
	threshold  float64
	topChunks  int
	tokenLimit int
	logger     *slog.Logger
}

type qaServiceOptions struct {
	threshold  float64
	topChunks  int
	tokenLimit int
	encoder    TokenEncoder
	logger     *slog.Logger
}

// QAServiceOption は QAService のオプション設定
type QAServiceOption func(*qaServiceOptions)

// WithQALogger は QAService にロガーを設定する
func WithQALogger(logger *slog.Logger) QAServiceOption {
	return func(o *qaServiceOptions) {
		o.logger = logger
	}
}

// WithScoreThreshold は類似度しきい値を上書きする
func WithScoreThreshold(threshold float64) QAServiceOption {
	return func(o *qaServiceOptions) {
		o.threshold = threshold
	}
}

// WithTopChunks は検討するチャンク数の上限を上書きする
func WithTopChunks(n int) QAServiceOption {
	return func(o *qaServiceOptions) {
		o.topChunks = n
	}
}

// WithContextTokenLimit はコンテキストのトークン上限を上書きする
func WithContextTokenLimit(n int) QAServiceOption {
	return func(o *qaServiceOptions) {
		o.tokenLimit = n
	}
}

// WithTokenEncoder はトークナイザを差し替える
func WithTokenEncoder(encoder TokenEncoder) QAServiceOption {
	return func(o *qaServiceOptions) {
		o.encoder = encoder
	}
}

// NewQAService は新しい QAService を作成する
func NewQAService(
	searcher Searcher,
	store QuestionStore,
	llm LLMClient,
	opts ...QAServiceOption,
) (*QAService, error) {
	options := qaServiceOptions{
		threshold:  DefaultScoreThreshold,
		topChunks:  DefaultTopChunks,
		tokenLimit: DefaultContextTokenLimit,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(&options)
	}
	if options.logger == nil {
		options.logger = slog.Default()
	}

	if options.encoder == nil {
		// cl100k_baseエンコーダを使用（text-embedding-3-small / gpt-4o系と互換）
		encoder, err := tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return nil, fmt.Errorf("failed to get tiktoken encoder: %w", err)
		}
		options.encoder = encoder
	}

	return &QAService{
		searcher:   searcher,
		store:      store,
		llm:        llm,
		encoder:    options.encoder,
		threshold:  options.threshold,
		topChunks:  options.topChunks,
		tokenLimit: options.tokenLimit,
		logger:     options.logger,
	}, nil
}

// Ask は質問をEmbeddingし、類似チャンクに接地した回答を生成して履歴に記録する
// チャンクが1件も無い解析に対しては search.ErrNoContentIndexed を返す
func (s *QAService) Ask(ctx context.Context, params AskParams) (*Answer, error) {
	if params.Question == "" {
		return nil, fmt.Errorf("question is required")
	}

	// 質問のEmbeddingはチャンクと同じモデルで行われる（Searcherの実装が保証する）
	results, err := s.searcher.SemanticSearch(ctx, params.AnalysisID, params.Question, s.topChunks)
	if err != nil {
		return nil, err
	}

	// しきい値を厳密に超えるものだけを採用する
	kept := make([]*search.Result, 0, len(results))
	for _, result := range results {
		if result.Score > s.threshold {
			kept = append(kept, result)
		}
	}

	s.logger.Info("chunks ranked",
		"analysisID", params.AnalysisID,
		"candidates", len(results),
		"kept", len(kept),
		"threshold", s.threshold,
	)

	answer := &Answer{Question: params.Question}

	if len(kept) == 0 {
		answer.Answer = NoRelevantContentAnswer
	} else {
		contextText := BuildContext(kept, s.encoder, s.tokenLimit)
		userPrompt := BuildUserPrompt(contextText, params.Question)

		generated, err := s.llm.Complete(ctx, SystemPrompt, userPrompt)
		if err != nil {
			return nil, fmt.Errorf("failed to generate answer: %w", err)
		}
		if generated == "" {
			return nil, fmt.Errorf("LLM returned empty answer")
		}

		answer.Answer = generated
		answer.Confidence = kept[0].Score
		for _, result := range kept {
			answer.Citations = append(answer.Citations, Citation{
				ChunkIndex: result.Chunk.Index,
				Score:      result.Score,
				Excerpt:    excerpt(result.Chunk.Content, 120),
			})
		}
	}

	record := &ingest.QuestionRecord{
		AnalysisID: params.AnalysisID,
		Question:   params.Question,
		Answer:     answer.Answer,
	}
	if err := s.store.CreateQuestion(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to store question record: %w", err)
	}

	s.logger.Info("question answered",
		"analysisID", params.AnalysisID,
		"answerLength", len(answer.Answer),
		"citations", len(answer.Citations),
	)

	return answer, nil
}

// excerpt は文字列の先頭 n 文字（rune単位）を返す
func excerpt(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "…"
}
