package ingest

import (
	"context"

	"github.com/google/uuid"
	"github.com/samber/mo"
)

// Repository は解析・チャンク・質問履歴の永続化インターフェース
// 実装は internal/infra/postgres にある
type Repository interface {
	// CreateAnalysis は解析レコードを作成し、IDとタイムスタンプを採番する
	CreateAnalysis(ctx context.Context, analysis *VideoAnalysis) error

	// UpdateAnalysisStatus は処理状態を更新する（前進遷移のみ）
	UpdateAnalysisStatus(ctx context.Context, id uuid.UUID, status Status) error

	// FindAnalysis は解析レコードを返す。存在しない場合は None
	FindAnalysis(ctx context.Context, id uuid.UUID) (mo.Option[*VideoAnalysis], error)

	// ListAnalyses は解析レコードを作成日時の降順で返す
	ListAnalyses(ctx context.Context) ([]*VideoAnalysis, error)

	// CreateChunk はチャンクを作成する。(analysisID, index) は一意
	CreateChunk(ctx context.Context, chunk *TranscriptChunk) error

	// GetChunks は解析のチャンクをインデックス昇順で返す（Embeddingを含む）
	GetChunks(ctx context.Context, analysisID uuid.UUID) ([]*TranscriptChunk, error)

	// CreateQuestion は質問応答履歴を追記する
	CreateQuestion(ctx context.Context, record *QuestionRecord) error

	// ListQuestions は解析の質問履歴を作成日時の昇順で返す
	ListQuestions(ctx context.Context, analysisID uuid.UUID) ([]*QuestionRecord, error)
}
