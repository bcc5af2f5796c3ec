package ingest

import (
	"time"

	"github.com/google/uuid"
)

// Status は解析レコードの処理状態を表す
// 遷移は前進のみで、completed / error から戻ることはない
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusError      Status = "error"
)

// VideoAnalysis は1動画ぶんの取り込み結果を表す永続化レコード
// completed になった時点でトランスクリプトは非空かつ不変
type VideoAnalysis struct {
	ID          uuid.UUID
	VideoID     string
	Title       string
	ChannelName string
	URL         string
	Transcript  string
	Status      Status
	UserID      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TranscriptChunk はEmbedding済みのトランスクリプト断片を表す
// Index は解析内で一意かつ連続で、復元順序を定義する
type TranscriptChunk struct {
	ID         uuid.UUID
	AnalysisID uuid.UUID
	Index      int
	Content    string
	Embedding  []float32
}

// QuestionRecord は質問応答履歴の1件を表す（追記専用）
type QuestionRecord struct {
	ID         uuid.UUID
	AnalysisID uuid.UUID
	Question   string
	Answer     string
	CreatedAt  time.Time
}

// IngestResult は取り込み処理の結果サマリを表す
type IngestResult struct {
	Analysis   *VideoAnalysis
	ChunkCount int
	Duration   time.Duration
}
