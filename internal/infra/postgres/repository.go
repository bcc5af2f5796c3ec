package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	pgvector "github.com/pgvector/pgvector-go"
	"github.com/samber/mo"

	"github.com/jinford/tube-rag/internal/core/ingest"
)

// DBTX はクエリ実行に必要な最小のデータベースインターフェース
// *pgxpool.Pool と pgx.Tx の両方が満たす
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository は ingest.Repository を実装する PostgreSQL リポジトリです
// チャンクのEmbeddingは pgvector の vector 型で保存する
type Repository struct {
	db DBTX
}

// NewRepository は新しい Repository を作成します
func NewRepository(db DBTX) *Repository {
	return &Repository{db: db}
}

// コンパイル時の型チェック
var _ ingest.Repository = (*Repository)(nil)

// === VideoAnalysis ===

func (r *Repository) CreateAnalysis(ctx context.Context, analysis *ingest.VideoAnalysis) error {
	row := r.db.QueryRow(ctx, `
		INSERT INTO video_analyses (video_id, title, channel_name, url, transcript, status, user_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`,
		analysis.VideoID,
		analysis.Title,
		analysis.ChannelName,
		analysis.URL,
		analysis.Transcript,
		string(analysis.Status),
		analysis.UserID,
	)

	var (
		id        pgtype.UUID
		createdAt pgtype.Timestamp
		updatedAt pgtype.Timestamp
	)
	if err := row.Scan(&id, &createdAt, &updatedAt); err != nil {
		return fmt.Errorf("failed to create analysis: %w", err)
	}

	analysis.ID = PgtypeToUUID(id)
	analysis.CreatedAt = PgtypeToTime(createdAt)
	analysis.UpdatedAt = PgtypeToTime(updatedAt)
	return nil
}

func (r *Repository) UpdateAnalysisStatus(ctx context.Context, id uuid.UUID, status ingest.Status) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE video_analyses SET status = $2, updated_at = now() WHERE id = $1`,
		UUIDToPgtype(id),
		string(status),
	)
	if err != nil {
		return fmt.Errorf("failed to update analysis status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("analysis not found: %s", id)
	}
	return nil
}

func (r *Repository) FindAnalysis(ctx context.Context, id uuid.UUID) (mo.Option[*ingest.VideoAnalysis], error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, video_id, title, channel_name, url, transcript, status, user_id, created_at, updated_at
		FROM video_analyses WHERE id = $1`,
		UUIDToPgtype(id),
	)

	analysis, err := scanAnalysis(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return mo.None[*ingest.VideoAnalysis](), nil
		}
		return mo.None[*ingest.VideoAnalysis](), fmt.Errorf("failed to get analysis: %w", err)
	}

	return mo.Some(analysis), nil
}

func (r *Repository) ListAnalyses(ctx context.Context) ([]*ingest.VideoAnalysis, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, video_id, title, channel_name, url, transcript, status, user_id, created_at, updated_at
		FROM video_analyses ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list analyses: %w", err)
	}
	defer rows.Close()

	var analyses []*ingest.VideoAnalysis
	for rows.Next() {
		analysis, err := scanAnalysis(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan analysis: %w", err)
		}
		analyses = append(analyses, analysis)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list analyses: %w", err)
	}

	return analyses, nil
}

func scanAnalysis(row pgx.Row) (*ingest.VideoAnalysis, error) {
	var (
		analysis  ingest.VideoAnalysis
		id        pgtype.UUID
		status    string
		createdAt pgtype.Timestamp
		updatedAt pgtype.Timestamp
	)
	if err := row.Scan(
		&id,
		&analysis.VideoID,
		&analysis.Title,
		&analysis.ChannelName,
		&analysis.URL,
		&analysis.Transcript,
		&status,
		&analysis.UserID,
		&createdAt,
		&updatedAt,
	); err != nil {
		return nil, err
	}

	analysis.ID = PgtypeToUUID(id)
	analysis.Status = ingest.Status(status)
	analysis.CreatedAt = PgtypeToTime(createdAt)
	analysis.UpdatedAt = PgtypeToTime(updatedAt)
	return &analysis, nil
}

// === TranscriptChunk ===

func (r *Repository) CreateChunk(ctx context.Context, chunk *ingest.TranscriptChunk) error {
	row := r.db.QueryRow(ctx, `
		INSERT INTO transcript_chunks (analysis_id, chunk_index, content, embedding)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		UUIDToPgtype(chunk.AnalysisID),
		chunk.Index,
		chunk.Content,
		pgvector.NewVector(chunk.Embedding),
	)

	var id pgtype.UUID
	if err := row.Scan(&id); err != nil {
		return fmt.Errorf("failed to create chunk: %w", err)
	}

	chunk.ID = PgtypeToUUID(id)
	return nil
}

func (r *Repository) GetChunks(ctx context.Context, analysisID uuid.UUID) ([]*ingest.TranscriptChunk, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, analysis_id, chunk_index, content, embedding
		FROM transcript_chunks WHERE analysis_id = $1 ORDER BY chunk_index`,
		UUIDToPgtype(analysisID),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get chunks: %w", err)
	}
	defer rows.Close()

	var chunks []*ingest.TranscriptChunk
	for rows.Next() {
		var (
			chunk      ingest.TranscriptChunk
			id         pgtype.UUID
			analysisID pgtype.UUID
			embedding  pgvector.Vector
		)
		if err := rows.Scan(&id, &analysisID, &chunk.Index, &chunk.Content, &embedding); err != nil {
			return nil, fmt.Errorf("failed to scan chunk: %w", err)
		}

		chunk.ID = PgtypeToUUID(id)
		chunk.AnalysisID = PgtypeToUUID(analysisID)
		chunk.Embedding = embedding.Slice()
		chunks = append(chunks, &chunk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to get chunks: %w", err)
	}

	return chunks, nil
}

// === QuestionRecord ===

func (r *Repository) CreateQuestion(ctx context.Context, record *ingest.QuestionRecord) error {
	row := r.db.QueryRow(ctx, `
		INSERT INTO question_records (analysis_id, question, answer)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`,
		UUIDToPgtype(record.AnalysisID),
		record.Question,
		record.Answer,
	)

	var (
		id        pgtype.UUID
		createdAt pgtype.Timestamp
	)
	if err := row.Scan(&id, &createdAt); err != nil {
		return fmt.Errorf("failed to create question record: %w", err)
	}

	record.ID = PgtypeToUUID(id)
	record.CreatedAt = PgtypeToTime(createdAt)
	return nil
}

func (r *Repository) ListQuestions(ctx context.Context, analysisID uuid.UUID) ([]*ingest.QuestionRecord, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, analysis_id, question, answer, created_at
		FROM question_records WHERE analysis_id = $1 ORDER BY created_at`,
		UUIDToPgtype(analysisID),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list question records: %w", err)
	}
	defer rows.Close()

	var records []*ingest.QuestionRecord
	for rows.Next() {
		var (
			record     ingest.QuestionRecord
			id         pgtype.UUID
			analysisID pgtype.UUID
			createdAt  pgtype.Timestamp
		)
		if err := rows.Scan(&id, &analysisID, &record.Question, &record.Answer, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan question record: %w", err)
		}

		record.ID = PgtypeToUUID(id)
		record.AnalysisID = PgtypeToUUID(analysisID)
		record.CreatedAt = PgtypeToTime(createdAt)
		records = append(records, &record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list question records: %w", err)
	}

	return records, nil
}
