package httpapi

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/samber/mo"

	"github.com/jinford/tube-rag/internal/core/ingest"
	"github.com/jinford/tube-rag/internal/core/qa"
	"github.com/jinford/tube-rag/internal/core/search"
)

// Ingester は動画取り込みのインターフェース
type Ingester interface {
	Ingest(ctx context.Context, rawURL, userID string) (*ingest.IngestResult, error)
}

// Asker は質問応答のインターフェース
type Asker interface {
	Ask(ctx context.Context, params qa.AskParams) (*qa.Answer, error)
}

// Searcher はチャンク検索のインターフェース
type Searcher interface {
	SemanticSearch(ctx context.Context, analysisID uuid.UUID, query string, limit int) ([]*search.Result, error)
}

// AnalysisReader は解析レコード読み出しのインターフェース
type AnalysisReader interface {
	FindAnalysis(ctx context.Context, id uuid.UUID) (mo.Option[*ingest.VideoAnalysis], error)
	ListAnalyses(ctx context.Context) ([]*ingest.VideoAnalysis, error)
}

// Server は取り込み・検索・QAを公開するHTTPサーバー
type Server struct {
	httpServer *http.Server
	router     *http.ServeMux

	ingester Ingester
	asker    Asker
	searcher Searcher
	analyses AnalysisReader

	logger *slog.Logger
}

// ServerOption は Server のオプション設定
type ServerOption func(*Server)

// WithServerLogger はロガーを設定する
func WithServerLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer は新しい Server を作成する
func NewServer(
	port int,
	ingester Ingester,
	asker Asker,
	searcher Searcher,
	analyses AnalysisReader,
	opts ...ServerOption,
) *Server {
	s := &Server{
		router:   http.NewServeMux(),
		ingester: ingester,
		asker:    asker,
		searcher: searcher,
		analyses: analyses,
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.routes()

	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: s.router,
		// 音声フォールバック経由の取り込みは長時間かかるため書き込み側は長め
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	return s
}

func (s *Server) routes() {
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("POST /api/videos", s.handleIngest)
	s.router.HandleFunc("GET /api/analyses", s.handleListAnalyses)
	s.router.HandleFunc("GET /api/analyses/{id}", s.handleGetAnalysis)
	s.router.HandleFunc("GET /api/analyses/{id}/search", s.handleSearch)
	s.router.HandleFunc("POST /api/analyses/{id}/questions", s.handleAsk)
}

// Start はHTTPサーバーを起動する（ブロッキング）
func (s *Server) Start() error {
	s.logger.Info("starting http server", slog.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server error: %w", err)
	}
	return nil
}

// Shutdown はサーバーをGracefulに停止する
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.httpServer.Shutdown(ctx)
}

// Handler はテスト用にルーターを公開する
func (s *Server) Handler() http.Handler {
	return s.router
}
