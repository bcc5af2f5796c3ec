package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/jinford/tube-rag/internal/core/chunker"
	"github.com/jinford/tube-rag/internal/core/ingest"
	"github.com/jinford/tube-rag/internal/core/qa"
	"github.com/jinford/tube-rag/internal/core/search"
	"github.com/jinford/tube-rag/internal/core/transcript"
	openaiinfra "github.com/jinford/tube-rag/internal/infra/openai"
	"github.com/jinford/tube-rag/internal/infra/postgres"
	"github.com/jinford/tube-rag/internal/infra/rediscache"
	"github.com/jinford/tube-rag/internal/infra/whisper"
	"github.com/jinford/tube-rag/internal/infra/youtube"
	"github.com/jinford/tube-rag/internal/platform/logger"
	"github.com/jinford/tube-rag/pkg/config"
	"github.com/jinford/tube-rag/pkg/db"
)

// AppContext はコマンド実行に必要な共通コンテキストを保持する
type AppContext struct {
	Config *config.Config
	DB     *db.DB

	Repo          *postgres.Repository
	IngestService *ingest.IngestService
	SearchService *search.SearchService
	QAService     *qa.QAService

	logger      *slog.Logger
	redisClient *redis.Client
}

// NewAppContext は設定ファイルを読み込み、DBに接続して全サービスを組み立てる
func NewAppContext(ctx context.Context, envFile string) (*AppContext, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, fmt.Errorf("設定の読み込みに失敗: %w", err)
	}

	appLogger := logger.New(logger.ConfigFromEnv())

	database, err := db.New(ctx, db.ConnectionParams{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		DBName:   cfg.Database.DBName,
		SSLMode:  cfg.Database.SSLMode,
		MaxConns: cfg.Database.MaxConns,
	})
	if err != nil {
		return nil, fmt.Errorf("データベース接続に失敗: %w", err)
	}

	repo := postgres.NewRepository(database.Pool)

	embedder := openaiinfra.NewEmbedder(cfg.OpenAI.APIKey,
		openaiinfra.WithEmbeddingModel(cfg.OpenAI.EmbeddingModel),
		openaiinfra.WithEmbeddingDimension(cfg.OpenAI.EmbeddingDimension),
	)

	llmClient, err := openaiinfra.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.LLMModel)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("LLMクライアントの初期化に失敗: %w", err)
	}

	acquirer, err := buildAcquirer(cfg, appLogger)
	if err != nil {
		database.Close()
		return nil, err
	}

	textChunker, err := chunker.New()
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("チャンカーの初期化に失敗: %w", err)
	}

	ingestOpts := []ingest.IngestServiceOption{
		ingest.WithIngestLogger(appLogger),
	}

	// Redisが設定されている場合のみトランスクリプトキャッシュを有効化する
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			appLogger.Warn("redis is unreachable, transcript cache disabled", "addr", cfg.RedisAddr, "error", err)
			_ = redisClient.Close()
			redisClient = nil
		} else {
			ingestOpts = append(ingestOpts, ingest.WithTranscriptCache(rediscache.New(redisClient)))
		}
	}

	ingestService := ingest.NewIngestService(repo, acquirer, embedder, textChunker, ingestOpts...)
	searchService := search.NewSearchService(repo, embedder)

	qaService, err := qa.NewQAService(searchService, repo, llmClient,
		qa.WithQALogger(appLogger),
		qa.WithScoreThreshold(cfg.QA.ScoreThreshold),
		qa.WithTopChunks(cfg.QA.TopChunks),
	)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("QAサービスの初期化に失敗: %w", err)
	}

	return &AppContext{
		Config:        cfg,
		DB:            database,
		Repo:          repo,
		IngestService: ingestService,
		SearchService: searchService,
		QAService:     qaService,
		logger:        appLogger,
		redisClient:   redisClient,
	}, nil
}

// buildAcquirer は設定に従ってトランスクリプト取得経路を組み立てる
// captions戦略では音声フォールバックも後段に積む。audio戦略では音声のみ
func buildAcquirer(cfg *config.Config, appLogger *slog.Logger) (*transcript.Acquirer, error) {
	metadata := youtube.NewOEmbedClient()
	runner := youtube.ExecRunner{}

	audioStrategy := transcript.NewAudioStrategy(
		youtube.NewDownloader(runner, cfg.Transcript.YtDlpPath, youtube.WithDownloaderLogger(appLogger)),
		youtube.NewProcessor(runner, cfg.Transcript.FFmpegPath, cfg.Transcript.FFprobePath),
		mustWhisperClient(cfg),
		transcript.WithAudioTmpDir(cfg.Transcript.TmpDir),
		transcript.WithAudioLogger(appLogger),
	)

	var strategies []transcript.Strategy
	switch cfg.Transcript.Strategy {
	case "captions", "":
		captionStrategy := transcript.NewCaptionStrategy(
			youtube.NewCaptionClient(),
			transcript.WithCaptionLogger(appLogger),
		)
		strategies = []transcript.Strategy{captionStrategy, audioStrategy}
	case "audio":
		strategies = []transcript.Strategy{audioStrategy}
	default:
		return nil, fmt.Errorf("不明なトランスクリプト戦略: %s", cfg.Transcript.Strategy)
	}

	return transcript.NewAcquirer(metadata, strategies, transcript.WithAcquirerLogger(appLogger)), nil
}

func mustWhisperClient(cfg *config.Config) transcript.Transcriber {
	apiKey := cfg.Transcription.APIKey
	if apiKey == "" {
		// 文字起こしプロバイダのキー未設定時はOpenAIキーを流用する
		apiKey = cfg.OpenAI.APIKey
	}
	client, err := whisper.NewClient(apiKey,
		whisper.WithBaseURL(cfg.Transcription.BaseURL),
		whisper.WithModel(cfg.Transcription.Model),
	)
	if err != nil {
		// キーが完全に空の場合のみ到達する。音声フォールバック時に明示的に失敗させる
		return unavailableTranscriber{err: err}
	}
	return client
}

// unavailableTranscriber は初期化に失敗した文字起こしクライアントの代替
// Acquire時まで失敗を遅延させ、字幕のみで完結する取り込みを妨げない
type unavailableTranscriber struct {
	err error
}

func (t unavailableTranscriber) Transcribe(_ context.Context, _ string) (*transcript.Transcription, error) {
	return nil, fmt.Errorf("transcription client is not configured: %w", t.err)
}

// Close はAppContextが保持するリソースをクリーンアップする
func (ac *AppContext) Close() {
	if ac.redisClient != nil {
		_ = ac.redisClient.Close()
	}
	if ac.DB != nil {
		ac.DB.Close()
	}
}

// Logger はAppContextのロガーを返す
func (ac *AppContext) Logger() *slog.Logger {
	if ac.logger != nil {
		return ac.logger
	}
	return slog.Default()
}
