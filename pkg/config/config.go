package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config はアプリケーション全体の設定を保持します
type Config struct {
	// Database設定
	Database DatabaseConfig

	// OpenAI設定（Embeddings + 回答生成用LLM）
	OpenAI OpenAIConfig

	// 文字起こしプロバイダ設定（音声フォールバック用）
	Transcription TranscriptionConfig

	// トランスクリプト取得設定
	Transcript TranscriptConfig

	// 質問応答設定
	QA QAConfig

	// Redis設定（トランスクリプトキャッシュ、省略可）
	RedisAddr string

	// HTTPサーバ設定
	HTTPPort int
}

// DatabaseConfig はデータベース接続設定
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	MaxConns int
}

// OpenAIConfig はOpenAI API設定
type OpenAIConfig struct {
	APIKey             string
	EmbeddingModel     string
	EmbeddingDimension int
	LLMModel           string // 回答生成に使用するモデル名
}

// TranscriptionConfig は音声文字起こしプロバイダの設定
type TranscriptionConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// TranscriptConfig はトランスクリプト取得経路の設定
type TranscriptConfig struct {
	// Strategy は取得戦略（"captions" または "audio"）
	Strategy string
	// YtDlpPath は yt-dlp 実行ファイルのパス
	YtDlpPath string
	// FFmpegPath は ffmpeg 実行ファイルのパス
	FFmpegPath string
	// FFprobePath は ffprobe 実行ファイルのパス
	FFprobePath string
	// TmpDir は音声一時ファイルの置き場所（空の場合はOSのtempを使用）
	TmpDir string
}

// QAConfig は質問応答のチューニング設定
type QAConfig struct {
	// ScoreThreshold はチャンク採用の類似度しきい値
	ScoreThreshold float64
	// TopChunks はコンテキストに採用するチャンク数の上限
	TopChunks int
}

// Load は環境変数または.envファイルから設定を読み込みます
func Load(envFilePath string) (*Config, error) {
	// .envファイルが存在する場合は読み込む
	if envFilePath != "" {
		if err := godotenv.Load(envFilePath); err != nil {
			// ファイルが存在しない場合はエラーとしない（環境変数のみで動作可能）
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to load .env file: %w", err)
			}
		}
	}

	cfg := &Config{
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "tuberag"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "tuberag"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			MaxConns: getEnvAsInt("DB_MAX_CONNS", 8),
		},
		OpenAI: OpenAIConfig{
			APIKey:             getEnv("OPENAI_API_KEY", ""),
			EmbeddingModel:     getEnv("OPENAI_EMBEDDING_MODEL", "text-embedding-3-small"),
			EmbeddingDimension: getEnvAsInt("OPENAI_EMBEDDING_DIMENSION", 1536),
			LLMModel:           getEnv("OPENAI_LLM_MODEL", "gpt-4o-mini"),
		},
		Transcription: TranscriptionConfig{
			APIKey:  getEnv("TRANSCRIPTION_API_KEY", ""),
			BaseURL: getEnv("TRANSCRIPTION_BASE_URL", "https://api.openai.com/v1"),
			Model:   getEnv("TRANSCRIPTION_MODEL", "whisper-1"),
		},
		Transcript: TranscriptConfig{
			Strategy:    getEnv("TRANSCRIPT_STRATEGY", "captions"),
			YtDlpPath:   getEnv("YTDLP_PATH", "yt-dlp"),
			FFmpegPath:  getEnv("FFMPEG_PATH", "ffmpeg"),
			FFprobePath: getEnv("FFPROBE_PATH", "ffprobe"),
			TmpDir:      getEnv("TRANSCRIPT_TMP_DIR", ""),
		},
		QA: QAConfig{
			ScoreThreshold: getEnvAsFloat("QA_SCORE_THRESHOLD", 0.7),
			TopChunks:      getEnvAsInt("QA_TOP_CHUNKS", 5),
		},
		RedisAddr: getEnv("REDIS_ADDR", ""),
		HTTPPort:  getEnvAsInt("HTTP_PORT", 8080),
	}

	return cfg, nil
}

// getEnv は環境変数を取得し、存在しない場合はデフォルト値を返します
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt は環境変数を整数として取得します
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsFloat は環境変数を浮動小数点数として取得します
func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}
