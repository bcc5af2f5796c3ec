package transcript

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"
)

// AudioDownloader は動画の音声トラックのダウンロードインターフェース
type AudioDownloader interface {
	// Download は音声を destDir 配下に保存し、ファイルパスを返す
	Download(ctx context.Context, videoID, destDir string) (string, error)
}

// AudioChunk は分割された音声ファイル1つを表す
type AudioChunk struct {
	Path     string
	Duration time.Duration // ffprobeで実測した長さ
}

// AudioProcessor は音声ファイルの長さ計測・分割インターフェース
type AudioProcessor interface {
	// Duration は音声ファイルの長さを返す
	Duration(ctx context.Context, path string) (time.Duration, error)
	// Split は音声を window 長の連続チャンクに分割する
	Split(ctx context.Context, path string, window time.Duration, destDir string) ([]AudioChunk, error)
}

// Transcriber は音声文字起こしプロバイダのインターフェース
type Transcriber interface {
	Transcribe(ctx context.Context, path string) (*Transcription, error)
}

// DefaultSafeWindow は文字起こしプロバイダに1リクエストで渡せる安全な音声長
const DefaultSafeWindow = 29 * time.Second

// AudioStrategy は音声ダウンロード + 文字起こしによるトランスクリプト取得戦略
// 字幕が存在しない動画や、多言語の高精度な文字起こしが必要な場合に使う
type AudioStrategy struct {
	downloader  AudioDownloader
	processor   AudioProcessor
	transcriber Transcriber
	tmpDir      string
	window      time.Duration
	logger      *slog.Logger
}

// AudioStrategyOption は AudioStrategy のオプション設定
type AudioStrategyOption func(*AudioStrategy)

// WithAudioTmpDir は一時ファイルの置き場所を設定する
func WithAudioTmpDir(dir string) AudioStrategyOption {
	return func(s *AudioStrategy) {
		s.tmpDir = dir
	}
}

// WithAudioWindow は1リクエストあたりの音声長の上限を上書きする
func WithAudioWindow(window time.Duration) AudioStrategyOption {
	return func(s *AudioStrategy) {
		s.window = window
	}
}

// WithAudioLogger は AudioStrategy にロガーを設定する
func WithAudioLogger(logger *slog.Logger) AudioStrategyOption {
	return func(s *AudioStrategy) {
		s.logger = logger
	}
}

// NewAudioStrategy は新しい AudioStrategy を作成する
func NewAudioStrategy(
	downloader AudioDownloader,
	processor AudioProcessor,
	transcriber Transcriber,
	opts ...AudioStrategyOption,
) *AudioStrategy {
	s := &AudioStrategy{
		downloader:  downloader,
		processor:   processor,
		transcriber: transcriber,
		window:      DefaultSafeWindow,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Name は戦略の識別名を返す
func (s *AudioStrategy) Name() string {
	return "audio"
}

// Acquire は音声をダウンロードして文字起こしする
// 音声長が安全ウィンドウを超える場合はチャンク分割し、チャンク単位の失敗はスキップする
// 一時ファイルは成否にかかわらず必ず削除される
func (s *AudioStrategy) Acquire(ctx context.Context, videoID string) (*Payload, error) {
	workDir, err := os.MkdirTemp(s.tmpDir, "tuberag-audio-")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer func() {
		if rmErr := os.RemoveAll(workDir); rmErr != nil {
			s.logger.Warn("failed to clean up temp dir", "dir", workDir, "error", rmErr)
		}
	}()

	audioPath, err := s.downloader.Download(ctx, videoID, workDir)
	if err != nil {
		if errors.Is(err, ErrVideoUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrAudioDownloadFailed, err)
	}

	duration, err := s.processor.Duration(ctx, audioPath)
	if err != nil {
		// 長さが測れない場合は分割せず1回で試す
		s.logger.Warn("failed to probe audio duration, transcribing whole file", "videoID", videoID, "error", err)
		duration = 0
	}

	if duration > 0 && duration > s.window {
		return s.transcribeChunked(ctx, videoID, audioPath, workDir)
	}

	result, err := s.transcriber.Transcribe(ctx, audioPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTranscriptionFailed, err)
	}
	return &Payload{
		Text:     strings.TrimSpace(result.Text),
		Segments: result.Segments,
	}, nil
}

// transcribeChunked は音声をウィンドウ長で分割し、チャンク単位で文字起こしして結合する
// 失敗したチャンクはスキップするが、タイムスタンプのオフセットは進め続ける
func (s *AudioStrategy) transcribeChunked(ctx context.Context, videoID, audioPath, workDir string) (*Payload, error) {
	chunks, err := s.processor.Split(ctx, audioPath, s.window, workDir)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to split audio: %v", ErrTranscriptionFailed, err)
	}

	var (
		texts    []string
		segments []Segment
		offset   float64
	)

	for i, chunk := range chunks {
		result, err := s.transcriber.Transcribe(ctx, chunk.Path)
		if err != nil {
			// 1チャンク欠けても残りのトランスクリプトには価値があるため中断しない
			s.logger.Warn("skipping failed audio chunk",
				"videoID", videoID,
				"chunk", i,
				"error", err,
			)
			offset += chunk.Duration.Seconds()
			continue
		}

		if text := strings.TrimSpace(result.Text); text != "" {
			texts = append(texts, text)
		}

		for _, seg := range result.Segments {
			seg.Start += offset
			seg.End += offset
			segments = append(segments, seg)
		}

		// プロバイダが実測長を返す場合はそちらを優先する
		// （無音トリムにより名目のウィンドウ長とずれることがある）
		advance := chunk.Duration.Seconds()
		if result.Duration > 0 {
			advance = result.Duration
		}
		offset += advance
	}

	if len(texts) == 0 {
		return nil, fmt.Errorf("%w: all %d chunks failed", ErrTranscriptionFailed, len(chunks))
	}

	return &Payload{
		Text:     strings.Join(texts, " "),
		Segments: segments,
	}, nil
}

var _ Strategy = (*AudioStrategy)(nil)
