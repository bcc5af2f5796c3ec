package youtube

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jinford/tube-rag/internal/core/transcript"
)

// DefaultSplitTimeout は音声分割コマンドに許容する時間
const DefaultSplitTimeout = 2 * time.Minute

// Processor は ffmpeg / ffprobe による音声ファイルの計測と分割を行う
type Processor struct {
	runner  CommandRunner
	ffmpeg  string
	ffprobe string
	timeout time.Duration
}

// ProcessorOption は Processor のオプション設定
type ProcessorOption func(*Processor)

// WithSplitTimeout は分割コマンドのタイムアウトを上書きする
func WithSplitTimeout(timeout time.Duration) ProcessorOption {
	return func(p *Processor) {
		p.timeout = timeout
	}
}

// NewProcessor は新しい Processor を作成する
func NewProcessor(runner CommandRunner, ffmpegPath, ffprobePath string, opts ...ProcessorOption) *Processor {
	p := &Processor{
		runner:  runner,
		ffmpeg:  ffmpegPath,
		ffprobe: ffprobePath,
		timeout: DefaultSplitTimeout,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Duration は ffprobe で音声ファイルの実測長を返す
func (p *Processor) Duration(ctx context.Context, path string) (time.Duration, error) {
	output, err := p.runner.Run(ctx, p.ffprobe,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	if err != nil {
		return 0, fmt.Errorf("ffprobe failed: %w: %s", err, truncateOutput(output))
	}

	seconds, err := strconv.ParseFloat(strings.TrimSpace(string(output)), 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse ffprobe duration %q: %w", strings.TrimSpace(string(output)), err)
	}

	return time.Duration(seconds * float64(time.Second)), nil
}

// Split は音声を window 長の連続チャンクに分割し、各チャンクの実測長を添えて返す
// 最後のチャンクは window より短くてよい
func (p *Processor) Split(ctx context.Context, path string, window time.Duration, destDir string) ([]transcript.AudioChunk, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	pattern := filepath.Join(destDir, "chunk-%03d"+filepath.Ext(path))
	output, err := p.runner.Run(ctx, p.ffmpeg,
		"-i", path,
		"-f", "segment",
		"-segment_time", strconv.FormatFloat(window.Seconds(), 'f', -1, 64),
		"-c", "copy",
		pattern,
	)
	if err != nil {
		return nil, fmt.Errorf("ffmpeg segment failed: %w: %s", err, truncateOutput(output))
	}

	paths, err := filepath.Glob(filepath.Join(destDir, "chunk-*"+filepath.Ext(path)))
	if err != nil {
		return nil, fmt.Errorf("failed to list audio chunks: %w", err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("ffmpeg produced no chunks for %s", path)
	}

	// chunk-000, chunk-001, ... の連番順に処理する
	sort.Strings(paths)

	chunks := make([]transcript.AudioChunk, 0, len(paths))
	for _, chunkPath := range paths {
		duration, err := p.Duration(ctx, chunkPath)
		if err != nil {
			// 実測できない場合は名目のウィンドウ長で代用する
			duration = window
		}
		chunks = append(chunks, transcript.AudioChunk{
			Path:     chunkPath,
			Duration: duration,
		})
	}

	return chunks, nil
}

// インターフェース実装の確認
var _ transcript.AudioProcessor = (*Processor)(nil)
