package youtube

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jinford/tube-rag/internal/core/transcript"
)

// DefaultDownloadTimeout は動画1本の音声ダウンロードに許容する時間
const DefaultDownloadTimeout = 5 * time.Minute

// unavailableMarkers は yt-dlp の出力から動画アクセス不可を検出するための文字列
var unavailableMarkers = []string{
	"Private video",
	"Sign in to confirm your age",
	"Video unavailable",
	"not available in your country",
}

// Downloader は yt-dlp を使って動画の音声トラックをダウンロードする
type Downloader struct {
	runner  CommandRunner
	ytdlp   string
	timeout time.Duration
	logger  *slog.Logger
}

// DownloaderOption は Downloader のオプション設定
type DownloaderOption func(*Downloader)

// WithDownloadTimeout はダウンロードのタイムアウトを上書きする
func WithDownloadTimeout(timeout time.Duration) DownloaderOption {
	return func(d *Downloader) {
		d.timeout = timeout
	}
}

// WithDownloaderLogger は Downloader にロガーを設定する
func WithDownloaderLogger(logger *slog.Logger) DownloaderOption {
	return func(d *Downloader) {
		d.logger = logger
	}
}

// NewDownloader は新しい Downloader を作成する
// ytdlpPath は yt-dlp 実行ファイルのパス（PATH上の名前でもよい）
func NewDownloader(runner CommandRunner, ytdlpPath string, opts ...DownloaderOption) *Downloader {
	d := &Downloader{
		runner:  runner,
		ytdlp:   ytdlpPath,
		timeout: DefaultDownloadTimeout,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}
	return d
}

// Download は最良の音声トラックをmp3として destDir に保存する
func (d *Downloader) Download(ctx context.Context, videoID, destDir string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	outPath := filepath.Join(destDir, videoID+".mp3")
	args := []string{
		"--no-playlist",
		"-f", "bestaudio",
		"-x", "--audio-format", "mp3",
		"-o", filepath.Join(destDir, videoID+".%(ext)s"),
		transcript.WatchURL(videoID),
	}

	d.logger.Debug("downloading audio", "videoID", videoID, "dest", outPath)

	output, err := d.runner.Run(ctx, d.ytdlp, args...)
	if err != nil {
		if marker := findUnavailableMarker(string(output)); marker != "" {
			return "", fmt.Errorf("%w: %s", transcript.ErrVideoUnavailable, marker)
		}
		return "", fmt.Errorf("yt-dlp failed: %w: %s", err, truncateOutput(output))
	}

	if _, err := os.Stat(outPath); err != nil {
		return "", fmt.Errorf("yt-dlp did not produce expected file %s: %w", outPath, err)
	}

	return outPath, nil
}

func findUnavailableMarker(output string) string {
	for _, marker := range unavailableMarkers {
		if strings.Contains(output, marker) {
			return marker
		}
	}
	return ""
}

// truncateOutput はエラーメッセージに載せるコマンド出力を末尾だけに切り詰める
func truncateOutput(output []byte) string {
	const maxLen = 512
	s := strings.TrimSpace(string(output))
	if len(s) <= maxLen {
		return s
	}
	return "..." + s[len(s)-maxLen:]
}

// インターフェース実装の確認
var _ transcript.AudioDownloader = (*Downloader)(nil)
