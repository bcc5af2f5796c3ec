package transcript

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Payload は取得戦略が返すトランスクリプト本体を表す
type Payload struct {
	Text     string
	Segments []Segment
}

// Strategy はトランスクリプト取得戦略のインターフェース
// 戦略は順番に試行され、最初に成功したものの結果が採用される
type Strategy interface {
	// Name は戦略の識別名を返す
	Name() string
	// Acquire は動画IDからトランスクリプトを取得する
	Acquire(ctx context.Context, videoID string) (*Payload, error)
}

// MetadataProvider は動画メタデータの取得インターフェース
type MetadataProvider interface {
	Metadata(ctx context.Context, videoID string) (*VideoInfo, error)
}

const (
	// PlaceholderTitle はタイトルが取得できなかった場合の代替値
	PlaceholderTitle = "Unknown Title"
	// PlaceholderChannel はチャンネル名が取得できなかった場合の代替値
	PlaceholderChannel = "Unknown Channel"
)

// Acquirer はURLからトランスクリプトと動画メタデータを取得する
type Acquirer struct {
	strategies []Strategy
	metadata   MetadataProvider
	logger     *slog.Logger
}

// AcquirerOption は Acquirer のオプション設定
type AcquirerOption func(*Acquirer)

// WithAcquirerLogger は Acquirer にロガーを設定する
func WithAcquirerLogger(logger *slog.Logger) AcquirerOption {
	return func(a *Acquirer) {
		a.logger = logger
	}
}

// NewAcquirer は新しい Acquirer を作成する
// strategies は試行順に並べる（例: 字幕スクレイピング → 音声文字起こし）
func NewAcquirer(metadata MetadataProvider, strategies []Strategy, opts ...AcquirerOption) *Acquirer {
	a := &Acquirer{
		strategies: strategies,
		metadata:   metadata,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}
	return a
}

// Acquire はYouTube URLからトランスクリプトを取得する
// メタデータ取得はベストエフォートで、失敗してもプレースホルダで処理を続行する
func (a *Acquirer) Acquire(ctx context.Context, rawURL string) (*Result, error) {
	videoID, err := ExtractVideoID(rawURL)
	if err != nil {
		return nil, err
	}

	info := a.fetchInfo(ctx, videoID)

	var lastErr error
	for _, strategy := range a.strategies {
		payload, err := strategy.Acquire(ctx, videoID)
		if err != nil {
			a.logger.Warn("transcript strategy failed",
				"strategy", strategy.Name(),
				"videoID", videoID,
				"error", err,
			)
			lastErr = err
			continue
		}

		if strings.TrimSpace(payload.Text) == "" {
			lastErr = fmt.Errorf("strategy %s returned empty transcript", strategy.Name())
			continue
		}

		a.logger.Info("transcript acquired",
			"strategy", strategy.Name(),
			"videoID", videoID,
			"length", len(payload.Text),
			"segments", len(payload.Segments),
		)

		return &Result{
			Info:     info,
			Text:     payload.Text,
			Segments: payload.Segments,
		}, nil
	}

	if lastErr == nil {
		lastErr = ErrNoCaptions
	}
	return nil, lastErr
}

// fetchInfo はメタデータを取得し、欠損項目をプレースホルダで埋める
func (a *Acquirer) fetchInfo(ctx context.Context, videoID string) VideoInfo {
	info := VideoInfo{
		VideoID:     videoID,
		Title:       PlaceholderTitle,
		ChannelName: PlaceholderChannel,
		URL:         WatchURL(videoID),
	}

	if a.metadata == nil {
		return info
	}

	fetched, err := a.metadata.Metadata(ctx, videoID)
	if err != nil {
		a.logger.Warn("metadata fetch failed, using placeholders", "videoID", videoID, "error", err)
		return info
	}

	if fetched.Title != "" {
		info.Title = fetched.Title
	}
	if fetched.ChannelName != "" {
		info.ChannelName = fetched.ChannelName
	}
	if fetched.Duration > 0 {
		info.Duration = fetched.Duration
	}
	return info
}
