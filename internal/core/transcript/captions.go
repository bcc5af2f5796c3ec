package transcript

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// CaptionFetcher は字幕トラックの取得インターフェース
// lang が空文字列の場合は動画のデフォルト言語トラックを取得する
type CaptionFetcher interface {
	Fetch(ctx context.Context, videoID, lang string) ([]Cue, error)
}

// DefaultCaptionLanguages は自動検出に失敗した場合に順番に試す言語コード
// 英語バリアントを先頭に、利用者の多い地域言語が続く
var DefaultCaptionLanguages = []string{
	"en", "en-US", "en-GB",
	"hi", "es", "fr", "de", "pt", "ja", "ko", "zh-Hans", "ru", "ar", "id",
}

// CaptionStrategy は字幕スクレイピングによるトランスクリプト取得戦略
type CaptionStrategy struct {
	fetcher   CaptionFetcher
	languages []string
	logger    *slog.Logger
}

// CaptionStrategyOption は CaptionStrategy のオプション設定
type CaptionStrategyOption func(*CaptionStrategy)

// WithCaptionLanguages は試行する言語コードリストを上書きする
func WithCaptionLanguages(languages []string) CaptionStrategyOption {
	return func(s *CaptionStrategy) {
		s.languages = languages
	}
}

// WithCaptionLogger は CaptionStrategy にロガーを設定する
func WithCaptionLogger(logger *slog.Logger) CaptionStrategyOption {
	return func(s *CaptionStrategy) {
		s.logger = logger
	}
}

// NewCaptionStrategy は新しい CaptionStrategy を作成する
func NewCaptionStrategy(fetcher CaptionFetcher, opts ...CaptionStrategyOption) *CaptionStrategy {
	s := &CaptionStrategy{
		fetcher:   fetcher,
		languages: DefaultCaptionLanguages,
		logger:    slog.Default(),
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
func (s *CaptionStrategy) Name() string {
	return "captions"
}

// Acquire はまず自動言語検出で、失敗した場合は言語リストを順に字幕を取得する
// 全言語で失敗した場合は ErrNoCaptions を返す
func (s *CaptionStrategy) Acquire(ctx context.Context, videoID string) (*Payload, error) {
	// 空文字列はデフォルトトラック（自動検出）
	attempts := append([]string{""}, s.languages...)

	var lastErr error
	for _, lang := range attempts {
		cues, err := s.fetcher.Fetch(ctx, videoID, lang)
		if err != nil {
			lastErr = err
			continue
		}
		if len(cues) == 0 {
			continue
		}

		s.logger.Debug("caption track found", "videoID", videoID, "lang", lang, "cues", len(cues))
		return &Payload{Text: joinCues(cues)}, nil
	}

	if lastErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoCaptions, lastErr)
	}
	return nil, ErrNoCaptions
}

// joinCues はキューのテキストを半角スペース1つで結合する
func joinCues(cues []Cue) string {
	parts := make([]string, 0, len(cues))
	for _, cue := range cues {
		text := strings.TrimSpace(cue.Text)
		if text == "" {
			continue
		}
		parts = append(parts, text)
	}
	return strings.Join(parts, " ")
}

var _ Strategy = (*CaptionStrategy)(nil)
