package transcript

import (
	"fmt"
	"regexp"
	"strings"
)

// videoIDPatterns は認識するYouTube URL形式の正規表現（優先順）
// watch / 短縮リンク / 埋め込み / 旧 /v/ 形式の4種
var videoIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:youtube\.com/watch\?(?:[^&\s]*&)*v=)([A-Za-z0-9_-]{11})`),
	regexp.MustCompile(`(?:youtu\.be/)([A-Za-z0-9_-]{11})`),
	regexp.MustCompile(`(?:youtube\.com/embed/)([A-Za-z0-9_-]{11})`),
	regexp.MustCompile(`(?:youtube\.com/v/)([A-Za-z0-9_-]{11})`),
}

// ExtractVideoID はYouTube URLから動画IDを抽出する
// 認識できない形式の場合は ErrInvalidURL を返す
func ExtractVideoID(rawURL string) (string, error) {
	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty URL", ErrInvalidURL)
	}

	for _, pattern := range videoIDPatterns {
		if m := pattern.FindStringSubmatch(trimmed); m != nil {
			return m[1], nil
		}
	}

	return "", fmt.Errorf("%w: %s", ErrInvalidURL, trimmed)
}

// WatchURL は動画IDから正規の視聴URLを組み立てる
func WatchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + videoID
}
