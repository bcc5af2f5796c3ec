package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jinford/tube-rag/internal/core/transcript"
)

// DefaultCaptionBaseURL は字幕取得エンドポイントのベースURL
const DefaultCaptionBaseURL = "https://www.youtube.com"

// CaptionClient は YouTube timedtext エンドポイントから字幕トラックを取得する
type CaptionClient struct {
	baseURL    string
	httpClient *http.Client
}

// CaptionClientOption は CaptionClient のオプション設定
type CaptionClientOption func(*CaptionClient)

// WithCaptionBaseURL はエンドポイントを上書きする（テスト用）
func WithCaptionBaseURL(baseURL string) CaptionClientOption {
	return func(c *CaptionClient) {
		c.baseURL = baseURL
	}
}

// WithCaptionHTTPClient はHTTPクライアントを上書きする
func WithCaptionHTTPClient(client *http.Client) CaptionClientOption {
	return func(c *CaptionClient) {
		c.httpClient = client
	}
}

// NewCaptionClient は新しい CaptionClient を作成する
func NewCaptionClient(opts ...CaptionClientOption) *CaptionClient {
	c := &CaptionClient{
		baseURL: DefaultCaptionBaseURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// json3Response は timedtext fmt=json3 の応答を表す
type json3Response struct {
	Events []json3Event `json:"events"`
}

type json3Event struct {
	StartMs int        `json:"tStartMs"`
	Segs    []json3Seg `json:"segs"`
}

type json3Seg struct {
	UTF8 string `json:"utf8"`
}

// Fetch は指定言語の字幕トラックを取得する
// lang が空文字列の場合はデフォルトトラックを要求する
// トラックが存在しない場合は空のキュー列を返す（エラーにしない）
func (c *CaptionClient) Fetch(ctx context.Context, videoID, lang string) ([]transcript.Cue, error) {
	query := url.Values{}
	query.Set("v", videoID)
	query.Set("fmt", "json3")
	if lang != "" {
		query.Set("lang", lang)
	}

	endpoint := c.baseURL + "/api/timedtext?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("caption request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("caption endpoint returned %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read caption response: %w", err)
	}

	// トラックが存在しない場合、YouTubeは200と空ボディを返すことがある
	if len(body) == 0 {
		return nil, nil
	}

	var parsed json3Response
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse caption response: %w", err)
	}

	cues := make([]transcript.Cue, 0, len(parsed.Events))
	for _, event := range parsed.Events {
		var sb strings.Builder
		for _, seg := range event.Segs {
			sb.WriteString(seg.UTF8)
		}

		text := strings.TrimSpace(sb.String())
		if text == "" {
			continue
		}

		cues = append(cues, transcript.Cue{
			Start: float64(event.StartMs) / 1000,
			Text:  text,
		})
	}

	return cues, nil
}

// インターフェース実装の確認
var _ transcript.CaptionFetcher = (*CaptionClient)(nil)
