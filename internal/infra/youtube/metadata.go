package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/jinford/tube-rag/internal/core/transcript"
)

// DefaultOEmbedBaseURL は oEmbed エンドポイントのベースURL
const DefaultOEmbedBaseURL = "https://www.youtube.com"

// OEmbedClient は YouTube oEmbed エンドポイントから動画メタデータを取得する
// 取得はベストエフォートで、呼び出し元は失敗時にプレースホルダへフォールバックする
type OEmbedClient struct {
	baseURL    string
	httpClient *http.Client
}

// OEmbedClientOption は OEmbedClient のオプション設定
type OEmbedClientOption func(*OEmbedClient)

// WithOEmbedBaseURL はエンドポイントを上書きする（テスト用）
func WithOEmbedBaseURL(baseURL string) OEmbedClientOption {
	return func(c *OEmbedClient) {
		c.baseURL = baseURL
	}
}

// NewOEmbedClient は新しい OEmbedClient を作成する
func NewOEmbedClient(opts ...OEmbedClientOption) *OEmbedClient {
	c := &OEmbedClient{
		baseURL: DefaultOEmbedBaseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// oembedResponse は oEmbed の応答を表す
type oembedResponse struct {
	Title      string `json:"title"`
	AuthorName string `json:"author_name"`
}

// Metadata は動画のタイトルとチャンネル名を取得する
func (c *OEmbedClient) Metadata(ctx context.Context, videoID string) (*transcript.VideoInfo, error) {
	watchURL := transcript.WatchURL(videoID)

	query := url.Values{}
	query.Set("url", watchURL)
	query.Set("format", "json")

	endpoint := c.baseURL + "/oembed?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("oembed request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("oembed endpoint returned %d", resp.StatusCode)
	}

	var parsed oembedResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to parse oembed response: %w", err)
	}

	return &transcript.VideoInfo{
		VideoID:     videoID,
		Title:       parsed.Title,
		ChannelName: parsed.AuthorName,
		URL:         watchURL,
	}, nil
}

// インターフェース実装の確認
var _ transcript.MetadataProvider = (*OEmbedClient)(nil)
