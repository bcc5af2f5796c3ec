package whisper

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/jinford/tube-rag/internal/core/transcript"
)

const (
	// DefaultBaseURL はデフォルトのAPIエンドポイント
	DefaultBaseURL = "https://api.openai.com/v1"

	// DefaultModel はデフォルトの文字起こしモデル
	DefaultModel = "whisper-1"

	// DefaultTimeout は1リクエストあたりのタイムアウト
	// 音声1チャンクぶんの処理時間を想定している
	DefaultTimeout = 90 * time.Second
)

var (
	// ErrAPIKeyRequired はAPIキーが未設定の場合のエラー
	ErrAPIKeyRequired = errors.New("transcription API key is required")

	// ErrInvalidResponse はプロバイダの応答が期待した形式でない場合のエラー
	// 形のずれた応答を深層に伝播させず、境界で即座に失敗させる
	ErrInvalidResponse = errors.New("invalid transcription provider response")
)

// Client は Whisper 互換APIの文字起こしクライアント
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

// ClientOption は Client のオプション設定
type ClientOption func(*Client)

// WithBaseURL はAPIエンドポイントを上書きする
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithModel は文字起こしモデルを上書きする
func WithModel(model string) ClientOption {
	return func(c *Client) {
		c.model = model
	}
}

// WithTimeout は1リクエストあたりのタイムアウトを上書きする
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient は新しい Client を作成する
func NewClient(apiKey string, opts ...ClientOption) (*Client, error) {
	if apiKey == "" {
		return nil, ErrAPIKeyRequired
	}

	c := &Client{
		apiKey:  apiKey,
		baseURL: DefaultBaseURL,
		model:   DefaultModel,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// verboseResponse は verbose_json 形式の応答を表す
type verboseResponse struct {
	Text     string           `json:"text"`
	Duration float64          `json:"duration"`
	Segments []verboseSegment `json:"segments"`
}

type verboseSegment struct {
	ID    int     `json:"id"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// errorResponse はプロバイダのエラー応答を表す
type errorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Transcribe は音声ファイルを文字起こしし、時刻アライン済みセグメントを返す
func (c *Client) Transcribe(ctx context.Context, path string) (*transcript.Transcription, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio file: %w", err)
	}
	defer file.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("failed to read audio file: %w", err)
	}

	if err := writer.WriteField("model", c.model); err != nil {
		return nil, fmt.Errorf("failed to write form field: %w", err)
	}
	if err := writer.WriteField("response_format", "verbose_json"); err != nil {
		return nil, fmt.Errorf("failed to write form field: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/audio/transcriptions", &body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("transcription request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp errorResponse
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error.Message != "" {
			return nil, fmt.Errorf("transcription API returned %d: %s", resp.StatusCode, errResp.Error.Message)
		}
		return nil, fmt.Errorf("transcription API returned %d", resp.StatusCode)
	}

	var parsed verboseResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if parsed.Text == "" && len(parsed.Segments) == 0 {
		return nil, fmt.Errorf("%w: empty transcription", ErrInvalidResponse)
	}

	segments := make([]transcript.Segment, 0, len(parsed.Segments))
	for _, seg := range parsed.Segments {
		segments = append(segments, transcript.Segment{
			Start:    seg.Start,
			End:      seg.End,
			Duration: seg.End - seg.Start,
			Text:     seg.Text,
		})
	}

	return &transcript.Transcription{
		Text:     parsed.Text,
		Duration: parsed.Duration,
		Segments: segments,
	}, nil
}

// インターフェース実装の確認
var _ transcript.Transcriber = (*Client)(nil)
