package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/samber/mo"

	"github.com/jinford/tube-rag/internal/core/ingest"
	"github.com/jinford/tube-rag/internal/core/transcript"
)

// DefaultTTL はキャッシュエントリの保持期間
// トランスクリプトは動画ごとに不変なので長めでよい
const DefaultTTL = 7 * 24 * time.Hour

const keyPrefix = "tuberag:transcript:"

// TranscriptCache は取得済みトランスクリプトのRedisキャッシュ
// 同じ動画の再取り込み時に字幕スクレイピングや音声文字起こしをスキップする
type TranscriptCache struct {
	client *redis.Client
	ttl    time.Duration
}

// Option は TranscriptCache のオプション設定
type Option func(*TranscriptCache)

// WithTTL は保持期間を上書きする
func WithTTL(ttl time.Duration) Option {
	return func(c *TranscriptCache) {
		c.ttl = ttl
	}
}

// New は新しい TranscriptCache を作成する
func New(client *redis.Client, opts ...Option) *TranscriptCache {
	c := &TranscriptCache{
		client: client,
		ttl:    DefaultTTL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get はキャッシュ済みトランスクリプトを返す。未キャッシュの場合は None
func (c *TranscriptCache) Get(ctx context.Context, videoID string) (mo.Option[*transcript.Result], error) {
	data, err := c.client.Get(ctx, keyPrefix+videoID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return mo.None[*transcript.Result](), nil
		}
		return mo.None[*transcript.Result](), fmt.Errorf("failed to get cached transcript: %w", err)
	}

	var result transcript.Result
	if err := json.Unmarshal(data, &result); err != nil {
		// 壊れたエントリはミス扱いにして取得し直す
		return mo.None[*transcript.Result](), nil
	}

	return mo.Some(&result), nil
}

// Set はトランスクリプトをキャッシュに保存する
func (c *TranscriptCache) Set(ctx context.Context, videoID string, result *transcript.Result) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal transcript: %w", err)
	}

	if err := c.client.Set(ctx, keyPrefix+videoID, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache transcript: %w", err)
	}
	return nil
}

// インターフェース実装の確認
var _ ingest.TranscriptCache = (*TranscriptCache)(nil)
