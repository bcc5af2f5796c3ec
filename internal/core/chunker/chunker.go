package chunker

import (
	"fmt"
	"strings"
)

const (
	// DefaultTargetWords は1チャンクの目標単語数
	DefaultTargetWords = 500
	// DefaultOverlapWords は隣接チャンクと共有する単語数
	DefaultOverlapWords = 50
)

// Chunker はトランスクリプトを単語境界のオーバーラップ付きウィンドウに分割する
// オーバーラップにより隣接チャンク間で文脈が共有され、Embedding類似度の連続性が保たれる
type Chunker struct {
	targetWords  int
	overlapWords int
}

// Option は Chunker のオプション設定
type Option func(*Chunker)

// WithTargetWords は目標単語数を上書きする
func WithTargetWords(n int) Option {
	return func(c *Chunker) {
		c.targetWords = n
	}
}

// WithOverlapWords はオーバーラップ単語数を上書きする
func WithOverlapWords(n int) Option {
	return func(c *Chunker) {
		c.overlapWords = n
	}
}

// New は新しい Chunker を作成する
// overlapWords は targetWords 未満でなければならない
func New(opts ...Option) (*Chunker, error) {
	c := &Chunker{
		targetWords:  DefaultTargetWords,
		overlapWords: DefaultOverlapWords,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.targetWords <= 0 {
		return nil, fmt.Errorf("targetWords must be positive, got %d", c.targetWords)
	}
	if c.overlapWords < 0 || c.overlapWords >= c.targetWords {
		return nil, fmt.Errorf("overlapWords must be in [0, targetWords), got %d", c.overlapWords)
	}

	return c, nil
}

// Chunk はテキストを順序付きのチャンク列に分割する
// ウィンドウは targetWords 単語ぶんで、開始位置は targetWords - overlapWords ずつ進む
// 最後のチャンクは targetWords より短くてよい。targetWords 未満の入力は1チャンクになる
func (c *Chunker) Chunk(text string) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	step := c.targetWords - c.overlapWords
	chunks := make([]string, 0, (len(words)+step-1)/step)

	for start := 0; start < len(words); start += step {
		end := start + c.targetWords
		if end > len(words) {
			end = len(words)
		}

		chunks = append(chunks, strings.Join(words[start:end], " "))

		if end == len(words) {
			break
		}
	}

	return chunks
}

// TargetWords は目標単語数を返す
func (c *Chunker) TargetWords() int {
	return c.targetWords
}

// OverlapWords はオーバーラップ単語数を返す
func (c *Chunker) OverlapWords() int {
	return c.overlapWords
}
