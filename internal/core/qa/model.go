package qa

import "github.com/google/uuid"

// AskParams は質問応答のパラメータを表す
type AskParams struct {
	AnalysisID uuid.UUID // 対象の解析ID
	Question   string    // ユーザーの質問文
}

// Citation は回答の根拠となったチャンク参照を表す
type Citation struct {
	ChunkIndex int     // トランスクリプト内のチャンク位置
	Score      float64 // 質問との類似度スコア
	Excerpt    string  // チャンク冒頭の抜粋
}

// Answer は質問応答の結果を表す
type Answer struct {
	Question   string     // 質問文
	Answer     string     // 回答文（関連チャンクが無い場合は定型文）
	Citations  []Citation // 採用されたチャンクの参照情報（スコア降順）
	Confidence float64    // 採用チャンクの最高スコア（採用ゼロの場合は0）
}
