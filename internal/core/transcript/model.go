package transcript

import "time"

// VideoInfo は動画のメタデータを表す
// 取得できなかった項目はプレースホルダ値で埋められる（メタデータ取得はベストエフォート）
type VideoInfo struct {
	VideoID     string        // YouTube動画ID（11文字）
	Title       string        // 動画タイトル
	ChannelName string        // チャンネル名
	URL         string        // 正規化された視聴URL
	Duration    time.Duration // 動画の長さ（音声経路でのみ判明する場合がある）
}

// Segment は時刻アライン済みのトランスクリプト断片を表す
// 音声文字起こし経路でのみ生成される
type Segment struct {
	Start    float64 // 開始秒
	End      float64 // 終了秒
	Duration float64 // 長さ（秒）
	Text     string
	Speaker  string // 話者ID（プロバイダが返す場合のみ）
}

// Cue は字幕トラックの1キューを表す
type Cue struct {
	Start float64 // 開始秒
	Text  string
}

// Result はトランスクリプト取得の結果を表す
type Result struct {
	Info VideoInfo
	// Text はキュー（またはチャンク）を半角スペースで結合した全文
	Text string
	// Segments は音声経路でのみ非nil
	Segments []Segment
}

// Transcription は文字起こしプロバイダ1回分の応答を表す
type Transcription struct {
	Text     string
	Duration float64 // 音声の実測長（秒）。プロバイダが返さない場合は0
	Segments []Segment
}
