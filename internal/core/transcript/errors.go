package transcript

import "errors"

var (
	// ErrInvalidURL は認識できないYouTube URLを渡された場合のエラー
	ErrInvalidURL = errors.New("invalid YouTube URL")

	// ErrNoCaptions は全言語で字幕トラックが取得できなかった場合のエラー
	ErrNoCaptions = errors.New("no captions available: please choose a video that has captions")

	// ErrVideoUnavailable は非公開・年齢制限・地域制限などで動画にアクセスできない場合のエラー
	ErrVideoUnavailable = errors.New("video unavailable (private, age-restricted, or region-blocked)")

	// ErrAudioDownloadFailed は音声トラックのダウンロードに失敗した場合のエラー
	ErrAudioDownloadFailed = errors.New("audio download failed")

	// ErrTranscriptionFailed は音声文字起こしが全チャンクで失敗した場合のエラー
	ErrTranscriptionFailed = errors.New("audio transcription failed")
)
