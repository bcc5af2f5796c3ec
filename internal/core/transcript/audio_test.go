package transcript_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jinford/tube-rag/internal/core/transcript"
)

type stubDownloader struct {
	err      error
	filename string
	destDir  string
}

func (d *stubDownloader) Download(_ context.Context, videoID, destDir string) (string, error) {
	if d.err != nil {
		return "", d.err
	}
	d.destDir = destDir
	name := d.filename
	if name == "" {
		name = videoID + ".mp3"
	}
	path := filepath.Join(destDir, name)
	if err := os.WriteFile(path, []byte("audio"), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

type stubProcessor struct {
	duration    time.Duration
	durationErr error
	chunks      []transcript.AudioChunk
	splitErr    error
}

func (p *stubProcessor) Duration(_ context.Context, _ string) (time.Duration, error) {
	if p.durationErr != nil {
		return 0, p.durationErr
	}
	return p.duration, nil
}

func (p *stubProcessor) Split(_ context.Context, _ string, _ time.Duration, _ string) ([]transcript.AudioChunk, error) {
	if p.splitErr != nil {
		return nil, p.splitErr
	}
	return p.chunks, nil
}

type stubTranscriber struct {
	results map[string]*transcript.Transcription
	errs    map[string]error
	paths   []string
}

func (tr *stubTranscriber) Transcribe(_ context.Context, path string) (*transcript.Transcription, error) {
	tr.paths = append(tr.paths, path)
	key := filepath.Base(path)
	if err, ok := tr.errs[key]; ok {
		return nil, err
	}
	if result, ok := tr.results[key]; ok {
		return result, nil
	}
	return &transcript.Transcription{Text: "default"}, nil
}

func TestAudioStrategy_Acquire_ShortAudioSingleShot(t *testing.T) {
	// Setup
	ctx := context.Background()
	downloader := &stubDownloader{}
	processor := &stubProcessor{duration: 20 * time.Second}
	transcriber := &stubTranscriber{
		results: map[string]*transcript.Transcription{
			"dQw4w9WgXcQ.mp3": {
				Text: " short clip transcript ",
				Segments: []transcript.Segment{
					{Start: 0, End: 5, Text: "short clip transcript"},
				},
			},
		},
	}

	strategy := transcript.NewAudioStrategy(downloader, processor, transcriber,
		transcript.WithAudioTmpDir(t.TempDir()),
	)

	// Execute
	payload, err := strategy.Acquire(ctx, "dQw4w9WgXcQ")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "short clip transcript", payload.Text)
	assert.Len(t, payload.Segments, 1)
	assert.Len(t, transcriber.paths, 1, "安全ウィンドウ以下の音声は分割しない")
}

func TestAudioStrategy_Acquire_LongAudioChunked(t *testing.T) {
	// Setup
	ctx := context.Background()
	downloader := &stubDownloader{}
	processor := &stubProcessor{
		duration: 70 * time.Second,
		chunks: []transcript.AudioChunk{
			{Path: "/tmp/chunk-000.mp3", Duration: 29 * time.Second},
			{Path: "/tmp/chunk-001.mp3", Duration: 29 * time.Second},
			{Path: "/tmp/chunk-002.mp3", Duration: 12 * time.Second},
		},
	}
	transcriber := &stubTranscriber{
		results: map[string]*transcript.Transcription{
			"chunk-000.mp3": {
				Text:     "part one",
				Duration: 28.5,
				Segments: []transcript.Segment{{Start: 0, End: 10, Text: "part one"}},
			},
			"chunk-001.mp3": {
				Text:     "part two",
				Duration: 29,
				Segments: []transcript.Segment{{Start: 1, End: 9, Text: "part two"}},
			},
			"chunk-002.mp3": {
				Text:     "part three",
				Segments: []transcript.Segment{{Start: 0, End: 5, Text: "part three"}},
			},
		},
	}

	strategy := transcript.NewAudioStrategy(downloader, processor, transcriber,
		transcript.WithAudioTmpDir(t.TempDir()),
	)

	// Execute
	payload, err := strategy.Acquire(ctx, "dQw4w9WgXcQ")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "part one part two part three", payload.Text)
	require.Len(t, payload.Segments, 3)

	// タイムスタンプは累積オフセットでシフトされる（実測長28.5秒を優先）
	assert.InDelta(t, 0.0, payload.Segments[0].Start, 0.001)
	assert.InDelta(t, 29.5, payload.Segments[1].Start, 0.001)
	assert.InDelta(t, 57.5, payload.Segments[2].Start, 0.001)

	// セグメントの開始時刻は単調非減少
	for i := 1; i < len(payload.Segments); i++ {
		assert.GreaterOrEqual(t, payload.Segments[i].Start, payload.Segments[i-1].Start)
	}
}

func TestAudioStrategy_Acquire_SkipsFailedChunks(t *testing.T) {
	// Setup
	ctx := context.Background()
	downloader := &stubDownloader{}
	processor := &stubProcessor{
		duration: 60 * time.Second,
		chunks: []transcript.AudioChunk{
			{Path: "/tmp/chunk-000.mp3", Duration: 29 * time.Second},
			{Path: "/tmp/chunk-001.mp3", Duration: 29 * time.Second},
			{Path: "/tmp/chunk-002.mp3", Duration: 2 * time.Second},
		},
	}
	transcriber := &stubTranscriber{
		results: map[string]*transcript.Transcription{
			"chunk-000.mp3": {
				Text:     "beginning",
				Duration: 29,
			},
			"chunk-002.mp3": {
				Text:     "ending",
				Segments: []transcript.Segment{{Start: 0, End: 2, Text: "ending"}},
			},
		},
		errs: map[string]error{
			"chunk-001.mp3": errors.New("rate limited"),
		},
	}

	strategy := transcript.NewAudioStrategy(downloader, processor, transcriber,
		transcript.WithAudioTmpDir(t.TempDir()),
	)

	// Execute
	payload, err := strategy.Acquire(ctx, "dQw4w9WgXcQ")

	// Assert
	require.NoError(t, err, "1チャンクの失敗では中断しない")
	assert.Equal(t, "beginning ending", payload.Text)

	// 失敗チャンクぶんのオフセットも進んでいる（29 + 29 = 58秒）
	require.Len(t, payload.Segments, 1)
	assert.InDelta(t, 58.0, payload.Segments[0].Start, 0.001)
}

func TestAudioStrategy_Acquire_AllChunksFail(t *testing.T) {
	// Setup
	ctx := context.Background()
	downloader := &stubDownloader{}
	processor := &stubProcessor{
		duration: 60 * time.Second,
		chunks: []transcript.AudioChunk{
			{Path: "/tmp/chunk-000.mp3", Duration: 29 * time.Second},
			{Path: "/tmp/chunk-001.mp3", Duration: 29 * time.Second},
		},
	}
	transcriber := &stubTranscriber{
		errs: map[string]error{
			"chunk-000.mp3": errors.New("backend down"),
			"chunk-001.mp3": errors.New("backend down"),
		},
	}

	strategy := transcript.NewAudioStrategy(downloader, processor, transcriber,
		transcript.WithAudioTmpDir(t.TempDir()),
	)

	// Execute
	payload, err := strategy.Acquire(ctx, "dQw4w9WgXcQ")

	// Assert
	require.Error(t, err)
	assert.Nil(t, payload)
	assert.ErrorIs(t, err, transcript.ErrTranscriptionFailed)
}

func TestAudioStrategy_Acquire_VideoUnavailable(t *testing.T) {
	// Setup
	ctx := context.Background()
	downloader := &stubDownloader{err: transcript.ErrVideoUnavailable}
	strategy := transcript.NewAudioStrategy(downloader, &stubProcessor{}, &stubTranscriber{},
		transcript.WithAudioTmpDir(t.TempDir()),
	)

	// Execute
	payload, err := strategy.Acquire(ctx, "dQw4w9WgXcQ")

	// Assert
	require.Error(t, err)
	assert.Nil(t, payload)
	assert.ErrorIs(t, err, transcript.ErrVideoUnavailable, "削除済み動画のエラーはそのまま伝播する")
}

func TestAudioStrategy_Acquire_DownloadFailure(t *testing.T) {
	// Setup
	ctx := context.Background()
	downloader := &stubDownloader{err: errors.New("network error")}
	strategy := transcript.NewAudioStrategy(downloader, &stubProcessor{}, &stubTranscriber{},
		transcript.WithAudioTmpDir(t.TempDir()),
	)

	// Execute
	payload, err := strategy.Acquire(ctx, "dQw4w9WgXcQ")

	// Assert
	require.Error(t, err)
	assert.Nil(t, payload)
	assert.ErrorIs(t, err, transcript.ErrAudioDownloadFailed)
}

func TestAudioStrategy_Acquire_CleansUpTempDir(t *testing.T) {
	// Setup
	ctx := context.Background()
	tmpDir := t.TempDir()
	downloader := &stubDownloader{}
	processor := &stubProcessor{duration: 10 * time.Second}
	transcriber := &stubTranscriber{
		results: map[string]*transcript.Transcription{
			"dQw4w9WgXcQ.mp3": {Text: "content"},
		},
	}

	strategy := transcript.NewAudioStrategy(downloader, processor, transcriber,
		transcript.WithAudioTmpDir(tmpDir),
	)

	// Execute
	_, err := strategy.Acquire(ctx, "dQw4w9WgXcQ")

	// Assert
	require.NoError(t, err)
	entries, err := os.ReadDir(tmpDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "作業ディレクトリは処理後に削除される")
}
