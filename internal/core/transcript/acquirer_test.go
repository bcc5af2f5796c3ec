package transcript_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jinford/tube-rag/internal/core/transcript"
)

type stubStrategy struct {
	name    string
	payload *transcript.Payload
	err     error
	calls   int
}

func (s *stubStrategy) Name() string { return s.name }

func (s *stubStrategy) Acquire(_ context.Context, _ string) (*transcript.Payload, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.payload, nil
}

type stubMetadata struct {
	info *transcript.VideoInfo
	err  error
}

func (s *stubMetadata) Metadata(_ context.Context, _ string) (*transcript.VideoInfo, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.info, nil
}

func TestAcquirer_Acquire_FirstStrategySucceeds(t *testing.T) {
	// Setup
	ctx := context.Background()

	first := &stubStrategy{
		name:    "captions",
		payload: &transcript.Payload{Text: "hello world"},
	}
	second := &stubStrategy{
		name:    "audio",
		payload: &transcript.Payload{Text: "should not be used"},
	}
	metadata := &stubMetadata{
		info: &transcript.VideoInfo{
			Title:       "Test Video",
			ChannelName: "Test Channel",
			Duration:    90 * time.Second,
		},
	}

	acquirer := transcript.NewAcquirer(metadata, []transcript.Strategy{first, second})

	// Execute
	result, err := acquirer.Acquire(ctx, "https://youtu.be/dQw4w9WgXcQ")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "hello world", result.Text)
	assert.Equal(t, "dQw4w9WgXcQ", result.Info.VideoID)
	assert.Equal(t, "Test Video", result.Info.Title)
	assert.Equal(t, "Test Channel", result.Info.ChannelName)
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 0, second.calls, "後段の戦略は試行されない")
}

func TestAcquirer_Acquire_FallsBackToNextStrategy(t *testing.T) {
	// Setup
	ctx := context.Background()

	first := &stubStrategy{
		name: "captions",
		err:  transcript.ErrNoCaptions,
	}
	second := &stubStrategy{
		name:    "audio",
		payload: &transcript.Payload{Text: "transcribed from audio"},
	}

	acquirer := transcript.NewAcquirer(&stubMetadata{info: &transcript.VideoInfo{}}, []transcript.Strategy{first, second})

	// Execute
	result, err := acquirer.Acquire(ctx, "https://youtu.be/dQw4w9WgXcQ")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "transcribed from audio", result.Text)
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 1, second.calls)
}

func TestAcquirer_Acquire_SkipsEmptyTranscript(t *testing.T) {
	// Setup
	ctx := context.Background()

	first := &stubStrategy{
		name:    "captions",
		payload: &transcript.Payload{Text: "   "},
	}
	second := &stubStrategy{
		name:    "audio",
		payload: &transcript.Payload{Text: "actual content"},
	}

	acquirer := transcript.NewAcquirer(nil, []transcript.Strategy{first, second})

	// Execute
	result, err := acquirer.Acquire(ctx, "https://youtu.be/dQw4w9WgXcQ")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "actual content", result.Text)
}

func TestAcquirer_Acquire_AllStrategiesFail(t *testing.T) {
	// Setup
	ctx := context.Background()

	lastErr := errors.New("transcription backend down")
	first := &stubStrategy{name: "captions", err: transcript.ErrNoCaptions}
	second := &stubStrategy{name: "audio", err: lastErr}

	acquirer := transcript.NewAcquirer(nil, []transcript.Strategy{first, second})

	// Execute
	result, err := acquirer.Acquire(ctx, "https://youtu.be/dQw4w9WgXcQ")

	// Assert
	require.Error(t, err)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, lastErr, "最後に失敗した戦略のエラーが返る")
}

func TestAcquirer_Acquire_InvalidURL(t *testing.T) {
	// Setup
	ctx := context.Background()
	strategy := &stubStrategy{name: "captions", payload: &transcript.Payload{Text: "content"}}
	acquirer := transcript.NewAcquirer(nil, []transcript.Strategy{strategy})

	// Execute
	result, err := acquirer.Acquire(ctx, "https://example.com/not-youtube")

	// Assert
	require.Error(t, err)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, transcript.ErrInvalidURL)
	assert.Equal(t, 0, strategy.calls)
}

func TestAcquirer_Acquire_MetadataFailureUsesPlaceholders(t *testing.T) {
	// Setup
	ctx := context.Background()

	strategy := &stubStrategy{
		name:    "captions",
		payload: &transcript.Payload{Text: "content"},
	}
	metadata := &stubMetadata{err: errors.New("oembed unreachable")}

	acquirer := transcript.NewAcquirer(metadata, []transcript.Strategy{strategy})

	// Execute
	result, err := acquirer.Acquire(ctx, "https://youtu.be/dQw4w9WgXcQ")

	// Assert
	require.NoError(t, err, "メタデータ取得の失敗は取り込みを止めない")
	assert.Equal(t, transcript.PlaceholderTitle, result.Info.Title)
	assert.Equal(t, transcript.PlaceholderChannel, result.Info.ChannelName)
	assert.Equal(t, "https://www.youtube.com/watch?v=dQw4w9WgXcQ", result.Info.URL)
}
