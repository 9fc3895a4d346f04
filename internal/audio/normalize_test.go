package audio

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/windfall/truevoice/internal/logger"
)

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path string
		want Format
	}{
		{"recordings/abc.wav", FormatWAV},
		{"recordings/abc.M4A", FormatM4A},
		{"recordings/abc.mp4", FormatMP4},
		{"recordings/abc.aac", FormatAAC},
		{"recordings/abc.webm", FormatWebM},
		{"recordings/abc.ogg", FormatWAV},
		{"recordings/no-extension", FormatWAV},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatFromPath(tt.path))
		})
	}
}

func TestNormalizeWAVPassthrough(t *testing.T) {
	n := NewNormalizer("ffmpeg", logger.NewNop())
	data := []byte("raw wav bytes, not even parsed")

	got := n.Normalize(context.Background(), data, FormatWAV)

	assert.Equal(t, data, got)
}

func TestNormalizeReturnsOriginalWhenFFmpegMissing(t *testing.T) {
	n := NewNormalizer("ffmpeg-binary-that-does-not-exist", logger.NewNop())
	data := []byte{0x00, 0x01, 0x02}

	got := n.Normalize(context.Background(), data, FormatM4A)

	assert.Equal(t, data, got)
}

func TestFFmpegDemuxerMapping(t *testing.T) {
	assert.Equal(t, "mp4", ffmpegDemuxer(FormatM4A))
	assert.Equal(t, "mp4", ffmpegDemuxer(FormatMP4))
	assert.Equal(t, "mp4", ffmpegDemuxer(FormatAAC))
	assert.Equal(t, "webm", ffmpegDemuxer(FormatWebM))
}
