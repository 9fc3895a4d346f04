package audio

import (
	"bytes"
	"context"
	"os/exec"
	"strings"

	"github.com/rs/zerolog"
)

// Format tags the container format of raw recording bytes.
type Format string

const (
	FormatWAV  Format = "wav"
	FormatM4A  Format = "m4a"
	FormatMP4  Format = "mp4"
	FormatAAC  Format = "aac"
	FormatWebM Format = "webm"
)

// FormatFromPath classifies a recording's container format from its storage
// path extension. Unknown extensions are treated as already-canonical WAV so
// they pass through the normalizer untouched.
func FormatFromPath(path string) Format {
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".m4a"):
		return FormatM4A
	case strings.HasSuffix(lower, ".mp4"):
		return FormatMP4
	case strings.HasSuffix(lower, ".aac"):
		return FormatAAC
	case strings.HasSuffix(lower, ".webm"):
		return FormatWebM
	default:
		return FormatWAV
	}
}

// Normalizer converts arbitrary recorder output into the canonical waveform
// every downstream engine expects: 16 kHz, 16-bit, mono PCM in a WAV
// container. Decoding is delegated to ffmpeg.
type Normalizer struct {
	ffmpegBin string
	log       zerolog.Logger
}

// NewNormalizer creates a Normalizer using the given ffmpeg binary.
func NewNormalizer(ffmpegBin string, log zerolog.Logger) *Normalizer {
	return &Normalizer{
		ffmpegBin: ffmpegBin,
		log:       log,
	}
}

// Normalize converts data to canonical WAV. WAV input passes through
// unchanged.
//
// On any conversion failure the ORIGINAL bytes are returned instead of an
// error: downstream scorers then fail on their own terms with an
// attributable message, which beats aborting the whole pipeline here.
func (n *Normalizer) Normalize(ctx context.Context, data []byte, format Format) []byte {
	if format == FormatWAV {
		return data
	}

	args := []string{
		"-hide_banner", "-loglevel", "error",
		"-f", ffmpegDemuxer(format),
		"-i", "pipe:0",
		"-ac", "1",
		"-ar", "16000",
		"-sample_fmt", "s16",
		"-f", "wav",
		"pipe:1",
	}

	cmd := exec.CommandContext(ctx, n.ffmpegBin, args...)
	cmd.Stdin = bytes.NewReader(data)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		n.log.Warn().
			Err(err).
			Str("format", string(format)).
			Str("ffmpeg_stderr", strings.TrimSpace(stderr.String())).
			Msg("Audio conversion failed, passing original bytes downstream")
		return data
	}

	out := stdout.Bytes()
	if len(out) == 0 {
		n.log.Warn().
			Str("format", string(format)).
			Msg("Audio conversion produced no output, passing original bytes downstream")
		return data
	}

	n.log.Debug().
		Str("format", string(format)).
		Int("in_bytes", len(data)).
		Int("out_bytes", len(out)).
		Msg("Audio converted to canonical WAV")
	return out
}

// ffmpegDemuxer maps our container tags to ffmpeg demuxer names. M4A and AAC
// travel in an MP4 container.
func ffmpegDemuxer(format Format) string {
	switch format {
	case FormatM4A, FormatMP4, FormatAAC:
		return "mp4"
	case FormatWebM:
		return "webm"
	default:
		return string(format)
	}
}
