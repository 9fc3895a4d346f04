package audio

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	const rate = 16000
	samples := make([]float64, rate/10)
	for i := range samples {
		samples[i] = 0.25 * math.Sin(2*math.Pi*440*float64(i)/rate)
	}

	decoded, err := DecodeWAV(EncodeWAV(samples, rate))
	require.NoError(t, err)

	assert.Equal(t, rate, decoded.SampleRate)
	require.Len(t, decoded.Samples, len(samples))
	for i := range samples {
		assert.InDelta(t, samples[i], decoded.Samples[i], 1e-3)
	}
	assert.InDelta(t, 0.1, decoded.Duration(), 1e-9)
}

func TestDecodeWAVRejectsGarbage(t *testing.T) {
	_, err := DecodeWAV([]byte("definitely not audio"))
	assert.Error(t, err)
}

func TestDecodeWAVRejectsTruncated(t *testing.T) {
	wav := EncodeWAV(make([]float64, 100), 16000)
	_, err := DecodeWAV(wav[:20])
	assert.Error(t, err)
}

func TestDecodeWAVRejectsNonPCM(t *testing.T) {
	wav := EncodeWAV(make([]float64, 100), 16000)
	// Flip the format code to IEEE float.
	binary.LittleEndian.PutUint16(wav[20:22], 3)
	_, err := DecodeWAV(wav)
	assert.ErrorContains(t, err, "unsupported audio format")
}

func TestDecodeWAVRejectsWrongBitDepth(t *testing.T) {
	wav := EncodeWAV(make([]float64, 100), 16000)
	binary.LittleEndian.PutUint16(wav[34:36], 8)
	_, err := DecodeWAV(wav)
	assert.ErrorContains(t, err, "unsupported bit depth")
}

func TestDecodeWAVDownmixesStereo(t *testing.T) {
	// Hand-build a stereo buffer with +0.5 on the left and -0.5 on the
	// right; the downmix should land near zero.
	const frames = 50
	dataSize := 4 * frames
	buf := make([]byte, 44+dataSize)
	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(36+dataSize))
	copy(buf[8:12], "WAVE")
	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16)
	binary.LittleEndian.PutUint16(buf[20:22], 1)
	binary.LittleEndian.PutUint16(buf[22:24], 2)
	binary.LittleEndian.PutUint32(buf[24:28], 16000)
	binary.LittleEndian.PutUint32(buf[28:32], 16000*4)
	binary.LittleEndian.PutUint16(buf[32:34], 4)
	binary.LittleEndian.PutUint16(buf[34:36], 16)
	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(dataSize))
	left, right := int16(16384), int16(-16384)
	for i := 0; i < frames; i++ {
		binary.LittleEndian.PutUint16(buf[44+4*i:], uint16(left))
		binary.LittleEndian.PutUint16(buf[46+4*i:], uint16(right))
	}

	decoded, err := DecodeWAV(buf)
	require.NoError(t, err)
	require.Len(t, decoded.Samples, frames)
	for _, s := range decoded.Samples {
		assert.InDelta(t, 0, s, 1e-9)
	}
}

func TestEncodeWAVClampsOutOfRange(t *testing.T) {
	decoded, err := DecodeWAV(EncodeWAV([]float64{2.0, -2.0}, 16000))
	require.NoError(t, err)
	assert.InDelta(t, 1.0, decoded.Samples[0], 1e-3)
	assert.InDelta(t, -1.0, decoded.Samples[1], 1e-3)
}
