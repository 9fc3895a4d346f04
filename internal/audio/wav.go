package audio

import (
	"encoding/binary"
	"fmt"
)

// Waveform is decoded canonical PCM audio: mono samples in [-1, 1).
type Waveform struct {
	Samples    []float64
	SampleRate int
}

// Duration returns the waveform length in seconds.
func (w *Waveform) Duration() float64 {
	if w.SampleRate == 0 {
		return 0
	}
	return float64(len(w.Samples)) / float64(w.SampleRate)
}

// DecodeWAV parses a 16-bit PCM RIFF/WAVE buffer. Multi-channel input is
// downmixed by averaging, though the normalizer always hands us mono.
func DecodeWAV(data []byte) (*Waveform, error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, fmt.Errorf("not a RIFF/WAVE buffer")
	}

	var (
		sampleRate    int
		numChannels   int
		bitsPerSample int
		pcm           []byte
	)

	// Walk the chunk list; only fmt and data matter.
	offset := 12
	for offset+8 <= len(data) {
		id := string(data[offset : offset+4])
		size := int(binary.LittleEndian.Uint32(data[offset+4 : offset+8]))
		body := offset + 8
		if body+size > len(data) {
			size = len(data) - body
		}

		switch id {
		case "fmt ":
			if size < 16 {
				return nil, fmt.Errorf("fmt chunk too short: %d bytes", size)
			}
			audioFormat := binary.LittleEndian.Uint16(data[body : body+2])
			if audioFormat != 1 {
				return nil, fmt.Errorf("unsupported audio format %d (want PCM)", audioFormat)
			}
			numChannels = int(binary.LittleEndian.Uint16(data[body+2 : body+4]))
			sampleRate = int(binary.LittleEndian.Uint32(data[body+4 : body+8]))
			bitsPerSample = int(binary.LittleEndian.Uint16(data[body+14 : body+16]))
		case "data":
			pcm = data[body : body+size]
		}

		// Chunks are word-aligned.
		offset = body + size
		if size%2 == 1 {
			offset++
		}
	}

	if sampleRate == 0 || numChannels == 0 {
		return nil, fmt.Errorf("missing fmt chunk")
	}
	if bitsPerSample != 16 {
		return nil, fmt.Errorf("unsupported bit depth %d (want 16)", bitsPerSample)
	}
	if len(pcm) == 0 {
		return nil, fmt.Errorf("missing data chunk")
	}

	frameSize := 2 * numChannels
	numFrames := len(pcm) / frameSize
	if numFrames == 0 {
		return nil, fmt.Errorf("no audio frames")
	}

	samples := make([]float64, numFrames)
	for i := 0; i < numFrames; i++ {
		var sum float64
		for ch := 0; ch < numChannels; ch++ {
			off := i*frameSize + 2*ch
			s := int16(binary.LittleEndian.Uint16(pcm[off : off+2]))
			sum += float64(s) / 32768.0
		}
		samples[i] = sum / float64(numChannels)
	}

	return &Waveform{
		Samples:    samples,
		SampleRate: sampleRate,
	}, nil
}

// EncodeWAV writes mono float64 samples as a 16-bit PCM WAV buffer. Used by
// tests and the offline path to synthesize canonical waveforms.
func EncodeWAV(samples []float64, sampleRate int) []byte {
	dataSize := 2 * len(samples)
	buf := make([]byte, 44+dataSize)

	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(36+dataSize))
	copy(buf[8:12], "WAVE")

	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16)
	binary.LittleEndian.PutUint16(buf[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(buf[22:24], 1) // mono
	binary.LittleEndian.PutUint32(buf[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(buf[28:32], uint32(sampleRate*2))
	binary.LittleEndian.PutUint16(buf[32:34], 2)
	binary.LittleEndian.PutUint16(buf[34:36], 16)

	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(dataSize))

	for i, s := range samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		v := int16(s * 32767)
		binary.LittleEndian.PutUint16(buf[44+2*i:46+2*i], uint16(v))
	}

	return buf
}
