// Package audio provides WAV file I/O for the noise-reduction engine,
// decoding to and encoding from the mono float64 PCM buffers the denoiser
// packages operate on.
package audio

import (
	"errors"
	"fmt"
	"io"
	"math"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// ReadWAV decodes a mono or stereo PCM WAV stream into samples normalized
// to [-1.0, +1.0] at the file's native sample rate. Stereo input is mixed
// down to mono by averaging channels, matching the engine's single-channel
// contract.
func ReadWAV(r io.Reader) (samples []float64, sampleRate int, err error) {
	dec := wav.NewDecoder(r)
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("audio: decode wav: %w", err)
	}
	if buf == nil || len(buf.Data) == 0 {
		return nil, 0, errors.New("audio: empty wav data")
	}
	if !dec.WasPCMAccessed() {
		return nil, 0, errors.New("audio: not a PCM wav file")
	}

	sampleRate = int(dec.SampleRate)
	if sampleRate <= 0 {
		return nil, 0, errors.New("audio: invalid sample rate")
	}
	numChans := int(dec.NumChans)
	if numChans != 1 && numChans != 2 {
		return nil, 0, fmt.Errorf("audio: unsupported channel count %d", numChans)
	}

	maxValue := float64(int(1) << uint(buf.SourceBitDepth-1))
	if buf.SourceBitDepth <= 0 {
		maxValue = float64(int(1) << 15)
	}

	raw := make([]float64, len(buf.Data))
	for i, v := range buf.Data {
		raw[i] = float64(v) / maxValue
	}

	if numChans == 1 {
		return raw, sampleRate, nil
	}

	mono := make([]float64, len(raw)/2)
	for i := range mono {
		mono[i] = 0.5 * (raw[2*i] + raw[2*i+1])
	}
	return mono, sampleRate, nil
}

// WriteWAV encodes mono float64 samples (clamped to [-1.0, +1.0]) as a
// 16-bit PCM WAV stream at the given sample rate.
func WriteWAV(w io.WriteSeeker, samples []float64, sampleRate int) error {
	enc := wav.NewEncoder(w, sampleRate, 16, 1, 1)

	ints := make([]int, len(samples))
	for i, s := range samples {
		s = clampUnit(s)
		var v int16
		if s >= 0 {
			v = int16(math.Round(s * 32767))
		} else {
			v = int16(math.Round(s * 32768))
		}
		ints[i] = int(v)
	}

	intBuf := &goaudio.IntBuffer{
		Format: &goaudio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:   ints,
		SourceBitDepth: 16,
	}
	if err := enc.Write(intBuf); err != nil {
		return fmt.Errorf("audio: encode wav: %w", err)
	}
	return enc.Close()
}

func clampUnit(s float64) float64 {
	if s > 1.0 {
		return 1.0
	}
	if s < -1.0 {
		return -1.0
	}
	return s
}
