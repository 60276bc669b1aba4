package export

import (
	"fmt"
	"io"
	"math"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	wavBitDepth  = 16
	wavChannels  = 1
	wavFormatPCM = 1
	wavFullScale = math.MaxInt16
)

// WriteWAV writes signal as 16-bit mono PCM, normalized so that the largest
// absolute sample maps to full scale. A silent signal is written as zeros.
func WriteWAV(ws io.WriteSeeker, signal []float64, sampleRate int) error {
	if sampleRate <= 0 {
		return fmt.Errorf("invalid WAV sample rate: %d", sampleRate)
	}

	var peak float64
	for _, v := range signal {
		peak = max(peak, math.Abs(v))
	}

	data := make([]int, len(signal))
	if peak > 0 {
		for i, v := range signal {
			// truncation toward zero, as numpy's astype(int16) does
			data[i] = int(v / peak * wavFullScale)
		}
	}

	enc := wav.NewEncoder(ws, sampleRate, wavBitDepth, wavChannels, wavFormatPCM)

	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: wavChannels,
			SampleRate:  sampleRate,
		},
		Data:           data,
		SourceBitDepth: wavBitDepth,
	}

	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("writing WAV data: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("finalizing WAV file: %w", err)
	}
	return nil
}
