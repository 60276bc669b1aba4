// Package export writes captures and demodulated signals to files readable
// by numpy and common audio tools.
package export

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// blockSamples bounds the staging buffer used by the binary writers.
const blockSamples = 64 * 1024

// WriteIQ writes samples as interleaved little endian float32 I/Q pairs, the
// layout numpy.complex64.tofile produces.
func WriteIQ(w io.Writer, samples []complex64) error {
	bw := bufio.NewWriterSize(w, 1<<20)
	block := make([]byte, 0, blockSamples*8)

	for start := 0; start < len(samples); start += blockSamples {
		block = block[:0]
		for _, s := range samples[start:min(start+blockSamples, len(samples))] {
			block = binary.LittleEndian.AppendUint32(block, math.Float32bits(real(s)))
			block = binary.LittleEndian.AppendUint32(block, math.Float32bits(imag(s)))
		}
		if _, err := bw.Write(block); err != nil {
			return fmt.Errorf("writing IQ samples: %w", err)
		}
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("writing IQ samples: %w", err)
	}
	return nil
}

// ReadIQ reads a file written by WriteIQ. A trailing partial sample is an
// error.
func ReadIQ(r io.Reader) ([]complex64, error) {
	br := bufio.NewReaderSize(r, 1<<20)

	var samples []complex64
	pair := make([]byte, 8)
	for {
		n, err := io.ReadFull(br, pair)
		if errors.Is(err, io.EOF) {
			return samples, nil
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("reading IQ samples: truncated sample of %d bytes at offset %d", n, len(samples)*8)
		}
		if err != nil {
			return nil, fmt.Errorf("reading IQ samples: %w", err)
		}

		re := math.Float32frombits(binary.LittleEndian.Uint32(pair[0:4]))
		im := math.Float32frombits(binary.LittleEndian.Uint32(pair[4:8]))
		samples = append(samples, complex(re, im))
	}
}
