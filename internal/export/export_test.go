package export

import (
	"bytes"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-audio/wav"
)

func TestWriteIQ(t *testing.T) {
	samples := []complex64{complex(1, -1), complex(0.5, 0.25), complex(-0.0078125, 0.9921875)}

	var buf bytes.Buffer
	if err := WriteIQ(&buf, samples); err != nil {
		t.Fatalf("WriteIQ failed: %v", err)
	}

	if buf.Len() != len(samples)*8 {
		t.Fatalf("Expected %d bytes, got %d", len(samples)*8, buf.Len())
	}

	raw := buf.Bytes()
	if got := math.Float32frombits(binary.LittleEndian.Uint32(raw[8:12])); got != 0.5 {
		t.Errorf("Expected I of sample 1 to be 0.5, got %v", got)
	}
	if got := math.Float32frombits(binary.LittleEndian.Uint32(raw[12:16])); got != 0.25 {
		t.Errorf("Expected Q of sample 1 to be 0.25, got %v", got)
	}

	read, err := ReadIQ(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("ReadIQ failed: %v", err)
	}
	if len(read) != len(samples) {
		t.Fatalf("Expected %d samples, got %d", len(samples), len(read))
	}
	for i := range samples {
		if read[i] != samples[i] {
			t.Errorf("Sample %d: expected %v, got %v", i, samples[i], read[i])
		}
	}
}

func TestWriteIQ_LargerThanBlock(t *testing.T) {
	samples := make([]complex64, blockSamples+3)
	samples[blockSamples+2] = complex(0.75, -0.75)

	var buf bytes.Buffer
	if err := WriteIQ(&buf, samples); err != nil {
		t.Fatalf("WriteIQ failed: %v", err)
	}

	read, err := ReadIQ(&buf)
	if err != nil {
		t.Fatalf("ReadIQ failed: %v", err)
	}
	if len(read) != len(samples) || read[blockSamples+2] != complex(0.75, -0.75) {
		t.Errorf("Round trip across block boundary failed: %d samples, last %v", len(read), read[len(read)-1])
	}
}

func TestReadIQ_Truncated(t *testing.T) {
	if _, err := ReadIQ(bytes.NewReader(make([]byte, 13))); err == nil {
		t.Error("Expected error for a truncated sample")
	}

	samples, err := ReadIQ(bytes.NewReader(nil))
	if err != nil || len(samples) != 0 {
		t.Errorf("Expected empty result for empty input, got %d samples (%v)", len(samples), err)
	}
}

func TestWriteNPY(t *testing.T) {
	data := []float64{1.5, -2, 0.125}

	var buf bytes.Buffer
	if err := WriteNPY(&buf, data); err != nil {
		t.Fatalf("WriteNPY failed: %v", err)
	}

	raw := buf.Bytes()
	if !bytes.HasPrefix(raw, []byte("\x93NUMPY\x01\x00")) {
		t.Fatalf("Missing npy magic: %q", raw[:8])
	}

	headerLen := int(binary.LittleEndian.Uint16(raw[8:10]))
	if (10+headerLen)%64 != 0 {
		t.Errorf("Header not aligned to 64 bytes: %d", 10+headerLen)
	}

	header := string(raw[10 : 10+headerLen])
	if !strings.HasPrefix(header, "{'descr': '<f8', 'fortran_order': False, 'shape': (3,), }") {
		t.Errorf("Unexpected header %q", header)
	}
	if !strings.HasSuffix(header, "\n") {
		t.Error("Header must end with a newline")
	}

	body := raw[10+headerLen:]
	if len(body) != len(data)*8 {
		t.Fatalf("Expected %d data bytes, got %d", len(data)*8, len(body))
	}
	for i, want := range data {
		if got := math.Float64frombits(binary.LittleEndian.Uint64(body[i*8:])); got != want {
			t.Errorf("Element %d: expected %v, got %v", i, want, got)
		}
	}
}

func TestWriteWAV(t *testing.T) {
	signal := []float64{0, 0.5, -1, 0.25, 1, -0.5}

	path := filepath.Join(t.TempDir(), "signal.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create file: %v", err)
	}
	if err = WriteWAV(f, signal, 24096); err != nil {
		t.Fatalf("WriteWAV failed: %v", err)
	}
	if err = f.Close(); err != nil {
		t.Fatalf("Failed to close file: %v", err)
	}

	f, err = os.Open(path)
	if err != nil {
		t.Fatalf("Failed to open file: %v", err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		t.Fatalf("Failed to decode WAV: %v", err)
	}

	if buf.Format.SampleRate != 24096 || buf.Format.NumChannels != 1 || dec.BitDepth != 16 {
		t.Errorf("Unexpected format: rate=%d channels=%d depth=%d", buf.Format.SampleRate, buf.Format.NumChannels, dec.BitDepth)
	}

	expected := []int{0, 16383, -32767, 8191, 32767, -16383}
	if len(buf.Data) != len(expected) {
		t.Fatalf("Expected %d samples, got %d", len(expected), len(buf.Data))
	}
	for i, want := range expected {
		if buf.Data[i] != want {
			t.Errorf("Sample %d: expected %d, got %d", i, want, buf.Data[i])
		}
	}
}

func TestWriteWAV_Silence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "silence.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create file: %v", err)
	}
	defer f.Close()

	if err = WriteWAV(f, make([]float64, 10), 24000); err != nil {
		t.Fatalf("WriteWAV failed: %v", err)
	}
	if err = WriteWAV(f, nil, 0); err == nil {
		t.Error("Expected error for zero sample rate")
	}
}
