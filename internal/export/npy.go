package export

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strings"
)

var npyMagic = []byte("\x93NUMPY\x01\x00")

// WriteNPY writes data as a one dimensional little endian float64 array in
// the NumPy .npy format, version 1.0, loadable with numpy.load.
func WriteNPY(w io.Writer, data []float64) error {
	header := fmt.Sprintf("{'descr': '<f8', 'fortran_order': False, 'shape': (%d,), }", len(data))

	// magic, version and length prefix plus the header end on a 64 byte boundary
	prefix := len(npyMagic) + 2
	padding := 64 - (prefix+len(header)+1)%64
	if padding == 64 {
		padding = 0
	}
	header += strings.Repeat(" ", padding) + "\n"

	bw := bufio.NewWriterSize(w, 1<<20)
	if _, err := bw.Write(npyMagic); err != nil {
		return fmt.Errorf("writing npy header: %w", err)
	}
	if err := binary.Write(bw, binary.LittleEndian, uint16(len(header))); err != nil {
		return fmt.Errorf("writing npy header: %w", err)
	}
	if _, err := bw.WriteString(header); err != nil {
		return fmt.Errorf("writing npy header: %w", err)
	}

	var buf [8]byte
	for _, v := range data {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
		if _, err := bw.Write(buf[:]); err != nil {
			return fmt.Errorf("writing npy data: %w", err)
		}
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("writing npy data: %w", err)
	}
	return nil
}
