//go:build !hackrf

package hackrf

import (
	"context"
	"errors"

	"github.com/roman-kulish/iq-capture/internal/sdr/driver"
)

// ErrNotCompiled is returned when the binary was built without libhackrf.
var ErrNotCompiled = errors.New("hackrf: support not compiled in, rebuild with -tags hackrf")

func init() {
	driver.Register(Driver{})
}

// BasebandFilterBandwidths are the MAX2837 baseband filter settings, in Hz.
var BasebandFilterBandwidths = []uint32{
	1_750_000,
	2_500_000,
	3_500_000,
	5_000_000,
	5_500_000,
	6_000_000,
	7_000_000,
	8_000_000,
	9_000_000,
	10_000_000,
	12_000_000,
	14_000_000,
	15_000_000,
	20_000_000,
	24_000_000,
	28_000_000,
}

// RoundDownBasebandFilter answers hackrf_compute_baseband_filter_bw_round_down_lt
// from the table when libhackrf is not linked in.
func RoundDownBasebandFilter(hz uint32) uint32 {
	return driver.RoundDownLT(BasebandFilterBandwidths, hz)
}

// Driver is a placeholder for builds without the "hackrf" tag.
type Driver struct{}

func (Driver) Name() string {
	return Name
}

func (Driver) Open(context.Context, driver.Identifier) (driver.Handle, error) {
	return nil, ErrNotCompiled
}
