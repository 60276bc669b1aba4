// Package driver defines the contract between a receive session and the
// hardware backend that owns the sample stream.
package driver

import (
	"context"
	"fmt"
	"slices"
	"sync"
)

// Callback receives one chunk of interleaved signed 8-bit I/Q bytes.
// It is invoked on a goroutine owned by the driver, never concurrently with
// itself, and must not retain buf after it returns.
type Callback func(buf []byte)

// Settings are the hardware parameters applied to an open handle. Values are
// expected to be already quantized to what the device supports.
type Settings struct {
	SampleRate      float64
	CenterFrequency uint64
	LNAGain         int
	VGAGain         int
	BasebandFilter  uint32
	EnableAmp       bool
	EnableAntenna   bool
}

// Capabilities answers questions about supported hardware values.
type Capabilities interface {
	// RoundDownBasebandFilter returns the largest supported baseband filter
	// bandwidth strictly below hz, or the smallest supported one when there is
	// nothing below.
	RoundDownBasebandFilter(hz uint32) uint32
}

// Handle is an open device.
type Handle interface {
	Capabilities

	Apply(s Settings) error
	StartRX(cb Callback) error

	// StopRX returns once the driver guarantees no further callback invocations.
	StopRX() error
	Close() error
}

// Driver opens handles for one kind of hardware.
type Driver interface {
	Name() string
	Open(ctx context.Context, id Identifier) (Handle, error)
}

var (
	driversMu sync.RWMutex
	drivers   = make(map[string]Driver)
)

// Register makes a driver available by name. Backends call it from init, and
// binaries select the backends they want with blank imports.
// Register panics if it is called twice with the same name or with a nil driver.
func Register(d Driver) {
	driversMu.Lock()
	defer driversMu.Unlock()

	if d == nil {
		panic("driver: Register driver is nil")
	}
	if _, dup := drivers[d.Name()]; dup {
		panic("driver: Register called twice for driver " + d.Name())
	}
	drivers[d.Name()] = d
}

// Lookup returns the registered driver with the given name.
func Lookup(name string) (Driver, error) {
	driversMu.RLock()
	defer driversMu.RUnlock()

	d, ok := drivers[name]
	if !ok {
		return nil, fmt.Errorf("unknown driver %q (forgotten import?)", name)
	}
	return d, nil
}

// Drivers returns a sorted list of the names of the registered drivers.
func Drivers() []string {
	driversMu.RLock()
	defer driversMu.RUnlock()

	names := make([]string, 0, len(drivers))
	for name := range drivers {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// RoundDownLT implements the libhackrf round_down_lt policy over a table of
// supported values sorted ascending: the first entry at or above hz is
// located and the entry before it is returned, unless it is the first entry.
// Values above the table resolve to its last entry.
func RoundDownLT(table []uint32, hz uint32) uint32 {
	if len(table) == 0 {
		return hz
	}

	i, _ := slices.BinarySearch(table, hz)
	if i >= len(table) {
		return table[len(table)-1]
	}
	if i > 0 {
		i--
	}
	return table[i]
}
