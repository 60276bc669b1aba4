package driver

import "fmt"

// ConfigError is a custom error type for invalid configuration that cannot
// be corrected by rounding.
type ConfigError struct {
	msg string
}

func NewConfigError(msg string) *ConfigError {
	return &ConfigError{msg}
}

func (e *ConfigError) Error() string {
	return e.msg
}

// DeviceError reports a failure to open or configure a device. A session that
// returns it is unusable and its handle has been released.
type DeviceError struct {
	Op  string
	Err error
}

func NewDeviceError(op string, err error) *DeviceError {
	return &DeviceError{Op: op, Err: err}
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("device %s: %v", e.Op, e.Err)
}

func (e *DeviceError) Unwrap() error {
	return e.Err
}

// StreamError reports a failure to start or stop the sample stream.
type StreamError struct {
	Op  string
	Err error
}

func NewStreamError(op string, err error) *StreamError {
	return &StreamError{Op: op, Err: err}
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("stream %s: %v", e.Op, e.Err)
}

func (e *StreamError) Unwrap() error {
	return e.Err
}
