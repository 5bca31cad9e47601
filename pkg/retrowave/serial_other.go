//go:build !linux && !darwin

// ABOUTME: Serial transport stub for platforms without termios support
// ABOUTME: Reports that the RetroWave board is unavailable
package retrowave

import "errors"

// DefaultSerialPath is used when no device is given
const DefaultSerialPath = "/dev/ttyACM0"

// Serial is unavailable on this platform
type Serial struct{}

// OpenSerial always fails on this platform
func OpenSerial(path string) (*Serial, error) {
	return nil, errors.New("RetroWave serial devices are not supported on this platform")
}

func (s *Serial) Write(p []byte) (int, error) {
	return 0, errors.New("serial device not open")
}

func (s *Serial) Path() string { return "" }

func (s *Serial) Close() error { return nil }
