//go:build linux || darwin

// ABOUTME: Serial transport for the RetroWave board
// ABOUTME: Opens the tty in raw mode and holds an exclusive lock on it
package retrowave

import (
	"fmt"
	"os"

	"github.com/pkg/term/termios"
	"golang.org/x/sys/unix"
)

// DefaultSerialPath is used when no device is given
const DefaultSerialPath = "/dev/ttyACM0"

// Serial is an exclusively locked raw-mode serial device
type Serial struct {
	f    *os.File
	path string
}

// OpenSerial opens path (DefaultSerialPath if empty), locks it and switches
// it to raw mode. A device locked by another process is an error.
func OpenSerial(path string) (*Serial, error) {
	if path == "" {
		path = DefaultSerialPath
	}

	f, err := os.OpenFile(path, os.O_RDWR|unix.O_NOCTTY, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to open tty/serial device %s: %w", path, err)
	}

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to lock tty/serial device %s: %w", path, err)
	}

	var attr unix.Termios
	if err := termios.Tcgetattr(f.Fd(), &attr); err != nil {
		f.Close()
		return nil, fmt.Errorf("tcgetattr on %s failed, not a tty/serial device? %w", path, err)
	}
	termios.Cfmakeraw(&attr)
	if err := termios.Tcsetattr(f.Fd(), termios.TCSANOW, &attr); err != nil {
		f.Close()
		return nil, fmt.Errorf("tcsetattr on %s failed: %w", path, err)
	}

	log.Infof("Opened RetroWave serial device %s", path)
	return &Serial{f: f, path: path}, nil
}

func (s *Serial) Write(p []byte) (int, error) {
	return s.f.Write(p)
}

// Path returns the device path
func (s *Serial) Path() string {
	return s.path
}

// Close releases the lock and the device
func (s *Serial) Close() error {
	if s.f == nil {
		return nil
	}
	unix.Flock(int(s.f.Fd()), unix.LOCK_UN)
	err := s.f.Close()
	s.f = nil
	return err
}
