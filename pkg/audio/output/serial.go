// ABOUTME: Hardware sink driving a RetroWave OPL3 board
// ABOUTME: Exposes the board as an opl.Chip and resets it exactly once on close
package output

import (
	"errors"
	"io"
	"sync"

	"github.com/adplay/adplay-go/pkg/opl"
	"github.com/adplay/adplay-go/pkg/retrowave"
)

// Serial is a RetroWave board behind a serial port
type Serial struct {
	port      io.WriteCloser
	dev       *retrowave.Device
	chip      *retrowave.OPL
	closeOnce sync.Once
	closeErr  error
}

// OpenSerial opens and brings up the board at path (the default port if empty)
func OpenSerial(path string) (*Serial, error) {
	port, err := retrowave.OpenSerial(path)
	if err != nil {
		return nil, err
	}
	s, err := NewSerial(port)
	if err != nil {
		port.Close()
		return nil, err
	}
	return s, nil
}

// NewSerial brings up the board connected to port
func NewSerial(port io.WriteCloser) (*Serial, error) {
	dev := retrowave.NewDevice(port)
	if err := dev.BringUp(); err != nil {
		return nil, err
	}
	return &Serial{
		port: port,
		dev:  dev,
		chip: retrowave.NewOPL(dev),
	}, nil
}

// Chip returns the board as the register target for decoders
func (s *Serial) Chip() opl.Chip {
	return s.chip
}

// Device returns the underlying board driver
func (s *Serial) Device() *retrowave.Device {
	return s.dev
}

// Flush sends the writes queued during the last tick
func (s *Serial) Flush() error {
	if err := s.chip.Err(); err != nil {
		return err
	}
	return s.dev.Flush()
}

// Close silences the chip and releases the port
func (s *Serial) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = errors.Join(s.dev.Shutdown(), s.port.Close())
	})
	return s.closeErr
}
