// ABOUTME: Emulator selection by name
// ABOUTME: Builds the chip a decoder writes to and the renderer or recorder behind it
package opl

import (
	"errors"
	"fmt"

	"github.com/adplay/adplay-go/pkg/audio"
)

// Emulator names accepted by NewEmulator
const (
	EmulatorTone   = "tone"
	EmulatorRawOut = "rawout"
)

// ErrUnknownEmulator is returned by NewEmulator for an unknown name
var ErrUnknownEmulator = errors.New("unknown emulator")

// Emulators lists the available software emulators
func Emulators() []string {
	return []string{EmulatorTone, EmulatorRawOut}
}

// Emulator is the chip side of a playback setup. Exactly one of Renderer and
// Recorder is set; Chip is whichever of the two it is.
type Emulator struct {
	Name     string
	Chip     Chip
	Renderer Renderer
	Recorder Recorder
}

// NewEmulator creates the named emulator. target is the capture file for
// rawout and ignored otherwise.
func NewEmulator(name string, format audio.Format, target string) (*Emulator, error) {
	switch name {
	case EmulatorTone:
		t, err := NewTone(format)
		if err != nil {
			return nil, err
		}
		return &Emulator{Name: name, Chip: t, Renderer: t}, nil
	case EmulatorRawOut:
		r, err := CreateRawOut(target)
		if err != nil {
			return nil, err
		}
		return &Emulator{Name: name, Chip: r, Recorder: r}, nil
	default:
		return nil, fmt.Errorf("%w -- %s", ErrUnknownEmulator, name)
	}
}

// Close finishes a recorder's stream
func (e *Emulator) Close() error {
	if e.Recorder != nil {
		return e.Recorder.Close()
	}
	return nil
}
