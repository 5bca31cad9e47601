// ABOUTME: OPL chip interfaces shared by decoders, renderers and hardware
// ABOUTME: Defines Chip, the sample Renderer and the register-stream Recorder
package opl

import "errors"

// ErrUnsupportedFormat is returned when an emulator cannot produce the
// requested sample format
var ErrUnsupportedFormat = errors.New("emulator does not support sample format")

// Chip receives register writes from a song decoder. An OPL3 exposes two
// register banks ("chips" 0 and 1); SetChip selects the bank that following
// writes go to.
type Chip interface {
	// Init resets the chip to a silent state
	Init()

	// Write sets register reg of the current bank to val
	Write(reg, val int)

	// SetChip selects the register bank (0 or 1)
	SetChip(n int)

	// Chip returns the selected register bank
	Chip() int
}

// Renderer is a Chip that turns accumulated register state into PCM
type Renderer interface {
	Chip

	// Render writes frames frames of audio to the start of buf
	Render(buf []byte, frames int) error
}

// Recorder is a Chip without a PCM concept that streams register writes to a
// destination of its own and needs to know when a decoder tick elapsed
type Recorder interface {
	Chip

	// Tick marks the end of one decoder tick at the given refresh rate
	Tick(refresh float64) error

	// Close finishes the stream
	Close() error
}

// Bank tracks the selected register bank. Embed it to implement SetChip and Chip.
type Bank struct {
	current int
}

// SetChip selects bank n. Anything other than 0 or 1 is ignored.
func (b *Bank) SetChip(n int) {
	if n == 0 || n == 1 {
		b.current = n
	}
}

// Chip returns the selected bank
func (b *Bank) Chip() int {
	return b.current
}
