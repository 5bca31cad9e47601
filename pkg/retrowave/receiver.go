// ABOUTME: Board-side decoder for the RetroWave serial stream
// ABOUTME: Splits transport frames and turns GPIO strobes back into OPL writes
package retrowave

import (
	"bytes"
	"fmt"
)

// Frame is one decoded command frame
type Frame struct {
	Addr byte
	Reg  byte
	Data []byte
}

// Write is one OPL register write recovered from the GPIO strobe sequence
type Write struct {
	Addr  byte
	Reg   byte
	Port  int
	Value byte
}

// Receiver plays the board's role: it accepts the byte stream sent to the
// serial device, in any chunking, and records what it decodes
type Receiver struct {
	pending []byte

	Syncs  int
	Frames []Frame
	Writes []Write
}

// Write consumes stream bytes and decodes every complete transport frame
func (r *Receiver) Write(p []byte) (int, error) {
	r.pending = append(r.pending, p...)

	for {
		start := bytes.IndexByte(r.pending, frameStart)
		if start < 0 {
			if len(r.pending) > 0 {
				junk := len(r.pending)
				r.pending = r.pending[:0]
				return len(p), fmt.Errorf("%w: %d bytes outside a frame", ErrFrameCorrupt, junk)
			}
			return len(p), nil
		}
		if start > 0 {
			r.pending = r.pending[start:]
			return len(p), fmt.Errorf("%w: %d bytes outside a frame", ErrFrameCorrupt, start)
		}

		end := bytes.IndexByte(r.pending, frameEnd)
		if end < 0 {
			return len(p), nil
		}

		frame := r.pending[:end+1]
		r.pending = r.pending[end+1:]
		if err := r.decode(frame); err != nil {
			return len(p), err
		}
	}
}

func (r *Receiver) decode(frame []byte) error {
	cmd, err := Unpack(frame)
	if err != nil {
		return err
	}

	if len(cmd) < 2 {
		r.Syncs++
		return nil
	}

	f := Frame{Addr: cmd[0], Reg: cmd[1], Data: append([]byte(nil), cmd[2:]...)}
	r.Frames = append(r.Frames, f)

	if f.Addr != BoardOPL3 || f.Reg != RegGPIOA || !isStrobe(f.Data) {
		return nil
	}
	if len(f.Data)%6 != 0 {
		return fmt.Errorf("%w: OPL frame payload of %d bytes", ErrFrameCorrupt, len(f.Data))
	}
	for i := 0; i < len(f.Data); i += 6 {
		g := f.Data[i : i+6]
		var port int
		switch {
		case g[0] == 0xe1 && g[2] == 0xe3:
			port = 0
		case g[0] == 0xe5 && g[2] == 0xe7:
			port = 1
		default:
			return fmt.Errorf("%w: unknown strobe % x", ErrFrameCorrupt, g[:3])
		}
		if g[4] != 0xfb || g[5] != g[3] {
			return fmt.Errorf("%w: bad data latch % x", ErrFrameCorrupt, g[3:])
		}
		r.Writes = append(r.Writes, Write{Addr: f.Addr, Reg: g[1], Port: port, Value: g[3]})
	}
	return nil
}

// isStrobe reports whether a GPIOA payload carries OPL strobe groups rather
// than plain expander output levels, like the ones set during bring-up
func isStrobe(data []byte) bool {
	if len(data) == 0 {
		return false
	}
	switch data[0] {
	case 0xe1, 0xe5:
		return true
	}
	return false
}

// Reset forgets everything decoded so far
func (r *Receiver) Reset() {
	r.pending = r.pending[:0]
	r.Syncs = 0
	r.Frames = nil
	r.Writes = nil
}
