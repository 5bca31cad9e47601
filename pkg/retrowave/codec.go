// ABOUTME: RetroWave command frames and 7-bit transport packing
// ABOUTME: Frames carry (io address, register, payload) and never exceed 8192 bytes
package retrowave

import (
	"errors"
	"fmt"
)

const (
	// FrameCapacity is the largest command frame the board accepts,
	// header included
	FrameCapacity = 8192

	// BoardOPL3 is the I²C address of the OPL3 board's GPIO expander
	BoardOPL3 = 0x21 << 1

	RegIODIRA = 0x00
	RegIOCON  = 0x0a
	RegGPIOA  = 0x12

	frameStart = 0x00
	frameEnd   = 0x02
)

// ErrFrameCorrupt is returned when a transport frame cannot be decoded
var ErrFrameCorrupt = errors.New("retrowave: corrupt frame")

// CommandFrame accumulates payload for one (io address, register) target.
// Whenever a different target is addressed or the payload would overflow,
// the pending frame is handed to emit.
type CommandFrame struct {
	buf  [FrameCapacity]byte
	used int
	emit func(cmd []byte) error
}

// NewCommandFrame creates an empty frame that hands completed frames to emit
func NewCommandFrame(emit func(cmd []byte) error) *CommandFrame {
	return &CommandFrame{emit: emit}
}

// Prepare makes room for n payload bytes addressed to (addr, reg)
func (f *CommandFrame) Prepare(addr, reg byte, n int) error {
	if n < 0 || n > FrameCapacity-2 {
		return fmt.Errorf("retrowave: payload of %d bytes does not fit a frame", n)
	}
	if f.used > FrameCapacity-n || (f.used > 0 && (f.buf[0] != addr || f.buf[1] != reg)) {
		if err := f.Flush(); err != nil {
			return err
		}
	}
	if f.used == 0 {
		f.buf[0] = addr
		f.buf[1] = reg
		f.used = 2
	}
	return nil
}

// Append adds payload bytes; callers reserve room with Prepare first
func (f *CommandFrame) Append(b ...byte) {
	f.used += copy(f.buf[f.used:], b)
}

// Len returns the number of queued bytes, header included
func (f *CommandFrame) Len() int {
	return f.used
}

// Flush hands the pending frame to emit. An empty frame is not sent.
func (f *CommandFrame) Flush() error {
	if f.used == 0 {
		return nil
	}
	cmd := f.buf[:f.used]
	f.used = 0
	return f.emit(cmd)
}

// PackedSize returns the transport size of an n-byte command
func PackedSize(n int) int {
	return 2 + (8*n+6)/7
}

// Pack encodes cmd as a transport frame: a start byte, every 7 bits of the
// command as (bits<<1)|1 with the last group left-aligned, and an end byte
func Pack(cmd []byte) []byte {
	return AppendPacked(make([]byte, 0, PackedSize(len(cmd))), cmd)
}

// AppendPacked appends the transport frame for cmd to dst
func AppendPacked(dst, cmd []byte) []byte {
	dst = append(dst, frameStart)

	var acc uint32
	fill := 0
	for _, b := range cmd {
		acc = acc<<8 | uint32(b)
		fill += 8
		for fill >= 7 {
			fill -= 7
			dst = append(dst, byte(acc>>fill)<<1|0x01)
		}
		acc &= 1<<fill - 1
	}
	if fill > 0 {
		dst = append(dst, byte(acc<<(7-fill))<<1|0x01)
	}

	return append(dst, frameEnd)
}

// Unpack decodes one transport frame back into its command bytes
func Unpack(frame []byte) ([]byte, error) {
	if len(frame) < 2 || frame[0] != frameStart || frame[len(frame)-1] != frameEnd {
		return nil, fmt.Errorf("%w: missing delimiters", ErrFrameCorrupt)
	}
	body := frame[1 : len(frame)-1]

	out := make([]byte, 0, len(body)*7/8)
	var acc uint32
	fill := 0
	for i, b := range body {
		if b&0x01 == 0 {
			return nil, fmt.Errorf("%w: byte %d is not a data byte (0x%02x)", ErrFrameCorrupt, i+1, b)
		}
		acc = acc<<7 | uint32(b>>1)
		fill += 7
		if fill >= 8 {
			fill -= 8
			out = append(out, byte(acc>>fill))
			acc &= 1<<fill - 1
		}
	}
	return out, nil
}
