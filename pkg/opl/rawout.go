// ABOUTME: Register-stream recorder writing RdosPlay RAW captures
// ABOUTME: Used with the null output to dump a song's register writes to disk
package opl

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// RAW stream layout: "RAWADATA", a 16-bit clock, then (value, register)
// pairs. Register 0 is a delay of value ticks, register 2 is a control code:
// value 0 introduces a new 16-bit clock, 1 and 2 select a register bank.
// 0xff 0xff ends the stream.
const (
	RawSignature = "RAWADATA"

	// RawTimerClock is the PIT frequency the RAW clock divides
	RawTimerClock = 1193180

	RawCmdDelay   = 0x00
	RawCmdControl = 0x02
	RawEnd        = 0xff

	rawInitialClock = 0xffff
)

// RawOut records register writes to an RdosPlay RAW stream
type RawOut struct {
	Bank
	w       *bufio.Writer
	closer  io.Closer
	refresh float64
	delay   int
	err     error
	closed  bool
}

// CreateRawOut creates the capture file at path
func CreateRawOut(path string) (*RawOut, error) {
	if path == "" {
		return nil, fmt.Errorf("rawout: no output file specified")
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("rawout: %w", err)
	}
	r, err := NewRawOut(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return r, nil
}

// NewRawOut writes the RAW header to w. w is closed by Close if it is an io.Closer.
func NewRawOut(w io.Writer) (*RawOut, error) {
	r := &RawOut{w: bufio.NewWriter(w)}
	if c, ok := w.(io.Closer); ok {
		r.closer = c
	}

	r.w.WriteString(RawSignature)
	r.putClock(rawInitialClock)
	if r.err != nil {
		return nil, fmt.Errorf("rawout: write header: %w", r.err)
	}
	return r, nil
}

func (r *RawOut) put(val, reg byte) {
	if r.err != nil {
		return
	}
	if err := r.w.WriteByte(val); err != nil {
		r.err = err
		return
	}
	if err := r.w.WriteByte(reg); err != nil {
		r.err = err
	}
}

func (r *RawOut) putClock(clock uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], clock)
	if r.err != nil {
		return
	}
	if _, err := r.w.Write(b[:]); err != nil {
		r.err = err
	}
}

// Init keys off every channel in both banks
func (r *RawOut) Init() {
	for bank := 1; bank >= 0; bank-- {
		r.SetChip(bank)
		for c := 0; c < channelsPerBank; c++ {
			r.Write(0xb0+c, 0)
		}
	}
}

// Write records a register write. Registers 0 and 2 carry no sound state on
// an OPL and would collide with the stream's control codes, so they are dropped.
func (r *RawOut) Write(reg, val int) {
	if reg == RawCmdDelay || reg == RawCmdControl {
		return
	}
	r.put(byte(val), byte(reg))
}

// SetChip records a bank switch
func (r *RawOut) SetChip(n int) {
	r.Bank.SetChip(n)
	r.put(byte(r.current+1), RawCmdControl)
}

// Tick records one decoder tick, emitting a clock change first when the
// refresh rate moved
func (r *RawOut) Tick(refresh float64) error {
	if refresh <= 0 {
		return fmt.Errorf("rawout: invalid refresh rate %v", refresh)
	}
	if refresh != r.refresh {
		r.refresh = refresh
		// slow rates need several ticks of the slowest clock
		r.delay = int(18.2 / refresh)
		r.put(0, RawCmdControl)
		r.putClock(uint16(RawTimerClock / (refresh * float64(r.delay+1))))
	}
	r.put(byte(r.delay+1), RawCmdDelay)
	return r.err
}

// Err returns the first write error
func (r *RawOut) Err() error {
	return r.err
}

// Close writes the end marker and flushes the stream
func (r *RawOut) Close() error {
	if r.closed {
		return r.err
	}
	r.closed = true

	r.put(RawEnd, RawEnd)
	if r.err == nil {
		r.err = r.w.Flush()
	}
	if r.closer != nil {
		if err := r.closer.Close(); err != nil && r.err == nil {
			r.err = err
		}
		r.closer = nil
	}
	if r.err != nil {
		return fmt.Errorf("rawout: %w", r.err)
	}
	return nil
}
