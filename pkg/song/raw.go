// ABOUTME: Decoder for RdosPlay RAW OPL captures
// ABOUTME: Replays (value, register) pairs with delay and clock-change codes
package song

import (
	"encoding/binary"
	"errors"

	"github.com/adplay/adplay-go/pkg/opl"
)

type rawCommand struct {
	param   uint8
	command uint8
}

// Raw replays an RdosPlay RAW capture
type Raw struct {
	chip    opl.Chip
	clock   uint16
	data    []rawCommand
	pos     int
	delay   int
	speed   uint16
	songEnd bool
}

// NewRaw parses a RAW capture
func NewRaw(data []byte, chip opl.Chip) (*Raw, error) {
	header := len(opl.RawSignature) + 2
	if len(data) < header {
		return nil, errors.New("raw: truncated header")
	}

	r := &Raw{
		chip:  chip,
		clock: binary.LittleEndian.Uint16(data[len(opl.RawSignature):]),
	}
	body := data[header:]
	r.data = make([]rawCommand, len(body)/2)
	for i := range r.data {
		r.data[i] = rawCommand{param: body[2*i], command: body[2*i+1]}
	}
	return r, nil
}

// Update processes commands until the next delay
func (r *Raw) Update() bool {
	if r.delay > 0 {
		r.delay--
		return !r.songEnd
	}

	for {
		if r.pos >= len(r.data) {
			r.restart()
			return !r.songEnd
		}

		c := r.data[r.pos]
		r.pos++
		switch c.command {
		case opl.RawCmdDelay:
			if c.param > 0 {
				r.delay = int(c.param) - 1
			}
			return !r.songEnd
		case opl.RawCmdControl:
			if c.param == 0 {
				if r.pos < len(r.data) {
					next := r.data[r.pos]
					r.speed = uint16(next.param) | uint16(next.command)<<8
					r.pos++
				}
			} else {
				r.chip.SetChip(int(c.param) - 1)
			}
		case opl.RawEnd:
			if c.param == opl.RawEnd {
				r.restart()
				return !r.songEnd
			}
			r.chip.Write(int(c.command), int(c.param))
		default:
			r.chip.Write(int(c.command), int(c.param))
		}
	}
}

func (r *Raw) restart() {
	r.pos = 0
	r.delay = 0
	r.speed = r.clock
	r.songEnd = true
	r.chip.SetChip(0)
}

// Refresh derives the tick rate from the current clock divisor
func (r *Raw) Refresh() float64 {
	speed := r.speed
	if speed == 0 {
		speed = 0xffff
	}
	return float64(opl.RawTimerClock) / float64(speed)
}

// Rewind restarts the capture. RAW files have a single subsong.
func (r *Raw) Rewind(int) {
	r.pos = 0
	r.delay = 0
	r.speed = r.clock
	r.songEnd = false
	r.chip.Init()
	r.chip.SetChip(0)
}

func (r *Raw) Subsongs() int { return 1 }
func (r *Raw) Subsong() int  { return 0 }

func (r *Raw) Type() string        { return "RdosPlay RAW" }
func (r *Raw) Title() string       { return "" }
func (r *Raw) Author() string      { return "" }
func (r *Raw) Description() string { return "" }

func (r *Raw) Instruments() int       { return 0 }
func (r *Raw) Instrument(int) string { return "" }

// Position reports the command index as the order
func (r *Raw) Position() Position {
	return Position{Order: r.pos, Orders: len(r.data), Speed: int(r.speed)}
}
