// ABOUTME: Tone renderer approximating an OPL3 with one sine oscillator per channel
// ABOUTME: Interprets frequency, key-on, level and panning registers of both banks
package opl

import (
	"fmt"
	"math"

	"github.com/adplay/adplay-go/pkg/audio"
)

const (
	// oplClock is the OPL sample clock used to derive note frequencies
	oplClock = 49716.0

	channelsPerBank = 9
	sineBits        = 10
	channelGain     = 32767.0 / 6
)

// carrier slot offset within the 0x40 operator bank for each channel
var carrierSlot = [channelsPerBank]int{3, 4, 5, 11, 12, 13, 19, 20, 21}

var sineTable = func() [1 << sineBits]float64 {
	var t [1 << sineBits]float64
	for i := range t {
		t[i] = math.Sin(2 * math.Pi * float64(i) / float64(len(t)))
	}
	return t
}()

type toneChannel struct {
	keyOn bool
	phase uint32
	inc   uint32
	amp   float64
	left  bool
	right bool
}

// Tone is a lightweight sample renderer. It keeps no envelopes or operator
// modulation; a keyed-on channel is a sine at the channel frequency scaled by
// the carrier's total level. Good enough to preview a song without a full
// chip emulator.
type Tone struct {
	Bank
	format   audio.Format
	regs     [2][256]uint8
	channels [2 * channelsPerBank]toneChannel
	opl3     bool
}

// NewTone creates a tone renderer producing the given format
func NewTone(format audio.Format) (*Tone, error) {
	if err := format.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}
	t := &Tone{format: format}
	t.Init()
	return t, nil
}

// Init silences every channel and selects bank 0
func (t *Tone) Init() {
	t.regs = [2][256]uint8{}
	t.opl3 = false
	for i := range t.channels {
		t.channels[i] = toneChannel{amp: 1, left: true, right: true}
	}
	t.current = 0
}

// Write stores a register and updates the affected channel
func (t *Tone) Write(reg, val int) {
	bank := t.current
	r := reg & 0xff
	t.regs[bank][r] = uint8(val)

	switch {
	case bank == 1 && r == 0x05:
		t.opl3 = val&0x01 != 0
		for i := range t.channels {
			t.updatePan(i)
		}
	case r >= 0xa0 && r <= 0xa8, r >= 0xb0 && r <= 0xb8:
		t.updateFrequency(bank, r&0x0f)
	case r >= 0x40 && r <= 0x55:
		for c, slot := range carrierSlot {
			if slot == r-0x40 {
				t.updateLevel(bank, c)
			}
		}
	case r >= 0xc0 && r <= 0xc8:
		t.updatePan(bank*channelsPerBank + r - 0xc0)
	}
}

func (t *Tone) updateFrequency(bank, c int) {
	regs := &t.regs[bank]
	ch := &t.channels[bank*channelsPerBank+c]

	fnum := int(regs[0xa0+c]) | int(regs[0xb0+c]&0x03)<<8
	block := int(regs[0xb0+c]>>2) & 0x07
	freq := float64(fnum) * oplClock / float64(uint32(1)<<(20-block))

	ch.inc = uint32(freq / float64(t.format.SampleRate) * (1 << 32))
	keyOn := regs[0xb0+c]&0x20 != 0
	if keyOn && !ch.keyOn {
		ch.phase = 0
	}
	ch.keyOn = keyOn
}

func (t *Tone) updateLevel(bank, c int) {
	level := t.regs[bank][0x40+carrierSlot[c]] & 0x3f
	t.channels[bank*channelsPerBank+c].amp = math.Pow(10, -0.75*float64(level)/20)
}

func (t *Tone) updatePan(i int) {
	ch := &t.channels[i]
	if !t.opl3 {
		ch.left, ch.right = true, true
		return
	}
	v := t.regs[i/channelsPerBank][0xc0+i%channelsPerBank]
	ch.left = v&0x10 != 0
	ch.right = v&0x20 != 0
}

// Render mixes all keyed-on channels into buf
func (t *Tone) Render(buf []byte, frames int) error {
	frameSize := t.format.FrameSize()
	if len(buf) < frames*frameSize {
		return fmt.Errorf("render buffer holds %d frames, %d requested", len(buf)/frameSize, frames)
	}

	pos := 0
	for f := 0; f < frames; f++ {
		var left, right float64
		for i := range t.channels {
			ch := &t.channels[i]
			if !ch.keyOn {
				continue
			}
			v := sineTable[ch.phase>>(32-sineBits)] * ch.amp * channelGain
			ch.phase += ch.inc
			if ch.left {
				left += v
			}
			if ch.right {
				right += v
			}
		}

		if t.format.Channels == 1 {
			pos += t.format.PutSample(buf[pos:], clamp16((left+right)/2))
			continue
		}
		pos += t.format.PutSample(buf[pos:], clamp16(left))
		pos += t.format.PutSample(buf[pos:], clamp16(right))
	}
	return nil
}

func clamp16(v float64) int16 {
	if v > math.MaxInt16 {
		return math.MaxInt16
	}
	if v < math.MinInt16 {
		return math.MinInt16
	}
	return int16(v)
}
