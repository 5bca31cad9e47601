// ABOUTME: RetroWave OPL3 board driver
// ABOUTME: Queues port writes, flushes packed frames and resets the chip
package retrowave

import (
	"fmt"
	"io"
	"runtime"
	"sync/atomic"
	"time"
)

// Expander addresses brought up at start
const (
	firstExpander = 0x20
	lastExpander  = 0x27
)

// Device queues OPL3 register writes for the board behind w
type Device struct {
	w     io.Writer
	frame *CommandFrame
	io    []byte

	// ChunkSize splits transport writes; some serial drivers corrupt
	// large writes. Zero writes each frame at once.
	ChunkSize int
	ChunkGap  time.Duration

	resetDone atomic.Bool
}

// NewDevice creates a driver writing to w
func NewDevice(w io.Writer) *Device {
	d := &Device{
		w:  w,
		io: make([]byte, 0, PackedSize(FrameCapacity)),
	}
	d.frame = NewCommandFrame(d.send)
	if runtime.GOOS == "darwin" {
		d.ChunkSize = 128
		d.ChunkGap = 250 * time.Microsecond
	}
	return d
}

func (d *Device) send(cmd []byte) error {
	d.io = AppendPacked(d.io[:0], cmd)

	if d.ChunkSize <= 0 {
		if _, err := d.w.Write(d.io); err != nil {
			return fmt.Errorf("retrowave: write failed: %w", err)
		}
		return nil
	}

	for pos := 0; pos < len(d.io); pos += d.ChunkSize {
		end := min(pos+d.ChunkSize, len(d.io))
		if _, err := d.w.Write(d.io[pos:end]); err != nil {
			return fmt.Errorf("retrowave: write failed: %w", err)
		}
		time.Sleep(d.ChunkGap)
	}
	return nil
}

// command sends a complete frame for (addr, reg) on its own
func (d *Device) command(addr, reg byte, data ...byte) error {
	if err := d.frame.Prepare(addr, reg, len(data)); err != nil {
		return err
	}
	d.frame.Append(data...)
	return d.frame.Flush()
}

// BringUp synchronises the link and configures the GPIO expanders as outputs
func (d *Device) BringUp() error {
	if err := d.frame.Flush(); err != nil {
		return err
	}
	if err := d.send([]byte{0x00}); err != nil {
		return err
	}

	for i := byte(firstExpander); i <= lastExpander; i++ {
		addr := i << 1
		// HAEN=1 SEQOP=1 BANK=0
		if err := d.command(addr, RegIOCON, 0x28); err != nil {
			return err
		}
		if err := d.command(addr, RegIODIRA, 0x00, 0x00); err != nil {
			return err
		}
		if err := d.command(addr, RegGPIOA, 0xff, 0xff); err != nil {
			return err
		}
	}

	log.Debugf("RetroWave expanders 0x%02x-0x%02x configured", firstExpander, lastExpander)
	return nil
}

func (d *Device) queue(addrStrobe, dataStrobe, reg, val byte) error {
	if err := d.frame.Prepare(BoardOPL3, RegGPIOA, 6); err != nil {
		return err
	}
	// the board latches data on even writes, so the value is sent twice
	d.frame.Append(addrStrobe, reg, dataStrobe, val, 0xfb, val)
	return nil
}

// QueuePort0 queues a write to the first register bank
func (d *Device) QueuePort0(reg, val byte) error {
	return d.queue(0xe1, 0xe3, reg, val)
}

// QueuePort1 queues a write to the second register bank
func (d *Device) QueuePort1(reg, val byte) error {
	return d.queue(0xe5, 0xe7, reg, val)
}

// Flush sends everything queued so far
func (d *Device) Flush() error {
	return d.frame.Flush()
}

type regRange struct {
	first, last byte
	val         byte
}

var resetRanges = []regRange{
	{0x20, 0x35, 0x01},
	{0x40, 0x55, 0x3f},
	{0x60, 0x75, 0xee},
	{0x80, 0x95, 0x0e},
	{0xa0, 0xa8, 0x80},
	{0xb0, 0xb8, 0x04},
	{0xbd, 0xbd, 0x00},
	{0xc0, 0xc8, 0x30},
	{0xe0, 0xf5, 0x00},
	{0x08, 0x08, 0x00},
	{0x01, 0x01, 0x00},
}

// Reset silences the chip by rewriting its registers and leaves it in
// OPL2 mode
func (d *Device) Reset() error {
	if err := d.frame.Flush(); err != nil {
		return err
	}

	// OPL3 mode on, 4-op connections off
	if err := d.QueuePort1(0x05, 0x01); err != nil {
		return err
	}
	if err := d.QueuePort1(0x04, 0x00); err != nil {
		return err
	}
	for _, r := range resetRanges {
		for reg := int(r.first); reg <= int(r.last); reg++ {
			if err := d.QueuePort0(byte(reg), r.val); err != nil {
				return err
			}
			if err := d.QueuePort1(byte(reg), r.val); err != nil {
				return err
			}
		}
	}
	if err := d.QueuePort1(0x05, 0x00); err != nil {
		return err
	}
	return d.frame.Flush()
}

// Shutdown resets the chip once; later calls do nothing
func (d *Device) Shutdown() error {
	if !d.resetDone.CompareAndSwap(false, true) {
		return nil
	}
	log.Debug("Resetting RetroWave OPL3")
	return d.Reset()
}
