// ABOUTME: opl.Chip implementation backed by the RetroWave board
// ABOUTME: Routes register writes to port 0 or 1 by the selected chip
package retrowave

import "github.com/adplay/adplay-go/pkg/opl"

// OPL drives the board as an opl.Chip. Write errors are sticky and
// reported by Err, since the chip interface has no error returns.
type OPL struct {
	opl.Bank
	dev *Device
	err error
}

// NewOPL wraps dev as an opl.Chip
func NewOPL(dev *Device) *OPL {
	return &OPL{dev: dev}
}

// Init resets the chip and selects the first bank
func (o *OPL) Init() {
	o.setErr(o.dev.Reset())
	o.SetChip(0)
}

// Write queues a register write on the selected bank
func (o *OPL) Write(reg, val int) {
	switch o.Chip() {
	case 0:
		o.setErr(o.dev.QueuePort0(byte(reg), byte(val)))
	case 1:
		o.setErr(o.dev.QueuePort1(byte(reg), byte(val)))
	}
}

func (o *OPL) setErr(err error) {
	if err != nil && o.err == nil {
		log.Errorf("RetroWave write failed: %v", err)
		o.err = err
	}
}

// Err returns the first write error, if any
func (o *OPL) Err() error {
	return o.err
}

// Device returns the board driver
func (o *OPL) Device() *Device {
	return o.dev
}
