// ABOUTME: RetroWave OPL3 Express serial protocol package
// ABOUTME: Encodes chip register writes into 7-bit transport frames
// Package retrowave drives a RetroWave OPL3 board over its USB serial link.
//
// Register writes are queued into a command frame addressed to an I²C
// expander register, packed into a 7-bit transport frame and written to
// the serial device. Receiver reverses the encoding for tests and tools.
//
// Example:
//
//	port, err := retrowave.OpenSerial("/dev/ttyACM0")
//	dev := retrowave.NewDevice(port)
//	err = dev.BringUp()
//	chip := retrowave.NewOPL(dev)
//	chip.Write(0xb0, 0x31)
//	err = dev.Flush()
package retrowave
