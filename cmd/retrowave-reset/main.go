// ABOUTME: Silences a RetroWave OPL3 board left playing by a crashed player
// ABOUTME: Brings the board up, resets every OPL register and exits
package main

import (
	"fmt"
	"os"

	"github.com/adplay/adplay-go/pkg/audio/output"
	"github.com/adplay/adplay-go/pkg/retrowave"
	"github.com/decred/slog"
	"github.com/spf13/pflag"
)

func main() {
	device := pflag.StringP("device", "d", retrowave.DefaultSerialPath, "serial port of the board")
	verbose := pflag.BoolP("verbose", "v", false, "log every step")
	pflag.Parse()

	logger := slog.NewBackend(os.Stderr).Logger("retrowave-reset")
	if *verbose {
		logger.SetLevel(slog.LevelDebug)
	}
	retrowave.UseLogger(logger)
	output.UseLogger(logger)

	hw, err := output.OpenSerial(*device)
	if err != nil {
		fmt.Fprintf(os.Stderr, "retrowave-reset: %v\n", err)
		os.Exit(1)
	}

	// closing the hardware output resets the chip
	if err := hw.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "retrowave-reset: %v\n", err)
		os.Exit(1)
	}
	logger.Infof("Reset RetroWave OPL3 on %s", *device)
}
