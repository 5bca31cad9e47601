// ABOUTME: Player configuration
// ABOUTME: Defaults, normalisation of interacting options and validation
package app

import (
	"errors"
	"fmt"
	"slices"

	"github.com/adplay/adplay-go/pkg/audio"
	"github.com/adplay/adplay-go/pkg/audio/output"
	"github.com/adplay/adplay-go/pkg/opl"
)

// Defaults
const (
	DefaultBufferFrames = 2048
	DefaultSampleRate   = 44100
	DefaultBitDepth     = 16
	DefaultChannels     = 1
	DefaultRawFile      = "adplay.raw"
)

// Config holds player configuration
type Config struct {
	Output       string
	Emulator     string
	Device       string
	BufferFrames int
	Format       audio.Format

	Subsong int // -1 plays the default subsong
	Loops   int
	Endless bool

	// Once and LoopSet record that --once or --loop were given
	Once    bool
	LoopSet bool

	ShowInstruments bool
	ShowMessage     bool
	Realtime        bool
}

// DefaultConfig returns the configuration used when no options are given
func DefaultConfig() Config {
	return Config{
		Output:       output.DefaultMechanism,
		Emulator:     opl.EmulatorTone,
		BufferFrames: DefaultBufferFrames,
		Format: audio.Format{
			SampleRate: DefaultSampleRate,
			Channels:   DefaultChannels,
			BitDepth:   DefaultBitDepth,
		},
		Subsong: -1,
		Loops:   1,
		Endless: true,
	}
}

// Normalize applies the rules between options for a run over nfiles files
func (c *Config) Normalize(nfiles int) {
	if c.Loops <= 0 {
		c.Loops = 1
	}
	if c.Once || c.LoopSet {
		c.Endless = false
	}
	// endless output is almost never desired on disk
	if c.Output == output.MechanismDisk {
		c.Endless = false
	}
	if c.Emulator == opl.EmulatorRawOut && c.Output != output.MechanismRetroWave {
		c.Output = output.MechanismNull
		c.Endless = false
		if c.Device == "" {
			c.Device = DefaultRawFile
		}
	}
	if nfiles > 1 {
		c.Endless = false
	}
}

// LoopBudget returns the number of playbacks per file, 0 for endless
func (c Config) LoopBudget() int {
	if c.Endless {
		return 0
	}
	return max(c.Loops, 1)
}

// Hardware reports whether playback drives a real chip
func (c Config) Hardware() bool {
	return c.Output == output.MechanismRetroWave
}

// Validate reports configuration errors that make playback impossible
func (c Config) Validate() error {
	if !output.Known(c.Output) {
		return fmt.Errorf("%w: %s", output.ErrUnknownOutput, c.Output)
	}
	if !c.Hardware() && !slices.Contains(opl.Emulators(), c.Emulator) {
		return fmt.Errorf("%w -- %s", opl.ErrUnknownEmulator, c.Emulator)
	}
	if c.Hardware() {
		return nil
	}
	if err := c.Format.Validate(); err != nil {
		return err
	}
	if c.BufferFrames <= 0 {
		return fmt.Errorf("invalid buffer size %d", c.BufferFrames)
	}
	if c.Output == output.MechanismDisk && c.Device == "" {
		return errors.New("no output filename specified (use -d)")
	}
	return nil
}
