// ABOUTME: Song decoder interface and file format detection
// ABOUTME: Decoders advance one chip tick per Update and drive an opl.Chip
package song

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adplay/adplay-go/pkg/opl"
)

// ErrUnknownFormat is returned by Open when no decoder recognises the file
var ErrUnknownFormat = errors.New("unknown filetype")

// Position is sequencer telemetry for status displays
type Position struct {
	Order    int
	Orders   int
	Pattern  int
	Patterns int
	Row      int
	Speed    int
}

// Decoder parses a song and replays it into an opl.Chip one tick at a time
type Decoder interface {
	// Update advances one tick. It reports false once the song reached its
	// end; playback continues from the loop point regardless.
	Update() bool

	// Refresh returns the current tick rate in Hz
	Refresh() float64

	// Rewind restarts playback at subsong (-1 for the default)
	Rewind(subsong int)

	Subsongs() int
	Subsong() int

	Type() string
	Title() string
	Author() string
	Description() string

	Instruments() int
	Instrument(i int) string

	Position() Position
}

// Open reads path and returns a decoder for it, rewound to its default subsong
func Open(path string, chip opl.Chip) (Decoder, error) {
	return OpenSubsong(path, chip, -1)
}

// OpenSubsong is Open for a chosen subsong (-1 for the default). The chip is
// initialised once, by the rewind.
func OpenSubsong(path string, chip opl.Chip, subsong int) (Decoder, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var dec Decoder
	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case bytes.HasPrefix(data, []byte(opl.RawSignature)):
		dec, err = NewRaw(data, chip)
	case ext == ".imf" || ext == ".wlf":
		rate := imfRate
		if ext == ".wlf" {
			rate = wlfRate
		}
		dec, err = NewIMF(data, rate, chip)
	default:
		return nil, ErrUnknownFormat
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnknownFormat, err)
	}

	dec.Rewind(subsong)
	return dec, nil
}
