// ABOUTME: WAV file output
// ABOUTME: Writes a canonical 44-byte PCM header and patches sizes on close
package output

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/adplay/adplay-go/pkg/audio"
)

const (
	// WAVHeaderSize is the size of the canonical PCM WAVE header
	WAVHeaderSize = 44

	riffSizeOffset = 4
	dataSizeOffset = 40
)

type wavHeader struct {
	ChunkID       [4]byte
	ChunkSize     uint32
	Format        [4]byte
	Subchunk1ID   [4]byte
	Subchunk1Size uint32
	AudioFormat   uint16
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
	Subchunk2ID   [4]byte
	Subchunk2Size uint32
}

// WAV writes rendered audio to a RIFF WAVE stream
type WAV struct {
	w      io.Writer
	closer io.Closer
	data   int64
}

// CreateWAV creates path, or uses stdout for "-"
func CreateWAV(path string, format audio.Format) (*WAV, error) {
	if path == "" {
		return nil, fmt.Errorf("no output filename specified")
	}
	if path == "-" {
		return NewWAV(os.Stdout, format)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open file for output: %w", err)
	}
	w, err := NewWAV(f, format)
	if err != nil {
		f.Close()
		return nil, err
	}
	w.closer = f
	return w, nil
}

// NewWAV writes the header to w. Sizes are patched on Close when w is an
// io.WriteSeeker.
func NewWAV(w io.Writer, format audio.Format) (*WAV, error) {
	h := wavHeader{
		ChunkID:       [4]byte{'R', 'I', 'F', 'F'},
		ChunkSize:     36,
		Format:        [4]byte{'W', 'A', 'V', 'E'},
		Subchunk1ID:   [4]byte{'f', 'm', 't', ' '},
		Subchunk1Size: 16,
		AudioFormat:   1,
		NumChannels:   uint16(format.Channels),
		SampleRate:    uint32(format.SampleRate),
		ByteRate:      uint32(format.ByteRate()),
		BlockAlign:    uint16(format.FrameSize()),
		BitsPerSample: uint16(format.BitDepth),
		Subchunk2ID:   [4]byte{'d', 'a', 't', 'a'},
	}
	if err := binary.Write(w, binary.LittleEndian, &h); err != nil {
		return nil, fmt.Errorf("failed to write WAV header: %w", err)
	}
	return &WAV{w: w}, nil
}

// Submit appends buf to the data chunk
func (w *WAV) Submit(buf []byte) error {
	if w.w == nil {
		return ErrNotOpen
	}
	n, err := w.w.Write(buf)
	w.data += int64(n)
	if err != nil {
		return fmt.Errorf("WAV write failed: %w", err)
	}
	return nil
}

// DataSize returns the number of audio bytes written so far
func (w *WAV) DataSize() int64 {
	return w.data
}

// Close pads the data to an even length and patches both size fields
func (w *WAV) Close() error {
	if w.w == nil {
		return nil
	}
	defer func() {
		w.w = nil
		if w.closer != nil {
			w.closer.Close()
			w.closer = nil
		}
	}()

	// wave data must end on an even byte boundary
	if w.data%2 != 0 {
		if _, err := w.w.Write([]byte{0}); err != nil {
			return fmt.Errorf("WAV write failed: %w", err)
		}
		w.data++
	}

	ws, ok := w.w.(io.WriteSeeker)
	if !ok {
		log.Warn("WAV output is not seekable, size fields left unset")
		return nil
	}
	if err := patchUint32(ws, dataSizeOffset, uint32(w.data)); err != nil {
		log.Warnf("WAV output is not seekable, size fields left unset: %v", err)
		return nil
	}
	if err := patchUint32(ws, riffSizeOffset, uint32(w.data+36)); err != nil {
		return fmt.Errorf("failed to write RIFF size: %w", err)
	}
	return nil
}

func patchUint32(ws io.WriteSeeker, offset int64, v uint32) error {
	if _, err := ws.Seek(offset, io.SeekStart); err != nil {
		return err
	}
	return binary.Write(ws, binary.LittleEndian, v)
}
