// ABOUTME: Tests for song decoders
// ABOUTME: Tests format detection, RAW replay of recorder output and IMF timing
package song

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/adplay/adplay-go/pkg/opl"
)

type write struct {
	chip, reg, val int
}

type recordingChip struct {
	opl.Bank
	inits  int
	writes []write
}

func (c *recordingChip) Init()              { c.inits++ }
func (c *recordingChip) Write(reg, val int) { c.writes = append(c.writes, write{c.Chip(), reg, val}) }

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestOpenUnknownFormat(t *testing.T) {
	path := writeFile(t, "song.xyz", []byte("definitely not a song"))
	_, err := Open(path, &recordingChip{})
	if !errors.Is(err, ErrUnknownFormat) {
		t.Fatalf("expected ErrUnknownFormat, got %v", err)
	}
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.imf"), &recordingChip{})
	if err == nil || errors.Is(err, ErrUnknownFormat) {
		t.Fatalf("expected a read error, got %v", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected os.ErrNotExist, got %v", err)
	}
}

func TestRawReplaysRecorderOutput(t *testing.T) {
	var capture bytes.Buffer
	rec, err := opl.NewRawOut(&capture)
	if err != nil {
		t.Fatal(err)
	}
	rec.Write(0x20, 0x01)
	rec.Tick(70)
	rec.Write(0xa0, 0x44)
	rec.SetChip(1)
	rec.Write(0xb0, 0x20)
	rec.Tick(70)
	if err := rec.Close(); err != nil {
		t.Fatal(err)
	}

	chip := &recordingChip{}
	dec, err := Open(writeFile(t, "capture.bin", capture.Bytes()), chip)
	if err != nil {
		t.Fatal(err)
	}
	if chip.inits != 1 {
		t.Errorf("expected chip init on open, got %d", chip.inits)
	}

	if !dec.Update() {
		t.Fatal("first tick should be playing")
	}
	if math.Abs(dec.Refresh()-70) > 0.01 {
		t.Errorf("expected ~70Hz refresh, got %f", dec.Refresh())
	}
	if !dec.Update() {
		t.Fatal("second tick should be playing")
	}
	if dec.Update() {
		t.Error("expected song end on third tick")
	}
	if dec.Update() {
		t.Error("song end should be sticky after wrapping")
	}

	expected := []write{{0, 0x20, 0x01}, {0, 0xa0, 0x44}, {1, 0xb0, 0x20}, {0, 0x20, 0x01}}
	if len(chip.writes) != len(expected) {
		t.Fatalf("expected %d writes, got %v", len(expected), chip.writes)
	}
	for i := range expected {
		if chip.writes[i] != expected[i] {
			t.Errorf("write %d: expected %+v, got %+v", i, expected[i], chip.writes[i])
		}
	}

	dec.Rewind(-1)
	if !dec.Update() {
		t.Error("rewind should clear song end")
	}
}

func imfFile(records [][3]int, title string) []byte {
	body := make([]byte, 0, len(records)*4)
	for _, r := range records {
		body = append(body, byte(r[0]), byte(r[1]))
		body = binary.LittleEndian.AppendUint16(body, uint16(r[2]))
	}
	data := binary.LittleEndian.AppendUint16(nil, uint16(len(body)))
	data = append(data, body...)
	if title != "" {
		data = append(data, imfFooterMarker)
		data = append(data, title...)
		data = append(data, 0)
	}
	return data
}

func TestIMFTiming(t *testing.T) {
	data := imfFile([][3]int{
		{0x20, 0x01, 0},
		{0xb0, 0x31, 3},
		{0xb0, 0x11, 2},
	}, "Test Tune")

	chip := &recordingChip{}
	dec, err := Open(writeFile(t, "tune.imf", data), chip)
	if err != nil {
		t.Fatal(err)
	}

	if dec.Title() != "Test Tune" {
		t.Errorf("expected title from footer, got %q", dec.Title())
	}
	if dec.Refresh() != imfRate {
		t.Errorf("expected %v Hz, got %v", imfRate, dec.Refresh())
	}

	// 3 + 2 ticks of music, then the song ends
	ticks := 0
	for dec.Update() {
		ticks++
		if ticks > 100 {
			t.Fatal("song never ended")
		}
	}
	if ticks != 5 {
		t.Errorf("expected 5 playing ticks, got %d", ticks)
	}
	if len(chip.writes) != 3 {
		t.Errorf("expected 3 writes, got %d", len(chip.writes))
	}
}

func TestWLFRate(t *testing.T) {
	data := imfFile([][3]int{{0x20, 0x01, 1}}, "")
	dec, err := Open(writeFile(t, "tune.wlf", data), &recordingChip{})
	if err != nil {
		t.Fatal(err)
	}
	if dec.Refresh() != wlfRate {
		t.Errorf("expected %v Hz, got %v", wlfRate, dec.Refresh())
	}
}

func TestIMFTooShort(t *testing.T) {
	_, err := Open(writeFile(t, "short.imf", []byte{1}), &recordingChip{})
	if !errors.Is(err, ErrUnknownFormat) {
		t.Fatalf("expected ErrUnknownFormat, got %v", err)
	}
}

func TestOpenSubsongInitialisesOnce(t *testing.T) {
	tune := writeFile(t, "tune.imf", imfFile([][3]int{{0xb0, 0x31, 4}}, ""))

	for _, subsong := range []int{-1, 0} {
		chip := &recordingChip{}
		dec, err := OpenSubsong(tune, chip, subsong)
		if err != nil {
			t.Fatal(err)
		}
		if chip.inits != 1 {
			t.Errorf("subsong %d: expected one chip init, got %d", subsong, chip.inits)
		}
		if dec.Subsong() != 0 {
			t.Errorf("subsong %d: expected subsong 0, got %d", subsong, dec.Subsong())
		}
	}
}
