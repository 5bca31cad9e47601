// ABOUTME: Decoder for id Software Music Format (IMF) files
// ABOUTME: Replays register/value/delay records at a fixed tick rate
package song

import (
	"bytes"
	"encoding/binary"
	"errors"

	"github.com/adplay/adplay-go/pkg/opl"
)

const (
	imfRate = 560.0
	wlfRate = 700.0

	imfRecordSize   = 4
	imfFooterMarker = 0x1a
)

type imfRecord struct {
	reg   uint8
	val   uint8
	delay uint16
}

// IMF replays an IMF type-0 or type-1 file
type IMF struct {
	chip    opl.Chip
	rate    float64
	records []imfRecord
	title   string
	pos     int
	delay   int
	songEnd bool
}

// NewIMF parses an IMF file played back at rate Hz. Type-1 files start with
// the length of the music data and may carry a footer after it.
func NewIMF(data []byte, rate float64, chip opl.Chip) (*IMF, error) {
	if len(data) < imfRecordSize {
		return nil, errors.New("imf: file too short")
	}

	body := data
	var footer []byte
	if size := int(binary.LittleEndian.Uint16(data)); size > 0 && size%imfRecordSize == 0 && size+2 <= len(data) {
		body = data[2 : 2+size]
		footer = data[2+size:]
	}

	m := &IMF{chip: chip, rate: rate}
	m.records = make([]imfRecord, len(body)/imfRecordSize)
	for i := range m.records {
		rec := body[i*imfRecordSize:]
		m.records[i] = imfRecord{
			reg:   rec[0],
			val:   rec[1],
			delay: binary.LittleEndian.Uint16(rec[2:]),
		}
	}
	if len(m.records) == 0 {
		return nil, errors.New("imf: no music data")
	}

	if len(footer) > 1 && footer[0] == imfFooterMarker {
		title := footer[1:]
		if i := bytes.IndexByte(title, 0); i >= 0 {
			title = title[:i]
		}
		m.title = string(title)
	}
	return m, nil
}

// Update writes records until one carries a delay
func (m *IMF) Update() bool {
	if m.delay > 0 {
		m.delay--
		return !m.songEnd
	}

	for {
		if m.pos >= len(m.records) {
			m.pos = 0
			m.songEnd = true
			return !m.songEnd
		}

		rec := m.records[m.pos]
		m.pos++
		m.chip.Write(int(rec.reg), int(rec.val))
		if rec.delay > 0 {
			m.delay = int(rec.delay) - 1
			return !m.songEnd
		}
	}
}

// Refresh returns the fixed IMF tick rate
func (m *IMF) Refresh() float64 {
	return m.rate
}

// Rewind restarts the song. IMF files have a single subsong.
func (m *IMF) Rewind(int) {
	m.pos = 0
	m.delay = 0
	m.songEnd = false
	m.chip.Init()
}

func (m *IMF) Subsongs() int { return 1 }
func (m *IMF) Subsong() int  { return 0 }

func (m *IMF) Type() string        { return "IMF File Format" }
func (m *IMF) Title() string       { return m.title }
func (m *IMF) Author() string      { return "" }
func (m *IMF) Description() string { return "" }

func (m *IMF) Instruments() int       { return 0 }
func (m *IMF) Instrument(int) string { return "" }

// Position reports the record index as the order
func (m *IMF) Position() Position {
	return Position{Order: m.pos, Orders: len(m.records), Speed: 1}
}
