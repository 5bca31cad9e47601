// ABOUTME: Tests for the RetroWave codec and board driver
// ABOUTME: Round-trips frames through Receiver and checks bring-up and reset traffic
package retrowave

import (
	"bytes"
	"errors"
	"testing"

	"github.com/davecgh/go-spew/spew"
)

func TestPackKnownFrames(t *testing.T) {
	tests := []struct {
		name string
		cmd  []byte
		want []byte
	}{
		{"empty", nil, []byte{0x00, 0x02}},
		{"sync", []byte{0x00}, []byte{0x00, 0x01, 0x01, 0x02}},
		{"header", []byte{0x42, 0x12}, []byte{0x00, 0x43, 0x09, 0x81, 0x02}},
		{"seven bytes", []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff},
			[]byte{0x00, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x02}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Pack(tt.cmd)
			if !bytes.Equal(got, tt.want) {
				t.Errorf("Pack(% x) = % x, want % x", tt.cmd, got, tt.want)
			}
			if len(got) != PackedSize(len(tt.cmd)) {
				t.Errorf("PackedSize(%d) = %d, packed %d", len(tt.cmd), PackedSize(len(tt.cmd)), len(got))
			}
		})
	}
}

func TestPackRoundTrip(t *testing.T) {
	for _, n := range []int{1, 2, 6, 7, 8, 13, 14, 15, 100, FrameCapacity} {
		cmd := make([]byte, n)
		for i := range cmd {
			cmd[i] = byte(i*37 + n)
		}

		packed := Pack(cmd)
		for i, b := range packed[1 : len(packed)-1] {
			if b&0x01 == 0 {
				t.Fatalf("n=%d: payload byte %d is even (0x%02x)", n, i, b)
			}
		}

		got, err := Unpack(packed)
		if err != nil {
			t.Fatalf("n=%d: Unpack failed: %v", n, err)
		}
		if !bytes.Equal(got, cmd) {
			t.Errorf("n=%d: round trip mismatch", n)
		}
	}
}

func TestUnpackCorrupt(t *testing.T) {
	tests := []struct {
		name  string
		frame []byte
	}{
		{"too short", []byte{0x00}},
		{"no start", []byte{0x01, 0x03, 0x02}},
		{"no end", []byte{0x00, 0x03, 0x05}},
		{"even payload", []byte{0x00, 0x03, 0x04, 0x02}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Unpack(tt.frame); !errors.Is(err, ErrFrameCorrupt) {
				t.Errorf("expected ErrFrameCorrupt, got %v", err)
			}
		})
	}
}

func TestCommandFrameTargetChangeFlushes(t *testing.T) {
	var sent [][]byte
	f := NewCommandFrame(func(cmd []byte) error {
		sent = append(sent, append([]byte(nil), cmd...))
		return nil
	})

	f.Prepare(0x40, RegIOCON, 1)
	f.Append(0x28)
	f.Prepare(0x40, RegIOCON, 1)
	f.Append(0x28)
	if len(sent) != 0 {
		t.Fatalf("same target should not flush, sent %d frames", len(sent))
	}

	f.Prepare(0x40, RegGPIOA, 2)
	if len(sent) != 1 || !bytes.Equal(sent[0], []byte{0x40, RegIOCON, 0x28, 0x28}) {
		t.Fatalf("expected previous frame flushed, got % x", sent)
	}
	if f.Len() != 2 {
		t.Errorf("expected a fresh header, len %d", f.Len())
	}

	if err := f.Prepare(0x40, RegGPIOA, FrameCapacity); err == nil {
		t.Error("oversized payload should be rejected")
	}
}

func TestFramesSplitAtCapacity(t *testing.T) {
	rx := &Receiver{}
	dev := NewDevice(rx)
	dev.ChunkSize = 0

	const writes = 2000
	for i := 0; i < writes; i++ {
		if err := dev.QueuePort0(byte(i), byte(i>>3)); err != nil {
			t.Fatal(err)
		}
	}
	if err := dev.Flush(); err != nil {
		t.Fatal(err)
	}

	if len(rx.Frames) != 2 {
		t.Fatalf("expected 2 frames, got %d", len(rx.Frames))
	}
	if got := len(rx.Frames[0].Data) + 2; got != FrameCapacity {
		t.Errorf("first frame should be full, got %d bytes", got)
	}
	if len(rx.Writes) != writes {
		t.Fatalf("expected %d writes, got %d", writes, len(rx.Writes))
	}
	for i, w := range rx.Writes {
		want := Write{Addr: BoardOPL3, Reg: byte(i), Port: 0, Value: byte(i >> 3)}
		if w != want {
			t.Fatalf("write %d mismatch:\n%s", i, spew.Sdump(w, want))
		}
	}
}

type chunkRecorder struct {
	rx      Receiver
	largest int
}

func (c *chunkRecorder) Write(p []byte) (int, error) {
	c.largest = max(c.largest, len(p))
	return c.rx.Write(p)
}

func TestChunkedWrites(t *testing.T) {
	w := &chunkRecorder{}
	dev := NewDevice(w)
	dev.ChunkSize = 5
	dev.ChunkGap = 0

	dev.QueuePort1(0xb0, 0x31)
	dev.QueuePort0(0xa0, 0x44)
	if err := dev.Flush(); err != nil {
		t.Fatal(err)
	}

	if w.largest > 5 {
		t.Errorf("expected chunks of at most 5 bytes, saw %d", w.largest)
	}
	want := []Write{
		{Addr: BoardOPL3, Reg: 0xb0, Port: 1, Value: 0x31},
		{Addr: BoardOPL3, Reg: 0xa0, Port: 0, Value: 0x44},
	}
	if len(w.rx.Writes) != len(want) {
		t.Fatalf("unexpected writes:\n%s", spew.Sdump(w.rx.Writes))
	}
	for i := range want {
		if w.rx.Writes[i] != want[i] {
			t.Errorf("write %d mismatch:\n%s", i, spew.Sdump(w.rx.Writes[i], want[i]))
		}
	}
}

func TestBringUp(t *testing.T) {
	rx := &Receiver{}
	dev := NewDevice(rx)
	dev.ChunkSize = 0

	if err := dev.BringUp(); err != nil {
		t.Fatal(err)
	}

	if rx.Syncs != 1 {
		t.Errorf("expected one sync frame, got %d", rx.Syncs)
	}
	if len(rx.Frames) != 24 {
		t.Fatalf("expected 24 setup frames, got %d", len(rx.Frames))
	}
	for i := 0; i < 8; i++ {
		addr := byte(0x20+i) << 1
		want := []Frame{
			{Addr: addr, Reg: RegIOCON, Data: []byte{0x28}},
			{Addr: addr, Reg: RegIODIRA, Data: []byte{0x00, 0x00}},
			{Addr: addr, Reg: RegGPIOA, Data: []byte{0xff, 0xff}},
		}
		for j, w := range want {
			got := rx.Frames[3*i+j]
			if got.Addr != w.Addr || got.Reg != w.Reg || !bytes.Equal(got.Data, w.Data) {
				t.Errorf("frame %d mismatch:\n%s", 3*i+j, spew.Sdump(got, w))
			}
		}
	}
	if len(rx.Writes) != 0 {
		t.Errorf("bring-up must not write OPL registers, got %d", len(rx.Writes))
	}
}

func TestSessionThroughOneReceiver(t *testing.T) {
	rx := &Receiver{}
	dev := NewDevice(rx)
	dev.ChunkSize = 0

	if err := dev.BringUp(); err != nil {
		t.Fatalf("BringUp: %v", err)
	}
	if err := dev.QueuePort0(0xa0, 0x44); err != nil {
		t.Fatal(err)
	}
	if err := dev.QueuePort1(0xb0, 0x31); err != nil {
		t.Fatal(err)
	}
	if err := dev.QueuePort0(0xbd, 0x20); err != nil {
		t.Fatal(err)
	}
	if err := dev.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	want := []Write{
		{Addr: BoardOPL3, Reg: 0xa0, Port: 0, Value: 0x44},
		{Addr: BoardOPL3, Reg: 0xb0, Port: 1, Value: 0x31},
		{Addr: BoardOPL3, Reg: 0xbd, Port: 0, Value: 0x20},
	}
	if len(rx.Writes) != len(want) {
		t.Fatalf("unexpected writes:\n%s", spew.Sdump(rx.Writes))
	}
	for i := range want {
		if rx.Writes[i] != want[i] {
			t.Errorf("write %d mismatch:\n%s", i, spew.Sdump(rx.Writes[i], want[i]))
		}
	}
	if len(rx.Frames) != 25 {
		t.Errorf("expected 24 setup frames and one OPL frame, got %d", len(rx.Frames))
	}
}

func TestReceiverRejectsBrokenStrobes(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
	}{
		{"short group", []byte{0xe1, 0x20, 0xe3, 0x01}},
		{"bad data strobe", []byte{0xe1, 0x20, 0xe7, 0x01, 0xfb, 0x01}},
		{"bad latch", []byte{0xe5, 0x20, 0xe7, 0x01, 0xfb, 0x02}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := append([]byte{BoardOPL3, RegGPIOA}, tt.payload...)
			rx := &Receiver{}
			if _, err := rx.Write(Pack(cmd)); !errors.Is(err, ErrFrameCorrupt) {
				t.Errorf("expected ErrFrameCorrupt, got %v", err)
			}
		})
	}
}

func TestResetSequence(t *testing.T) {
	rx := &Receiver{}
	dev := NewDevice(rx)
	dev.ChunkSize = 0

	if err := dev.Reset(); err != nil {
		t.Fatal(err)
	}

	if len(rx.Writes) != 283 {
		t.Fatalf("expected 283 writes, got %d", len(rx.Writes))
	}
	head := []Write{
		{Addr: BoardOPL3, Reg: 0x05, Port: 1, Value: 0x01},
		{Addr: BoardOPL3, Reg: 0x04, Port: 1, Value: 0x00},
		{Addr: BoardOPL3, Reg: 0x20, Port: 0, Value: 0x01},
		{Addr: BoardOPL3, Reg: 0x20, Port: 1, Value: 0x01},
		{Addr: BoardOPL3, Reg: 0x21, Port: 0, Value: 0x01},
	}
	for i, w := range head {
		if rx.Writes[i] != w {
			t.Errorf("write %d mismatch:\n%s", i, spew.Sdump(rx.Writes[i], w))
		}
	}
	last := Write{Addr: BoardOPL3, Reg: 0x05, Port: 1, Value: 0x00}
	if rx.Writes[282] != last {
		t.Errorf("expected OPL2 mode last, got %s", spew.Sdump(rx.Writes[282]))
	}

	levels := 0
	for _, w := range rx.Writes {
		if w.Reg >= 0x40 && w.Reg <= 0x55 {
			if w.Value != 0x3f {
				t.Errorf("level register 0x%02x set to 0x%02x", w.Reg, w.Value)
			}
			levels++
		}
	}
	if levels != 44 {
		t.Errorf("expected 44 level writes, got %d", levels)
	}
}

func TestShutdownResetsOnce(t *testing.T) {
	rx := &Receiver{}
	dev := NewDevice(rx)
	dev.ChunkSize = 0

	for i := 0; i < 3; i++ {
		if err := dev.Shutdown(); err != nil {
			t.Fatal(err)
		}
	}
	if len(rx.Writes) != 283 {
		t.Errorf("expected a single reset (283 writes), got %d", len(rx.Writes))
	}
}

func TestOPLRoutesByBank(t *testing.T) {
	rx := &Receiver{}
	dev := NewDevice(rx)
	dev.ChunkSize = 0
	chip := NewOPL(dev)

	chip.Init()
	rx.Reset()

	chip.Write(0xa0, 0x44)
	chip.SetChip(1)
	chip.Write(0xb0, 0x31)
	chip.SetChip(7)
	chip.Write(0xc0, 0x30)
	if err := dev.Flush(); err != nil {
		t.Fatal(err)
	}

	want := []Write{
		{Addr: BoardOPL3, Reg: 0xa0, Port: 0, Value: 0x44},
		{Addr: BoardOPL3, Reg: 0xb0, Port: 1, Value: 0x31},
		{Addr: BoardOPL3, Reg: 0xc0, Port: 1, Value: 0x30},
	}
	if len(rx.Writes) != len(want) {
		t.Fatalf("unexpected writes:\n%s", spew.Sdump(rx.Writes))
	}
	for i := range want {
		if rx.Writes[i] != want[i] {
			t.Errorf("write %d mismatch:\n%s", i, spew.Sdump(rx.Writes[i], want[i]))
		}
	}
	if chip.Err() != nil {
		t.Errorf("unexpected error: %v", chip.Err())
	}
}

var errBroken = errors.New("broken pipe")

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errBroken }

func TestWriteErrorsSurface(t *testing.T) {
	dev := NewDevice(failingWriter{})
	dev.ChunkSize = 0
	chip := NewOPL(dev)

	chip.Init()
	if !errors.Is(chip.Err(), errBroken) {
		t.Errorf("expected sticky write error, got %v", chip.Err())
	}

	dev.QueuePort0(0x20, 0x01)
	if err := dev.Flush(); !errors.Is(err, errBroken) {
		t.Errorf("expected flush error, got %v", err)
	}
}

func TestReceiverRejectsJunk(t *testing.T) {
	rx := &Receiver{}
	if _, err := rx.Write([]byte{0x03, 0x05}); !errors.Is(err, ErrFrameCorrupt) {
		t.Errorf("expected ErrFrameCorrupt, got %v", err)
	}
}
