// ABOUTME: Tests for the oto output's recovery path
// ABOUTME: Uses scripted players to fail the first and second writes
package output

import (
	"bytes"
	"errors"
	"testing"
)

var errDeviceGone = errors.New("device gone")

type fakeStream struct {
	playing  bool
	err      error
	writeErr error
	data     bytes.Buffer
	closed   bool
}

func (f *fakeStream) Err() error      { return f.err }
func (f *fakeStream) IsPlaying() bool { return f.playing }
func (f *fakeStream) Close() error    { f.closed = true; return nil }

func (f *fakeStream) Write(p []byte) (int, error) {
	if f.writeErr != nil {
		return 0, f.writeErr
	}
	return f.data.Write(p)
}

func TestOtoSubmitRecovery(t *testing.T) {
	tests := []struct {
		name    string
		streams []*fakeStream
		opened  int
		wantErr error
		written int // index of the stream expected to hold the buffer
	}{
		{
			name:    "first write succeeds",
			streams: []*fakeStream{{playing: true}},
			opened:  1,
			written: 0,
		},
		{
			name:    "stopped player is re-prepared",
			streams: []*fakeStream{{playing: false}, {playing: true}},
			opened:  2,
			written: 1,
		},
		{
			name:    "player error is re-prepared",
			streams: []*fakeStream{{playing: true, err: errDeviceGone}, {playing: true}},
			opened:  2,
			written: 1,
		},
		{
			name:    "second failure is returned",
			streams: []*fakeStream{{playing: true, writeErr: errDeviceGone}, {playing: true, writeErr: errDeviceGone}},
			opened:  2,
			wantErr: errDeviceGone,
			written: -1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opened := 0
			o := newOtoWith(mono16, func() otoStream {
				s := tt.streams[opened]
				opened++
				return s
			})

			buf := []byte{1, 2, 3, 4}
			err := o.Submit(buf)
			if tt.wantErr == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if opened != tt.opened {
				t.Errorf("expected %d players, got %d", tt.opened, opened)
			}
			for i, s := range tt.streams {
				if i == tt.written {
					if !bytes.Equal(s.data.Bytes(), buf) {
						t.Errorf("player %d got %v", i, s.data.Bytes())
					}
				} else if s.data.Len() != 0 {
					t.Errorf("player %d should not have received audio", i)
				}
				if i < opened-1 && !s.closed {
					t.Errorf("replaced player %d was not closed", i)
				}
			}
		})
	}
}

func TestRetryOnceSkipsUnrecoverable(t *testing.T) {
	writes, prepares := 0, 0
	err := retryOnce("test", func() error {
		writes++
		return errDeviceGone
	}, func(error) bool { return false }, func() error {
		prepares++
		return nil
	})

	if !errors.Is(err, errDeviceGone) {
		t.Errorf("expected the write error, got %v", err)
	}
	if writes != 1 || prepares != 0 {
		t.Errorf("expected one write and no re-prepare, got %d writes and %d re-prepares", writes, prepares)
	}
}

func TestRetryOnceReprepareFailure(t *testing.T) {
	errStuck := errors.New("stream stuck")
	writes := 0
	err := retryOnce("test", func() error {
		writes++
		return errDeviceGone
	}, always, func() error { return errStuck })

	if !errors.Is(err, errStuck) {
		t.Errorf("expected the re-prepare error, got %v", err)
	}
	if writes != 1 {
		t.Errorf("expected no retry after a failed re-prepare, got %d writes", writes)
	}
}
