// ABOUTME: Malgo-based audio output implementation
// ABOUTME: Hands buffers to the miniaudio callback through a one-slot semaphore
package output

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/adplay/adplay-go/pkg/audio"
	"github.com/gen2brain/malgo"
)

const (
	submitTimeout = 5 * time.Second
	drainTimeout  = time.Second
)

var errDeviceStalled = errors.New("audio callback stopped consuming")

// handoff passes one buffer at a time from the producer to the audio
// callback. The free channel holds a token while the shared buffer may be
// overwritten; the callback returns it once the buffer is exhausted.
type handoff struct {
	format audio.Format
	free   chan struct{}
	ready  atomic.Bool

	mu   sync.Mutex
	data []byte
	pos  int
}

func newHandoff(format audio.Format, capacity int) *handoff {
	h := &handoff{
		format: format,
		free:   make(chan struct{}, 1),
		data:   make([]byte, 0, capacity),
	}
	h.free <- struct{}{}
	return h
}

// put waits until the callback released the buffer, then publishes buf
func (h *handoff) put(buf []byte, timeout time.Duration) error {
	select {
	case <-h.free:
	case <-time.After(timeout):
		return errDeviceStalled
	}

	h.mu.Lock()
	h.data = append(h.data[:0], buf...)
	h.pos = 0
	h.mu.Unlock()

	h.ready.Store(true)
	return nil
}

// fill is the callback side: it copies pending audio into out, pads with
// silence and releases the buffer once it is consumed
func (h *handoff) fill(out []byte) {
	if !h.ready.Load() {
		h.format.Silence(out)
		return
	}

	h.mu.Lock()
	n := copy(out, h.data[h.pos:])
	h.pos += n
	done := h.pos >= len(h.data)
	h.mu.Unlock()

	if n < len(out) {
		h.format.Silence(out[n:])
	}
	if done {
		h.ready.Store(false)
		h.free <- struct{}{}
	}
}

// drain waits for the last buffer to be played
func (h *handoff) drain(timeout time.Duration) bool {
	select {
	case <-h.free:
		h.free <- struct{}{}
		return true
	case <-time.After(timeout):
		return false
	}
}

// Malgo output implementation using the malgo/miniaudio library
type Malgo struct {
	malgoCtx *malgo.AllocatedContext
	device   *malgo.Device
	handoff  *handoff
	format   audio.Format
}

// NewMalgo opens the default playback device with a data callback
func NewMalgo(opts Options) (*Malgo, error) {
	var format malgo.FormatType
	switch opts.Format.BitDepth {
	case 8:
		format = malgo.FormatU8
	case 16:
		format = malgo.FormatS16
	default:
		return nil, fmt.Errorf("unsupported bit depth: %d (supported: 8, 16)", opts.Format.BitDepth)
	}

	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize malgo context: %w", err)
	}

	m := &Malgo{
		malgoCtx: ctx,
		handoff:  newHandoff(opts.Format, opts.BufferFrames*opts.Format.FrameSize()),
		format:   opts.Format,
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceConfig.Playback.Format = format
	deviceConfig.Playback.Channels = uint32(opts.Format.Channels)
	deviceConfig.SampleRate = uint32(opts.Format.SampleRate)
	if opts.BufferFrames > 0 {
		deviceConfig.PeriodSizeInFrames = uint32(opts.BufferFrames)
	}
	deviceConfig.Alsa.NoMMap = 1

	callbacks := malgo.DeviceCallbacks{
		Data: func(pOutputSample, pInputSamples []byte, frameCount uint32) {
			m.handoff.fill(pOutputSample[:int(frameCount)*opts.Format.FrameSize()])
		},
	}

	device, err := malgo.InitDevice(ctx.Context, deviceConfig, callbacks)
	if err != nil {
		m.freeContext()
		return nil, fmt.Errorf("failed to initialize playback device: %w", err)
	}
	if err := device.Start(); err != nil {
		device.Uninit()
		m.freeContext()
		return nil, fmt.Errorf("failed to start device: %w", err)
	}
	m.device = device

	log.Infof("Audio output initialized: %s (malgo)", opts.Format)
	return m, nil
}

// Submit blocks until the callback has taken the previous buffer
func (m *Malgo) Submit(buf []byte) error {
	if m.device == nil {
		return ErrNotOpen
	}
	if err := m.handoff.put(buf, submitTimeout); err != nil {
		return fmt.Errorf("malgo: %w", err)
	}
	return nil
}

// Close plays out the last buffer and releases the device
func (m *Malgo) Close() error {
	if m.device == nil {
		return nil
	}
	if !m.handoff.drain(drainTimeout) {
		log.Warn("Audio device did not drain before close")
	}
	if err := m.device.Stop(); err != nil {
		log.Warnf("device stop error: %v", err)
	}
	m.device.Uninit()
	m.device = nil
	m.freeContext()
	return nil
}

func (m *Malgo) freeContext() {
	if m.malgoCtx == nil {
		return
	}
	if err := m.malgoCtx.Uninit(); err != nil {
		log.Warnf("malgo context uninit error: %v", err)
	}
	m.malgoCtx.Free()
	m.malgoCtx = nil
}
