//go:build portaudio

// ABOUTME: PortAudio output implementation
// ABOUTME: Blocking-stream playback that restarts the stream once on underflow
package output

import (
	"errors"
	"fmt"

	"github.com/adplay/adplay-go/pkg/audio"
	"github.com/gordonklaus/portaudio"
)

// PortAudio output implementation
type PortAudio struct {
	stream *portaudio.Stream
	buffer []int16
	format audio.Format
}

// NewPortAudio opens a blocking stream on the default output device
func NewPortAudio(opts Options) (*PortAudio, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize portaudio: %w", err)
	}

	frames := opts.BufferFrames
	if frames <= 0 {
		frames = 2048
	}
	p := &PortAudio{
		buffer: make([]int16, frames*opts.Format.Channels),
		format: opts.Format,
	}

	stream, err := portaudio.OpenDefaultStream(0, opts.Format.Channels, float64(opts.Format.SampleRate), frames, &p.buffer)
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("failed to open stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return nil, fmt.Errorf("failed to start stream: %w", err)
	}
	p.stream = stream

	log.Infof("Audio output initialized: %s (portaudio)", opts.Format)
	return p, nil
}

// Submit converts buf to the stream's sample buffer and writes it
func (p *PortAudio) Submit(buf []byte) error {
	if p.stream == nil {
		return ErrNotOpen
	}

	step := p.format.SampleSize()
	for len(buf) > 0 {
		i := 0
		for ; i < len(p.buffer) && len(buf) >= step; i++ {
			p.buffer[i] = p.format.Sample(buf)
			buf = buf[step:]
		}
		clear(p.buffer[i:])

		if err := p.write(); err != nil {
			return err
		}
	}
	return nil
}

func (p *PortAudio) write() error {
	underflow := func(err error) bool { return errors.Is(err, portaudio.OutputUnderflowed) }
	return retryOnce(MechanismPortAudio, p.stream.Write, underflow, p.restart)
}

func (p *PortAudio) restart() error {
	if err := p.stream.Stop(); err != nil {
		return fmt.Errorf("failed to stop stream: %w", err)
	}
	return p.stream.Start()
}

// Close releases resources
func (p *PortAudio) Close() error {
	if p.stream == nil {
		return nil
	}
	err := errors.Join(p.stream.Stop(), p.stream.Close())
	p.stream = nil
	return errors.Join(err, portaudio.Terminate())
}
