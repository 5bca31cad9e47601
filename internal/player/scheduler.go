// ABOUTME: Frame scheduler driving a decoder into an output sink
// ABOUTME: Reconciles the song tick rate with the sample rate or real time
package player

import (
	"context"
	"errors"
	"fmt"

	"github.com/adplay/adplay-go/internal/sync"
	"github.com/adplay/adplay-go/pkg/audio/output"
	"github.com/adplay/adplay-go/pkg/opl"
	"github.com/adplay/adplay-go/pkg/song"
	"github.com/google/uuid"
)

var (
	// ErrBadRefresh is returned when a decoder reports a non-positive tick rate
	ErrBadRefresh = errors.New("invalid refresh rate")

	// ErrNoRenderer is returned when a PCM sink has nothing to render with
	ErrNoRenderer = errors.New("sink needs a sample renderer")
)

// Chunk describes one filled buffer
type Chunk struct {
	Frames  int
	Playing bool
	Ticks   int
}

// Status is a snapshot for status displays
type Status struct {
	Session  uuid.UUID
	Subsong  int
	Subsongs int
	Position song.Position
	Refresh  float64
	Loops    int
	Step     int64
	Playing  bool
}

// Options wires the chip side of a scheduler
type Options struct {
	// Renderer produces PCM for device and file sinks
	Renderer opl.Renderer

	// Recorder, if set, is told about every tick on a discard sink
	Recorder opl.Recorder

	// Pacer paces hardware sinks; nil starts one on the system clock
	Pacer *sync.Pacer

	// OnStatus is called after every step
	OnStatus func(Status)
}

// Scheduler runs one session
type Scheduler struct {
	session Session
	dec     song.Decoder
	sink    *output.Sink
	opts    Options

	buf     []byte
	debt    int64
	playing bool
	loop    LoopState
	steps   int64
}

// NewScheduler prepares a session for playback on sink
func NewScheduler(session Session, dec song.Decoder, sink *output.Sink, opts Options) (*Scheduler, error) {
	s := &Scheduler{
		session: session,
		dec:     dec,
		sink:    sink,
		opts:    opts,
		playing: true,
		loop:    LoopState{Budget: session.Loops},
	}

	switch sink.Kind() {
	case output.KindDevice, output.KindFile:
		if opts.Renderer == nil {
			return nil, ErrNoRenderer
		}
		if err := session.Format.Validate(); err != nil {
			return nil, err
		}
		if session.BufferFrames <= 0 {
			return nil, fmt.Errorf("invalid buffer size %d", session.BufferFrames)
		}
		s.buf = make([]byte, session.BufferFrames*session.Format.FrameSize())
	case output.KindHardware:
		if sink.Hardware() == nil {
			return nil, fmt.Errorf("%w: hardware sink is closed", output.ErrNotOpen)
		}
		if s.opts.Pacer == nil {
			s.opts.Pacer = sync.NewPacer(nil)
		}
	}

	log.Debugf("Session %s on %s output, loops=%d", session, sink.Kind(), session.Loops)
	return s, nil
}

func (s *Scheduler) refresh() (float64, error) {
	refresh := s.dec.Refresh()
	if !(refresh > 0) {
		return 0, fmt.Errorf("%w: %v Hz", ErrBadRefresh, refresh)
	}
	return refresh, nil
}

// Fill renders one buffer, advancing the decoder whenever the rendered
// audio has caught up with the song
func (s *Scheduler) Fill() (Chunk, error) {
	frameSize := s.session.Format.FrameSize()
	rate := int64(s.session.Format.SampleRate)
	chunk := Chunk{}

	towrite := s.session.BufferFrames
	cursor := 0
	for towrite > 0 {
		for s.debt < 0 {
			s.debt += rate
			s.playing = s.dec.Update()
			chunk.Ticks++
		}

		refresh, err := s.refresh()
		if err != nil {
			return chunk, err
		}

		// renderers want multiples of 4 frames; the slack guarantees progress
		n := min(towrite, int((int64(float64(s.debt)/refresh)+4)&^3))
		if err := s.opts.Renderer.Render(s.buf[cursor*frameSize:], n); err != nil {
			return chunk, fmt.Errorf("render failed: %w", err)
		}
		cursor += n
		towrite -= n
		s.debt -= int64(refresh * float64(n))
	}

	chunk.Frames = cursor
	chunk.Playing = s.playing
	return chunk, nil
}

// Step runs one scheduling step on the sink and reports whether playback
// should continue
func (s *Scheduler) Step() (bool, error) {
	switch s.sink.Kind() {
	case output.KindDevice, output.KindFile:
		if _, err := s.Fill(); err != nil {
			return false, err
		}
		if err := s.sink.Submit(s.buf); err != nil {
			return false, fmt.Errorf("output failed: %w", err)
		}

	case output.KindDiscard:
		s.playing = s.dec.Update()
		if s.opts.Recorder != nil {
			refresh, err := s.refresh()
			if err != nil {
				return false, err
			}
			if err := s.opts.Recorder.Tick(refresh); err != nil {
				return false, fmt.Errorf("recording failed: %w", err)
			}
		}

	case output.KindHardware:
		s.playing = s.dec.Update()
		if err := s.sink.Hardware().Flush(); err != nil {
			return false, fmt.Errorf("hardware write failed: %w", err)
		}
		refresh, err := s.refresh()
		if err != nil {
			return false, err
		}
		s.opts.Pacer.Wait(refresh)

	default:
		return false, fmt.Errorf("unsupported sink %s", s.sink.Kind())
	}

	s.steps++
	if s.loop.Observe(s.playing) {
		log.Debugf("%s: playback %d finished after %d steps", s.session.Path, s.loop.Completed, s.steps)
	}
	if s.opts.OnStatus != nil {
		s.opts.OnStatus(s.Status())
	}
	return !s.loop.Done(), nil
}

// Run steps until the loop budget is used up or ctx is cancelled.
// Cancellation is not an error.
func (s *Scheduler) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			log.Debugf("%s: stopped after %d steps", s.session.Path, s.steps)
			return nil
		default:
		}

		more, err := s.Step()
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
	}
}

// Status returns the current playback status
func (s *Scheduler) Status() Status {
	return Status{
		Session:  s.session.ID,
		Subsong:  s.dec.Subsong(),
		Subsongs: s.dec.Subsongs(),
		Position: s.dec.Position(),
		Refresh:  s.dec.Refresh(),
		Loops:    s.loop.Completed,
		Step:     s.steps,
		Playing:  s.playing,
	}
}

// Session returns the session being played
func (s *Scheduler) Session() Session {
	return s.session
}
