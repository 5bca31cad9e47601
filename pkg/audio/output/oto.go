// ABOUTME: Oto-based audio output implementation
// ABOUTME: Streams PCM through a pipe into a persistent oto player
package output

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/adplay/adplay-go/pkg/audio"
	"github.com/ebitengine/oto/v3"
)

var errNotPlaying = errors.New("player stopped")

// otoStream is one player fed through a pipe
type otoStream interface {
	Err() error
	IsPlaying() bool
	io.WriteCloser
}

type pipedPlayer struct {
	player *oto.Player
	r      *io.PipeReader
	w      *io.PipeWriter
}

func newPipedPlayer(ctx *oto.Context) *pipedPlayer {
	r, w := io.Pipe()
	p := &pipedPlayer{player: ctx.NewPlayer(r), r: r, w: w}
	p.player.Play()
	return p
}

func (p *pipedPlayer) Err() error      { return p.player.Err() }
func (p *pipedPlayer) IsPlaying() bool { return p.player.IsPlaying() }

// Write blocks until the player has read everything
func (p *pipedPlayer) Write(buf []byte) (int, error) {
	return p.w.Write(buf)
}

func (p *pipedPlayer) Close() error {
	p.w.Close()
	err := p.player.Close()
	p.r.Close()
	return err
}

// Oto output implementation using the oto library. oto allows a single
// context per process, so an Oto is opened once and shared by sessions.
type Oto struct {
	otoCtx *oto.Context
	stream otoStream
	open   func() otoStream
	format audio.Format
}

// NewOto opens the default sound device at the given format
func NewOto(opts Options) (*Oto, error) {
	op := &oto.NewContextOptions{
		SampleRate:   opts.Format.SampleRate,
		ChannelCount: opts.Format.Channels,
		Format:       oto.FormatSignedInt16LE,
	}
	if opts.Format.BitDepth == 8 {
		op.Format = oto.FormatUnsignedInt8
	}
	if opts.BufferFrames > 0 {
		op.BufferSize = time.Duration(opts.BufferFrames) * time.Second / time.Duration(opts.Format.SampleRate)
	}

	ctx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("failed to create oto context: %w", err)
	}
	<-readyChan

	o := newOtoWith(opts.Format, func() otoStream { return newPipedPlayer(ctx) })
	o.otoCtx = ctx

	log.Infof("Audio output initialized: %s (oto)", opts.Format)
	return o, nil
}

// newOtoWith creates an Oto whose players come from open
func newOtoWith(format audio.Format, open func() otoStream) *Oto {
	o := &Oto{open: open, format: format}
	o.prepare()
	return o
}

// prepare replaces the player with a fresh one and starts playback
func (o *Oto) prepare() error {
	o.release()
	o.stream = o.open()
	return nil
}

func (o *Oto) release() {
	if o.stream != nil {
		o.stream.Close()
		o.stream = nil
	}
}

func (o *Oto) write(buf []byte) error {
	if err := o.stream.Err(); err != nil {
		return err
	}
	if !o.stream.IsPlaying() {
		return errNotPlaying
	}
	_, err := o.stream.Write(buf)
	return err
}

// Submit writes buf to the device. A stopped or failed player is
// re-prepared once and the write retried.
func (o *Oto) Submit(buf []byte) error {
	if o.stream == nil {
		return ErrNotOpen
	}
	return retryOnce(MechanismOto, func() error { return o.write(buf) }, always, o.prepare)
}

// Close releases output resources
func (o *Oto) Close() error {
	o.release()
	if o.otoCtx != nil {
		if err := o.otoCtx.Suspend(); err != nil {
			log.Warnf("oto suspend failed: %v", err)
		}
		o.otoCtx = nil
	}
	return nil
}
