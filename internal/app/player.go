// ABOUTME: Main player application orchestration
// ABOUTME: Opens the output and chip once, then plays each file in turn
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/adplay/adplay-go/internal/player"
	"github.com/adplay/adplay-go/internal/ui"
	"github.com/adplay/adplay-go/pkg/audio/output"
	"github.com/adplay/adplay-go/pkg/opl"
	"github.com/adplay/adplay-go/pkg/song"
	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"
)

const statusInterval = 50 * time.Millisecond

// Player represents the main player application
type Player struct {
	config Config
	info   io.Writer

	sink *output.Sink
	emu  *opl.Emulator
	chip opl.Chip

	tuiProg    *tea.Program
	lastStatus time.Time
}

// New creates a player that prints song information to info
func New(config Config, info io.Writer) *Player {
	return &Player{
		config: config,
		info:   info,
	}
}

// Open creates the output sink and the chip decoders write to. Both live
// for the whole run and are shared by every file.
func (p *Player) Open() error {
	if err := p.config.Validate(); err != nil {
		return err
	}

	device := p.config.Device
	if p.config.Emulator == opl.EmulatorRawOut && !p.config.Hardware() {
		device = ""
	}
	sink, err := output.Open(p.config.Output, output.Options{
		Format:       p.config.Format,
		Device:       device,
		BufferFrames: p.config.BufferFrames,
	})
	if err != nil {
		return err
	}
	p.sink = sink

	if hw := sink.Hardware(); hw != nil {
		p.chip = hw.Chip()
		log.Infof("Playing on RetroWave OPL3")
		return nil
	}

	emu, err := opl.NewEmulator(p.config.Emulator, p.config.Format, p.config.Device)
	if err != nil {
		sink.Close()
		p.sink = nil
		return err
	}
	p.emu = emu
	p.chip = emu.Chip
	log.Infof("Using %s emulator on %s output (%s)", emu.Name, sink.Name(), p.config.Format)
	return nil
}

// Close releases the recorder and the sink. A hardware sink resets the chip.
func (p *Player) Close() error {
	var err error
	if p.emu != nil {
		err = p.emu.Close()
		p.emu = nil
	}
	if p.sink != nil {
		err = errors.Join(err, p.sink.Close())
		p.sink = nil
	}
	return err
}

// Play plays files, with the status display when configured
func (p *Player) Play(ctx context.Context, files []string) error {
	if !p.config.Realtime {
		return p.Run(ctx, files)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	model := ui.NewModel(p.sink.Name(), p.config.Format.String(), cancel)
	p.tuiProg = ui.Run(model)
	defer func() { p.tuiProg = nil }()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		if _, err := p.tuiProg.Run(); err != nil {
			return fmt.Errorf("TUI failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		defer p.tuiProg.Quit()
		return p.Run(gctx, files)
	})
	return g.Wait()
}

// Run plays every file in order until all are done or ctx is cancelled
func (p *Player) Run(ctx context.Context, files []string) error {
	if p.sink == nil {
		return output.ErrNotOpen
	}
	for _, path := range files {
		if ctx.Err() != nil {
			break
		}
		if err := p.playFile(ctx, path); err != nil {
			return err
		}
	}
	return nil
}

func (p *Player) playFile(ctx context.Context, path string) error {
	dec, err := song.OpenSubsong(path, p.chip, p.config.Subsong)
	switch {
	case errors.Is(err, song.ErrUnknownFormat):
		log.Warnf("unknown filetype -- %s", path)
		return nil
	case err != nil:
		log.Warnf("cannot read %s: %v", path, err)
		return nil
	}

	session := player.NewSession(path, dec.Subsong(), p.config.LoopBudget(), p.config.Format, p.config.BufferFrames)
	p.announce(session, dec)

	opts := player.Options{OnStatus: p.publish}
	if p.emu != nil {
		opts.Renderer = p.emu.Renderer
		opts.Recorder = p.emu.Recorder
	}
	sched, err := player.NewScheduler(session, dec, p.sink, opts)
	if err != nil {
		return err
	}
	if err := sched.Run(ctx); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// announce prints song information, or hands it to the status display
func (p *Player) announce(session player.Session, dec song.Decoder) {
	path := session.Path
	if p.tuiProg != nil {
		p.tuiProg.Send(ui.FileMsg{
			Session: session.ID,
			Path:    path,
			Type:    dec.Type(),
			Title:   dec.Title(),
			Author:  dec.Author(),
		})
		return
	}

	fmt.Fprintf(p.info, "Playing '%s'...\nType  : %s\nTitle : %s\nAuthor: %s\n\n",
		path, dec.Type(), dec.Title(), dec.Author())

	if p.config.ShowInstruments {
		fmt.Fprintf(p.info, "Instrument names:\n")
		for i := 0; i < dec.Instruments(); i++ {
			fmt.Fprintf(p.info, "%2d: %s\n", i, dec.Instrument(i))
		}
		fmt.Fprintf(p.info, "\n")
	}

	if p.config.ShowMessage {
		fmt.Fprintf(p.info, "Song message:\n%s\n\n", dec.Description())
	}
}

// publish forwards scheduler status to the display at a bounded rate
func (p *Player) publish(st player.Status) {
	if p.tuiProg == nil {
		return
	}
	now := time.Now()
	if now.Sub(p.lastStatus) < statusInterval {
		return
	}
	p.lastStatus = now
	p.tuiProg.Send(ui.StatusMsg{Status: st})
}
