// ABOUTME: Output sink definition and mechanism registry
// ABOUTME: A Sink is a closed set of variants: device, file, discard or hardware
package output

import (
	"errors"
	"fmt"
	"sort"

	"github.com/adplay/adplay-go/pkg/audio"
)

var (
	// ErrUnknownOutput is returned by Open for an unregistered mechanism
	ErrUnknownOutput = errors.New("unknown output method")

	// ErrNotOpen is returned when submitting to a closed or non-PCM sink
	ErrNotOpen = errors.New("output not open")
)

// Kind tags the sink variant
type Kind int

const (
	// KindDevice is a sound device fed with rendered PCM
	KindDevice Kind = iota
	// KindFile is a WAV file fed with rendered PCM
	KindFile
	// KindDiscard renders nothing
	KindDiscard
	// KindHardware drives a real chip; nothing is rendered
	KindHardware
)

func (k Kind) String() string {
	switch k {
	case KindDevice:
		return "device"
	case KindFile:
		return "file"
	case KindDiscard:
		return "discard"
	case KindHardware:
		return "hardware"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// PCM consumes rendered audio
type PCM interface {
	// Submit outputs buf, blocking until it has been accepted
	Submit(buf []byte) error

	// Close releases the device or finishes the file
	Close() error
}

// Options configures a sink
type Options struct {
	Format audio.Format

	// Device is the device name, output file or serial port, depending on
	// the mechanism. Empty selects the mechanism's default.
	Device string

	// BufferFrames is the size of one submitted buffer in frames
	BufferFrames int
}

// Sink is an opened output
type Sink struct {
	kind Kind
	name string
	pcm  PCM
	hw   *Serial
}

// NewPCMSink wraps a PCM consumer as a device or file sink
func NewPCMSink(kind Kind, name string, pcm PCM) *Sink {
	return &Sink{kind: kind, name: name, pcm: pcm}
}

// NewHardwareSink wraps a RetroWave board as a sink
func NewHardwareSink(hw *Serial) *Sink {
	return &Sink{kind: KindHardware, name: MechanismRetroWave, hw: hw}
}

// Discard returns a sink that drops everything
func Discard() *Sink {
	return &Sink{kind: KindDiscard, name: MechanismNull}
}

// Kind returns the variant tag
func (s *Sink) Kind() Kind {
	return s.kind
}

// Name returns the mechanism name
func (s *Sink) Name() string {
	return s.name
}

// Submit outputs rendered audio. Discard sinks drop it.
func (s *Sink) Submit(buf []byte) error {
	switch s.kind {
	case KindDiscard:
		return nil
	case KindDevice, KindFile:
		if s.pcm == nil {
			return ErrNotOpen
		}
		return s.pcm.Submit(buf)
	default:
		return fmt.Errorf("%w: %s sink does not take audio", ErrNotOpen, s.kind)
	}
}

// Hardware returns the board of a hardware sink, nil otherwise
func (s *Sink) Hardware() *Serial {
	return s.hw
}

// Close releases the sink. Calling it again is a no-op.
func (s *Sink) Close() error {
	var err error
	if s.pcm != nil {
		err = s.pcm.Close()
		s.pcm = nil
	}
	if s.hw != nil {
		err = errors.Join(err, s.hw.Close())
		s.hw = nil
	}
	return err
}

// Mechanism names
const (
	MechanismOto       = "oto"
	MechanismMalgo     = "malgo"
	MechanismPortAudio = "portaudio"
	MechanismDisk      = "disk"
	MechanismNull      = "null"
	MechanismRetroWave = "retrowave"

	DefaultMechanism = MechanismOto
)

type opener func(opts Options) (*Sink, error)

var mechanisms = map[string]opener{
	MechanismOto: func(opts Options) (*Sink, error) {
		o, err := NewOto(opts)
		if err != nil {
			return nil, err
		}
		return NewPCMSink(KindDevice, MechanismOto, o), nil
	},
	MechanismMalgo: func(opts Options) (*Sink, error) {
		m, err := NewMalgo(opts)
		if err != nil {
			return nil, err
		}
		return NewPCMSink(KindDevice, MechanismMalgo, m), nil
	},
	MechanismPortAudio: func(opts Options) (*Sink, error) {
		p, err := NewPortAudio(opts)
		if err != nil {
			return nil, err
		}
		return NewPCMSink(KindDevice, MechanismPortAudio, p), nil
	},
	MechanismDisk: func(opts Options) (*Sink, error) {
		w, err := CreateWAV(opts.Device, opts.Format)
		if err != nil {
			return nil, err
		}
		return NewPCMSink(KindFile, MechanismDisk, w), nil
	},
	MechanismNull: func(Options) (*Sink, error) {
		return Discard(), nil
	},
	MechanismRetroWave: func(opts Options) (*Sink, error) {
		hw, err := OpenSerial(opts.Device)
		if err != nil {
			return nil, err
		}
		return NewHardwareSink(hw), nil
	},
}

// Mechanisms lists the available mechanism names
func Mechanisms() []string {
	names := make([]string, 0, len(mechanisms))
	for name := range mechanisms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Known reports whether name is a registered mechanism
func Known(name string) bool {
	_, ok := mechanisms[name]
	return ok
}

// Open creates the sink for mechanism. PCM mechanisms validate the format.
func Open(mechanism string, opts Options) (*Sink, error) {
	open, ok := mechanisms[mechanism]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownOutput, mechanism)
	}

	switch mechanism {
	case MechanismNull, MechanismRetroWave:
	default:
		if err := opts.Format.Validate(); err != nil {
			return nil, err
		}
	}

	sink, err := open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s output: %w", mechanism, err)
	}
	log.Debugf("Opened %s output (%s)", mechanism, sink.Kind())
	return sink, nil
}
