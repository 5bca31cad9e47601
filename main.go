// ABOUTME: Entry point for the AdPlay command line player
// ABOUTME: Parses CLI flags, sets up logging and plays the given files
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/adplay/adplay-go/internal/app"
	"github.com/adplay/adplay-go/internal/player"
	"github.com/adplay/adplay-go/internal/version"
	"github.com/adplay/adplay-go/pkg/audio/output"
	"github.com/adplay/adplay-go/pkg/opl"
	"github.com/adplay/adplay-go/pkg/retrowave"
	"github.com/decred/slog"
	"github.com/spf13/pflag"
)

const programName = "adplay"

func main() {
	os.Exit(run())
}

func run() int {
	cfg := app.DefaultConfig()
	flags := pflag.NewFlagSet(programName, pflag.ContinueOnError)
	flags.SortFlags = false

	var (
		eightBit, sixteenBit bool
		stereo, mono         bool
		quiet, verbose       int
		showVersion, help    bool
		logFile              string
	)
	flags.StringVarP(&cfg.Emulator, "emulator", "e", cfg.Emulator, "specify emulator to use")
	flags.StringVarP(&cfg.Output, "output", "O", cfg.Output, "specify output mechanism")
	flags.StringVarP(&cfg.Device, "device", "d", "", "output device, file ('-' is stdout) or serial port")
	flags.IntVarP(&cfg.BufferFrames, "buffer", "b", cfg.BufferFrames, "set output buffer size to SIZE frames")
	flags.BoolVarP(&eightBit, "8bit", "8", false, "8-bit sample quality")
	flags.BoolVar(&sixteenBit, "16bit", false, "16-bit sample quality")
	flags.IntVarP(&cfg.Format.SampleRate, "freq", "f", cfg.Format.SampleRate, "set sample frequency to FREQ")
	flags.BoolVar(&stereo, "stereo", false, "stereo stream")
	flags.BoolVar(&mono, "mono", false, "mono stream")
	flags.BoolVarP(&cfg.ShowInstruments, "instruments", "i", false, "display instrument names")
	flags.BoolVarP(&cfg.Realtime, "realtime", "r", false, "display realtime song info")
	flags.BoolVarP(&cfg.ShowMessage, "message", "m", false, "display song message")
	flags.IntVarP(&cfg.Subsong, "subsong", "s", cfg.Subsong, "play subsong number N")
	flags.BoolVarP(&cfg.Once, "once", "o", false, "play only once, don't loop")
	flags.IntVarP(&cfg.Loops, "loop", "l", cfg.Loops, "loop exactly N times")
	flags.CountVarP(&quiet, "quiet", "q", "be more quiet")
	flags.CountVarP(&verbose, "verbose", "v", "be more verbose")
	flags.StringVar(&logFile, "log-file", "", "write log messages to FILE")
	flags.BoolVarP(&help, "help", "h", false, "display this help and exit")
	flags.BoolVarP(&showVersion, "version", "V", false, "output version information and exit")
	flags.Usage = func() { usage(os.Stdout, flags) }

	if err := flags.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(os.Stderr, "%s: %v\n", programName, err)
		fmt.Fprintf(os.Stderr, "Try '%s --help' for more information.\n", programName)
		return 1
	}

	if help {
		usage(os.Stdout, flags)
		return 0
	}
	if showVersion {
		fmt.Printf("%s %s\n", version.Product, version.Version)
		return 0
	}

	if eightBit {
		cfg.Format.BitDepth = 8
	}
	if sixteenBit {
		cfg.Format.BitDepth = 16
	}
	if stereo {
		cfg.Format.Channels = 2
	}
	if mono {
		cfg.Format.Channels = 1
	}
	cfg.LoopSet = flags.Changed("loop")

	files := flags.Args()
	if len(files) == 0 {
		fmt.Fprintf(os.Stderr, "%s: need at least one file for playback\n", programName)
		fmt.Fprintf(os.Stderr, "Try '%s --help' for more information.\n", programName)
		return 1
	}
	cfg.Normalize(len(files))

	logOut := io.Writer(os.Stderr)
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o666)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: error opening log file: %v\n", programName, err)
			return 1
		}
		defer f.Close()
		logOut = f
	} else if cfg.Realtime {
		// the status display owns the terminal
		logOut = io.Discard
	}
	setupLogging(logOut, verbose-quiet)

	info := io.Writer(os.Stderr)
	if quiet > 0 {
		info = io.Discard
	}

	ctx, stop := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGHUP)
	defer stop()

	p := app.New(cfg, info)
	if err := p.Open(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", programName, err)
		return 1
	}

	err := p.Play(ctx, files)
	if cerr := p.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", programName, err)
		return 1
	}
	return 0
}

// setupLogging points every package logger at one backend tagged with the
// program name. verbosity 0 logs
// warnings, each -v adds a level and each -q removes one.
func setupLogging(w io.Writer, verbosity int) slog.Logger {
	backend := slog.NewBackend(w)
	logger := backend.Logger(programName)

	switch {
	case verbosity <= -1:
		logger.SetLevel(slog.LevelCritical)
	case verbosity == 0:
		logger.SetLevel(slog.LevelWarn)
	case verbosity == 1:
		logger.SetLevel(slog.LevelInfo)
	case verbosity == 2:
		logger.SetLevel(slog.LevelDebug)
	default:
		logger.SetLevel(slog.LevelTrace)
	}

	app.UseLogger(logger)
	player.UseLogger(logger)
	output.UseLogger(logger)
	retrowave.UseLogger(logger)
	return logger
}

func usage(w io.Writer, flags *pflag.FlagSet) {
	fmt.Fprintf(w, "Usage: %s [OPTION]... FILE...\n\n", programName)
	fmt.Fprint(w, flags.FlagUsages())
	fmt.Fprintf(w, "\nAvailable emulators: %s\n", strings.Join(opl.Emulators(), " "))
	fmt.Fprintf(w, "Available output mechanisms: %s\n", strings.Join(output.Mechanisms(), " "))
}
