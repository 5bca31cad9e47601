// ABOUTME: Audio fundamentals package providing core types and utilities
// ABOUTME: Defines Format and 8/16-bit sample conversion functions
// Package audio provides the PCM format shared by renderers and sinks.
//
// A Format is a sample rate, a channel count (1 or 2) and a bit depth (8-bit
// unsigned or 16-bit signed little-endian), matching what OPL emulators
// traditionally produce.
//
// Example:
//
//	format := audio.Format{SampleRate: 44100, Channels: 2, BitDepth: 16}
//	if err := format.Validate(); err != nil {
//	    return err
//	}
//	buf := make([]byte, 2048*format.FrameSize())
package audio
