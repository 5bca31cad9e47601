// ABOUTME: Audio type definitions
// ABOUTME: Defines the PCM sample format and sample packing helpers
package audio

import (
	"errors"
	"fmt"
)

// ErrInvalidFormat is returned by Format.Validate for unsupported formats.
var ErrInvalidFormat = errors.New("invalid sample format")

// Format describes the PCM stream produced by a sample renderer
type Format struct {
	SampleRate int
	Channels   int // 1 or 2
	BitDepth   int // 8 (unsigned) or 16 (signed little-endian)
}

// Validate checks that the format is one a renderer and sink can agree on
func (f Format) Validate() error {
	if f.BitDepth != 8 && f.BitDepth != 16 {
		return fmt.Errorf("%w: bit depth %d (supported: 8, 16)", ErrInvalidFormat, f.BitDepth)
	}
	if f.Channels != 1 && f.Channels != 2 {
		return fmt.Errorf("%w: %d channels (supported: 1, 2)", ErrInvalidFormat, f.Channels)
	}
	if f.SampleRate <= 0 {
		return fmt.Errorf("%w: sample rate %d", ErrInvalidFormat, f.SampleRate)
	}
	return nil
}

// SampleSize returns the size of a single sample in bytes
func (f Format) SampleSize() int {
	return f.BitDepth / 8
}

// FrameSize returns the size of one frame (one sample for every channel) in bytes
func (f Format) FrameSize() int {
	return f.Channels * f.SampleSize()
}

// ByteRate returns the number of bytes per second of audio
func (f Format) ByteRate() int {
	return f.SampleRate * f.FrameSize()
}

// String renders the format the way it is shown to users
func (f Format) String() string {
	ch := "mono"
	if f.Channels == 2 {
		ch = "stereo"
	}
	return fmt.Sprintf("%dHz %d-bit %s", f.SampleRate, f.BitDepth, ch)
}

// SampleToUint8 converts a signed 16-bit sample to unsigned 8-bit
func SampleToUint8(sample int16) uint8 {
	return uint8((int32(sample) >> 8) + 128)
}

// SampleFromUint8 converts an unsigned 8-bit sample to signed 16-bit
func SampleFromUint8(sample uint8) int16 {
	return int16((int32(sample) - 128) << 8)
}

// PutSample stores a 16-bit sample at the start of dst using the format's
// sample size and returns the number of bytes written
func (f Format) PutSample(dst []byte, sample int16) int {
	if f.BitDepth == 8 {
		dst[0] = SampleToUint8(sample)
		return 1
	}
	dst[0] = byte(sample)
	dst[1] = byte(uint16(sample) >> 8)
	return 2
}

// Sample reads back a sample written by PutSample
func (f Format) Sample(src []byte) int16 {
	if f.BitDepth == 8 {
		return SampleFromUint8(src[0])
	}
	return int16(uint16(src[0]) | uint16(src[1])<<8)
}

// Silence fills buf with the format's zero level
func (f Format) Silence(buf []byte) {
	var v byte
	if f.BitDepth == 8 {
		v = 0x80
	}
	for i := range buf {
		buf[i] = v
	}
}
