//go:build !portaudio

// ABOUTME: PortAudio stub when library not available
// ABOUTME: Provides compile-time placeholder when PortAudio not installed
package output

import (
	"errors"
)

var errPortAudioDisabled = errors.New("PortAudio support not enabled (build with -tags portaudio)")

// PortAudio output implementation (stub)
type PortAudio struct{}

// NewPortAudio reports that PortAudio support is not compiled in
func NewPortAudio(Options) (*PortAudio, error) {
	return nil, errPortAudioDisabled
}

// Submit outputs audio samples
func (p *PortAudio) Submit([]byte) error {
	return errPortAudioDisabled
}

// Close releases resources
func (p *PortAudio) Close() error {
	return nil
}
