// ABOUTME: Audio output package for playing or storing rendered audio
// ABOUTME: Provides the Sink variants and the mechanisms that open them
// Package output provides the sinks a playback session writes to.
//
// A Sink is one of four variants, reported by Kind: a sound device, a WAV
// file, a discard sink, or a RetroWave hardware board. Device and file
// sinks take rendered PCM through Submit; the hardware sink exposes the
// board as an opl.Chip instead.
//
// Example:
//
//	sink, err := output.Open("disk", output.Options{
//		Format:       audio.Format{SampleRate: 44100, Channels: 1, BitDepth: 16},
//		Device:       "song.wav",
//		BufferFrames: 2048,
//	})
//	err = sink.Submit(buf)
//	err = sink.Close()
package output
