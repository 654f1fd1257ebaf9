// Package pcm provides types and utilities for working with 16-bit PCM audio
// data and its WAV container.
//
// Key types:
//   - Format: sample rate and channel count of 16-bit little-endian PCM
//   - Chunk: Interface for audio data chunks
//   - DataChunk: Concrete implementation of Chunk for raw audio data
//
// Example usage:
//
//	// Render synthesized samples as a mono 24 kHz WAV file
//	format := pcm.L16Mono24K
//	wav, err := pcm.EncodeWAV(format, samples)
//
//	// Or stream chunks into a writer
//	_, err = pcm.WriteWAV(w, format, format.FloatChunk(samples))
package pcm
