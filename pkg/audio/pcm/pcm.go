package pcm

import (
	"fmt"
	"io"
	"time"
)

// Common formats.
var (
	// L16Mono24K represents audio/L16; rate=24000; channels=1
	L16Mono24K = L16(24000, 1)
	// L16Stereo24K represents audio/L16; rate=24000; channels=2
	L16Stereo24K = L16(24000, 2)
	// L16Mono48K represents audio/L16; rate=48000; channels=1
	L16Mono48K = L16(48000, 1)
)

// Chunk is a chunk of audio data.
type Chunk interface {
	Len() int64
	Format() Format
	WriteTo(w io.Writer) (int64, error)
}

// Format is a 16-bit little-endian linear PCM layout.
type Format struct {
	rate     int
	channels int
}

// L16 returns the 16-bit PCM format with the given rate and channel count.
func L16(rate, channels int) Format {
	return Format{rate: rate, channels: channels}
}

// Valid reports whether the format has a positive rate and channel count.
func (f Format) Valid() bool {
	return f.rate > 0 && f.channels > 0
}

// SampleRate returns the sample rate in Hz for this format.
func (f Format) SampleRate() int { return f.rate }

// Channels returns the number of audio channels for this format.
func (f Format) Channels() int { return f.channels }

// Depth returns the bit depth for this format.
func (f Format) Depth() int { return 16 }

// BlockAlign returns the size in bytes of one frame (one sample per channel).
func (f Format) BlockAlign() int {
	return f.channels * f.Depth() / 8
}

// Samples returns the number of samples per channel in the given number of
// bytes.
func (f Format) Samples(bytes int64) int64 {
	return bytes * 8 / int64(f.Channels()) / int64(f.Depth())
}

// SamplesInDuration returns the number of samples in the given duration.
func (f Format) SamplesInDuration(d time.Duration) int64 {
	return int64(time.Duration(f.SampleRate()) * d / time.Second)
}

// BytesInDuration returns the number of bytes in the given duration.
func (f Format) BytesInDuration(d time.Duration) int64 {
	return f.SamplesInDuration(d) * int64(f.BlockAlign())
}

// Duration returns the duration of the given number of bytes.
func (f Format) Duration(bytes int64) time.Duration {
	return time.Duration(f.Samples(bytes)) * time.Second / time.Duration(f.SampleRate())
}

// BytesRate returns the byte rate of the audio data.
func (f Format) BytesRate() int {
	return f.SampleRate() * f.BlockAlign()
}

// DataChunk returns a chunk of audio data.
func (f Format) DataChunk(data []byte) Chunk {
	return &DataChunk{
		Data: data,
		fmt:  f,
	}
}

// String returns a human-readable string representation of the format.
func (f Format) String() string {
	return fmt.Sprintf("audio/L16; rate=%d; channels=%d", f.rate, f.channels)
}

// DataChunk is a chunk of audio data.
type DataChunk struct {
	Data []byte
	fmt  Format
}

// Len returns the length of the audio data in bytes.
func (c *DataChunk) Len() int64 {
	return int64(len(c.Data))
}

// Format returns the audio format of this chunk.
func (c *DataChunk) Format() Format {
	return c.fmt
}

// WriteTo writes the audio data to the writer.
func (c *DataChunk) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(c.Data)
	return int64(n), err
}
