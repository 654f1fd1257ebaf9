package pcm

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// WAVHeaderSize is the size of the canonical RIFF/WAVE header.
const WAVHeaderSize = 44

// ErrInvalidWAV is returned when parsing a header that is not a canonical
// 16-bit PCM WAV header.
var ErrInvalidWAV = errors.New("pcm: invalid wav header")

// ErrWAVTooLarge is returned when the data does not fit the 32-bit RIFF size.
var ErrWAVTooLarge = errors.New("pcm: wav size limit exceeded")

// WAVHeader returns the 44-byte header for dataBytes of PCM data.
func (f Format) WAVHeader(dataBytes uint32) []byte {
	h := make([]byte, WAVHeaderSize)
	le := binary.LittleEndian
	copy(h[0:], "RIFF")
	le.PutUint32(h[4:], dataBytes+36)
	copy(h[8:], "WAVEfmt ")
	le.PutUint32(h[16:], 16)
	le.PutUint16(h[20:], 1) // PCM
	le.PutUint16(h[22:], uint16(f.Channels()))
	le.PutUint32(h[24:], uint32(f.SampleRate()))
	le.PutUint32(h[28:], uint32(f.BytesRate()))
	le.PutUint16(h[32:], uint16(f.BlockAlign()))
	le.PutUint16(h[34:], uint16(f.Depth()))
	copy(h[36:], "data")
	le.PutUint32(h[40:], dataBytes)
	return h
}

// WriteWAV writes a WAV file holding the chunks. All chunks must share the
// format f.
func WriteWAV(w io.Writer, f Format, chunks ...Chunk) (int64, error) {
	var total int64
	for _, c := range chunks {
		if c.Format() != f {
			return 0, fmt.Errorf("pcm: chunk format %v, want %v", c.Format(), f)
		}
		total += c.Len()
	}
	if total > 1<<32-1-36 {
		return 0, fmt.Errorf("%w: %d bytes", ErrWAVTooLarge, total)
	}
	n, err := w.Write(f.WAVHeader(uint32(total)))
	written := int64(n)
	if err != nil {
		return written, err
	}
	for _, c := range chunks {
		n, err := c.WriteTo(w)
		written += n
		if err != nil {
			return written, err
		}
	}
	return written, nil
}

// EncodeWAV renders float samples as WAV bytes.
func EncodeWAV(f Format, samples []float32) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(WAVHeaderSize + 2*len(samples))
	if _, err := WriteWAV(&buf, f, f.FloatChunk(samples)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ParseWAVHeader reads the format and data size of a canonical header.
func ParseWAVHeader(h []byte) (Format, uint32, error) {
	if len(h) < WAVHeaderSize {
		return Format{}, 0, fmt.Errorf("%w: %d bytes", ErrInvalidWAV, len(h))
	}
	le := binary.LittleEndian
	if string(h[0:4]) != "RIFF" || string(h[8:16]) != "WAVEfmt " || string(h[36:40]) != "data" {
		return Format{}, 0, fmt.Errorf("%w: bad chunk ids", ErrInvalidWAV)
	}
	if le.Uint16(h[20:]) != 1 || le.Uint16(h[34:]) != 16 {
		return Format{}, 0, fmt.Errorf("%w: not 16-bit pcm", ErrInvalidWAV)
	}
	f := L16(int(le.Uint32(h[24:])), int(le.Uint16(h[22:])))
	if !f.Valid() {
		return Format{}, 0, fmt.Errorf("%w: %v", ErrInvalidWAV, f)
	}
	return f, le.Uint32(h[40:]), nil
}
