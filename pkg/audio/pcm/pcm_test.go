package pcm

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"testing"
	"time"
)

func TestFormat(t *testing.T) {
	f := L16Stereo24K
	if f.SampleRate() != 24000 || f.Channels() != 2 || f.Depth() != 16 {
		t.Errorf("format = %v", f)
	}
	if f.BlockAlign() != 4 || f.BytesRate() != 96000 {
		t.Errorf("BlockAlign/BytesRate = %d/%d", f.BlockAlign(), f.BytesRate())
	}
	if got := f.BytesInDuration(10 * time.Millisecond); got != 960 {
		t.Errorf("BytesInDuration(10ms) = %d; want 960", got)
	}
	if got := f.Duration(96000); got != time.Second {
		t.Errorf("Duration(96000) = %v; want 1s", got)
	}
	if got := L16Mono24K.String(); got != "audio/L16; rate=24000; channels=1" {
		t.Errorf("String() = %q", got)
	}
	if L16(0, 1).Valid() {
		t.Error("zero rate should be invalid")
	}
}

func TestToL16(t *testing.T) {
	tests := []struct {
		in   float32
		want int16
	}{
		{0, 0},
		{1, 32767},
		{-1, -32767},
		{2.5, 32767},
		{-7, -32767},
		{0.5, 16383},
		{-0.5, -16383},
	}
	for _, tc := range tests {
		if got := ToL16(tc.in); got != tc.want {
			t.Errorf("ToL16(%v) = %d; want %d", tc.in, got, tc.want)
		}
	}
}

func TestEncodeWAV_Header(t *testing.T) {
	samples := []float32{0, 0.5, -0.5, 1, -1, 3}
	wav, err := EncodeWAV(L16Mono24K, samples)
	if err != nil {
		t.Fatalf("EncodeWAV: %v", err)
	}
	if len(wav) != WAVHeaderSize+2*len(samples) {
		t.Fatalf("len(wav) = %d", len(wav))
	}
	le := binary.LittleEndian
	if got := le.Uint32(wav[4:8]); got != uint32(36+2*len(samples)) {
		t.Errorf("RIFF size = %d; want %d", got, 36+2*len(samples))
	}
	if got := le.Uint16(wav[22:24]); got != 1 {
		t.Errorf("channels = %d; want 1", got)
	}
	if string(wav[0:4]) != "RIFF" || string(wav[8:16]) != "WAVEfmt " || string(wav[36:40]) != "data" {
		t.Errorf("chunk ids = %q %q %q", wav[0:4], wav[8:16], wav[36:40])
	}
	if le.Uint32(wav[16:20]) != 16 || le.Uint16(wav[20:22]) != 1 || le.Uint16(wav[34:36]) != 16 {
		t.Error("fmt chunk fields wrong")
	}
	if le.Uint32(wav[24:28]) != 24000 || le.Uint32(wav[28:32]) != 48000 || le.Uint16(wav[32:34]) != 2 {
		t.Error("rate fields wrong")
	}
	got := Int16s(wav[WAVHeaderSize:])
	want := []int16{0, 16383, -16383, 32767, -32767, 32767}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sample %d = %d; want %d", i, got[i], want[i])
		}
	}

	f, size, err := ParseWAVHeader(wav)
	if err != nil || f != L16Mono24K || size != uint32(2*len(samples)) {
		t.Errorf("ParseWAVHeader = %v, %d, %v", f, size, err)
	}
}

func TestWriteWAV(t *testing.T) {
	f := L16Stereo24K
	var buf bytes.Buffer
	n, err := WriteWAV(&buf, f, f.FloatChunk([]float32{0.1, 0.1}), f.DataChunk([]byte{1, 0, 2, 0}))
	if err != nil {
		t.Fatalf("WriteWAV: %v", err)
	}
	if n != int64(buf.Len()) || buf.Len() != WAVHeaderSize+8 {
		t.Errorf("written = %d, len = %d", n, buf.Len())
	}
	if got := binary.LittleEndian.Uint16(buf.Bytes()[22:24]); got != 2 {
		t.Errorf("channels = %d; want 2", got)
	}

	if _, err := WriteWAV(&buf, f, L16Mono24K.DataChunk(nil)); err == nil {
		t.Error("mixed formats should fail")
	}
}

// hugeChunk reports a length past the RIFF limit without holding the data.
type hugeChunk struct{ f Format }

func (c hugeChunk) Len() int64     { return 1 << 32 }
func (c hugeChunk) Format() Format { return c.f }
func (c hugeChunk) WriteTo(w io.Writer) (int64, error) {
	return 0, errors.New("hugeChunk: not writable")
}

func TestWriteWAV_TooLarge(t *testing.T) {
	var buf bytes.Buffer
	n, err := WriteWAV(&buf, L16Mono24K, hugeChunk{L16Mono24K})
	if !errors.Is(err, ErrWAVTooLarge) {
		t.Fatalf("WriteWAV error = %v; want ErrWAVTooLarge", err)
	}
	if n != 0 || buf.Len() != 0 {
		t.Errorf("written = %d, len = %d; want nothing", n, buf.Len())
	}
}

func TestParseWAVHeader_Invalid(t *testing.T) {
	if _, _, err := ParseWAVHeader([]byte("RIFF")); !errors.Is(err, ErrInvalidWAV) {
		t.Errorf("short header error = %v", err)
	}
	h := L16Mono24K.WAVHeader(0)
	h[20] = 3 // float
	if _, _, err := ParseWAVHeader(h); !errors.Is(err, ErrInvalidWAV) {
		t.Errorf("float header error = %v", err)
	}
}
