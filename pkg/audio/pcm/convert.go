package pcm

import (
	"encoding/binary"
	"math"
)

// FloatChunk converts interleaved float samples into a 16-bit chunk. Samples
// are clipped to [-1, 1] and scaled by 32767, truncating toward zero.
func (f Format) FloatChunk(samples []float32) Chunk {
	data := make([]byte, 2*len(samples))
	for i, s := range samples {
		binary.LittleEndian.PutUint16(data[2*i:], uint16(ToL16(s)))
	}
	return f.DataChunk(data)
}

// ToL16 converts one float sample to a 16-bit sample.
func ToL16(s float32) int16 {
	v := float64(s)
	if math.IsNaN(v) {
		return 0
	}
	v = max(-1, min(1, v))
	return int16(v * 32767)
}

// Int16s decodes little-endian 16-bit samples.
func Int16s(data []byte) []int16 {
	out := make([]int16, len(data)/2)
	for i := range out {
		out[i] = int16(binary.LittleEndian.Uint16(data[2*i:]))
	}
	return out
}
