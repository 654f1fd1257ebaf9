package synthesis

import (
	crand "crypto/rand"
	"math/rand/v2"
	"sync"
)

// Rand is the random source used for resampling dither. *rand.Rand from
// math/rand/v2 satisfies it.
type Rand interface {
	Float64() float64
}

// Resample picks frames sampled at rate onto a grid at targetRate. The
// output has floor(len/rate*targetRate) frames; frame i is taken from index
// floor((u+i)*rate/targetRate) where u is drawn once per call from rnd in
// [0, 1). The dither makes the selection vary by up to one source frame
// between calls.
func Resample[T any](frames []T, rate, targetRate float64, rnd Rand) []T {
	if len(frames) == 0 || rate <= 0 || targetRate <= 0 {
		return nil
	}
	length := int(float64(len(frames)) / rate * targetRate)
	out := make([]T, length)
	u := rnd.Float64()
	ratio := rate / targetRate
	last := len(frames) - 1
	for i := range out {
		j := int((u + float64(i)) * ratio)
		out[i] = frames[min(j, last)]
	}
	return out
}

// lockedRand serializes a Rand shared by concurrent requests.
type lockedRand struct {
	mu  sync.Mutex
	rnd Rand
}

func (r *lockedRand) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rnd.Float64()
}

// newRand returns a ChaCha8 generator seeded from the system's entropy.
func newRand() Rand {
	var seed [32]byte
	_, _ = crand.Read(seed[:])
	return rand.New(rand.NewChaCha8(seed))
}

// FixedRand returns the same value from every call. Use it to make
// resampling deterministic.
type FixedRand float64

func (r FixedRand) Float64() float64 { return float64(r) }
