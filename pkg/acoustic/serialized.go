package acoustic

import (
	"fmt"
	"sync"
)

// Serialized wraps a core with error-returning calls. Unless the core
// declares itself thread-safe, every call and the read of its error message
// happen under one mutex.
type Serialized struct {
	core   Core
	locked bool
	mu     sync.Mutex
}

// Serialize wraps c.
func Serialize(c Core) *Serialized {
	locked := true
	if ts, ok := c.(ThreadSafe); ok && ts.ThreadSafe() {
		locked = false
	}
	return &Serialized{core: c, locked: locked}
}

// Core returns the wrapped core.
func (s *Serialized) Core() Core { return s.core }

// Locked reports whether calls are serialized.
func (s *Serialized) Locked() bool { return s.locked }

func (s *Serialized) lock() func() {
	if !s.locked {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Serialized) fail(op string) error {
	return &CoreError{Op: op, Message: s.core.LastErrorMessage()}
}

func unsupported(op string) error {
	return &CoreError{Op: op, Message: "not supported by this core"}
}

// Metas returns the core's metadata JSON.
func (s *Serialized) Metas() string {
	defer s.lock()()
	return s.core.Metas()
}

// SupportsLegacy reports whether the core has separate duration and
// intonation predictors.
func (s *Serialized) SupportsLegacy() bool {
	_, d := s.core.(DurationPredictor)
	_, i := s.core.(IntonationPredictor)
	return d && i
}

// SupportsVariance reports whether the core has a variance predictor.
func (s *Serialized) SupportsVariance() bool {
	_, ok := s.core.(VariancePredictor)
	return ok
}

// PredictDuration calls the core's duration predictor.
func (s *Serialized) PredictDuration(ids []int64, speaker int64) ([]float32, error) {
	p, ok := s.core.(DurationPredictor)
	if !ok {
		return nil, unsupported("predict duration")
	}
	defer s.lock()()
	out, ok := p.PredictDuration(ids, speaker)
	if !ok {
		return nil, s.fail("predict duration")
	}
	if len(out) != len(ids) {
		return nil, &CoreError{Op: "predict duration", Message: fmt.Sprintf("got %d durations for %d phonemes", len(out), len(ids))}
	}
	return out, nil
}

// PredictIntonation calls the core's intonation predictor.
func (s *Serialized) PredictIntonation(in IntonationInput, speaker int64) ([]float32, error) {
	p, ok := s.core.(IntonationPredictor)
	if !ok {
		return nil, unsupported("predict intonation")
	}
	defer s.lock()()
	out, ok := p.PredictIntonation(in, speaker)
	if !ok {
		return nil, s.fail("predict intonation")
	}
	if len(out) != in.Len() {
		return nil, &CoreError{Op: "predict intonation", Message: fmt.Sprintf("got %d pitches for %d moras", len(out), in.Len())}
	}
	return out, nil
}

// PredictVariance calls the core's variance predictor.
func (s *Serialized) PredictVariance(ids, accents []int64, speaker int64) (pitch, duration []float32, err error) {
	p, ok := s.core.(VariancePredictor)
	if !ok {
		return nil, nil, unsupported("predict variance")
	}
	defer s.lock()()
	pitch, duration, ok = p.PredictVariance(ids, accents, speaker)
	if !ok {
		return nil, nil, s.fail("predict variance")
	}
	if len(pitch) != len(ids) || len(duration) != len(ids) {
		return nil, nil, &CoreError{Op: "predict variance", Message: fmt.Sprintf("got %d/%d values for %d phonemes", len(pitch), len(duration), len(ids))}
	}
	return pitch, duration, nil
}

// Decode calls the core's decoder.
func (s *Serialized) Decode(frames, width int, f0, phonemes []float32, speaker int64) ([]float32, error) {
	if len(f0) != frames || len(phonemes) != frames*width {
		return nil, &CoreError{Op: "decode", Message: fmt.Sprintf("feature size mismatch: %d frames, %d f0, %d phoneme values", frames, len(f0), len(phonemes))}
	}
	defer s.lock()()
	out, ok := s.core.Decode(frames, width, f0, phonemes, speaker)
	if !ok {
		return nil, s.fail("decode")
	}
	return out, nil
}
