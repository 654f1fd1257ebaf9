package acoustic

import "sync"

// Funcs adapts Go functions to the Core contract. Nil functions report
// "not implemented" failures. Funcs is safe for concurrent use when its
// functions are.
type Funcs struct {
	MetasJSON  string
	Duration   func(ids []int64, speaker int64) ([]float32, error)
	Intonation func(in IntonationInput, speaker int64) ([]float32, error)
	Variance   func(ids, accents []int64, speaker int64) (pitch, duration []float32, err error)
	DecodeFunc func(frames, width int, f0, phonemes []float32, speaker int64) ([]float32, error)
	// Concurrent declares the functions safe for concurrent calls.
	Concurrent bool

	mu      sync.Mutex
	lastErr string
}

var (
	_ Core                = (*Funcs)(nil)
	_ DurationPredictor   = (*Funcs)(nil)
	_ IntonationPredictor = (*Funcs)(nil)
	_ VariancePredictor   = (*Funcs)(nil)
	_ ThreadSafe          = (*Funcs)(nil)
)

func (f *Funcs) setErr(err error) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err != nil {
		f.lastErr = err.Error()
		return false
	}
	return true
}

func (f *Funcs) notImplemented(op string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastErr = op + " not implemented"
	return false
}

func (f *Funcs) Metas() string { return f.MetasJSON }

func (f *Funcs) ThreadSafe() bool { return f.Concurrent }

func (f *Funcs) LastErrorMessage() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastErr
}

func (f *Funcs) PredictDuration(ids []int64, speaker int64) ([]float32, bool) {
	if f.Duration == nil {
		return nil, f.notImplemented("duration")
	}
	out, err := f.Duration(ids, speaker)
	return out, f.setErr(err)
}

func (f *Funcs) PredictIntonation(in IntonationInput, speaker int64) ([]float32, bool) {
	if f.Intonation == nil {
		return nil, f.notImplemented("intonation")
	}
	out, err := f.Intonation(in, speaker)
	return out, f.setErr(err)
}

func (f *Funcs) PredictVariance(ids, accents []int64, speaker int64) ([]float32, []float32, bool) {
	if f.Variance == nil {
		return nil, nil, f.notImplemented("variance")
	}
	pitch, duration, err := f.Variance(ids, accents, speaker)
	return pitch, duration, f.setErr(err)
}

func (f *Funcs) Decode(frames, width int, f0, phonemes []float32, speaker int64) ([]float32, bool) {
	if f.DecodeFunc == nil {
		return nil, f.notImplemented("decode")
	}
	out, err := f.DecodeFunc(frames, width, f0, phonemes, speaker)
	return out, f.setErr(err)
}
