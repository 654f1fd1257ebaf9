package acoustic

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/haivivi/koe/pkg/phoneme"
)

type boolCore struct {
	mu      sync.Mutex
	calls   int
	fail    bool
	lastErr string
}

func (c *boolCore) Metas() string { return "[]" }

func (c *boolCore) LastErrorMessage() string { return c.lastErr }

func (c *boolCore) Decode(frames, width int, f0, phonemes []float32, speaker int64) ([]float32, bool) {
	if !c.mu.TryLock() {
		panic("concurrent decode")
	}
	defer c.mu.Unlock()
	c.calls++
	if c.fail {
		c.lastErr = "out of memory"
		return nil, false
	}
	return make([]float32, frames*256), true
}

func TestSerialized_Decode(t *testing.T) {
	c := &boolCore{}
	s := Serialize(c)
	if !s.Locked() {
		t.Fatal("core without ThreadSafe should be locked")
	}

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, err := s.Decode(2, 3, make([]float32, 2), make([]float32, 6), 0)
			if err != nil || len(out) != 512 {
				t.Errorf("Decode = %d, %v", len(out), err)
			}
		}()
	}
	wg.Wait()
	if c.calls != 8 {
		t.Errorf("calls = %d; want 8", c.calls)
	}

	c.fail = true
	_, err := s.Decode(1, 1, []float32{0}, []float32{0}, 0)
	if !errors.Is(err, ErrCoreFailure) {
		t.Fatalf("Decode error = %v; want ErrCoreFailure", err)
	}
	var ce *CoreError
	if !errors.As(err, &ce) || ce.Message != "out of memory" || ce.Op != "decode" {
		t.Errorf("CoreError = %+v", ce)
	}
	if !strings.Contains(err.Error(), "out of memory") {
		t.Errorf("error text %q lacks core message", err)
	}
}

func TestSerialized_ShapeChecks(t *testing.T) {
	s := Serialize(&boolCore{})
	if _, err := s.Decode(2, 3, make([]float32, 1), make([]float32, 6), 0); !errors.Is(err, ErrCoreFailure) {
		t.Errorf("short f0 error = %v", err)
	}
	if _, err := s.PredictDuration([]int64{1}, 0); !errors.Is(err, ErrCoreFailure) {
		t.Errorf("unsupported duration error = %v", err)
	}
	if s.SupportsLegacy() || s.SupportsVariance() {
		t.Error("decode-only core should support no profile")
	}

	short := &Funcs{Duration: func(ids []int64, _ int64) ([]float32, error) { return []float32{1}, nil }}
	if _, err := Serialize(short).PredictDuration([]int64{1, 2}, 0); !errors.Is(err, ErrCoreFailure) {
		t.Errorf("short duration error = %v", err)
	}
}

func TestSerialize_ThreadSafe(t *testing.T) {
	f := &Funcs{Concurrent: true}
	s := Serialize(f)
	if s.Locked() {
		t.Error("thread-safe core should not be locked")
	}
	if !Serialize(&Funcs{}).Locked() {
		t.Error("core without ThreadSafe should be locked")
	}
	if s.Core() != Core(f) {
		t.Error("Core() should return the wrapped core")
	}
}

func TestFuncs_Errors(t *testing.T) {
	f := &Funcs{
		Variance: func(ids, accents []int64, _ int64) ([]float32, []float32, error) {
			return nil, nil, errors.New("bad accents")
		},
	}
	s := Serialize(f)
	_, _, err := s.PredictVariance([]int64{0}, []int64{2}, 0)
	var ce *CoreError
	if !errors.As(err, &ce) || ce.Message != "bad accents" {
		t.Errorf("PredictVariance error = %v", err)
	}
	if _, err := s.PredictIntonation(IntonationInput{}, 0); err == nil || !strings.Contains(err.Error(), "not implemented") {
		t.Errorf("nil Intonation error = %v", err)
	}
}

func TestTone(t *testing.T) {
	core, err := Open(ToneRuntime, Options{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	s := Serialize(core)
	if !s.SupportsLegacy() || !s.SupportsVariance() {
		t.Error("tone should support both profiles")
	}
	if !strings.Contains(s.Metas(), `"tone"`) {
		t.Errorf("Metas() = %s", s.Metas())
	}

	ids := []int64{phoneme.MustID("pau"), phoneme.MustID("k"), phoneme.MustID("o"), phoneme.MustID("pau")}
	d, err := s.PredictDuration(ids, 0)
	if err != nil {
		t.Fatalf("PredictDuration: %v", err)
	}
	if d[1] >= d[2] {
		t.Errorf("consonant %v should be shorter than vowel %v", d[1], d[2])
	}
	if _, err := s.PredictDuration(ids, 7); !errors.Is(err, ErrCoreFailure) {
		t.Errorf("unknown speaker error = %v", err)
	}

	in := IntonationInput{
		VowelIDs:          []int64{phoneme.MustID("pau"), phoneme.MustID("o"), phoneme.MustID("I"), phoneme.MustID("pau")},
		ConsonantIDs:      []int64{-1, phoneme.MustID("k"), phoneme.MustID("sh"), -1},
		StartAccent:       []int64{0, 1, 0, 0},
		EndAccent:         []int64{0, 1, 0, 0},
		StartAccentPhrase: []int64{0, 1, 0, 0},
		EndAccentPhrase:   []int64{0, 0, 1, 0},
	}
	f0, err := s.PredictIntonation(in, 0)
	if err != nil {
		t.Fatalf("PredictIntonation: %v", err)
	}
	if f0[0] != 0 || f0[2] != 0 || f0[3] != 0 || f0[1] <= toneBasePitch {
		t.Errorf("f0 = %v", f0)
	}

	frames := 3
	feat := make([]float32, frames*phoneme.Count)
	feat[0] = 1 // pau
	feat[phoneme.Count+int(phoneme.MustID("o"))] = 1
	feat[2*phoneme.Count+int(phoneme.MustID("o"))] = 1
	wave, err := s.Decode(frames, phoneme.Count, []float32{0, 5.5, 5.5}, feat, 0)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(wave) != frames*toneHop {
		t.Fatalf("len(wave) = %d", len(wave))
	}
	for _, v := range wave[:toneHop] {
		if v != 0 {
			t.Fatal("pause frame should be silent")
		}
	}
	var peak float32
	for _, v := range wave[toneHop:] {
		peak = max(peak, v)
	}
	if peak < 0.2 {
		t.Errorf("voiced peak = %v; want ~0.3", peak)
	}
}

func TestRegistry(t *testing.T) {
	Register("test-runtime", func(opts Options) (Core, error) {
		if opts.ModelDir == "" {
			return nil, errors.New("model dir required")
		}
		return NewTone(), nil
	})
	if _, err := Open("test-runtime", Options{}); err == nil || !strings.Contains(err.Error(), "model dir required") {
		t.Errorf("Open error = %v", err)
	}
	if _, err := Open("test-runtime", Options{ModelDir: "/models"}); err != nil {
		t.Errorf("Open: %v", err)
	}
	if _, err := Open("missing", Options{}); err == nil {
		t.Error("Open(missing) should fail")
	}
	names := Runtimes()
	found := false
	for _, n := range names {
		found = found || n == ToneRuntime
	}
	if !found {
		t.Errorf("Runtimes() = %v; want tone", names)
	}
}
