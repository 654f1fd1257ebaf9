package synthesis

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/haivivi/koe/pkg/audio/pcm"
	"github.com/haivivi/koe/pkg/audioquery"
	"github.com/haivivi/koe/pkg/phoneme"
)

// Synthesize renders q into interleaved samples at q.OutputSamplingRate
// with q.Channels() channels. q is not modified.
func (e *Engine) Synthesize(ctx context.Context, q *audioquery.AudioQuery, speaker int64) ([]float32, error) {
	if err := checkQuery(q); err != nil {
		return nil, err
	}
	phrases := audioquery.Clone(q.AccentPhrases)
	if e.upspeak {
		phrases = Upspeak(phrases)
	}
	l, err := newLayout(phrases)
	if err != nil {
		return nil, err
	}

	lengths := e.phonemeLengths(l, q)
	f0 := pitchContour(l, q.PitchScale, q.IntonationScale)
	counts := frameCounts(lengths, e.profile.FrameRate, q.SpeedScale)
	idFrames, f0Frames := expandFrames(l, counts, f0)

	idFrames = Resample(idFrames, e.profile.FrameRate, DecoderFrameRate, e.rnd)
	f0Frames = Resample(f0Frames, e.profile.FrameRate, DecoderFrameRate, e.rnd)
	n := min(len(idFrames), len(f0Frames))
	features := make([]float32, n*phoneme.Count)
	for i, id := range idFrames[:n] {
		features[i*phoneme.Count+int(id)] = 1
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	wave, err := e.core.Decode(n, phoneme.Count, f0Frames[:n], features, speaker)
	if err != nil {
		return nil, err
	}
	slog.Debug("synthesis: decoded", "profile", e.profile.Name, "frames", n, "samples", len(wave))

	offset := min(int(NativeSampleRate*e.profile.PrePadding/q.SpeedScale), len(wave))
	return shapeOutput(wave[offset:], q), nil
}

// SynthesizeWAV renders q as a 16-bit PCM WAV file.
func (e *Engine) SynthesizeWAV(ctx context.Context, q *audioquery.AudioQuery, speaker int64) ([]byte, error) {
	samples, err := e.Synthesize(ctx, q, speaker)
	if err != nil {
		return nil, err
	}
	return pcm.EncodeWAV(pcm.L16(q.OutputSamplingRate, q.Channels()), samples)
}

func checkQuery(q *audioquery.AudioQuery) error {
	if q == nil {
		return fmt.Errorf("%w: nil query", audioquery.ErrInvalidQueryShape)
	}
	if err := q.Check(); err != nil {
		return err
	}
	if q.OutputSamplingRate%NativeSampleRate != 0 {
		return fmt.Errorf("%w: outputSamplingRate %d is not a multiple of %d",
			audioquery.ErrInvalidQueryShape, q.OutputSamplingRate, NativeSampleRate)
	}
	return nil
}

// phonemeLengths returns per-phoneme lengths in seconds. The profile's
// pre-padding is added to the leading pause.
func (e *Engine) phonemeLengths(l *layout, q *audioquery.AudioQuery) []float64 {
	out := make([]float64, 0, len(l.phonemes))
	out = append(out, q.PrePhonemeLength+e.profile.PrePadding)
	for _, m := range l.moras {
		if m.Consonant != nil {
			var c float64
			if m.ConsonantLength != nil {
				c = *m.ConsonantLength
			}
			out = append(out, c)
		}
		out = append(out, m.VowelLength)
	}
	return append(out, q.PostPhonemeLength)
}

// pitchContour returns per-mora pitches, bracketing pauses included, after
// pitch and intonation scaling. Unvoiced moras are zero.
func pitchContour(l *layout, pitchScale, intonationScale float64) []float64 {
	f0 := make([]float64, len(l.vowelIndexes))
	for i, m := range l.moras {
		if phoneme.IsUnvoiced(m.Vowel) {
			continue
		}
		f0[i+1] = m.Pitch * math.Pow(2, pitchScale)
	}
	return Recenter(f0, intonationScale)
}

// Recenter scales the distance of every voiced (positive) pitch from the
// voiced mean by intonationScale. f0 is modified in place and returned.
// Without voiced pitches f0 is unchanged.
func Recenter(f0 []float64, intonationScale float64) []float64 {
	var sum float64
	var n int
	for _, p := range f0 {
		if p > 0 {
			sum += p
			n++
		}
	}
	if n == 0 {
		return f0
	}
	mean := sum / float64(n)
	for i, p := range f0 {
		if p > 0 {
			f0[i] = (p-mean)*intonationScale + mean
		}
	}
	return f0
}

// frameCounts quantizes lengths into frames at rate, then stretches by the
// speed scale. Both roundings are half-to-even.
func frameCounts(lengths []float64, rate, speed float64) []int {
	out := make([]int, len(lengths))
	for i, s := range lengths {
		out[i] = max(int(math.RoundToEven(math.RoundToEven(s*rate)/speed)), 0)
	}
	return out
}

// expandFrames repeats every phoneme ID for its frame count and every mora
// pitch across the frames of the phonemes it covers (the consonant and
// vowel ending at each vowel index).
func expandFrames(l *layout, counts []int, f0 []float64) (ids []int64, pitch []float32) {
	var total int
	for _, c := range counts {
		total += c
	}
	ids = make([]int64, 0, total)
	for i, c := range counts {
		for range c {
			ids = append(ids, l.ids[i])
		}
	}
	pitch = make([]float32, 0, total)
	start := 0
	for k, vi := range l.vowelIndexes {
		var frames int
		for _, c := range counts[start : vi+1] {
			frames += c
		}
		for range frames {
			pitch = append(pitch, float32(f0[k]))
		}
		start = vi + 1
	}
	return ids, pitch
}

// shapeOutput applies the volume scale, then repeats every sample for the
// integer upsampling ratio and the channel count.
func shapeOutput(wave []float32, q *audioquery.AudioQuery) []float32 {
	ratio := q.OutputSamplingRate / NativeSampleRate
	channels := q.Channels()
	volume := float32(q.VolumeScale)
	out := make([]float32, 0, len(wave)*ratio*channels)
	for _, s := range wave {
		s *= volume
		for range ratio * channels {
			out = append(out, s)
		}
	}
	return out
}
