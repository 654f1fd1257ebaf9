// Package synthesis assembles synthesis requests: it fills accent phrases
// with predicted durations and pitches, expands them into decoder frames and
// turns the decoded waveform into PCM or WAV output.
//
// An Engine talks to one acoustic core through a Profile chosen at
// construction time. Engines are safe for concurrent use; core calls are
// serialized unless the core declares itself thread-safe.
package synthesis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/haivivi/koe/pkg/acoustic"
	"github.com/haivivi/koe/pkg/audioquery"
	"github.com/haivivi/koe/pkg/fullcontext"
	"github.com/haivivi/koe/pkg/kana"
	"github.com/haivivi/koe/pkg/phoneme"
)

// ErrNoAnalyzer is returned by text entry points of an engine built without
// an analyzer.
var ErrNoAnalyzer = errors.New("synthesis: no text analyzer")

// Engine runs the synthesis pipeline against one acoustic core.
type Engine struct {
	core     *acoustic.Serialized
	analyzer fullcontext.Analyzer
	profile  Profile
	rnd      Rand
	upspeak  bool
}

// Option configures an Engine.
type Option func(*options)

type options struct {
	analyzer fullcontext.Analyzer
	profile  Profile
	rnd      Rand
	upspeak  bool
}

// WithAnalyzer sets the analyzer used by the text entry points.
func WithAnalyzer(a fullcontext.Analyzer) Option {
	return func(o *options) { o.analyzer = a }
}

// WithProfile selects the acoustic-core calling convention. The default is
// Legacy.
func WithProfile(p Profile) Option {
	return func(o *options) { o.profile = p }
}

// WithRand injects the resampling dither source. Use FixedRand for
// reproducible output.
func WithRand(r Rand) Option {
	return func(o *options) { o.rnd = r }
}

// WithUpspeak toggles the rising pitch appended to interrogative phrases.
// It is on by default.
func WithUpspeak(on bool) Option {
	return func(o *options) { o.upspeak = on }
}

// New creates an engine around core. It fails when core lacks the
// predictors the profile needs.
func New(core acoustic.Core, opts ...Option) (*Engine, error) {
	if core == nil {
		return nil, errors.New("synthesis: nil core")
	}
	o := options{profile: Legacy, upspeak: true}
	for _, opt := range opts {
		opt(&o)
	}
	s := acoustic.Serialize(core)
	if o.profile.Variance && !s.SupportsVariance() {
		return nil, fmt.Errorf("synthesis: profile %s needs a variance predictor", o.profile)
	}
	if !o.profile.Variance && !s.SupportsLegacy() {
		return nil, fmt.Errorf("synthesis: profile %s needs duration and intonation predictors", o.profile)
	}
	rnd := o.rnd
	if rnd == nil {
		rnd = newRand()
	}
	return &Engine{
		core:     s,
		analyzer: o.analyzer,
		profile:  o.profile,
		rnd:      &lockedRand{rnd: rnd},
		upspeak:  o.upspeak,
	}, nil
}

// Profile returns the engine's profile.
func (e *Engine) Profile() Profile { return e.profile }

// Metas returns the core's speaker metadata JSON.
func (e *Engine) Metas() string { return e.core.Metas() }

// CreateAccentPhrases analyzes text and returns its accent phrases with
// predicted durations and pitches.
func (e *Engine) CreateAccentPhrases(ctx context.Context, text string, speaker int64) ([]audioquery.AccentPhrase, error) {
	if e.analyzer == nil {
		return nil, ErrNoAnalyzer
	}
	u, err := fullcontext.Extract(ctx, e.analyzer, text)
	if err != nil {
		return nil, err
	}
	phrases := u.AccentPhrases()
	slog.Debug("synthesis: analyzed text", "phrases", len(phrases), "pauses", len(u.Pauses))
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return e.ReplaceMoraData(ctx, phrases, speaker)
}

// AccentPhrasesFromKana parses kana notation and returns its accent phrases
// with predicted durations and pitches.
func (e *Engine) AccentPhrasesFromKana(ctx context.Context, text string, speaker int64) ([]audioquery.AccentPhrase, error) {
	phrases, err := kana.Parse(text)
	if err != nil {
		return nil, err
	}
	return e.ReplaceMoraData(ctx, phrases, speaker)
}

// AudioQuery analyzes text and wraps its accent phrases in a query with
// default scales and the phrases' kana rendering.
func (e *Engine) AudioQuery(ctx context.Context, text string, speaker int64) (*audioquery.AudioQuery, error) {
	phrases, err := e.CreateAccentPhrases(ctx, text, speaker)
	if err != nil {
		return nil, err
	}
	return audioquery.New(phrases, kana.Create(phrases)), nil
}

// ReplaceMoraData returns a copy of phrases with every length and pitch
// re-predicted.
func (e *Engine) ReplaceMoraData(ctx context.Context, phrases []audioquery.AccentPhrase, speaker int64) ([]audioquery.AccentPhrase, error) {
	l, err := newLayout(audioquery.Clone(phrases))
	if err != nil {
		return nil, err
	}
	if e.profile.Variance {
		pitch, duration, err := e.predictVariance(l, speaker)
		if err != nil {
			return nil, err
		}
		l.writeLengths(duration)
		l.writePitches(perMora(l, pitch))
		return l.phrases, nil
	}
	durations, err := e.core.PredictDuration(l.ids, speaker)
	if err != nil {
		return nil, err
	}
	l.writeLengths(durations)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f0, err := e.core.PredictIntonation(l.intonationInput(), speaker)
	if err != nil {
		return nil, err
	}
	l.writePitches(f0)
	return l.phrases, nil
}

// ReplacePhonemeLength returns a copy of phrases with consonant and vowel
// lengths re-predicted. Pitches are kept.
func (e *Engine) ReplacePhonemeLength(ctx context.Context, phrases []audioquery.AccentPhrase, speaker int64) ([]audioquery.AccentPhrase, error) {
	l, err := newLayout(audioquery.Clone(phrases))
	if err != nil {
		return nil, err
	}
	var durations []float32
	if e.profile.Variance {
		_, durations, err = e.predictVariance(l, speaker)
	} else {
		durations, err = e.core.PredictDuration(l.ids, speaker)
	}
	if err != nil {
		return nil, err
	}
	l.writeLengths(durations)
	return l.phrases, nil
}

// ReplaceMoraPitch returns a copy of phrases with pitches re-predicted.
// Lengths are kept.
func (e *Engine) ReplaceMoraPitch(ctx context.Context, phrases []audioquery.AccentPhrase, speaker int64) ([]audioquery.AccentPhrase, error) {
	l, err := newLayout(audioquery.Clone(phrases))
	if err != nil {
		return nil, err
	}
	var f0 []float32
	if e.profile.Variance {
		var pitch []float32
		pitch, _, err = e.predictVariance(l, speaker)
		f0 = perMora(l, pitch)
	} else {
		f0, err = e.core.PredictIntonation(l.intonationInput(), speaker)
	}
	if err != nil {
		return nil, err
	}
	l.writePitches(f0)
	return l.phrases, nil
}

func (e *Engine) predictVariance(l *layout, speaker int64) (pitch, duration []float32, err error) {
	accents, err := phoneme.AccentIDs(l.accentMarkers())
	if err != nil {
		return nil, nil, err
	}
	return e.core.PredictVariance(l.ids, accents, speaker)
}

// perMora picks the vowel entries of a per-phoneme pitch sequence.
func perMora(l *layout, pitch []float32) []float32 {
	if pitch == nil {
		return nil
	}
	out := make([]float32, len(l.vowelIndexes))
	for i, vi := range l.vowelIndexes {
		out[i] = pitch[vi]
	}
	return out
}
