package synthesis

import (
	"fmt"

	"github.com/haivivi/koe/pkg/acoustic"
	"github.com/haivivi/koe/pkg/audioquery"
	"github.com/haivivi/koe/pkg/phoneme"
)

// layout is the phoneme-level view of a set of accent phrases. Moras point
// into phrases so predictions can be written back in place.
type layout struct {
	phrases      []audioquery.AccentPhrase
	moras        []*audioquery.Mora
	phonemes     []phoneme.Phoneme
	ids          []int64
	consonants   []*phoneme.Phoneme
	vowels       []phoneme.Phoneme
	vowelIndexes []int
}

// newLayout validates phrases and lays them out as phonemes bracketed by
// pauses. phrases are used as is; callers clone them first when the input
// must stay untouched.
func newLayout(phrases []audioquery.AccentPhrase) (*layout, error) {
	moras := audioquery.FlattenMoras(phrases)
	for i, m := range moras {
		if !phoneme.IsMoraPhoneme(m.Vowel) {
			return nil, fmt.Errorf("%w: mora %d: %q is not a vowel", audioquery.ErrInvalidQueryShape, i, m.Vowel)
		}
		if m.Consonant != nil {
			c := *m.Consonant
			if _, ok := phoneme.ID(c); !ok || phoneme.IsMoraPhoneme(c) {
				return nil, fmt.Errorf("%w: mora %d: %q is not a consonant", audioquery.ErrInvalidQueryShape, i, c)
			}
		}
	}
	ps := phoneme.FromSymbols(audioquery.PhonemeSymbols(moras))
	consonants, vowels, vowelIndexes := phoneme.SplitMora(ps)
	return &layout{
		phrases:      phrases,
		moras:        moras,
		phonemes:     ps,
		ids:          phoneme.IDs(ps),
		consonants:   consonants,
		vowels:       vowels,
		vowelIndexes: vowelIndexes,
	}, nil
}

// writeLengths stores per-phoneme durations into the moras. The bracketing
// pauses are skipped.
func (l *layout) writeLengths(durations []float32) {
	for i, m := range l.moras {
		vi := l.vowelIndexes[i+1]
		if m.Consonant != nil {
			m.ConsonantLength = audioquery.Float(float64(durations[vi-1]))
		}
		m.VowelLength = float64(durations[vi])
	}
}

// writePitches stores per-mora pitches (one per vowel index) into the moras,
// forcing unvoiced moras to zero.
func (l *layout) writePitches(f0 []float32) {
	for i, m := range l.moras {
		p := float64(f0[i+1])
		if phoneme.IsUnvoiced(l.vowels[i+1].Symbol) {
			p = 0
		}
		m.Pitch = p
	}
}

// intonationInput builds the per-mora inputs of a legacy pitch prediction.
func (l *layout) intonationInput() acoustic.IntonationInput {
	startAccent := l.accentList(func(ap *audioquery.AccentPhrase) int {
		if ap.Accent == 1 {
			return 0
		}
		return 1
	})
	endAccent := l.accentList(func(ap *audioquery.AccentPhrase) int { return ap.Accent - 1 })
	startPhrase := l.accentList(func(*audioquery.AccentPhrase) int { return 0 })
	endPhrase := l.accentList(func(*audioquery.AccentPhrase) int { return -1 })

	n := len(l.vowelIndexes)
	in := acoustic.IntonationInput{
		VowelIDs:          make([]int64, n),
		ConsonantIDs:      make([]int64, n),
		StartAccent:       make([]int64, n),
		EndAccent:         make([]int64, n),
		StartAccentPhrase: make([]int64, n),
		EndAccentPhrase:   make([]int64, n),
	}
	for i, vi := range l.vowelIndexes {
		in.VowelIDs[i] = l.vowels[i].ID()
		in.ConsonantIDs[i] = -1
		if c := l.consonants[i]; c != nil {
			in.ConsonantIDs[i] = c.ID()
		}
		in.StartAccent[i] = startAccent[vi]
		in.EndAccent[i] = endAccent[vi]
		in.StartAccentPhrase[i] = startPhrase[vi]
		in.EndAccentPhrase[i] = endPhrase[vi]
	}
	return in
}

// accentList marks, per phoneme, the mora selected by point in every phrase
// (negative points count from the end). Consonants repeat their mora's mark;
// pauses are 0.
func (l *layout) accentList(point func(*audioquery.AccentPhrase) int) []int64 {
	out := make([]int64, 0, len(l.phonemes))
	out = append(out, 0)
	for i := range l.phrases {
		ap := &l.phrases[i]
		p := point(ap)
		for j, m := range ap.Moras {
			var v int64
			if j == p || (p < 0 && j == len(ap.Moras)+p) {
				v = 1
			}
			if m.Consonant != nil {
				out = append(out, v)
			}
			out = append(out, v)
		}
		if ap.PauseMora != nil {
			out = append(out, 0)
		}
	}
	return append(out, 0)
}

// accentMarkers builds the per-phoneme accent markers of a variance
// prediction. On a phrase's vowels "?" (last mora of an interrogative
// phrase) wins over "]" (accent nucleus), which wins over "[" (rise after
// the first mora), which wins over "#" (last phoneme of a non-final phrase).
func (l *layout) accentMarkers() []phoneme.Accent {
	out := make([]phoneme.Accent, 0, len(l.phonemes))
	out = append(out, phoneme.AccentNone)
	for i := range l.phrases {
		ap := &l.phrases[i]
		final := i == len(l.phrases)-1
		for j, m := range ap.Moras {
			if m.Consonant != nil {
				out = append(out, phoneme.AccentNone)
			}
			last := j == len(ap.Moras)-1
			var mark phoneme.Accent
			switch {
			case last && ap.IsInterrogative:
				mark = phoneme.AccentQuestion
			case j+1 == ap.Accent:
				mark = phoneme.AccentFall
			case j == 0 && ap.Accent != 1 && len(ap.Moras) > 1:
				mark = phoneme.AccentRise
			case last && !final && ap.PauseMora == nil:
				mark = phoneme.AccentPhraseEnd
			default:
				mark = phoneme.AccentNone
			}
			out = append(out, mark)
		}
		if ap.PauseMora != nil {
			if final {
				out = append(out, phoneme.AccentNone)
			} else {
				out = append(out, phoneme.AccentPhraseEnd)
			}
		}
	}
	return append(out, phoneme.AccentNone)
}
