package audioquery

import "github.com/haivivi/koe/pkg/phoneme"

// FlattenMoras returns pointers to every mora of phrases in order, with each
// phrase's pause mora following its last mora. Writes through the pointers
// update phrases in place.
func FlattenMoras(phrases []AccentPhrase) []*Mora {
	var out []*Mora
	for i := range phrases {
		ap := &phrases[i]
		for j := range ap.Moras {
			out = append(out, &ap.Moras[j])
		}
		if ap.PauseMora != nil {
			out = append(out, ap.PauseMora)
		}
	}
	return out
}

// PhonemeSymbols flattens moras into a phoneme symbol sequence bracketed by
// a leading and trailing pause.
func PhonemeSymbols(moras []*Mora) []string {
	syms := make([]string, 0, 2*len(moras)+2)
	syms = append(syms, phoneme.Space)
	for _, m := range moras {
		if m.Consonant != nil {
			syms = append(syms, *m.Consonant)
		}
		syms = append(syms, m.Vowel)
	}
	return append(syms, phoneme.Space)
}

// Clone returns a deep copy of phrases.
func Clone(phrases []AccentPhrase) []AccentPhrase {
	if phrases == nil {
		return nil
	}
	out := make([]AccentPhrase, len(phrases))
	for i, ap := range phrases {
		out[i] = ap
		out[i].Moras = make([]Mora, len(ap.Moras))
		for j, m := range ap.Moras {
			out[i].Moras[j] = m.clone()
		}
		if ap.PauseMora != nil {
			pm := ap.PauseMora.clone()
			out[i].PauseMora = &pm
		}
	}
	return out
}

func (m Mora) clone() Mora {
	if m.Consonant != nil {
		m.Consonant = String(*m.Consonant)
	}
	if m.ConsonantLength != nil {
		m.ConsonantLength = Float(*m.ConsonantLength)
	}
	return m
}

// Clone returns a deep copy of q.
func (q *AudioQuery) Clone() *AudioQuery {
	c := *q
	c.AccentPhrases = Clone(q.AccentPhrases)
	return &c
}
