package fullcontext

import (
	"fmt"
	"strconv"
)

// Phonemes annotates the tree's labels with the prosodic context implied by
// the tree shape and returns them flattened, pauses interleaved with breath
// groups.
//
// Each phrase receives its own mora count and accent (f1/f2), its
// neighbours' (e1/e2 from the previous phrase, g1/g2 from the next) and per
// mora positions (a1/a2/a3). Each breath group receives its phrase count
// (i1), its neighbours' (h1/j1) and its position in the utterance (i5/i6).
// k2 is the utterance's phrase count.
func (u *Utterance) Phonemes() ([]*Label, error) {
	if err := u.annotate(); err != nil {
		return nil, err
	}
	var out []*Label
	for i := 0; i < max(len(u.Pauses), len(u.BreathGroups)); i++ {
		if i < len(u.Pauses) {
			out = append(out, u.Pauses[i])
		}
		if i < len(u.BreathGroups) {
			out = append(out, u.BreathGroups[i].Labels()...)
		}
	}
	return out, nil
}

// Labels returns the raw label strings of Phonemes.
func (u *Utterance) Labels() ([]string, error) {
	ls, err := u.Phonemes()
	if err != nil {
		return nil, err
	}
	out := make([]string, len(ls))
	for i, l := range ls {
		out[i] = l.Raw
	}
	return out, nil
}

func (u *Utterance) annotate() error {
	phrases := u.accentPhrases()
	itoa := strconv.Itoa

	for i, cur := range phrases {
		moraNum := itoa(len(cur.Moras))
		accent := itoa(cur.Accent)
		if i > 0 {
			phrases[i-1].setContext("g1", moraNum)
			phrases[i-1].setContext("g2", accent)
		}
		if i+1 < len(phrases) {
			phrases[i+1].setContext("e1", moraNum)
			phrases[i+1].setContext("e2", accent)
		}
		cur.setContext("f1", moraNum)
		cur.setContext("f2", accent)
		for j := range cur.Moras {
			m := &cur.Moras[j]
			m.setContext("a1", itoa(j-cur.Accent+1))
			m.setContext("a2", itoa(j+1))
			m.setContext("a3", itoa(len(cur.Moras)-j))
		}
	}

	keys := make([]string, len(phrases))
	for i, ap := range phrases {
		keys[i] = ap.rawKey()
	}
	for i := range u.BreathGroups {
		cur := &u.BreathGroups[i]
		count := itoa(len(cur.AccentPhrases))
		if i > 0 {
			u.BreathGroups[i-1].setContext("j1", count)
		}
		if i+1 < len(u.BreathGroups) {
			u.BreathGroups[i+1].setContext("h1", count)
		}
		cur.setContext("i1", count)

		if len(cur.AccentPhrases) == 0 {
			return fmt.Errorf("%w: breath group %d has no accent phrases", ErrBrokenUtterance, i)
		}
		first := cur.AccentPhrases[0].rawKey()
		index := -1
		for j, k := range keys {
			if k == first {
				index = j
				break
			}
		}
		if index < 0 {
			return fmt.Errorf("%w: breath group %d not found in utterance", ErrBrokenUtterance, i)
		}
		cur.setContext("i5", itoa(index+1))
		cur.setContext("i6", itoa(len(phrases)-index))
	}

	total := itoa(len(phrases))
	for i := range u.BreathGroups {
		u.BreathGroups[i].setContext("k2", total)
	}
	return nil
}
