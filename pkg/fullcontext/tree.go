package fullcontext

import (
	"fmt"
	"strconv"
)

// Mora is one mora: a vowel-like label and an optional consonant before it.
type Mora struct {
	Consonant *Label
	Vowel     *Label
}

// Labels returns the labels of the mora in order.
func (m *Mora) Labels() []*Label {
	if m.Consonant != nil {
		return []*Label{m.Consonant, m.Vowel}
	}
	return []*Label{m.Vowel}
}

func (m *Mora) setContext(key, value string) {
	m.Vowel.Contexts[key] = value
	if m.Consonant != nil {
		m.Consonant.Contexts[key] = value
	}
}

// AccentPhrase is a run of moras with one accent. Accent is the 1-based
// index of the accented mora and never exceeds len(Moras).
type AccentPhrase struct {
	Moras         []Mora
	Accent        int
	Interrogative bool
}

func newAccentPhrase(labels []*Label) (AccentPhrase, error) {
	var (
		moras   []Mora
		pending []*Label
	)
	for i, l := range labels {
		// Position 49 is the analyzer's overflow marker: the phrase ends here.
		if l.Contexts["a2"] == "49" {
			break
		}
		pending = append(pending, l)
		if i+1 < len(labels) && l.Contexts["a2"] == labels[i+1].Contexts["a2"] {
			continue
		}
		switch len(pending) {
		case 1:
			moras = append(moras, Mora{Vowel: pending[0]})
		case 2:
			moras = append(moras, Mora{Consonant: pending[0], Vowel: pending[1]})
		default:
			return AccentPhrase{}, fmt.Errorf("%w: %d labels at mora position %s", ErrTooLongMora, len(pending), l.Contexts["a2"])
		}
		pending = nil
	}
	if len(moras) == 0 {
		return AccentPhrase{}, fmt.Errorf("%w: accent phrase without moras", ErrBrokenUtterance)
	}

	accent, err := strconv.Atoi(moras[0].Vowel.Contexts["f2"])
	if err != nil {
		return AccentPhrase{}, fmt.Errorf("%w: accent %q: %v", ErrBrokenUtterance, moras[0].Vowel.Contexts["f2"], err)
	}
	accent = max(1, min(accent, len(moras)))

	return AccentPhrase{
		Moras:         moras,
		Accent:        accent,
		Interrogative: moras[len(moras)-1].Vowel.Contexts["f3"] == "1",
	}, nil
}

// Labels returns the labels of the phrase in order.
func (ap *AccentPhrase) Labels() []*Label {
	var out []*Label
	for i := range ap.Moras {
		out = append(out, ap.Moras[i].Labels()...)
	}
	return out
}

func (ap *AccentPhrase) setContext(key, value string) {
	for i := range ap.Moras {
		ap.Moras[i].setContext(key, value)
	}
}

func (ap *AccentPhrase) rawKey() string {
	var key string
	for _, l := range ap.Labels() {
		key += l.Raw
	}
	return key
}

// BreathGroup is a run of accent phrases spoken without a pause.
type BreathGroup struct {
	AccentPhrases []AccentPhrase
}

func newBreathGroup(labels []*Label) (BreathGroup, error) {
	var (
		phrases []AccentPhrase
		start   int
	)
	for i, l := range labels {
		if i+1 < len(labels) {
			next := labels[i+1]
			if l.Contexts["i3"] == next.Contexts["i3"] && l.Contexts["f5"] == next.Contexts["f5"] {
				continue
			}
		}
		ap, err := newAccentPhrase(labels[start : i+1])
		if err != nil {
			return BreathGroup{}, err
		}
		phrases = append(phrases, ap)
		start = i + 1
	}
	return BreathGroup{AccentPhrases: phrases}, nil
}

// Labels returns the labels of the group in order.
func (bg *BreathGroup) Labels() []*Label {
	var out []*Label
	for i := range bg.AccentPhrases {
		out = append(out, bg.AccentPhrases[i].Labels()...)
	}
	return out
}

func (bg *BreathGroup) setContext(key, value string) {
	for i := range bg.AccentPhrases {
		bg.AccentPhrases[i].setContext(key, value)
	}
}

// Utterance is an analyzed sentence: breath groups with the pauses around
// and between them. Pauses[i] precedes BreathGroups[i]; a trailing pause
// follows the last group.
type Utterance struct {
	BreathGroups []BreathGroup
	Pauses       []*Label
}

// NewUtterance builds the prosody tree from parsed labels.
func NewUtterance(labels []*Label) (*Utterance, error) {
	u := &Utterance{}
	var group []*Label
	flush := func() error {
		if len(group) == 0 {
			return nil
		}
		bg, err := newBreathGroup(group)
		if err != nil {
			return err
		}
		u.BreathGroups = append(u.BreathGroups, bg)
		group = nil
		return nil
	}
	for _, l := range labels {
		if !l.IsPause() {
			group = append(group, l)
			continue
		}
		if err := flush(); err != nil {
			return nil, err
		}
		u.Pauses = append(u.Pauses, l)
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return u, nil
}

// accentPhrases returns pointers to every accent phrase in utterance order.
func (u *Utterance) accentPhrases() []*AccentPhrase {
	var out []*AccentPhrase
	for i := range u.BreathGroups {
		bg := &u.BreathGroups[i]
		for j := range bg.AccentPhrases {
			out = append(out, &bg.AccentPhrases[j])
		}
	}
	return out
}
