package fullcontext

import (
	"github.com/haivivi/koe/pkg/audioquery"
	"github.com/haivivi/koe/pkg/kana"
)

// AccentPhrases converts the tree into accent-phrase records. Lengths and
// pitches are zero; the last phrase of every breath group but the final one
// carries a pause mora.
func (u *Utterance) AccentPhrases() []audioquery.AccentPhrase {
	var out []audioquery.AccentPhrase
	for i, bg := range u.BreathGroups {
		for j, ap := range bg.AccentPhrases {
			rec := audioquery.AccentPhrase{
				Moras:           make([]audioquery.Mora, len(ap.Moras)),
				Accent:          ap.Accent,
				IsInterrogative: ap.Interrogative,
			}
			for k, m := range ap.Moras {
				vowel := m.Vowel.Phoneme()
				mora := audioquery.Mora{Vowel: vowel}
				consonant := ""
				if m.Consonant != nil {
					consonant = m.Consonant.Phoneme()
					mora.Consonant = audioquery.String(consonant)
					mora.ConsonantLength = audioquery.Float(0)
				}
				mora.Text = kana.MoraText(consonant, vowel)
				rec.Moras[k] = mora
			}
			if j == len(bg.AccentPhrases)-1 && i != len(u.BreathGroups)-1 {
				rec.PauseMora = kana.PauseMora()
			}
			out = append(out, rec)
		}
	}
	return out
}
