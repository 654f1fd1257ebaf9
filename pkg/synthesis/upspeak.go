package synthesis

import (
	"github.com/haivivi/koe/pkg/audioquery"
	"github.com/haivivi/koe/pkg/kana"
)

// Upspeak constants.
const (
	UpspeakLength    = 0.15
	UpspeakPitchStep = 0.3
	UpspeakMaxPitch  = 6.5
)

// Upspeak appends a rising mora to every interrogative phrase whose last
// mora is voiced. The mora repeats the last vowel for UpspeakLength seconds
// at UpspeakPitchStep above the last pitch, capped at UpspeakMaxPitch.
// phrases are modified in place and returned.
func Upspeak(phrases []audioquery.AccentPhrase) []audioquery.AccentPhrase {
	for i := range phrases {
		ap := &phrases[i]
		if !ap.IsInterrogative || len(ap.Moras) == 0 {
			continue
		}
		last := ap.Moras[len(ap.Moras)-1]
		if last.Pitch == 0 {
			continue
		}
		ap.Moras = append(ap.Moras, audioquery.Mora{
			Text:        kana.MoraText("", last.Vowel),
			Vowel:       last.Vowel,
			VowelLength: UpspeakLength,
			Pitch:       min(last.Pitch+UpspeakPitchStep, UpspeakMaxPitch),
		})
	}
	return phrases
}
