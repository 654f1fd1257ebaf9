package acoustic

import (
	"fmt"
	"math"

	"github.com/haivivi/koe/pkg/phoneme"
)

// ToneRuntime is the name of the built-in tone runtime.
const ToneRuntime = "tone"

// Tone core constants.
const (
	toneSampleRate = 24000
	toneHop        = 256
	toneBasePitch  = 5.45
	toneHighPitch  = 0.25
)

const toneMetas = `[{"name":"tone","speaker_uuid":"00000000-0000-4000-8000-000000000000",` +
	`"styles":[{"name":"normal","id":0},{"name":"high","id":1}],"version":"0.1.0"}]`

func init() {
	Register(ToneRuntime, func(Options) (Core, error) { return NewTone(), nil })
}

// NewTone returns a model-free core that renders every voiced frame as a
// sine at the frame's F0. It follows the accent inputs closely enough to
// exercise the synthesis pipeline without an inference runtime. Style 1
// raises the pitch by a whole tone.
func NewTone() *Funcs {
	return &Funcs{
		MetasJSON:  toneMetas,
		Duration:   toneDuration,
		Intonation: toneIntonation,
		Variance:   toneVariance,
		DecodeFunc: toneDecode,
		Concurrent: true,
	}
}

func toneSpeaker(speaker int64) (float32, error) {
	switch speaker {
	case 0:
		return 0, nil
	case 1:
		return float32(math.Log(9.0 / 8.0)), nil
	}
	return 0, fmt.Errorf("tone: unknown speaker %d", speaker)
}

var tonePauseID = int(phoneme.MustID(phoneme.Space))

func toneLength(id int64) float32 {
	sym, _ := phoneme.Symbol(id)
	switch {
	case sym == phoneme.Space:
		return 0.1
	case phoneme.IsMoraPhoneme(sym):
		return 0.11
	default:
		return 0.06
	}
}

func toneDuration(ids []int64, speaker int64) ([]float32, error) {
	if _, err := toneSpeaker(speaker); err != nil {
		return nil, err
	}
	out := make([]float32, len(ids))
	for i, id := range ids {
		out[i] = toneLength(id)
	}
	return out, nil
}

func toneIntonation(in IntonationInput, speaker int64) ([]float32, error) {
	shift, err := toneSpeaker(speaker)
	if err != nil {
		return nil, err
	}
	out := make([]float32, in.Len())
	high := false
	for i, id := range in.VowelIDs {
		if in.StartAccentPhrase[i] == 1 {
			high = false
		}
		if in.StartAccent[i] == 1 {
			high = true
		}
		sym, _ := phoneme.Symbol(id)
		if !phoneme.IsUnvoiced(sym) {
			out[i] = toneBasePitch + shift
			if high {
				out[i] += toneHighPitch
			}
		}
		if in.EndAccent[i] == 1 || in.EndAccentPhrase[i] == 1 {
			high = false
		}
	}
	return out, nil
}

func toneVariance(ids, accents []int64, speaker int64) ([]float32, []float32, error) {
	if len(ids) != len(accents) {
		return nil, nil, fmt.Errorf("tone: %d phonemes but %d accents", len(ids), len(accents))
	}
	shift, err := toneSpeaker(speaker)
	if err != nil {
		return nil, nil, err
	}
	rise, _ := phoneme.AccentRise.ID()
	fall, _ := phoneme.AccentFall.ID()
	end, _ := phoneme.AccentPhraseEnd.ID()

	pitch := make([]float32, len(ids))
	duration := make([]float32, len(ids))
	high := false
	for i, id := range ids {
		duration[i] = toneLength(id)
		sym, _ := phoneme.Symbol(id)
		if phoneme.IsMoraPhoneme(sym) && !phoneme.IsUnvoiced(sym) {
			pitch[i] = toneBasePitch + shift
			if high {
				pitch[i] += toneHighPitch
			}
		}
		switch accents[i] {
		case rise:
			high = true
		case fall, end:
			high = false
		}
	}
	return pitch, duration, nil
}

func toneDecode(frames, width int, f0, phonemes []float32, _ int64) ([]float32, error) {
	if width != phoneme.Count {
		return nil, fmt.Errorf("tone: feature width %d, want %d", width, phoneme.Count)
	}
	out := make([]float32, frames*toneHop)
	phase := 0.0
	for f := range frames {
		if f0[f] <= 0 || phonemes[f*width+tonePauseID] == 1 {
			continue
		}
		hz := math.Exp(float64(f0[f]))
		step := 2 * math.Pi * hz / toneSampleRate
		for s := range toneHop {
			out[f*toneHop+s] = float32(0.3 * math.Sin(phase))
			phase += step
		}
		phase = math.Mod(phase, 2*math.Pi)
	}
	return out, nil
}
