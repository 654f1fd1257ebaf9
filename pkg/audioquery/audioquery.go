// Package audioquery defines the accent-phrase records and the synthesis
// query exchanged between the prosody front-end, the kana notation, the
// synthesis engine and HTTP clients.
//
// Field names follow the VOICEVOX wire format so existing clients can post
// queries unchanged.
package audioquery

import (
	"errors"
	"fmt"
)

// ErrInvalidQueryShape is returned when a query or accent-phrase payload is
// missing fields or carries fields of the wrong type.
var ErrInvalidQueryShape = errors.New("audioquery: invalid query shape")

// Mora is one mora of an accent phrase. Consonant and ConsonantLength are nil
// for vowel-only moras. Lengths are seconds; Pitch is log-F0 (0 = unvoiced).
type Mora struct {
	Text            string   `json:"text"`
	Consonant       *string  `json:"consonant"`
	ConsonantLength *float64 `json:"consonant_length"`
	Vowel           string   `json:"vowel"`
	VowelLength     float64  `json:"vowel_length"`
	Pitch           float64  `json:"pitch"`
}

// AccentPhrase is a run of moras sharing one pitch-accent pattern. Accent is
// the 1-based index of the accented mora. PauseMora, when set, is a pause
// following the phrase.
type AccentPhrase struct {
	Moras           []Mora `json:"moras"`
	Accent          int    `json:"accent"`
	PauseMora       *Mora  `json:"pause_mora"`
	IsInterrogative bool   `json:"is_interrogative"`
}

// AudioQuery is a complete synthesis request.
type AudioQuery struct {
	AccentPhrases      []AccentPhrase `json:"accent_phrases"`
	SpeedScale         float64        `json:"speedScale"`
	PitchScale         float64        `json:"pitchScale"`
	IntonationScale    float64        `json:"intonationScale"`
	VolumeScale        float64        `json:"volumeScale"`
	PrePhonemeLength   float64        `json:"prePhonemeLength"`
	PostPhonemeLength  float64        `json:"postPhonemeLength"`
	OutputSamplingRate int            `json:"outputSamplingRate"`
	OutputStereo       bool           `json:"outputStereo"`
	Kana               string         `json:"kana,omitempty"`
}

// Query defaults applied by New.
const (
	DefaultSpeedScale         = 1.0
	DefaultPitchScale         = 0.0
	DefaultIntonationScale    = 1.0
	DefaultVolumeScale        = 1.0
	DefaultPrePhonemeLength   = 0.1
	DefaultPostPhonemeLength  = 0.1
	DefaultOutputSamplingRate = 24000
)

// New builds a query around phrases with default scales.
func New(phrases []AccentPhrase, kana string) *AudioQuery {
	return &AudioQuery{
		AccentPhrases:      phrases,
		SpeedScale:         DefaultSpeedScale,
		PitchScale:         DefaultPitchScale,
		IntonationScale:    DefaultIntonationScale,
		VolumeScale:        DefaultVolumeScale,
		PrePhonemeLength:   DefaultPrePhonemeLength,
		PostPhonemeLength:  DefaultPostPhonemeLength,
		OutputSamplingRate: DefaultOutputSamplingRate,
		OutputStereo:       false,
		Kana:               kana,
	}
}

// Check validates values the JSON shape cannot express. Decode calls it; call
// it directly for queries built in code.
func (q *AudioQuery) Check() error {
	if q.SpeedScale <= 0 {
		return fmt.Errorf("%w: speedScale must be positive, got %v", ErrInvalidQueryShape, q.SpeedScale)
	}
	if q.OutputSamplingRate <= 0 {
		return fmt.Errorf("%w: outputSamplingRate must be positive, got %d", ErrInvalidQueryShape, q.OutputSamplingRate)
	}
	if q.PrePhonemeLength < 0 || q.PostPhonemeLength < 0 {
		return fmt.Errorf("%w: phoneme lengths must not be negative", ErrInvalidQueryShape)
	}
	for i := range q.AccentPhrases {
		if len(q.AccentPhrases[i].Moras) == 0 {
			return fmt.Errorf("%w: accent_phrases[%d] has no moras", ErrInvalidQueryShape, i)
		}
	}
	return nil
}

// Channels returns the number of output channels.
func (q *AudioQuery) Channels() int {
	if q.OutputStereo {
		return 2
	}
	return 1
}

// String returns a pointer to s, for Mora.Consonant.
func String(s string) *string { return &s }

// Float returns a pointer to f, for Mora.ConsonantLength.
func Float(f float64) *float64 { return &f }
