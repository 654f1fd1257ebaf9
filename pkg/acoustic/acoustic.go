// Package acoustic defines the contract of acoustic cores: the external
// inference engines that predict phoneme durations and pitch and decode
// frame features into a waveform.
//
// A core reports failure with a false return and keeps the failure text for
// LastErrorMessage, which is only meaningful right after the failed call.
// Serialized turns that contract into Go errors and serializes access to
// cores that are not safe for concurrent use.
package acoustic

import (
	"errors"
	"fmt"
)

// ErrCoreFailure is the sentinel matched by every *CoreError.
var ErrCoreFailure = errors.New("acoustic: core failure")

// CoreError is a failed core call. Message is the core's last error text.
type CoreError struct {
	Op      string
	Message string
}

func (e *CoreError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("acoustic: %s failed", e.Op)
	}
	return fmt.Sprintf("acoustic: %s failed: %s", e.Op, e.Message)
}

func (e *CoreError) Unwrap() error { return ErrCoreFailure }

// Core is the minimum every acoustic core provides.
type Core interface {
	// Metas returns the speaker metadata JSON of the loaded models.
	Metas() string
	// Decode renders frames of one-hot phoneme features (frames*width
	// values) with per-frame log-F0 into 24 kHz samples.
	Decode(frames, width int, f0, phonemes []float32, speaker int64) ([]float32, bool)
	// LastErrorMessage describes the last failed call.
	LastErrorMessage() string
}

// DurationPredictor predicts per-phoneme durations in seconds.
type DurationPredictor interface {
	PredictDuration(ids []int64, speaker int64) ([]float32, bool)
}

// IntonationInput carries the per-mora sequences of a pitch prediction. All
// slices have one entry per mora including the bracketing pauses;
// ConsonantIDs holds -1 for moras without a consonant.
type IntonationInput struct {
	VowelIDs          []int64
	ConsonantIDs      []int64
	StartAccent       []int64
	EndAccent         []int64
	StartAccentPhrase []int64
	EndAccentPhrase   []int64
}

// Len returns the number of moras.
func (in *IntonationInput) Len() int { return len(in.VowelIDs) }

// IntonationPredictor predicts per-mora log-F0.
type IntonationPredictor interface {
	PredictIntonation(in IntonationInput, speaker int64) ([]float32, bool)
}

// VariancePredictor predicts per-phoneme log-F0 and durations in one call
// from phoneme and accent-marker IDs.
type VariancePredictor interface {
	PredictVariance(ids, accents []int64, speaker int64) (pitch, duration []float32, ok bool)
}

// ThreadSafe is implemented by cores that allow concurrent calls.
type ThreadSafe interface {
	ThreadSafe() bool
}
