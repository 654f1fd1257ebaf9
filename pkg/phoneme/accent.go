package phoneme

import "fmt"

// Accent is an accent-boundary marker fed to variance models alongside each
// phoneme.
type Accent string

// Accent markers.
const (
	// AccentRise marks the phoneme after which pitch rises.
	AccentRise Accent = "["
	// AccentFall marks the accent nucleus, after which pitch falls.
	AccentFall Accent = "]"
	// AccentNone marks a phoneme with no accent event.
	AccentNone Accent = "_"
	// AccentPhraseEnd marks the last phoneme of an accent phrase.
	AccentPhraseEnd Accent = "#"
	// AccentQuestion marks the last phoneme of an interrogative phrase.
	AccentQuestion Accent = "?"
)

var accentIDs = map[Accent]int64{
	AccentRise:      0,
	AccentFall:      1,
	AccentNone:      2,
	AccentPhraseEnd: 3,
	AccentQuestion:  4,
}

// AccentCount is the size of the accent-marker inventory.
const AccentCount = 5

// ID returns the model ID of the marker.
func (a Accent) ID() (int64, error) {
	id, ok := accentIDs[a]
	if !ok {
		return 0, fmt.Errorf("phoneme: unknown accent marker %q", string(a))
	}
	return id, nil
}

// AccentIDs maps markers to model IDs.
func AccentIDs(as []Accent) ([]int64, error) {
	out := make([]int64, len(as))
	for i, a := range as {
		id, err := a.ID()
		if err != nil {
			return nil, err
		}
		out[i] = id
	}
	return out, nil
}
