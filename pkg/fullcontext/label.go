// Package fullcontext parses OpenJTalk full-context labels and builds the
// prosody tree (mora, accent phrase, breath group, utterance) used to derive
// accent phrases from analyzed text.
package fullcontext

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	ErrMalformedLabel  = errors.New("fullcontext: malformed label")
	ErrTooLongMora     = errors.New("fullcontext: too long mora")
	ErrBrokenUtterance = errors.New("fullcontext: broken utterance")
)

var labelPattern = regexp.MustCompile(
	`^(.+?)\^(.+?)\-(.+?)\+(.+?)\=(.+?)` +
		`/A\:(.+?)\+(.+?)\+(.+?)/B\:(.+?)\-(.+?)\_(.+?)` +
		`/C\:(.+?)\_(.+?)\+(.+?)/D\:(.+?)\+(.+?)\_(.+?)` +
		`/E\:(.+?)\_(.+?)\!(.+?)\_(.+?)\-(.+?)` +
		`/F\:(.+?)\_(.+?)\#(.+?)\_(.+?)\@(.+?)\_(.+?)\|(.+?)\_(.+?)` +
		`/G\:(.+?)\_(.+?)\%(.+?)\_(.+?)\_(.+?)/H\:(.+?)\_(.+?)` +
		`/I\:(.+?)\-(.+?)\@(.+?)\+(.+?)\&(.+?)\-(.+?)\|(.+?)\+(.+?)` +
		`/J\:(.+?)\_(.+?)/K\:(.+?)\+(.+?)\-(.+?)$`,
)

// Keys lists the context keys in label order.
var Keys = [...]string{
	"p1", "p2", "p3", "p4", "p5", "a1", "a2", "a3", "b1", "b2",
	"b3", "c1", "c2", "c3", "d1", "d2", "d3", "e1", "e2", "e3",
	"e4", "e5", "f1", "f2", "f3", "f4", "f5", "f6", "f7", "f8",
	"g1", "g2", "g3", "g4", "g5", "h1", "h2", "i1", "i2", "i3",
	"i4", "i5", "i6", "i7", "i8", "j1", "j2", "k1", "k2", "k3",
}

// separators[i] precedes Keys[i] when formatting a label.
var separators = [...]string{
	"", "^", "-", "+", "=", "/A:", "+", "+", "/B:", "-",
	"_", "/C:", "_", "+", "/D:", "+", "_", "/E:", "_", "!",
	"_", "-", "/F:", "_", "#", "_", "@", "_", "|", "_",
	"/G:", "_", "%", "_", "_", "/H:", "_", "/I:", "-", "@",
	"+", "&", "-", "|", "+", "/J:", "_", "/K:", "+", "-",
}

// Label is one phoneme of analyzer output with its prosodic context. Raw is
// the label as produced by the analyzer; Contexts may be rewritten by the
// annotation pass of Utterance.Phonemes.
type Label struct {
	Raw      string
	Contexts map[string]string
}

// ParseLabel parses a full-context label.
func ParseLabel(s string) (*Label, error) {
	m := labelPattern.FindStringSubmatch(s)
	if m == nil {
		return nil, fmt.Errorf("%w: %q", ErrMalformedLabel, s)
	}
	ctx := make(map[string]string, len(Keys))
	for i, k := range Keys {
		ctx[k] = m[i+1]
	}
	return &Label{Raw: s, Contexts: ctx}, nil
}

// ParseLabels parses every label of an analyzer result.
func ParseLabels(ss []string) ([]*Label, error) {
	out := make([]*Label, len(ss))
	for i, s := range ss {
		l, err := ParseLabel(s)
		if err != nil {
			return nil, fmt.Errorf("label %d: %w", i, err)
		}
		out[i] = l
	}
	return out, nil
}

// Phoneme returns the center phoneme (p3).
func (l *Label) Phoneme() string { return l.Contexts["p3"] }

// IsPause reports whether the label is a pause (f1 is "xx").
func (l *Label) IsPause() bool { return l.Contexts["f1"] == "xx" }

// Format renders the label from its current contexts. For an unannotated
// label it equals Raw.
func (l *Label) Format() string {
	var sb strings.Builder
	sb.Grow(len(l.Raw))
	for i, k := range Keys {
		sb.WriteString(separators[i])
		sb.WriteString(l.Contexts[k])
	}
	return sb.String()
}

func (l *Label) String() string { return l.Raw }
