// Package phoneme holds the phoneme inventory understood by the acoustic
// models, the accent-marker inventory used by variance models, and the mora
// splitting rules that map between mora-level and phoneme-level data.
//
// The inventory is the OpenJTalk phoneme set as consumed by the duration,
// intonation and decode networks. IDs are positions in a fixed alphabetical
// table and must never change: they are baked into trained models.
package phoneme

import (
	"fmt"
	"strings"
)

// Space is the phoneme used for silence at the edges of an utterance and for
// pauses between breath groups.
const Space = "pau"

// symbols lists every phoneme in ID order.
var symbols = [...]string{
	"pau", "A", "E", "I", "N", "O", "U", "a", "b", "by",
	"ch", "cl", "d", "dy", "e", "f", "g", "gw", "gy", "h",
	"hy", "i", "j", "k", "kw", "ky", "m", "my", "n", "ny",
	"o", "p", "py", "r", "ry", "s", "sh", "t", "ts", "ty",
	"u", "v", "w", "y", "z",
}

var ids = func() map[string]int64 {
	m := make(map[string]int64, len(symbols))
	for i, s := range symbols {
		m[s] = int64(i)
	}
	return m
}()

// Count is the size of the phoneme inventory, which is also the width of a
// one-hot phoneme frame fed to the decoder.
const Count = len(symbols)

// ID returns the model ID of a phoneme symbol.
func ID(symbol string) (int64, bool) {
	id, ok := ids[symbol]
	return id, ok
}

// MustID is like ID but panics on unknown symbols. Use it only on symbols
// that come from this package or the kana mora table.
func MustID(symbol string) int64 {
	id, ok := ids[symbol]
	if !ok {
		panic(fmt.Sprintf("phoneme: unknown symbol %q", symbol))
	}
	return id
}

// Symbol returns the symbol for a model ID.
func Symbol(id int64) (string, bool) {
	if id < 0 || id >= int64(len(symbols)) {
		return "", false
	}
	return symbols[id], true
}

// Phoneme is one phoneme of a synthesis input sequence. Start and End are
// informational positions (the index of the phoneme and the one after it).
type Phoneme struct {
	Symbol string
	Start  float64
	End    float64
}

// ID returns the model ID, or -1 for an empty or unknown symbol.
func (p Phoneme) ID() int64 {
	if p.Symbol == "" {
		return -1
	}
	id, ok := ids[p.Symbol]
	if !ok {
		return -1
	}
	return id
}

// FromSymbols builds a phoneme sequence from symbols, numbering positions
// from zero. Leading and trailing "sil" phonemes are rewritten to Space.
func FromSymbols(syms []string) []Phoneme {
	ps := make([]Phoneme, len(syms))
	for i, s := range syms {
		ps[i] = Phoneme{Symbol: s, Start: float64(i), End: float64(i + 1)}
	}
	if len(ps) > 0 {
		if strings.Contains(ps[0].Symbol, "sil") {
			ps[0].Symbol = Space
		}
		if last := len(ps) - 1; strings.Contains(ps[last].Symbol, "sil") {
			ps[last].Symbol = Space
		}
	}
	return ps
}

// IDs maps phonemes to model IDs.
func IDs(ps []Phoneme) []int64 {
	out := make([]int64, len(ps))
	for i, p := range ps {
		out[i] = p.ID()
	}
	return out
}

// moraPhonemes are the phonemes that carry a mora: vowels (voiced and
// unvoiced), the moraic nasal, the geminate closure and pause.
var moraPhonemes = map[string]bool{
	"a": true, "i": true, "u": true, "e": true, "o": true, "N": true,
	"A": true, "I": true, "U": true, "E": true, "O": true,
	"cl": true, "pau": true,
}

// unvoicedMoraPhonemes always get zero pitch.
var unvoicedMoraPhonemes = map[string]bool{
	"A": true, "I": true, "U": true, "E": true, "O": true,
	"cl": true, "pau": true,
}

// IsMoraPhoneme reports whether symbol carries a mora (vowel-like).
func IsMoraPhoneme(symbol string) bool { return moraPhonemes[symbol] }

// IsUnvoiced reports whether a mora with this vowel symbol is unvoiced.
func IsUnvoiced(symbol string) bool { return unvoicedMoraPhonemes[symbol] }

// IsUnvoicedVowel reports whether symbol is one of the uppercase unvoiced
// vowels A I U E O.
func IsUnvoicedVowel(symbol string) bool {
	switch symbol {
	case "A", "I", "U", "E", "O":
		return true
	}
	return false
}
