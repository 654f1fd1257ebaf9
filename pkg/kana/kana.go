// Package kana implements the AquesTalk-like kana notation: a compact text
// form that spells accent phrases directly in katakana.
//
//	コンニチワ'/キョ'オワ、_シ'ズカデスネ？
//
// Phrases are separated by "/" (no pause) or "、" (pause). "'" follows the
// accented mora, "_" before a mora requests its unvoiced variant and a
// trailing "？" marks an interrogative phrase.
package kana

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/haivivi/koe/pkg/audioquery"
)

// Reserved symbols of the notation.
const (
	LoopLimit         = 300
	UnvoiceSymbol     = "_"
	AccentSymbol      = "'"
	NoPauseDelimiter  = "/"
	PauseDelimiter    = "、"
	InterrogativeMark = "？"
)

var (
	ErrEmptyAccentPhrase          = errors.New("kana: empty accent phrase")
	ErrAccentOutOfPlace           = errors.New("kana: accent out of place")
	ErrUnknownMoraText            = errors.New("kana: unknown mora text")
	ErrMissingAccent              = errors.New("kana: missing accent")
	ErrMisplacedInterrogativeMark = errors.New("kana: interrogative mark not at end of phrase")
	ErrInfiniteLoop               = errors.New("kana: infinite loop detected")
)

// ParseError reports where a kana text failed to parse. Phrase is the 1-based
// index of the accent phrase; Text is the offending fragment, if any.
type ParseError struct {
	Err    error
	Phrase int
	Text   string
}

func (e *ParseError) Error() string {
	if e.Text != "" {
		return fmt.Sprintf("%v: phrase %d: %q", e.Err, e.Phrase, e.Text)
	}
	return fmt.Sprintf("%v: phrase %d", e.Err, e.Phrase)
}

func (e *ParseError) Unwrap() error { return e.Err }

// PauseMora returns the mora appended to a phrase followed by a pause.
func PauseMora() *audioquery.Mora {
	return &audioquery.Mora{Text: PauseDelimiter, Vowel: "pau"}
}

// Parse parses kana text into accent phrases. Lengths and pitches of the
// returned moras are zero.
func Parse(text string) ([]audioquery.AccentPhrase, error) {
	if text == "" {
		return nil, &ParseError{Err: ErrEmptyAccentPhrase, Phrase: 1}
	}
	var phrases []audioquery.AccentPhrase
	base := 0
	for i := 0; i <= len(text); {
		var delim string
		if i < len(text) {
			switch {
			case strings.HasPrefix(text[i:], NoPauseDelimiter):
				delim = NoPauseDelimiter
			case strings.HasPrefix(text[i:], PauseDelimiter):
				delim = PauseDelimiter
			default:
				_, size := utf8.DecodeRuneInString(text[i:])
				i += size
				continue
			}
		}

		n := len(phrases) + 1
		phrase := text[base:i]
		if phrase == "" {
			return nil, &ParseError{Err: ErrEmptyAccentPhrase, Phrase: n}
		}
		interrogative := strings.Contains(phrase, InterrogativeMark)
		if interrogative {
			head := strings.TrimSuffix(phrase, InterrogativeMark)
			if len(head) == len(phrase) || strings.Contains(head, InterrogativeMark) {
				return nil, &ParseError{Err: ErrMisplacedInterrogativeMark, Phrase: n, Text: phrase}
			}
			phrase = head
		}
		ap, err := parsePhrase(phrase, n)
		if err != nil {
			return nil, err
		}
		if delim == PauseDelimiter {
			ap.PauseMora = PauseMora()
		}
		ap.IsInterrogative = interrogative
		phrases = append(phrases, ap)

		if delim == "" {
			break
		}
		i += len(delim)
		base = i
	}
	return phrases, nil
}

func parsePhrase(phrase string, n int) (audioquery.AccentPhrase, error) {
	var (
		moras  []audioquery.Mora
		accent = -1
		loops  int
	)
	for base := 0; base < len(phrase); {
		loops++
		if loops > LoopLimit {
			return audioquery.AccentPhrase{}, &ParseError{Err: ErrInfiniteLoop, Phrase: n, Text: phrase}
		}
		if strings.HasPrefix(phrase[base:], AccentSymbol) {
			if len(moras) == 0 || accent >= 0 {
				return audioquery.AccentPhrase{}, &ParseError{Err: ErrAccentOutOfPlace, Phrase: n, Text: phrase}
			}
			accent = len(moras)
			base += len(AccentSymbol)
			continue
		}
		run := phrase[base:]
		if i := strings.Index(run, AccentSymbol); i >= 0 {
			run = run[:i]
		}
		matched, m, ok := symbols.LongestPrefix(run)
		if !ok {
			return audioquery.AccentPhrase{}, &ParseError{Err: ErrUnknownMoraText, Phrase: n, Text: run}
		}
		moras = append(moras, cloneMora(m))
		base += len(matched)
	}
	if accent < 0 {
		return audioquery.AccentPhrase{}, &ParseError{Err: ErrMissingAccent, Phrase: n, Text: phrase}
	}
	return audioquery.AccentPhrase{Moras: moras, Accent: accent}, nil
}

// Create renders accent phrases as kana text. It is the inverse of Parse for
// the text content of the phrases.
func Create(phrases []audioquery.AccentPhrase) string {
	var sb strings.Builder
	for i, ap := range phrases {
		for j, m := range ap.Moras {
			switch m.Vowel {
			case "A", "E", "I", "O", "U":
				sb.WriteString(UnvoiceSymbol)
			}
			sb.WriteString(m.Text)
			if j+1 == ap.Accent {
				sb.WriteString(AccentSymbol)
			}
		}
		if ap.IsInterrogative {
			sb.WriteString(InterrogativeMark)
		}
		if i < len(phrases)-1 {
			if ap.PauseMora == nil {
				sb.WriteString(NoPauseDelimiter)
			} else {
				sb.WriteString(PauseDelimiter)
			}
		}
	}
	return sb.String()
}

// CountMoras counts the moras of a plain katakana reading such as a user
// dictionary pronunciation. Notation symbols are not accepted. A long vowel
// mark or a katakana with no mora of its own counts as one mora.
func CountMoras(reading string) (int, error) {
	count := 0
	for base := 0; base < len(reading); count++ {
		if count >= LoopLimit {
			return 0, &ParseError{Err: ErrInfiniteLoop, Phrase: 1, Text: reading}
		}
		if matched, m, ok := symbols.LongestPrefix(reading[base:]); ok && matched == m.Text {
			base += len(matched)
			continue
		}
		r, size := utf8.DecodeRuneInString(reading[base:])
		if !isKatakana(r) {
			return 0, &ParseError{Err: ErrUnknownMoraText, Phrase: 1, Text: reading[base:]}
		}
		base += size
	}
	return count, nil
}

func isKatakana(r rune) bool {
	return r == 'ー' || (r >= 'ァ' && r <= 'ヴ')
}
