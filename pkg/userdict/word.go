// Package userdict manages the user pronunciation dictionary: words added on
// top of the analyzer's system dictionary, their MeCab costs, and the CSV
// rendering the analyzer compiles after every change.
package userdict

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/width"

	"github.com/haivivi/koe/pkg/kana"
)

// Sentinel errors.
var (
	ErrInvalidWord  = errors.New("userdict: invalid word")
	ErrWordNotFound = errors.New("userdict: word not found")
)

// Priority bounds. Higher priorities map to lower MeCab costs.
const (
	MinPriority     = 0
	MaxPriority     = 10
	DefaultPriority = 5

	MinCost = -32768
	MaxCost = 32767
)

// WordType is a part of speech a user word can be registered as.
type WordType string

const (
	ProperNoun WordType = "PROPER_NOUN"
	CommonNoun WordType = "COMMON_NOUN"
	Verb       WordType = "VERB"
	Adjective  WordType = "ADJECTIVE"
	Suffix     WordType = "SUFFIX"
)

// partOfSpeech is the IPADIC left/right context and feature columns of a
// word type, with the cost chosen for every priority (index 10-priority).
type partOfSpeech struct {
	contextID      int
	pos            [4]string
	costCandidates [MaxPriority - MinPriority + 1]int
}

var partsOfSpeech = map[WordType]partOfSpeech{
	ProperNoun: {
		contextID:      1348,
		pos:            [4]string{"名詞", "固有名詞", "一般", "*"},
		costCandidates: [...]int{-988, 3488, 4768, 6048, 7328, 8609, 8734, 8859, 8984, 9110, 14176},
	},
	CommonNoun: {
		contextID:      1345,
		pos:            [4]string{"名詞", "一般", "*", "*"},
		costCandidates: [...]int{-4445, 49, 1473, 2897, 4321, 5746, 6554, 7362, 8170, 8979, 15001},
	},
	Verb: {
		contextID:      642,
		pos:            [4]string{"動詞", "自立", "*", "*"},
		costCandidates: [...]int{3100, 6160, 6360, 6561, 6761, 6962, 7414, 7866, 8318, 8771, 13433},
	},
	Adjective: {
		contextID:      20,
		pos:            [4]string{"形容詞", "自立", "*", "*"},
		costCandidates: [...]int{1527, 3266, 3561, 3857, 4153, 4449, 5149, 5849, 6549, 7250, 10001},
	},
	Suffix: {
		contextID:      1358,
		pos:            [4]string{"名詞", "接尾", "一般", "*"},
		costCandidates: [...]int{4399, 5373, 6041, 6710, 7378, 8047, 9440, 10834, 12228, 13622, 15847},
	},
}

// WordTypes lists the supported word types.
func WordTypes() []WordType {
	return []WordType{ProperNoun, CommonNoun, Verb, Adjective, Suffix}
}

func lookupContext(contextID int) (partOfSpeech, bool) {
	for _, p := range partsOfSpeech {
		if p.contextID == contextID {
			return p, true
		}
	}
	return partOfSpeech{}, false
}

// PriorityToCost returns the MeCab cost of a priority for a context ID.
func PriorityToCost(contextID, priority int) (int, error) {
	if priority < MinPriority || priority > MaxPriority {
		return 0, fmt.Errorf("%w: priority %d out of range", ErrInvalidWord, priority)
	}
	p, ok := lookupContext(contextID)
	if !ok {
		return 0, fmt.Errorf("%w: unknown context id %d", ErrInvalidWord, contextID)
	}
	return p.costCandidates[MaxPriority-priority], nil
}

// CostToPriority returns the priority whose cost is nearest to cost. Ties
// resolve to the lower priority.
func CostToPriority(contextID, cost int) (int, error) {
	if cost < MinCost || cost > MaxCost {
		return 0, fmt.Errorf("%w: cost %d out of range", ErrInvalidWord, cost)
	}
	p, ok := lookupContext(contextID)
	if !ok {
		return 0, fmt.Errorf("%w: unknown context id %d", ErrInvalidWord, contextID)
	}
	best, bestDiff := 0, -1
	for i, c := range p.costCandidates {
		diff := c - cost
		if diff < 0 {
			diff = -diff
		}
		if bestDiff < 0 || diff <= bestDiff {
			best, bestDiff = i, diff
		}
	}
	return MaxPriority - best, nil
}

// Word is one user dictionary entry. The field names follow the VOICEVOX
// user dictionary format.
type Word struct {
	Surface               string `json:"surface" msgpack:"surface"`
	Priority              int    `json:"priority" msgpack:"priority"`
	ContextID             int    `json:"context_id" msgpack:"context_id"`
	PartOfSpeech          string `json:"part_of_speech" msgpack:"part_of_speech"`
	PartOfSpeechDetail1   string `json:"part_of_speech_detail_1" msgpack:"part_of_speech_detail_1"`
	PartOfSpeechDetail2   string `json:"part_of_speech_detail_2" msgpack:"part_of_speech_detail_2"`
	PartOfSpeechDetail3   string `json:"part_of_speech_detail_3" msgpack:"part_of_speech_detail_3"`
	InflectionalType      string `json:"inflectional_type" msgpack:"inflectional_type"`
	InflectionalForm      string `json:"inflectional_form" msgpack:"inflectional_form"`
	Stem                  string `json:"stem" msgpack:"stem"`
	Yomi                  string `json:"yomi" msgpack:"yomi"`
	Pronunciation         string `json:"pronunciation" msgpack:"pronunciation"`
	AccentType            int    `json:"accent_type" msgpack:"accent_type"`
	MoraCount             int    `json:"mora_count" msgpack:"mora_count"`
	AccentAssociativeRule string `json:"accent_associative_rule" msgpack:"accent_associative_rule"`
}

// WordRequest describes a word to add or rewrite. WordType defaults to
// ProperNoun and Priority to DefaultPriority.
type WordRequest struct {
	Surface       string   `json:"surface" yaml:"surface"`
	Pronunciation string   `json:"pronunciation" yaml:"pronunciation"`
	AccentType    int      `json:"accent_type" yaml:"accent_type"`
	WordType      WordType `json:"word_type,omitempty" yaml:"word_type,omitempty"`
	Priority      *int     `json:"priority,omitempty" yaml:"priority,omitempty"`
}

// katakana matches a plain katakana reading with long vowel marks.
var katakana = regexp.MustCompile(`^[ァ-ヴー]+$`)

// zenkaku widens printable ASCII (U+0021..U+007E) to its fullwidth form.
// Other runes, halfwidth katakana included, are left alone.
var zenkaku = runes.If(runes.Predicate(func(r rune) bool { return r >= 0x21 && r <= 0x7e }), width.Widen, nil)

// ToZenkaku widens the printable ASCII of a surface form the way the system
// dictionary stores it.
func ToZenkaku(s string) string {
	out, _, err := transform.String(zenkaku, s)
	if err != nil {
		return s
	}
	return out
}

// NewWord builds a dictionary word from a request.
func NewWord(req WordRequest) (Word, error) {
	wt := req.WordType
	if wt == "" {
		wt = ProperNoun
	}
	pos, ok := partsOfSpeech[wt]
	if !ok {
		return Word{}, fmt.Errorf("%w: unknown word type %q", ErrInvalidWord, wt)
	}
	priority := DefaultPriority
	if req.Priority != nil {
		priority = *req.Priority
	}
	if priority < MinPriority || priority > MaxPriority {
		return Word{}, fmt.Errorf("%w: priority %d out of range", ErrInvalidWord, priority)
	}
	if req.Surface == "" {
		return Word{}, fmt.Errorf("%w: empty surface", ErrInvalidWord)
	}
	if !katakana.MatchString(req.Pronunciation) {
		return Word{}, fmt.Errorf("%w: pronunciation %q is not katakana", ErrInvalidWord, req.Pronunciation)
	}
	moras, err := kana.CountMoras(req.Pronunciation)
	if err != nil {
		return Word{}, fmt.Errorf("%w: pronunciation %q: %v", ErrInvalidWord, req.Pronunciation, err)
	}
	if req.AccentType < 0 || req.AccentType > moras {
		return Word{}, fmt.Errorf("%w: accent type %d out of range 0..%d", ErrInvalidWord, req.AccentType, moras)
	}
	return Word{
		Surface:               ToZenkaku(req.Surface),
		Priority:              priority,
		ContextID:             pos.contextID,
		PartOfSpeech:          pos.pos[0],
		PartOfSpeechDetail1:   pos.pos[1],
		PartOfSpeechDetail2:   pos.pos[2],
		PartOfSpeechDetail3:   pos.pos[3],
		InflectionalType:      "*",
		InflectionalForm:      "*",
		Stem:                  "*",
		Yomi:                  req.Pronunciation,
		Pronunciation:         req.Pronunciation,
		AccentType:            req.AccentType,
		MoraCount:             moras,
		AccentAssociativeRule: "*",
	}, nil
}

// Check validates a word that did not come from NewWord, such as an
// imported one. A zero context ID is taken as a proper noun.
func (w *Word) Check() error {
	if w.ContextID == 0 {
		w.ContextID = partsOfSpeech[ProperNoun].contextID
	}
	if _, err := PriorityToCost(w.ContextID, w.Priority); err != nil {
		return err
	}
	if w.Surface == "" || w.Pronunciation == "" {
		return fmt.Errorf("%w: empty surface or pronunciation", ErrInvalidWord)
	}
	if w.MoraCount > 0 && (w.AccentType < 0 || w.AccentType > w.MoraCount) {
		return fmt.Errorf("%w: accent type %d out of range 0..%d", ErrInvalidWord, w.AccentType, w.MoraCount)
	}
	return nil
}

// Cost returns the word's MeCab cost.
func (w *Word) Cost() (int, error) {
	return PriorityToCost(w.ContextID, w.Priority)
}

// CSV renders the word as one MeCab dictionary source line, without the
// trailing newline.
func (w *Word) CSV() (string, error) {
	cost, err := w.Cost()
	if err != nil {
		return "", err
	}
	ctx := strconv.Itoa(w.ContextID)
	moras := ""
	if w.MoraCount > 0 {
		moras = strconv.Itoa(w.MoraCount)
	}
	return strings.Join([]string{
		w.Surface, ctx, ctx, strconv.Itoa(cost),
		w.PartOfSpeech, w.PartOfSpeechDetail1, w.PartOfSpeechDetail2, w.PartOfSpeechDetail3,
		w.InflectionalType, w.InflectionalForm, w.Stem,
		w.Yomi, w.Pronunciation,
		strconv.Itoa(w.AccentType), moras, w.AccentAssociativeRule,
	}, ","), nil
}
