package audioquery

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"
)

func typed(t string) *jsonschema.Schema { return &jsonschema.Schema{Type: t} }

func nullable(t string) *jsonschema.Schema { return &jsonschema.Schema{Types: []string{t, "null"}} }

func moraSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"text":             typed("string"),
			"consonant":        nullable("string"),
			"consonant_length": nullable("number"),
			"vowel":            typed("string"),
			"vowel_length":     typed("number"),
			"pitch":            typed("number"),
		},
		Required: []string{"text", "vowel", "vowel_length", "pitch"},
	}
}

func accentPhrasesSchema() *jsonschema.Schema {
	pause := moraSchema()
	pause.Type = ""
	pause.Types = []string{"object", "null"}
	return &jsonschema.Schema{
		Type: "array",
		Items: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"moras":            {Type: "array", Items: moraSchema()},
				"accent":           typed("integer"),
				"pause_mora":       pause,
				"is_interrogative": typed("boolean"),
			},
			Required: []string{"moras", "accent"},
		},
	}
}

func querySchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"accent_phrases":     accentPhrasesSchema(),
			"speedScale":         typed("number"),
			"pitchScale":         typed("number"),
			"intonationScale":    typed("number"),
			"volumeScale":        typed("number"),
			"prePhonemeLength":   typed("number"),
			"postPhonemeLength":  typed("number"),
			"outputSamplingRate": typed("integer"),
			"outputStereo":       typed("boolean"),
			"kana":               nullable("string"),
		},
		Required: []string{
			"accent_phrases", "speedScale", "pitchScale", "intonationScale",
			"volumeScale", "prePhonemeLength", "postPhonemeLength",
			"outputSamplingRate", "outputStereo",
		},
	}
}

var (
	resolveOnce     sync.Once
	resolvedQuery   *jsonschema.Resolved
	resolvedPhrases *jsonschema.Resolved
	resolveErr      error
)

func resolved() (query, phrases *jsonschema.Resolved, err error) {
	resolveOnce.Do(func() {
		resolvedQuery, resolveErr = querySchema().Resolve(nil)
		if resolveErr != nil {
			return
		}
		resolvedPhrases, resolveErr = accentPhrasesSchema().Resolve(nil)
	})
	return resolvedQuery, resolvedPhrases, resolveErr
}

// QuerySchema returns the JSON schema an AudioQuery payload must satisfy.
func QuerySchema() *jsonschema.Schema { return querySchema() }

func validate(rs *jsonschema.Resolved, data []byte) error {
	var instance any
	if err := json.Unmarshal(data, &instance); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidQueryShape, err)
	}
	if err := rs.Validate(instance); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidQueryShape, err)
	}
	return nil
}

// Decode validates a JSON AudioQuery payload and decodes it. Shape problems
// are reported as ErrInvalidQueryShape.
func Decode(data []byte) (*AudioQuery, error) {
	rq, _, err := resolved()
	if err != nil {
		return nil, fmt.Errorf("audioquery: resolve schema: %w", err)
	}
	if err := validate(rq, data); err != nil {
		return nil, err
	}
	var q AudioQuery
	if err := json.Unmarshal(data, &q); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidQueryShape, err)
	}
	if err := q.Check(); err != nil {
		return nil, err
	}
	return &q, nil
}

// DecodeAccentPhrases validates and decodes a JSON array of accent phrases.
func DecodeAccentPhrases(data []byte) ([]AccentPhrase, error) {
	_, rp, err := resolved()
	if err != nil {
		return nil, fmt.Errorf("audioquery: resolve schema: %w", err)
	}
	if err := validate(rp, data); err != nil {
		return nil, err
	}
	var phrases []AccentPhrase
	if err := json.Unmarshal(data, &phrases); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidQueryShape, err)
	}
	return phrases, nil
}
