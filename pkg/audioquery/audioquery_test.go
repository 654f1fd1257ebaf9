package audioquery

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"
)

func testPhrases() []AccentPhrase {
	return []AccentPhrase{
		{
			Moras: []Mora{
				{Text: "コ", Consonant: String("k"), ConsonantLength: Float(0.05), Vowel: "o", VowelLength: 0.1, Pitch: 5.5},
				{Text: "ン", Vowel: "N", VowelLength: 0.08, Pitch: 5.4},
			},
			Accent:    1,
			PauseMora: &Mora{Text: "、", Vowel: "pau", VowelLength: 0.3},
		},
		{
			Moras: []Mora{
				{Text: "ワ", Consonant: String("w"), ConsonantLength: Float(0.04), Vowel: "a", VowelLength: 0.12, Pitch: 5.8},
			},
			Accent:          1,
			IsInterrogative: true,
		},
	}
}

func TestDecode_RoundTrip(t *testing.T) {
	q := New(testPhrases(), "コ'ン、ワ'？")
	data, err := json.Marshal(q)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	for _, key := range []string{`"accent_phrases"`, `"speedScale"`, `"consonant_length"`, `"pause_mora"`, `"outputSamplingRate"`} {
		if !strings.Contains(string(data), key) {
			t.Errorf("encoded query missing %s", key)
		}
	}

	got, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !reflect.DeepEqual(got, q) {
		t.Errorf("Decode mismatch:\n got %+v\nwant %+v", got, q)
	}
}

func TestDecode_InvalidShape(t *testing.T) {
	valid := New(testPhrases(), "")
	base, _ := json.Marshal(valid)

	mutate := func(f func(m map[string]any)) []byte {
		var m map[string]any
		_ = json.Unmarshal(base, &m)
		f(m)
		b, _ := json.Marshal(m)
		return b
	}

	tests := []struct {
		name string
		data []byte
	}{
		{"not json", []byte("{")},
		{"missing speedScale", mutate(func(m map[string]any) { delete(m, "speedScale") })},
		{"missing accent_phrases", mutate(func(m map[string]any) { delete(m, "accent_phrases") })},
		{"string speedScale", mutate(func(m map[string]any) { m["speedScale"] = "fast" })},
		{"numeric outputStereo", mutate(func(m map[string]any) { m["outputStereo"] = 1 })},
		{"fractional rate", mutate(func(m map[string]any) { m["outputSamplingRate"] = 24000.5 })},
		{"mora without vowel", mutate(func(m map[string]any) {
			aps := m["accent_phrases"].([]any)
			mora := aps[0].(map[string]any)["moras"].([]any)[0].(map[string]any)
			delete(mora, "vowel")
		})},
		{"zero speed", mutate(func(m map[string]any) { m["speedScale"] = 0 })},
		{"empty phrase", mutate(func(m map[string]any) {
			aps := m["accent_phrases"].([]any)
			aps[0].(map[string]any)["moras"] = []any{}
		})},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode(tc.data)
			if !errors.Is(err, ErrInvalidQueryShape) {
				t.Errorf("Decode error = %v; want ErrInvalidQueryShape", err)
			}
		})
	}
}

func TestDecodeAccentPhrases(t *testing.T) {
	data, _ := json.Marshal(testPhrases())
	got, err := DecodeAccentPhrases(data)
	if err != nil {
		t.Fatalf("DecodeAccentPhrases: %v", err)
	}
	if len(got) != 2 || got[0].PauseMora == nil || got[1].PauseMora != nil {
		t.Errorf("DecodeAccentPhrases = %+v", got)
	}

	if _, err := DecodeAccentPhrases([]byte(`[{"moras": [], "accent": "1"}]`)); !errors.Is(err, ErrInvalidQueryShape) {
		t.Errorf("string accent error = %v; want ErrInvalidQueryShape", err)
	}
}

func TestFlattenMoras(t *testing.T) {
	phrases := testPhrases()
	moras := FlattenMoras(phrases)
	if len(moras) != 4 {
		t.Fatalf("len(FlattenMoras) = %d; want 4", len(moras))
	}
	moras[2].Pitch = 1.25
	if phrases[0].PauseMora.Pitch != 1.25 {
		t.Error("FlattenMoras pointers must write through to the pause mora")
	}

	want := []string{"pau", "k", "o", "N", "pau", "w", "a", "pau"}
	if got := PhonemeSymbols(moras); !reflect.DeepEqual(got, want) {
		t.Errorf("PhonemeSymbols = %v; want %v", got, want)
	}
}

func TestClone(t *testing.T) {
	phrases := testPhrases()
	c := Clone(phrases)
	*c[0].Moras[0].Consonant = "g"
	*c[0].Moras[0].ConsonantLength = 9
	c[0].PauseMora.VowelLength = 9
	if *phrases[0].Moras[0].Consonant != "k" || *phrases[0].Moras[0].ConsonantLength != 0.05 || phrases[0].PauseMora.VowelLength != 0.3 {
		t.Error("Clone must not share mora state")
	}
}

func TestChannels(t *testing.T) {
	q := New(nil, "")
	if q.Channels() != 1 {
		t.Errorf("Channels() = %d; want 1", q.Channels())
	}
	q.OutputStereo = true
	if q.Channels() != 2 {
		t.Errorf("Channels() = %d; want 2", q.Channels())
	}
}
