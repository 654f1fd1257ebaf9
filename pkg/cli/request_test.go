package cli

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/haivivi/koe/pkg/audioquery"
)

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("WriteFile error: %v", err)
	}
	return path
}

func testQuery() *audioquery.AudioQuery {
	phrases := []audioquery.AccentPhrase{{
		Moras: []audioquery.Mora{
			{Text: "コ", Consonant: audioquery.String("k"), ConsonantLength: audioquery.Float(0.05), Vowel: "o", VowelLength: 0.1, Pitch: 5.5},
			{Text: "エ", Vowel: "e", VowelLength: 0.12, Pitch: 5.2},
		},
		Accent: 1,
	}}
	return audioquery.New(phrases, "コ'エ")
}

func TestParseRequest(t *testing.T) {
	type req struct {
		Text    string `json:"text" yaml:"text"`
		Speaker int    `json:"speaker" yaml:"speaker"`
	}
	tests := []struct {
		name string
		file string
		data string
	}{
		{"yaml", "r.yaml", "text: こんにちは\nspeaker: 2\n"},
		{"json", "r.json", `{"text": "こんにちは", "speaker": 2}`},
		{"sniff yaml", "r", "text: こんにちは\nspeaker: 2\n"},
		{"sniff json", "r.txt", `{"text": "こんにちは", "speaker": 2}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var r req
			if err := ParseRequest([]byte(tt.data), tt.file, &r); err != nil {
				t.Fatalf("ParseRequest error: %v", err)
			}
			if r.Text != "こんにちは" || r.Speaker != 2 {
				t.Errorf("request = %+v", r)
			}
		})
	}

	var r req
	if err := ParseRequest([]byte("{"), "r.json", &r); err == nil {
		t.Error("ParseRequest should fail on broken JSON")
	}
	if err := LoadRequest(filepath.Join(t.TempDir(), "missing.yaml"), &r); err == nil {
		t.Error("LoadRequest should fail on a missing file")
	}
}

func TestLoadRequestFromReader(t *testing.T) {
	var v map[string]any
	if err := LoadRequestFromReader(strings.NewReader("a: 1\n"), &v); err != nil {
		t.Fatalf("LoadRequestFromReader error: %v", err)
	}
	if v["a"] != 1 {
		t.Errorf("value = %v", v)
	}
}

func TestLoadQuery(t *testing.T) {
	want := testQuery()
	data, err := json.Marshal(want)
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}

	var generic any
	if err := json.Unmarshal(data, &generic); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	yamlData, err := yaml.Marshal(generic)
	if err != nil {
		t.Fatalf("yaml.Marshal error: %v", err)
	}

	for name, path := range map[string]string{
		"json": writeFile(t, "q.json", data),
		"yaml": writeFile(t, "q.yaml", yamlData),
	} {
		t.Run(name, func(t *testing.T) {
			q, err := LoadQuery(path)
			if err != nil {
				t.Fatalf("LoadQuery error: %v", err)
			}
			if q.Kana != want.Kana || len(q.AccentPhrases) != 1 || len(q.AccentPhrases[0].Moras) != 2 {
				t.Errorf("query = %+v", q)
			}
			m := q.AccentPhrases[0].Moras[0]
			if m.Consonant == nil || *m.Consonant != "k" || m.Pitch != 5.5 {
				t.Errorf("first mora = %+v", m)
			}
			if q.AccentPhrases[0].Moras[1].Consonant != nil {
				t.Error("vowel-only mora gained a consonant")
			}
		})
	}

	bad := writeFile(t, "bad.json", []byte(`{"accent_phrases": "none"}`))
	if _, err := LoadQuery(bad); !errors.Is(err, audioquery.ErrInvalidQueryShape) {
		t.Errorf("LoadQuery(bad) error = %v, want ErrInvalidQueryShape", err)
	}
}

func TestLoadAccentPhrases(t *testing.T) {
	data, err := json.Marshal(testQuery().AccentPhrases)
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	phrases, err := LoadAccentPhrases(writeFile(t, "p.json", data))
	if err != nil {
		t.Fatalf("LoadAccentPhrases error: %v", err)
	}
	if len(phrases) != 1 || phrases[0].Accent != 1 {
		t.Errorf("phrases = %+v", phrases)
	}
}
