package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/haivivi/koe/pkg/storage"
)

func TestOutput_Formats(t *testing.T) {
	data := map[string]any{"kana": "コ'エ", "speaker": 1}

	tests := []struct {
		format OutputFormat
		check  func(t *testing.T, out string)
	}{
		{FormatJSON, func(t *testing.T, out string) {
			var result map[string]any
			if err := json.Unmarshal([]byte(out), &result); err != nil {
				t.Fatalf("Invalid JSON output: %v", err)
			}
			if !strings.Contains(out, "コ'エ") {
				t.Errorf("JSON output escaped kana: %s", out)
			}
		}},
		{FormatYAML, func(t *testing.T, out string) {
			if !strings.Contains(out, "speaker: 1") {
				t.Errorf("Output should contain 'speaker: 1', got: %s", out)
			}
		}},
		{"", func(t *testing.T, out string) {
			if !strings.Contains(out, "speaker: 1") {
				t.Errorf("default format should be YAML, got: %s", out)
			}
		}},
		{FormatRaw, func(t *testing.T, out string) {
			if !strings.Contains(out, "speaker: 1") {
				t.Errorf("raw map should fall back to YAML, got: %s", out)
			}
		}},
	}
	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			var buf bytes.Buffer
			if err := Output(data, OutputOptions{Format: tt.format, Writer: &buf}); err != nil {
				t.Fatalf("Output error: %v", err)
			}
			tt.check(t, buf.String())
		})
	}
}

func TestOutput_Raw(t *testing.T) {
	var buf bytes.Buffer
	if err := Output([]byte("RIFF"), OutputOptions{Format: FormatRaw, Writer: &buf}); err != nil {
		t.Fatalf("Output error: %v", err)
	}
	if err := Output("コエ", OutputOptions{Format: FormatRaw, Writer: &buf}); err != nil {
		t.Fatalf("Output error: %v", err)
	}
	if buf.String() != "RIFFコエ" {
		t.Errorf("raw output = %q", buf.String())
	}
}

func TestOutput_UnsupportedFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := Output("x", OutputOptions{Format: "table", Writer: &buf}); err == nil {
		t.Error("Expected error for unsupported format")
	}
	if buf.Len() != 0 {
		t.Error("nothing should be written on error")
	}
}

func TestOutput_ToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	if err := Output(map[string]int{"a": 1}, OutputOptions{Format: FormatJSON, File: path}); err != nil {
		t.Fatalf("Output error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile error: %v", err)
	}
	if !strings.Contains(string(data), `"a": 1`) {
		t.Errorf("file content = %s", data)
	}
}

func TestOutput_ToStore(t *testing.T) {
	store, err := storage.NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocal error: %v", err)
	}
	opts := OutputOptions{Format: FormatRaw, File: "voices/hello.wav", Store: store}
	if err := Output([]byte("RIFF"), opts); err != nil {
		t.Fatalf("Output error: %v", err)
	}
	got, err := storage.ReadFile(context.Background(), store, "voices/hello.wav")
	if err != nil {
		t.Fatalf("ReadFile error: %v", err)
	}
	if string(got) != "RIFF" {
		t.Errorf("stored = %q", got)
	}
}

func TestFormat(t *testing.T) {
	durations := []struct {
		d    time.Duration
		want string
	}{
		{500 * time.Millisecond, "500ms"},
		{1500 * time.Millisecond, "1.5s"},
		{90 * time.Second, "1m30.0s"},
	}
	for _, tt := range durations {
		if got := FormatDuration(tt.d); got != tt.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
	sizes := []struct {
		n    int
		want string
	}{
		{512, "512 B"},
		{2048, "2.00 KB"},
		{3 * 1024 * 1024, "3.00 MB"},
	}
	for _, tt := range sizes {
		if got := FormatBytes(tt.n); got != tt.want {
			t.Errorf("FormatBytes(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}
