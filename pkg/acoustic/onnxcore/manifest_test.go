package onnxcore

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/haivivi/koe/pkg/acoustic"
)

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
	}
}

func TestLoadManifestDefaults(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"metas.json":      `[{"name":"a","styles":[{"name":"n","id":0}]}]`,
		"yukarin_s.onnx":  "x",
		"yukarin_sa.onnx": "x",
		"decode.onnx":     "x",
	})
	m, err := LoadManifest(dir)
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}
	if !m.SupportsLegacy() || m.SupportsVariance() {
		t.Fatalf("legacy=%v variance=%v", m.SupportsLegacy(), m.SupportsVariance())
	}
	if m.Path(m.Decode.File) != filepath.Join(dir, "decode.onnx") {
		t.Fatalf("decode path = %s", m.Path(m.Decode.File))
	}
	metas, err := m.ReadMetas()
	if err != nil {
		t.Fatalf("ReadMetas: %v", err)
	}
	if metas == "" {
		t.Fatal("empty metas")
	}
}

func TestLoadManifestOverride(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"speakers.json": `[]`,
		"var.onnx":      "x",
		"dec.onnx":      "x",
		ManifestFile: `metas: speakers.json
variance:
  file: var.onnx
  outputs: [f0, length]
decode:
  file: dec.onnx
`,
	})
	m, err := LoadManifest(dir)
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}
	if m.SupportsLegacy() || !m.SupportsVariance() {
		t.Fatalf("legacy=%v variance=%v", m.SupportsLegacy(), m.SupportsVariance())
	}
	if m.Variance.Outputs[0] != "f0" || m.Variance.Inputs[0] != "phoneme_list" {
		t.Fatalf("variance spec = %+v", m.Variance)
	}
	if m.Metas != "speakers.json" {
		t.Fatalf("metas = %s", m.Metas)
	}
}

func TestLoadManifestErrors(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
		isErr error
	}{
		{"no decode", map[string]string{"yukarin_s.onnx": "x", "yukarin_sa.onnx": "x"}, ErrNoModels},
		{"no predictor", map[string]string{"decode.onnx": "x"}, ErrNoModels},
		{"half legacy", map[string]string{"decode.onnx": "x", "yukarin_s.onnx": "x"}, ErrNoModels},
		{"bad manifest", map[string]string{"decode.onnx": "x", ManifestFile: "decode: [oops"}, nil},
		{"wrong inputs", map[string]string{
			"decode.onnx": "x", "variance.onnx": "x",
			ManifestFile: "variance:\n  inputs: [a]\n",
		}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFiles(t, dir, tt.files)
			_, err := LoadManifest(dir)
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.isErr != nil && !errors.Is(err, tt.isErr) {
				t.Fatalf("err = %v, want %v", err, tt.isErr)
			}
		})
	}

	if _, err := LoadManifest(""); err == nil {
		t.Fatal("expected error for empty dir")
	}
}

func TestReadMetasInvalid(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"metas.json": "{", "decode.onnx": "x", "variance.onnx": "x"})
	m, err := LoadManifest(dir)
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}
	if _, err := m.ReadMetas(); err == nil {
		t.Fatal("expected invalid JSON error")
	}
}

func TestRegistered(t *testing.T) {
	found := false
	for _, name := range acoustic.Runtimes() {
		if name == Runtime {
			found = true
		}
	}
	if !found {
		t.Fatalf("runtime %q not registered: %v", Runtime, acoustic.Runtimes())
	}
	if _, err := acoustic.Open(Runtime, acoustic.Options{ModelDir: t.TempDir()}); err == nil {
		t.Fatal("expected error for empty model dir")
	}
}
