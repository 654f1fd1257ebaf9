package cli

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewPaths(t *testing.T) {
	paths, err := NewPaths("testapp")
	if err != nil {
		t.Fatalf("NewPaths error: %v", err)
	}
	if paths.AppName != "testapp" {
		t.Errorf("AppName = %q, want %q", paths.AppName, "testapp")
	}
	if paths.HomeDir == "" {
		t.Error("HomeDir should not be empty")
	}
}

func TestPaths_Layout(t *testing.T) {
	home := t.TempDir()
	paths := &Paths{AppName: "koe", HomeDir: home}
	app := filepath.Join(home, ".koe", "koe")

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"BaseDir", paths.BaseDir(), filepath.Join(home, ".koe")},
		{"AppDir", paths.AppDir(), app},
		{"ConfigFile", paths.ConfigFile(), filepath.Join(app, "config.yaml")},
		{"DictDir", paths.DictDir(), filepath.Join(app, "dict")},
		{"OutputDir", paths.OutputDir(), filepath.Join(app, "out")},
		{"ModelDir", paths.ModelDir(), filepath.Join(app, "models")},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s() = %q, want %q", tt.name, tt.got, tt.want)
		}
	}
}

func TestPaths_Ensure(t *testing.T) {
	paths := &Paths{AppName: "koe", HomeDir: t.TempDir()}
	if err := paths.EnsureDictDir(); err != nil {
		t.Fatalf("EnsureDictDir error: %v", err)
	}
	for _, dir := range []string{paths.AppDir(), paths.DictDir()} {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			t.Errorf("%s not created: %v", dir, err)
		}
	}
	// Idempotent.
	if err := paths.EnsureDictDir(); err != nil {
		t.Errorf("second EnsureDictDir error: %v", err)
	}
}
