// Package onnxcore runs acoustic models with ONNX Runtime.
//
// A model directory holds metas.json, the .onnx files and an optional
// manifest.yaml overriding file and tensor names:
//
//	metas: metas.json
//	duration:
//	  file: yukarin_s.onnx
//	  inputs: [phoneme_list, speaker_id]
//	  outputs: [phoneme_length]
//	decode:
//	  file: decode.onnx
//
// Decode is required, plus either duration and intonation (legacy
// profile) or variance. The inference code needs the onnxruntime build
// tag; without it the runtime is registered but fails to open.
package onnxcore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"

	"github.com/haivivi/koe/pkg/acoustic"
)

// Runtime is the runtime name this package registers.
const Runtime = "onnx"

// ManifestFile is the optional manifest name inside a model directory.
const ManifestFile = "manifest.yaml"

// ErrNoModels is returned when a model directory lacks a usable model set.
var ErrNoModels = errors.New("onnxcore: no usable model set")

// ModelSpec names one model file and its tensors. Inputs are positional;
// see DefaultManifest for the order each model expects.
type ModelSpec struct {
	File    string   `yaml:"file"`
	Inputs  []string `yaml:"inputs,omitempty"`
	Outputs []string `yaml:"outputs,omitempty"`
}

// Manifest describes a model directory.
type Manifest struct {
	Metas      string     `yaml:"metas,omitempty"`
	Duration   *ModelSpec `yaml:"duration,omitempty"`
	Intonation *ModelSpec `yaml:"intonation,omitempty"`
	Variance   *ModelSpec `yaml:"variance,omitempty"`
	Decode     *ModelSpec `yaml:"decode,omitempty"`

	dir string
}

// DefaultManifest returns the VOICEVOX model layout.
func DefaultManifest() *Manifest {
	return &Manifest{
		Metas: "metas.json",
		Duration: &ModelSpec{
			File:    "yukarin_s.onnx",
			Inputs:  []string{"phoneme_list", "speaker_id"},
			Outputs: []string{"phoneme_length"},
		},
		Intonation: &ModelSpec{
			File: "yukarin_sa.onnx",
			Inputs: []string{
				"length",
				"vowel_phoneme_list", "consonant_phoneme_list",
				"start_accent_list", "end_accent_list",
				"start_accent_phrase_list", "end_accent_phrase_list",
				"speaker_id",
			},
			Outputs: []string{"f0_list"},
		},
		Variance: &ModelSpec{
			File:    "variance.onnx",
			Inputs:  []string{"phoneme_list", "accent_list", "speaker_id"},
			Outputs: []string{"pitch", "duration"},
		},
		Decode: &ModelSpec{
			File:    "decode.onnx",
			Inputs:  []string{"f0", "phoneme", "speaker_id"},
			Outputs: []string{"wave"},
		},
	}
}

// LoadManifest reads dir/manifest.yaml over the defaults and drops models
// whose files are missing.
func LoadManifest(dir string) (*Manifest, error) {
	if dir == "" {
		return nil, fmt.Errorf("onnxcore: model_dir is not set")
	}
	m := DefaultManifest()
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	switch {
	case err == nil:
		var override Manifest
		if err := yaml.Unmarshal(data, &override); err != nil {
			return nil, fmt.Errorf("onnxcore: parse %s: %w", ManifestFile, err)
		}
		m.merge(&override)
	case !os.IsNotExist(err):
		return nil, fmt.Errorf("onnxcore: read %s: %w", ManifestFile, err)
	}
	m.dir = dir

	m.Duration = m.present(m.Duration)
	m.Intonation = m.present(m.Intonation)
	m.Variance = m.present(m.Variance)
	m.Decode = m.present(m.Decode)
	if m.Decode == nil {
		return nil, fmt.Errorf("%w in %s: missing decode model", ErrNoModels, dir)
	}
	if !m.SupportsLegacy() && !m.SupportsVariance() {
		return nil, fmt.Errorf("%w in %s: need duration and intonation, or variance", ErrNoModels, dir)
	}
	for name, spec := range map[string]*ModelSpec{
		"duration": m.Duration, "intonation": m.Intonation, "variance": m.Variance, "decode": m.Decode,
	} {
		if err := spec.check(name); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Manifest) merge(o *Manifest) {
	if o.Metas != "" {
		m.Metas = o.Metas
	}
	m.Duration = mergeSpec(m.Duration, o.Duration)
	m.Intonation = mergeSpec(m.Intonation, o.Intonation)
	m.Variance = mergeSpec(m.Variance, o.Variance)
	m.Decode = mergeSpec(m.Decode, o.Decode)
}

func mergeSpec(base, o *ModelSpec) *ModelSpec {
	if o == nil {
		return base
	}
	out := *base
	if o.File != "" {
		out.File = o.File
	}
	if len(o.Inputs) > 0 {
		out.Inputs = o.Inputs
	}
	if len(o.Outputs) > 0 {
		out.Outputs = o.Outputs
	}
	return &out
}

func (m *Manifest) present(spec *ModelSpec) *ModelSpec {
	if spec == nil {
		return nil
	}
	if _, err := os.Stat(m.Path(spec.File)); err != nil {
		return nil
	}
	return spec
}

// wantInputs and wantOutputs are the tensor counts each model takes.
var (
	wantInputs  = map[string]int{"duration": 2, "intonation": 8, "variance": 3, "decode": 3}
	wantOutputs = map[string]int{"duration": 1, "intonation": 1, "variance": 2, "decode": 1}
)

func (s *ModelSpec) check(name string) error {
	if s == nil {
		return nil
	}
	if len(s.Inputs) != wantInputs[name] {
		return fmt.Errorf("onnxcore: %s takes %d inputs, manifest names %d", name, wantInputs[name], len(s.Inputs))
	}
	if len(s.Outputs) != wantOutputs[name] {
		return fmt.Errorf("onnxcore: %s has %d outputs, manifest names %d", name, wantOutputs[name], len(s.Outputs))
	}
	return nil
}

// Path resolves a file name relative to the model directory.
func (m *Manifest) Path(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(m.dir, name)
}

// SupportsLegacy reports whether the duration and intonation models exist.
func (m *Manifest) SupportsLegacy() bool { return m.Duration != nil && m.Intonation != nil }

// SupportsVariance reports whether the variance model exists.
func (m *Manifest) SupportsVariance() bool { return m.Variance != nil }

// ReadMetas returns the speaker metadata JSON.
func (m *Manifest) ReadMetas() (string, error) {
	data, err := os.ReadFile(m.Path(m.Metas))
	if err != nil {
		return "", fmt.Errorf("onnxcore: read metas: %w", err)
	}
	if !json.Valid(data) {
		return "", fmt.Errorf("onnxcore: %s is not valid JSON", m.Metas)
	}
	return string(data), nil
}

func init() {
	acoustic.Register(Runtime, open)
}
