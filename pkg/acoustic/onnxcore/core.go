//go:build onnxruntime

package onnxcore

import (
	"fmt"
	"log/slog"

	"github.com/haivivi/koe/pkg/acoustic"
	"github.com/haivivi/koe/pkg/onnx"
)

// Core holds the ONNX sessions of one model directory.
type Core struct {
	*acoustic.Funcs

	env      *onnx.Env
	manifest *Manifest
	sessions map[*ModelSpec]*onnx.Session
}

// Open loads every model the directory provides.
func Open(opts acoustic.Options) (*Core, error) {
	m, err := LoadManifest(opts.ModelDir)
	if err != nil {
		return nil, err
	}
	metas, err := m.ReadMetas()
	if err != nil {
		return nil, err
	}
	env, err := onnx.NewEnv("koe")
	if err != nil {
		return nil, err
	}
	c := &Core{
		Funcs:    &acoustic.Funcs{MetasJSON: metas, Concurrent: true},
		env:      env,
		manifest: m,
		sessions: make(map[*ModelSpec]*onnx.Session),
	}
	for _, spec := range []*ModelSpec{m.Duration, m.Intonation, m.Variance, m.Decode} {
		if spec == nil {
			continue
		}
		s, err := onnx.LoadModelFile(env, m.Path(spec.File), onnx.WithThreads(opts.Threads))
		if err != nil {
			c.Close()
			return nil, err
		}
		c.sessions[spec] = s
		slog.Debug("onnxcore: loaded model", "file", spec.File)
	}
	if m.SupportsLegacy() {
		c.Duration = c.duration
		c.Intonation = c.intonation
	}
	if m.SupportsVariance() {
		c.Variance = c.variance
	}
	c.DecodeFunc = c.decode
	return c, nil
}

func open(opts acoustic.Options) (acoustic.Core, error) {
	c, err := Open(opts)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Close releases the sessions and the environment.
func (c *Core) Close() error {
	for spec, s := range c.sessions {
		s.Close()
		delete(c.sessions, spec)
	}
	return c.env.Close()
}

// run feeds inputs to spec's session and returns its outputs as float32.
func (c *Core) run(spec *ModelSpec, inputs ...*onnx.Tensor) ([][]float32, error) {
	defer func() {
		for _, t := range inputs {
			t.Close()
		}
	}()
	outs, err := c.sessions[spec].Run(spec.Inputs, inputs, spec.Outputs)
	if err != nil {
		return nil, err
	}
	result := make([][]float32, len(outs))
	for i, t := range outs {
		result[i], err = t.FloatData()
		t.Close()
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

// tensors builds int64 tensors, closing the ones already built on error.
func tensors(build ...func() (*onnx.Tensor, error)) ([]*onnx.Tensor, error) {
	out := make([]*onnx.Tensor, 0, len(build))
	for _, b := range build {
		t, err := b()
		if err != nil {
			for _, t := range out {
				t.Close()
			}
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func vector(data []int64) func() (*onnx.Tensor, error) {
	return func() (*onnx.Tensor, error) { return onnx.NewInt64Tensor([]int64{int64(len(data))}, data) }
}

func row(data []int64) func() (*onnx.Tensor, error) {
	return func() (*onnx.Tensor, error) { return onnx.NewInt64Tensor([]int64{1, int64(len(data))}, data) }
}

func (c *Core) duration(ids []int64, speaker int64) ([]float32, error) {
	in, err := tensors(vector(ids), vector([]int64{speaker}))
	if err != nil {
		return nil, err
	}
	out, err := c.run(c.manifest.Duration, in...)
	if err != nil {
		return nil, err
	}
	return fitLength("duration", out[0], len(ids))
}

func (c *Core) intonation(in acoustic.IntonationInput, speaker int64) ([]float32, error) {
	n := in.Len()
	ts, err := tensors(
		vector([]int64{int64(n)}),
		row(in.VowelIDs), row(in.ConsonantIDs),
		row(in.StartAccent), row(in.EndAccent),
		row(in.StartAccentPhrase), row(in.EndAccentPhrase),
		vector([]int64{speaker}),
	)
	if err != nil {
		return nil, err
	}
	out, err := c.run(c.manifest.Intonation, ts...)
	if err != nil {
		return nil, err
	}
	return fitLength("intonation", out[0], n)
}

func (c *Core) variance(ids, accents []int64, speaker int64) ([]float32, []float32, error) {
	if len(ids) != len(accents) {
		return nil, nil, fmt.Errorf("variance: %d phonemes but %d accents", len(ids), len(accents))
	}
	ts, err := tensors(vector(ids), vector(accents), vector([]int64{speaker}))
	if err != nil {
		return nil, nil, err
	}
	out, err := c.run(c.manifest.Variance, ts...)
	if err != nil {
		return nil, nil, err
	}
	pitch, err := fitLength("variance pitch", out[0], len(ids))
	if err != nil {
		return nil, nil, err
	}
	duration, err := fitLength("variance duration", out[1], len(ids))
	if err != nil {
		return nil, nil, err
	}
	return pitch, duration, nil
}

func (c *Core) decode(frames, width int, f0, phonemes []float32, speaker int64) ([]float32, error) {
	if len(f0) < frames || len(phonemes) < frames*width {
		return nil, fmt.Errorf("decode: %d frames but %d f0 and %d phoneme values", frames, len(f0), len(phonemes))
	}
	f0T, err := onnx.NewTensor([]int64{int64(frames), 1}, f0[:frames])
	if err != nil {
		return nil, err
	}
	phT, err := onnx.NewTensor([]int64{int64(frames), int64(width)}, phonemes[:frames*width])
	if err != nil {
		f0T.Close()
		return nil, err
	}
	spk, err := onnx.NewInt64Tensor([]int64{1}, []int64{speaker})
	if err != nil {
		f0T.Close()
		phT.Close()
		return nil, err
	}
	out, err := c.run(c.manifest.Decode, f0T, phT, spk)
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

func fitLength(op string, out []float32, n int) ([]float32, error) {
	if len(out) != n {
		return nil, fmt.Errorf("%s: model returned %d values for %d inputs", op, len(out), n)
	}
	return out, nil
}
