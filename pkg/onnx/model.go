//go:build onnxruntime

package onnx

import (
	"fmt"
	"os"
)

// LoadModelFile reads an .onnx file and creates a session from it.
func LoadModelFile(env *Env, path string, opts ...SessionOption) (*Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("onnx: read model: %w", err)
	}
	s, err := env.NewSession(data, opts...)
	if err != nil {
		return nil, fmt.Errorf("onnx: load %s: %w", path, err)
	}
	return s, nil
}
