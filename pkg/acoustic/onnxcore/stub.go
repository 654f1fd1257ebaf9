//go:build !onnxruntime

package onnxcore

import (
	"errors"

	"github.com/haivivi/koe/pkg/acoustic"
)

// ErrNotBuilt is returned by Open in builds without the onnxruntime tag.
var ErrNotBuilt = errors.New("onnxcore: built without the onnxruntime tag")

// Open validates the model directory, then fails with ErrNotBuilt.
func Open(opts acoustic.Options) (acoustic.Core, error) {
	if _, err := LoadManifest(opts.ModelDir); err != nil {
		return nil, err
	}
	return nil, ErrNotBuilt
}

func open(opts acoustic.Options) (acoustic.Core, error) { return Open(opts) }
