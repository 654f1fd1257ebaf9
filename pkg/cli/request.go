package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/haivivi/koe/pkg/audioquery"
)

// LoadRequest loads a request from a YAML or JSON file into the provided
// struct. A path of "-" reads stdin.
func LoadRequest(path string, v any) error {
	if path == "-" {
		return LoadRequestFromReader(os.Stdin, v)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}
	return ParseRequest(data, path, v)
}

// ParseRequest parses request data based on file extension or content
func ParseRequest(data []byte, filename string, v any) error {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, v); err != nil {
			return fmt.Errorf("failed to parse YAML: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, v); err != nil {
			return fmt.Errorf("failed to parse JSON: %w", err)
		}
	default:
		// Try YAML first, then JSON
		if err := yaml.Unmarshal(data, v); err != nil {
			if err2 := json.Unmarshal(data, v); err2 != nil {
				return fmt.Errorf("failed to parse file (tried YAML and JSON)")
			}
		}
	}
	return nil
}

// LoadRequestFromReader loads a request from r, JSON first, then YAML.
func LoadRequestFromReader(r io.Reader, v any) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		if err2 := yaml.Unmarshal(data, v); err2 != nil {
			return fmt.Errorf("failed to parse input (tried JSON and YAML)")
		}
	}
	return nil
}

// LoadQuery loads an audio query and validates its shape. YAML files are
// converted to JSON so they go through the same schema as HTTP bodies.
func LoadQuery(path string) (*audioquery.AudioQuery, error) {
	data, err := readInput(path)
	if err != nil {
		return nil, err
	}
	data, err = toJSON(data, path)
	if err != nil {
		return nil, err
	}
	return audioquery.Decode(data)
}

// LoadAccentPhrases loads an accent phrase list the way LoadQuery does.
func LoadAccentPhrases(path string) ([]audioquery.AccentPhrase, error) {
	data, err := readInput(path)
	if err != nil {
		return nil, err
	}
	data, err = toJSON(data, path)
	if err != nil {
		return nil, err
	}
	return audioquery.DecodeAccentPhrases(data)
}

// LoadJSON loads a JSON or YAML file into v using its JSON field names.
func LoadJSON(path string, v any) error {
	data, err := readInput(path)
	if err != nil {
		return err
	}
	data, err = toJSON(data, path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse JSON: %w", err)
	}
	return nil
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return data, nil
}

// toJSON re-encodes YAML input as JSON. JSON input passes through.
func toJSON(data []byte, filename string) ([]byte, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
	default:
		if json.Valid(data) {
			return data, nil
		}
	}
	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	out, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to convert YAML: %w", err)
	}
	return out, nil
}
