// Package cli provides common utilities for the koe command-line tool.
//
// This package includes:
//   - Configuration management (contexts, each naming an engine setup)
//   - Output formatting (JSON, YAML, raw)
//   - Request file loading (YAML/JSON)
//
// Configuration is stored in ~/.koe/<app>/ directory, supporting
// multiple contexts similar to kubectl.
//
// Example usage:
//
//	cfg, err := cli.LoadConfig("koe")
//
//	// Resolve the context named by --context, or the current one
//	ctx, err := cfg.ResolveContext(name)
//
//	cli.Output(query, cli.OutputOptions{
//	    Format: cli.FormatJSON,
//	    File:   outputPath,
//	})
package cli
