// Package main provides the koe CLI tool.
//
// Usage:
//
//	koe [flags] <command> [args]
//
// Commands:
//
//	query    - Build an audio query from text
//	phrases  - Predict accent phrases from text or kana
//	kana     - Parse or render kana notation
//	labels   - Show full-context labels for text
//	synth    - Synthesize a WAV file
//	dict     - Manage the user dictionary
//	serve    - Run the HTTP API
//	metas    - Show speaker metadata
//	config   - Configuration management
//	version  - Print version information
//
// Configuration:
//
//	The CLI stores configuration in ~/.koe/koe/
//	Use 'koe config' commands to manage contexts.
package main

import (
	"os"

	"github.com/haivivi/koe/cmd/koe/commands"
	"github.com/haivivi/koe/pkg/cli"
)

func main() {
	if err := commands.Execute(); err != nil {
		cli.PrintError("%v", err)
		os.Exit(1)
	}
}
