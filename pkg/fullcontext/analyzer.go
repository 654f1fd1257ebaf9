package fullcontext

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
)

// Analyzer turns text into full-context labels. Implementations wrap a
// morphological analyzer such as OpenJTalk.
type Analyzer interface {
	ExtractFullcontext(ctx context.Context, text string) ([]string, error)
}

// AnalyzerFunc adapts a function to Analyzer.
type AnalyzerFunc func(ctx context.Context, text string) ([]string, error)

func (f AnalyzerFunc) ExtractFullcontext(ctx context.Context, text string) ([]string, error) {
	return f(ctx, text)
}

// Extract analyzes text and builds its utterance.
func Extract(ctx context.Context, a Analyzer, text string) (*Utterance, error) {
	raw, err := a.ExtractFullcontext(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("fullcontext: extract: %w", err)
	}
	labels, err := ParseLabels(raw)
	if err != nil {
		return nil, err
	}
	return NewUtterance(labels)
}

// ErrNoLabels is returned by StaticAnalyzer for text it has no labels for.
var ErrNoLabels = errors.New("fullcontext: no labels for text")

// StaticAnalyzer serves canned labels keyed by text.
type StaticAnalyzer map[string][]string

func (s StaticAnalyzer) ExtractFullcontext(_ context.Context, text string) ([]string, error) {
	labels, ok := s[text]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNoLabels, text)
	}
	return append([]string(nil), labels...), nil
}

// UserDictEnv names the environment variable through which CommandAnalyzer
// passes the user dictionary CSV path to the analyzer program.
const UserDictEnv = "KOE_USER_DICT"

// CommandAnalyzer runs an external label extraction program. The program
// reads text on stdin and writes one label per line on stdout.
type CommandAnalyzer struct {
	Path string
	Args []string
	// DictDir receives the user dictionary CSV written by Reload.
	DictDir string

	mu       sync.RWMutex
	dictPath string
}

func (c *CommandAnalyzer) ExtractFullcontext(ctx context.Context, text string) ([]string, error) {
	cmd := exec.CommandContext(ctx, c.Path, c.Args...)
	cmd.Stdin = strings.NewReader(text)
	cmd.Env = os.Environ()
	c.mu.RLock()
	if c.dictPath != "" {
		cmd.Env = append(cmd.Env, UserDictEnv+"="+c.dictPath)
	}
	c.mu.RUnlock()

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("run %s: %w: %s", c.Path, err, strings.TrimSpace(stderr.String()))
	}

	var labels []string
	sc := bufio.NewScanner(&stdout)
	sc.Buffer(make([]byte, 0, 4096), 1<<20)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			labels = append(labels, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read %s output: %w", c.Path, err)
	}
	slog.Debug("fullcontext: analyzed", "program", c.Path, "labels", len(labels))
	return labels, nil
}

// Reload writes the user dictionary CSV and points later analyzer runs at it.
func (c *CommandAnalyzer) Reload(_ context.Context, csv []byte) error {
	dir := c.DictDir
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("fullcontext: create dict dir: %w", err)
	}
	path := filepath.Join(dir, "user_dict.csv")
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, csv, 0644); err != nil {
		return fmt.Errorf("fullcontext: write user dict: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("fullcontext: install user dict: %w", err)
	}
	c.mu.Lock()
	c.dictPath = path
	c.mu.Unlock()
	slog.Info("fullcontext: user dictionary reloaded", "path", path, "bytes", len(csv))
	return nil
}

// DictPath returns the CSV path installed by the last Reload.
func (c *CommandAnalyzer) DictPath() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.dictPath
}
