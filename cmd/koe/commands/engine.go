package commands

import (
	"context"
	"fmt"

	"github.com/haivivi/koe/pkg/acoustic"
	_ "github.com/haivivi/koe/pkg/acoustic/onnxcore"
	"github.com/haivivi/koe/pkg/cli"
	"github.com/haivivi/koe/pkg/fullcontext"
	"github.com/haivivi/koe/pkg/storage"
	"github.com/haivivi/koe/pkg/synthesis"
	"github.com/haivivi/koe/pkg/userdict"
)

// env is everything a command may need, opened from one context.
type env struct {
	ctx      *cli.Context
	engine   *synthesis.Engine
	analyzer *fullcontext.CommandAnalyzer
	dict     *userdict.Dict
}

func (e *env) Close() error {
	if e.dict != nil {
		return e.dict.Store().Close()
	}
	return nil
}

// Test hooks replacing the configured runtime and analyzer.
var (
	testCore     acoustic.Core
	testAnalyzer fullcontext.Analyzer
)

// openEngine opens the acoustic core and, when configured, the text
// analyzer. withDict also opens the user dictionary and hands it to a
// configured analyzer.
func openEngine(c *cli.Context, withDict bool) (*env, error) {
	e := &env{ctx: c}
	core := testCore
	if core == nil {
		modelDir := c.ModelDir
		if modelDir == "" {
			paths, err := cli.NewPaths(appName)
			if err != nil {
				return nil, err
			}
			modelDir = paths.ModelDir()
		}
		var err error
		core, err = acoustic.Open(c.Runtime, acoustic.Options{ModelDir: modelDir, Threads: c.Threads})
		if err != nil {
			return nil, err
		}
	}
	profile, err := synthesis.ParseProfile(c.Profile)
	if err != nil {
		return nil, err
	}

	opts := []synthesis.Option{synthesis.WithProfile(profile)}
	switch {
	case testAnalyzer != nil:
		opts = append(opts, synthesis.WithAnalyzer(testAnalyzer))
	case c.Analyzer != nil && c.Analyzer.Command != "":
		dictDir, err := dictDir(c)
		if err != nil {
			return nil, err
		}
		e.analyzer = &fullcontext.CommandAnalyzer{
			Path:    c.Analyzer.Command,
			Args:    c.Analyzer.Args,
			DictDir: dictDir,
		}
		opts = append(opts, synthesis.WithAnalyzer(e.analyzer))
	}
	e.engine, err = synthesis.New(core, opts...)
	if err != nil {
		return nil, err
	}
	printVerbose("engine: runtime=%s profile=%s", c.Runtime, profile)

	if withDict && e.analyzer != nil {
		if e.dict, err = openDict(c, e.analyzer); err != nil {
			return nil, err
		}
		if err := e.dict.Sync(context.Background()); err != nil {
			e.Close()
			return nil, err
		}
	}
	return e, nil
}

func dictDir(c *cli.Context) (string, error) {
	if c.DictDir != "" {
		return c.DictDir, nil
	}
	paths, err := cli.NewPaths(appName)
	if err != nil {
		return "", err
	}
	if err := paths.EnsureDictDir(); err != nil {
		return "", err
	}
	return paths.DictDir(), nil
}

// openDict opens the user dictionary. A nil reloader leaves the analyzer
// untouched.
func openDict(c *cli.Context, reloader userdict.Reloader) (*userdict.Dict, error) {
	var opts []userdict.Option
	if reloader != nil {
		opts = append(opts, userdict.WithReloader(reloader))
	}
	if c.DictDir == "memory" {
		return userdict.New(userdict.NewMemory(), opts...), nil
	}
	dir, err := dictDir(c)
	if err != nil {
		return nil, err
	}
	store, err := userdict.NewBadger(userdict.BadgerOptions{Dir: dir})
	if err != nil {
		return nil, fmt.Errorf("open user dictionary: %w", err)
	}
	return userdict.New(store, opts...), nil
}

// openStore opens the context's artifact store.
func openStore(c *cli.Context) (storage.FileStore, error) {
	uri := c.Output
	if uri == "" {
		paths, err := cli.NewPaths(appName)
		if err != nil {
			return nil, err
		}
		uri = paths.OutputDir()
	}
	return storage.Open(uri)
}

// speakerFlag returns --speaker when set and the context default otherwise.
func speakerFlag(c *cli.Context, flag int64, changed bool) int64 {
	if changed {
		return flag
	}
	return c.Speaker
}
