package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml"
)

const (
	// DefaultBaseDir is the base configuration directory name
	DefaultBaseDir = ".koe"
	// DefaultConfigFile is the default configuration filename
	DefaultConfigFile = "config.yaml"
)

// Defaults applied by Context.Resolve.
const (
	DefaultRuntime = "tone"
	DefaultProfile = "legacy"
	DefaultAddr    = "127.0.0.1:50021"
)

// ErrUnknownKey is returned by Context.Set for keys it does not know.
var ErrUnknownKey = errors.New("cli: unknown config key")

// Config represents the main configuration structure for a CLI app
type Config struct {
	// AppName is the application name
	AppName string `yaml:"-"`

	// CurrentContext is the name of the currently active context
	CurrentContext string `yaml:"current_context,omitempty"`

	// Contexts is a map of context name to context configuration
	Contexts map[string]*Context `yaml:"contexts,omitempty"`

	configPath string
}

// Context is one engine setup: which acoustic runtime and model to load,
// how to analyze text and where artifacts go.
type Context struct {
	// Name is the context name
	Name string `yaml:"name"`

	// Runtime is the acoustic runtime name ("tone", "onnx").
	Runtime string `yaml:"runtime,omitempty"`

	// ModelDir holds the runtime's model files; empty uses ~/.koe/<app>/models.
	ModelDir string `yaml:"model_dir,omitempty"`

	// Threads bounds the runtime's parallelism; 0 lets it choose.
	Threads int `yaml:"threads,omitempty"`

	// Profile selects the calling convention ("legacy", "variance").
	Profile string `yaml:"profile,omitempty"`

	// Speaker is the default speaker (style) ID.
	Speaker int64 `yaml:"speaker,omitempty"`

	// Analyzer is the external full-context label program.
	Analyzer *AnalyzerConfig `yaml:"analyzer,omitempty"`

	// DictDir holds the user dictionary database. "memory" keeps the
	// dictionary in memory; empty uses the app's dict directory.
	DictDir string `yaml:"dict_dir,omitempty"`

	// Output is the artifact store URI (directory, file:// or s3://).
	Output string `yaml:"output,omitempty"`

	// Addr is the HTTP listen address for serve.
	Addr string `yaml:"addr,omitempty"`

	// Extra stores free-form settings.
	Extra map[string]string `yaml:"extra,omitempty"`
}

// AnalyzerConfig configures the external label extraction program.
type AnalyzerConfig struct {
	Command string   `yaml:"command"`
	Args    []string `yaml:"args,omitempty"`
}

// LoadConfig loads or creates configuration for the specified app
func LoadConfig(appName string) (*Config, error) {
	return LoadConfigWithPath(appName, "")
}

// LoadConfigWithPath loads configuration from a custom path
func LoadConfigWithPath(appName, customPath string) (*Config, error) {
	configPath := customPath
	if configPath == "" {
		paths, err := NewPaths(appName)
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		configPath = paths.ConfigFile()
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	cfg := &Config{
		AppName:    appName,
		Contexts:   make(map[string]*Context),
		configPath: configPath,
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, cfg.Save()
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.Contexts == nil {
		cfg.Contexts = make(map[string]*Context)
	}
	for name, ctx := range cfg.Contexts {
		if ctx == nil {
			cfg.Contexts[name] = &Context{Name: name}
		}
	}

	cfg.AppName = appName
	cfg.configPath = configPath
	return cfg, nil
}

// Save saves the configuration to disk
func (c *Config) Save() error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(c.configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Path returns the config file path
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the config directory path
func (c *Config) Dir() string {
	return filepath.Dir(c.configPath)
}

// AddContext adds a new context
func (c *Config) AddContext(name string, ctx *Context) error {
	ctx.Name = name
	c.Contexts[name] = ctx
	return c.Save()
}

// DeleteContext removes a context
func (c *Config) DeleteContext(name string) error {
	if _, ok := c.Contexts[name]; !ok {
		return fmt.Errorf("context %q not found", name)
	}
	delete(c.Contexts, name)
	if c.CurrentContext == name {
		c.CurrentContext = ""
	}
	return c.Save()
}

// UseContext sets the current context
func (c *Config) UseContext(name string) error {
	if _, ok := c.Contexts[name]; !ok {
		return fmt.Errorf("context %q not found", name)
	}
	c.CurrentContext = name
	return c.Save()
}

// GetContext returns a specific context
func (c *Config) GetContext(name string) (*Context, error) {
	ctx, ok := c.Contexts[name]
	if !ok {
		return nil, fmt.Errorf("context %q not found", name)
	}
	return ctx, nil
}

// ResolveContext returns the named context, or the current one when name
// is empty. With no current context it returns an empty context so the
// tool runs on defaults.
func (c *Config) ResolveContext(name string) (*Context, error) {
	if name == "" {
		name = c.CurrentContext
	}
	if name == "" {
		return &Context{Name: "default"}, nil
	}
	return c.GetContext(name)
}

// ListContexts returns all context names, sorted.
func (c *Config) ListContexts() []string {
	names := make([]string, 0, len(c.Contexts))
	for name := range c.Contexts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve returns a copy of the context with defaults filled in.
func (ctx *Context) Resolve() *Context {
	out := *ctx
	if out.Runtime == "" {
		out.Runtime = DefaultRuntime
	}
	if out.Profile == "" {
		out.Profile = DefaultProfile
	}
	if out.Addr == "" {
		out.Addr = DefaultAddr
	}
	return &out
}

// Set assigns one setting by its YAML key. Analyzer arguments are split on
// whitespace.
func (ctx *Context) Set(key, value string) error {
	switch key {
	case "runtime":
		ctx.Runtime = value
	case "model_dir":
		ctx.ModelDir = value
	case "threads":
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("threads: invalid value %q", value)
		}
		ctx.Threads = n
	case "profile":
		ctx.Profile = value
	case "speaker":
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("speaker: invalid value %q", value)
		}
		ctx.Speaker = n
	case "analyzer.command":
		if ctx.Analyzer == nil {
			ctx.Analyzer = &AnalyzerConfig{}
		}
		ctx.Analyzer.Command = value
	case "analyzer.args":
		if ctx.Analyzer == nil {
			ctx.Analyzer = &AnalyzerConfig{}
		}
		ctx.Analyzer.Args = strings.Fields(value)
	case "dict_dir":
		ctx.DictDir = value
	case "output":
		ctx.Output = value
	case "addr":
		ctx.Addr = value
	default:
		extra, ok := strings.CutPrefix(key, "extra.")
		if !ok || extra == "" {
			return fmt.Errorf("%w: %q", ErrUnknownKey, key)
		}
		ctx.SetExtra(extra, value)
	}
	return nil
}

// GetExtra returns an extra value for the context
func (ctx *Context) GetExtra(key string) string {
	if ctx.Extra == nil {
		return ""
	}
	return ctx.Extra[key]
}

// SetExtra sets an extra value for the context
func (ctx *Context) SetExtra(key, value string) {
	if ctx.Extra == nil {
		ctx.Extra = make(map[string]string)
	}
	ctx.Extra[key] = value
}
