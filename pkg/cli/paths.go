package cli

import (
	"os"
	"path/filepath"
)

// Paths provides access to the koe directory structure
type Paths struct {
	// AppName is the application name
	AppName string

	// HomeDir is the user's home directory
	HomeDir string
}

// NewPaths creates a new Paths instance for the given app
func NewPaths(appName string) (*Paths, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return &Paths{
		AppName: appName,
		HomeDir: home,
	}, nil
}

// BaseDir returns the base directory (~/.koe)
func (p *Paths) BaseDir() string {
	return filepath.Join(p.HomeDir, DefaultBaseDir)
}

// AppDir returns the app-specific directory (~/.koe/<app>)
func (p *Paths) AppDir() string {
	return filepath.Join(p.BaseDir(), p.AppName)
}

// ConfigFile returns the config file path (~/.koe/<app>/config.yaml)
func (p *Paths) ConfigFile() string {
	return filepath.Join(p.AppDir(), DefaultConfigFile)
}

// DictDir returns the default user dictionary directory (~/.koe/<app>/dict)
func (p *Paths) DictDir() string {
	return filepath.Join(p.AppDir(), "dict")
}

// OutputDir returns the default artifact directory (~/.koe/<app>/out)
func (p *Paths) OutputDir() string {
	return filepath.Join(p.AppDir(), "out")
}

// ModelDir returns the default acoustic model directory (~/.koe/<app>/models)
func (p *Paths) ModelDir() string {
	return filepath.Join(p.AppDir(), "models")
}

// EnsureDictDir creates the dictionary directory if it doesn't exist
func (p *Paths) EnsureDictDir() error {
	return os.MkdirAll(p.DictDir(), 0755)
}
