// Package manifest handles kelp.toml run configuration.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// DefaultQuota is the fuel budget used when neither the manifest nor the
// command line chooses one.
const DefaultQuota = 10000

// Manifest represents a kelp.toml configuration.
type Manifest struct {
	Run   Run   `toml:"run"`
	Trace Trace `toml:"trace"`
	Log   Log   `toml:"log"`

	// Dir is the directory containing the kelp.toml file (set at load time).
	Dir string `toml:"-"`
}

// Run configures the reduction itself.
type Run struct {
	Quota int `toml:"quota"`
}

// Trace configures run-history recording.
type Trace struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Log configures logging verbosity (commonlog scale: 0 quiet, higher is
// chattier).
type Log struct {
	Verbosity int `toml:"verbosity"`
}

// Default returns the configuration used when no kelp.toml exists.
func Default() *Manifest {
	return &Manifest{
		Run:   Run{Quota: DefaultQuota},
		Trace: Trace{Path: "kelp-trace.db"},
	}
}

// Load parses a kelp.toml file from the given directory. A missing file is
// not an error: defaults apply. A malformed file is.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, "kelp.toml")
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		m := Default()
		m.Dir = dir
		return m, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	m := Default()
	if err := toml.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	if m.Run.Quota <= 0 {
		return nil, fmt.Errorf("%s: run.quota must be positive, got %d", path, m.Run.Quota)
	}
	m.Dir = dir
	return m, nil
}
