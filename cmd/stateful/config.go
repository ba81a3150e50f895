package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"
)

const configFileName = "stateful.toml"

// settings is the merged view of stateful.toml and command-line flags.
type settings struct {
	Lower  lowerSettings  `toml:"lower"`
	Cache  cacheSettings  `toml:"cache"`
	Trace  traceSettings  `toml:"trace"`
	Output outputSettings `toml:"output"`

	// Path of the loaded file, empty when none was found.
	Path string `toml:"-"`
}

type lowerSettings struct {
	Resumable bool `toml:"resumable"`
	Jobs      int  `toml:"jobs"`
}

type cacheSettings struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

type traceSettings struct {
	Level  string `toml:"level"`
	Output string `toml:"output"`
}

type outputSettings struct {
	Color          string `toml:"color"`
	MaxDiagnostics int    `toml:"max_diagnostics"`
}

// current is set by prepare before any subcommand runs.
var current = defaultSettings()

func defaultSettings() *settings {
	return &settings{
		Cache:  cacheSettings{Enabled: true},
		Trace:  traceSettings{Level: "off"},
		Output: outputSettings{Color: "auto", MaxDiagnostics: 100},
	}
}

func findConfig(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, configFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// loadConfig decodes path over the defaults.
func loadConfig(path string) (*settings, error) {
	s := defaultSettings()
	meta, err := toml.DecodeFile(path, s)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if s.Lower.Jobs < 0 {
		return nil, fmt.Errorf("%s: [lower].jobs must not be negative", path)
	}
	switch s.Output.Color {
	case "auto", "on", "off":
	default:
		return nil, fmt.Errorf("%s: [output].color must be auto, on or off", path)
	}
	s.Path = path
	return s, nil
}

// resolveSettings loads the config file (explicit or discovered) and lets
// flags that were set on the command line override it.
func resolveSettings(cmd *cobra.Command) (*settings, error) {
	flags := cmd.Root().PersistentFlags()
	path, err := flags.GetString("config")
	if err != nil {
		return nil, err
	}
	s := defaultSettings()
	if path == "" {
		found, ok, err := findConfig(".")
		if err != nil {
			return nil, err
		}
		if ok {
			path = found
		}
	}
	if path != "" {
		if s, err = loadConfig(path); err != nil {
			return nil, err
		}
	}

	if flags.Changed("color") {
		s.Output.Color, _ = flags.GetString("color")
	}
	if flags.Changed("max-diagnostics") {
		s.Output.MaxDiagnostics, _ = flags.GetInt("max-diagnostics")
	}
	if flags.Changed("jobs") {
		s.Lower.Jobs, _ = flags.GetInt("jobs")
	}
	if flags.Changed("trace") {
		s.Trace.Output, _ = flags.GetString("trace")
	}
	if flags.Changed("trace-level") {
		s.Trace.Level, _ = flags.GetString("trace-level")
	}
	if noCache, _ := flags.GetBool("no-cache"); noCache {
		s.Cache.Enabled = false
	}
	if f := cmd.Flags().Lookup("resumable"); f != nil && f.Changed {
		s.Lower.Resumable, _ = cmd.Flags().GetBool("resumable")
	}
	return s, nil
}
