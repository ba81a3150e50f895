package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestFindConfig_WalksUp(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, configFileName), "[lower]\njobs = 2\n")
	deep := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(deep, 0o755); err != nil {
		t.Fatal(err)
	}
	path, ok, err := findConfig(deep)
	if err != nil || !ok {
		t.Fatalf("findConfig: ok=%v err=%v", ok, err)
	}
	if filepath.Dir(path) != root {
		t.Errorf("found %s, want one in %s", path, root)
	}
}

func TestLoadConfig(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"full", "[lower]\nresumable = true\njobs = 3\n[cache]\nenabled = false\n[output]\ncolor = \"off\"\nmax_diagnostics = 7\n", ""},
		{"unknown key", "[lower]\nspeed = 1\n", "unknown keys"},
		{"bad color", "[output]\ncolor = \"sometimes\"\n", "[output].color"},
		{"negative jobs", "[lower]\njobs = -1\n", "[lower].jobs"},
		{"not toml", "[lower\n", "failed to parse TOML"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), configFileName)
			writeFile(t, path, tt.content)
			s, err := loadConfig(path)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("err = %v, want %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if !s.Lower.Resumable || s.Lower.Jobs != 3 || s.Cache.Enabled || s.Output.Color != "off" || s.Output.MaxDiagnostics != 7 {
				t.Errorf("settings = %+v", s)
			}
			if s.Trace.Level != "off" {
				t.Errorf("defaults lost: trace level %q", s.Trace.Level)
			}
		})
	}
}

func TestResolveSettings_FlagsOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), configFileName)
	writeFile(t, path, "[lower]\njobs = 3\n[output]\nmax_diagnostics = 7\n")

	root := &cobra.Command{Use: "stateful"}
	registerPersistentFlags(root)
	sub := &cobra.Command{Use: "lower"}
	sub.Flags().Bool("resumable", false, "")
	root.AddCommand(sub)

	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatal(err)
		}
	}
	must(root.PersistentFlags().Set("config", path))
	must(root.PersistentFlags().Set("jobs", "8"))
	must(root.PersistentFlags().Set("no-cache", "true"))
	must(sub.Flags().Set("resumable", "true"))

	s, err := resolveSettings(sub)
	if err != nil {
		t.Fatal(err)
	}
	if s.Lower.Jobs != 8 {
		t.Errorf("jobs = %d, want flag value 8", s.Lower.Jobs)
	}
	if s.Output.MaxDiagnostics != 7 {
		t.Errorf("max diagnostics = %d, want file value 7", s.Output.MaxDiagnostics)
	}
	if s.Cache.Enabled || !s.Lower.Resumable || s.Path != path {
		t.Errorf("settings = %+v", s)
	}
}
