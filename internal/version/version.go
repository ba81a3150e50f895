package version

import (
	"strings"

	"github.com/fatih/color"
)

// Version information for the stateful CLI.
// These variables can be overridden at build time via -ldflags.

var (
	versionMajorColor = color.New(color.FgYellow, color.Bold)
	versionMinorColor = color.New(color.FgGreen, color.Bold)
	versionPatchColor = color.New(color.FgBlue, color.Bold)

	// Version is the semantic version of the CLI.
	Version = "0.3.0-dev"

	// GitCommit is an optional git commit hash.
	GitCommit = ""

	// BuildDate is an optional build date in ISO-8601.
	BuildDate = ""
)

// Colored renders Version with major, minor and patch in distinct colors.
// Suffixes after the patch number are kept as-is.
func Colored() string {
	major, rest, ok := strings.Cut(Version, ".")
	if !ok {
		return Version
	}
	minor, rest, ok := strings.Cut(rest, ".")
	if !ok {
		return Version
	}
	patch, suffix := rest, ""
	for i, r := range rest {
		if r < '0' || r > '9' {
			patch, suffix = rest[:i], rest[i:]
			break
		}
	}
	return versionMajorColor.Sprint(major) + "." + versionMinorColor.Sprint(minor) + "." + versionPatchColor.Sprint(patch) + suffix
}

// Banner is the one-line description printed by `stateful version`.
func Banner() string {
	s := "stateful " + Colored()
	if GitCommit != "" {
		s += " (" + GitCommit + ")"
	}
	if BuildDate != "" {
		s += " built " + BuildDate
	}
	return s
}
