// Package version provides centralized version information for darkwall.
package version

import (
	"runtime/debug"
	"strings"
)

// These variables are populated by the build system.
var (
	// Version is the current released version of darkwall.
	Version = "0.1.0"

	// GitCommit is the git commit hash of the build.
	GitCommit = ""

	// BuildDate is the build date of the build.
	BuildDate = ""

	// GoVersion is the go version used to compile the build.
	GoVersion = ""
)

func init() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	GoVersion = info.GoVersion
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			if GitCommit == "" {
				GitCommit = setting.Value
			}
		case "vcs.time":
			if BuildDate == "" {
				BuildDate = setting.Value
			}
		}
	}
}

// String returns a one-line version string for `darkwall version`.
func String() string {
	var b strings.Builder
	b.WriteString("darkwall v")
	b.WriteString(Version)
	if GitCommit != "" {
		commit := GitCommit
		if len(commit) > 8 {
			commit = commit[:8]
		}
		b.WriteString(" (commit: ")
		b.WriteString(commit)
		if BuildDate != "" {
			b.WriteString(", built: ")
			b.WriteString(BuildDate)
		}
		b.WriteString(")")
	}
	if GoVersion != "" {
		b.WriteString(" ")
		b.WriteString(GoVersion)
	}
	return b.String()
}
