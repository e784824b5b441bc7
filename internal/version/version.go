// Package version reports build metadata for the assetflow binary.
package version

import (
	"fmt"
	"runtime/debug"
)

// Set at build time via -ldflags "-X .../version.Version=...".
var (
	Version   = "dev"
	Commit    = ""
	BuildTime = ""
)

// String returns "assetflow <version> (commit: <sha>, built: <time>)".
// Missing commit and build time fall back to the VCS stamp the Go
// toolchain embeds, then to "unknown".
func String() string {
	commit, built := Commit, BuildTime
	if commit == "" || built == "" {
		vcsCommit, vcsTime := fromBuildInfo()
		if commit == "" {
			commit = vcsCommit
		}
		if built == "" {
			built = vcsTime
		}
	}
	return fmt.Sprintf("assetflow %s (commit: %s, built: %s)", Version, short(commit), orUnknown(built))
}

func fromBuildInfo() (commit, built string) {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "", ""
	}
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			commit = s.Value
		case "vcs.time":
			built = s.Value
		}
	}
	return commit, built
}

func short(commit string) string {
	if len(commit) > 7 {
		return commit[:7]
	}
	return orUnknown(commit)
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
