// Package version exposes the build metadata stamped into the zenfeed
// binary.
package version

import (
	"runtime"
	"runtime/debug"
	"strings"
)

const unknown = "unknown"

// Set with -ldflags on release builds. A plain source build falls back to
// the VCS metadata the toolchain embeds.
var (
	Version   = "dev"
	GitCommit = unknown
	BuildDate = unknown
)

// Info is the resolved build metadata.
type Info struct {
	Version   string
	GitCommit string
	BuildDate string
	GoVersion string
}

// Get resolves the build metadata, preferring ldflags values over embedded
// VCS settings.
func Get() Info {
	info := Info{
		Version:   strings.TrimPrefix(Version, "v"),
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
	}
	if Version != "dev" {
		return info
	}
	buildInfo, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	for _, setting := range buildInfo.Settings {
		switch setting.Key {
		case "vcs.revision":
			if info.GitCommit == unknown {
				info.GitCommit = shortCommit(setting.Value)
			}
		case "vcs.time":
			if info.BuildDate == unknown {
				info.BuildDate = setting.Value
			}
		}
	}
	return info
}

func shortCommit(revision string) string {
	if len(revision) > 7 {
		return revision[:7]
	}
	return revision
}

// GetFullVersion renders "version-commit" when a commit is known, or just
// the version otherwise.
func GetFullVersion() string {
	info := Get()
	if info.GitCommit == unknown {
		return info.Version
	}
	return info.Version + "-" + info.GitCommit
}
