// Package version reports the build of the running canister binary.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
)

// Set via -ldflags "-X github.com/smazurov/canister/internal/version.Version=...".
var (
	Version   = "dev"
	GitCommit = ""
	BuildDate = ""
)

// Info describes the running build.
type Info struct {
	Version   string `json:"version" example:"v1.4.0" doc:"Release version, dev for local builds"`
	GitCommit string `json:"git_commit" example:"3f2a9c1" doc:"Source revision"`
	Modified  bool   `json:"modified" doc:"Built from a tree with uncommitted changes"`
	BuildDate string `json:"build_date" example:"2026-01-12T09:30:00Z" doc:"Build or commit time"`
	GoVersion string `json:"go_version" example:"go1.24.1" doc:"Go toolchain"`
	Platform  string `json:"platform" example:"linux/arm64" doc:"Target OS and architecture"`
}

// Get returns the build info. Values not set through ldflags fall back to
// the VCS stamp the go tool embeds, so `go install` builds still report
// their revision.
func Get() Info {
	info := Info{
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		fillFromSettings(&info, bi.Settings)
	}
	if info.GitCommit == "" {
		info.GitCommit = "unknown"
	}
	if info.BuildDate == "" {
		info.BuildDate = "unknown"
	}
	return info
}

func fillFromSettings(info *Info, settings []debug.BuildSetting) {
	for _, s := range settings {
		switch s.Key {
		case "vcs.revision":
			if info.GitCommit == "" {
				info.GitCommit = s.Value
			}
		case "vcs.time":
			if info.BuildDate == "" {
				info.BuildDate = s.Value
			}
		case "vcs.modified":
			info.Modified = s.Value == "true"
		}
	}
}

// ShortCommit returns the first 7 characters of the revision.
func (i Info) ShortCommit() string {
	if len(i.GitCommit) > 7 {
		return i.GitCommit[:7]
	}
	return i.GitCommit
}

// String renders the info the way `canister version` prints it.
func (i Info) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "canister %s\n", i.Version)
	commit := i.ShortCommit()
	if i.Modified {
		commit += "-dirty"
	}
	fmt.Fprintf(&sb, "  commit:   %s\n", commit)
	fmt.Fprintf(&sb, "  built:    %s\n", i.BuildDate)
	fmt.Fprintf(&sb, "  go:       %s\n", i.GoVersion)
	fmt.Fprintf(&sb, "  platform: %s\n", i.Platform)
	return sb.String()
}
