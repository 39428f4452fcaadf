package version

import (
	"runtime/debug"
	"strings"
	"testing"
)

func TestFillFromSettings(t *testing.T) {
	settings := []debug.BuildSetting{
		{Key: "vcs.revision", Value: "3f2a9c1d0e"},
		{Key: "vcs.time", Value: "2026-01-12T09:30:00Z"},
		{Key: "vcs.modified", Value: "true"},
	}

	var info Info
	fillFromSettings(&info, settings)
	if info.GitCommit != "3f2a9c1d0e" || info.BuildDate != "2026-01-12T09:30:00Z" || !info.Modified {
		t.Errorf("info = %+v", info)
	}

	ldflags := Info{GitCommit: "abc", BuildDate: "yesterday"}
	fillFromSettings(&ldflags, settings)
	if ldflags.GitCommit != "abc" || ldflags.BuildDate != "yesterday" {
		t.Errorf("ldflags values overwritten: %+v", ldflags)
	}
}

func TestInfoString(t *testing.T) {
	info := Info{
		Version:   "v1.4.0",
		GitCommit: "3f2a9c1d0e",
		Modified:  true,
		BuildDate: "2026-01-12T09:30:00Z",
		GoVersion: "go1.24.1",
		Platform:  "linux/arm64",
	}
	out := info.String()
	for _, want := range []string{"canister v1.4.0\n", "commit:   3f2a9c1-dirty\n", "platform: linux/arm64\n"} {
		if !strings.Contains(out, want) {
			t.Errorf("String() missing %q:\n%s", want, out)
		}
	}
}

func TestGetDefaults(t *testing.T) {
	info := Get()
	if info.Version == "" || info.GitCommit == "" || info.BuildDate == "" {
		t.Errorf("Get() left fields empty: %+v", info)
	}
	if !strings.Contains(info.Platform, "/") {
		t.Errorf("Platform = %q", info.Platform)
	}
}
