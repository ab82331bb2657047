package version

import (
	"runtime/debug"
	"strings"
	"testing"
)

func TestNew_Defaults(t *testing.T) {
	i := New()
	if i.Version != "dev" || i.ReleaseVersion != "0.0.0" {
		t.Errorf("New() = %+v", i)
	}
	if i.GitCommit != Unset || i.BuildDate != Unset {
		t.Errorf("New() = %+v", i)
	}
}

func TestFill(t *testing.T) {
	bi := &debug.BuildInfo{Settings: []debug.BuildSetting{
		{Key: "vcs.revision", Value: "4f9f2976c1d0e2ab"},
		{Key: "vcs.time", Value: "2025-01-02T03:04:05Z"},
	}}

	tests := []struct {
		name       string
		info       Info
		wantCommit string
		wantDate   string
	}{
		{"unset", *New(), "4f9f297", "2025-01-02T03:04:05Z"},
		{"empty", Info{}, "4f9f297", "2025-01-02T03:04:05Z"},
		{"linker stamped", Info{GitCommit: "abc1234", BuildDate: "2024-12-31"}, "abc1234", "2024-12-31"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := tt.info
			info.fill(bi)
			if info.GitCommit != tt.wantCommit {
				t.Errorf("GitCommit = %q, want %q", info.GitCommit, tt.wantCommit)
			}
			if info.BuildDate != tt.wantDate {
				t.Errorf("BuildDate = %q, want %q", info.BuildDate, tt.wantDate)
			}
		})
	}
}

func TestFill_ShortRevision(t *testing.T) {
	info := New()
	info.fill(&debug.BuildInfo{Settings: []debug.BuildSetting{{Key: "vcs.revision", Value: "abc"}}})
	if info.GitCommit != "abc" {
		t.Errorf("GitCommit = %q", info.GitCommit)
	}
}

func TestUserAgent(t *testing.T) {
	i := &Info{ReleaseVersion: "0.3.0"}
	if got := i.UserAgent(); got != "akb/0.3.0" {
		t.Errorf("UserAgent() = %q", got)
	}
}

func TestFullAndMap(t *testing.T) {
	i := &Info{Version: "akb v0.3.0-4f9f297", ReleaseVersion: "0.3.0", BuildDate: "2025-01-02", GitCommit: "4f9f297"}

	full := i.Full()
	for _, want := range []string{"akb v0.3.0-4f9f297", "Version:    0.3.0", "Git Commit: 4f9f297", "Go Version: " + GoVersion()} {
		if !strings.Contains(full, want) {
			t.Errorf("Full() missing %q:\n%s", want, full)
		}
	}

	m := i.Map()
	if m["git_commit"] != "4f9f297" || m["go_version"] != GoVersion() || m["platform"] == "" {
		t.Errorf("Map() = %v", m)
	}
}
