// Package version holds the build-time version information of akb.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Unset marks a field the linker did not fill
const Unset = "unknown"

// Info describes the running akb binary
type Info struct {
	// Version is the display version: "akb v0.3.0-4f9f297"
	Version string `json:"version" yaml:"version"`

	// ReleaseVersion is the semantic version without the "v" prefix
	ReleaseVersion string `json:"release_version" yaml:"release_version"`

	// BuildDate is the RFC 3339 build timestamp
	BuildDate string `json:"build_date" yaml:"build_date"`

	// GitCommit is the short commit hash the binary was built from
	GitCommit string `json:"git_commit" yaml:"git_commit"`
}

// New returns the info of an unstamped development build
func New() *Info {
	return &Info{
		Version:        "dev",
		ReleaseVersion: "0.0.0",
		BuildDate:      Unset,
		GitCommit:      Unset,
	}
}

// FillFromBuildInfo completes fields the linker left unset with the VCS
// stamp recorded by the Go toolchain, if any.
func (i *Info) FillFromBuildInfo() {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	i.fill(bi)
}

func (i *Info) fill(bi *debug.BuildInfo) {
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if i.GitCommit == Unset || i.GitCommit == "" {
				rev := s.Value
				if len(rev) > 7 {
					rev = rev[:7]
				}
				i.GitCommit = rev
			}
		case "vcs.time":
			if i.BuildDate == Unset || i.BuildDate == "" {
				i.BuildDate = s.Value
			}
		}
	}
}

// UserAgent returns the User-Agent sent on outbound HTTP requests
func (i *Info) UserAgent() string {
	return "akb/" + i.ReleaseVersion
}

// GoVersion returns the Go runtime version
func GoVersion() string {
	return runtime.Version()
}

func (i *Info) String() string {
	return i.Version
}

// Full returns a multi-line description for "akb version"
func (i *Info) Full() string {
	return fmt.Sprintf(`%s
  Version:    %s
  Build Date: %s
  Git Commit: %s
  Go Version: %s
  Platform:   %s/%s`,
		i.Version,
		i.ReleaseVersion,
		i.BuildDate,
		i.GitCommit,
		GoVersion(),
		runtime.GOOS, runtime.GOARCH,
	)
}

// Map returns version info for structured output
func (i *Info) Map() map[string]string {
	return map[string]string{
		"version":         i.Version,
		"release_version": i.ReleaseVersion,
		"build_date":      i.BuildDate,
		"git_commit":      i.GitCommit,
		"go_version":      GoVersion(),
		"platform":        runtime.GOOS + "/" + runtime.GOARCH,
	}
}
