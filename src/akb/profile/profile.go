// Package profile loads the declarative project registry: one profile per
// buildable device target, keyed by a project key that embeds the SoC.
package profile

import (
	"strings"
)

// Defaults applied when a profile leaves the field unset
const (
	DefaultAnyKernelRepo   = "https://github.com/YuzakiKokuban/AnyKernel3.git"
	DefaultAnyKernelBranch = "master"
	DefaultZipPrefix       = "Kernel"
	UnknownSoC             = "unknown"
)

// LTOMode selects the clang link-time optimization flavour
type LTOMode string

const (
	LTONone LTOMode = ""
	LTOThin LTOMode = "thin"
	LTOFull LTOMode = "full"
)

// VersionMethod selects how the localversion is stamped into the build
type VersionMethod string

const (
	// VersionParam passes an empty LOCALVERSION= and exports the identifier
	VersionParam VersionMethod = "param"
	// VersionFile writes the identifier into kernel_source/localversion
	VersionFile VersionMethod = "file"
)

// Profile describes one buildable project
type Profile struct {
	// Key is the registry key, e.g. "s25_sun"; filled in by the registry
	Key string `yaml:"-" json:"key"`

	Defconfig string `yaml:"defconfig" json:"defconfig"`

	ToolchainURLs       []string  `yaml:"toolchain_urls,omitempty" json:"toolchain_urls,omitempty"`
	ToolchainPathPrefix string    `yaml:"toolchain_path_prefix,omitempty" json:"toolchain_path_prefix,omitempty"`
	ToolchainPathExport *[]string `yaml:"toolchain_path_exports,omitempty" json:"toolchain_path_exports,omitempty"`
	ExtraHostEnv        bool      `yaml:"extra_host_env,omitempty" json:"extra_host_env,omitempty"`

	DisableSecurity []string `yaml:"disable_security,omitempty" json:"disable_security,omitempty"`
	LTO             string   `yaml:"lto,omitempty" json:"lto,omitempty"`

	LocalversionBase string `yaml:"localversion_base" json:"localversion_base"`
	VersionMethodRaw string `yaml:"version_method,omitempty" json:"version_method,omitempty"`

	AnyKernelRepoRaw   string `yaml:"anykernel_repo,omitempty" json:"anykernel_repo,omitempty"`
	AnyKernelBranchRaw string `yaml:"anykernel_branch,omitempty" json:"anykernel_branch,omitempty"`
	ZipNamePrefix      string `yaml:"zip_name_prefix,omitempty" json:"zip_name_prefix,omitempty"`

	// Repo is the release repository, "owner/name"
	Repo string `yaml:"repo" json:"repo"`
}

// TargetSoC returns the second "_"-separated segment of the key
func (p *Profile) TargetSoC() string {
	parts := strings.Split(p.Key, "_")
	if len(parts) < 2 {
		return UnknownSoC
	}
	return parts[1]
}

// HasToolchain reports whether any toolchain archive must be provisioned
func (p *Profile) HasToolchain() bool {
	return len(p.ToolchainURLs) > 0
}

// PathExports returns the explicit search-path entries and whether the
// list was present at all. An empty but present list still selects the
// explicit mode.
func (p *Profile) PathExports() ([]string, bool) {
	if p.ToolchainPathExport == nil {
		return nil, false
	}
	return *p.ToolchainPathExport, true
}

// LTOMode returns the configured LTO mode; unrecognized values map to LTONone
func (p *Profile) LTOMode() LTOMode {
	switch LTOMode(p.LTO) {
	case LTOThin:
		return LTOThin
	case LTOFull:
		return LTOFull
	default:
		return LTONone
	}
}

// VersionMethod returns the stamping method; anything but "file" is param
func (p *Profile) VersionMethod() VersionMethod {
	if VersionMethod(p.VersionMethodRaw) == VersionFile {
		return VersionFile
	}
	return VersionParam
}

// AnyKernelRepo returns the packaging template repository
func (p *Profile) AnyKernelRepo() string {
	if p.AnyKernelRepoRaw == "" {
		return DefaultAnyKernelRepo
	}
	return p.AnyKernelRepoRaw
}

// AnyKernelBranch returns the packaging template branch
func (p *Profile) AnyKernelBranch() string {
	if p.AnyKernelBranchRaw == "" {
		return DefaultAnyKernelBranch
	}
	return p.AnyKernelBranchRaw
}

// ZipPrefix returns the archive and release name prefix
func (p *Profile) ZipPrefix() string {
	if p.ZipNamePrefix == "" {
		return DefaultZipPrefix
	}
	return p.ZipNamePrefix
}
