package build

import (
	"path/filepath"

	"github.com/bitswalk/akb/src/akb/profile"
)

// Fixed directory and file names relative to the working directory
const (
	SourceDirName     = "kernel_source"
	ToolchainDirName  = "toolchain_download"
	TemplateDirName   = "AnyKernel3"
	CCacheDirName     = ".ccache"
	LocalversionFile  = "localversion"
	KernelImagePath   = "out/arch/arm64/boot/Image"
	KernelConfigPath  = "out/.config"
	ScriptsConfigPath = "scripts/config"
	DefconfigDir      = "arch/arm64/configs"
	TimestampLayout   = "20060102-1504"
	UnknownValue      = "unknown"
)

// StageContext is the mutable state of one pipeline invocation. Stages
// document which fields they read and write; nothing else touches it.
type StageContext struct {
	RunID   string
	Project *profile.Profile
	Branch  string
	Variant Variant
	Release bool

	// WorkDir is the absolute working directory; SourceDir is its kernel_source
	WorkDir   string
	SourceDir string

	// Env is overlaid on the inherited environment for make invocations
	Env map[string]string
	// MakeArgs are passed to every make invocation, in order
	MakeArgs []string

	KernelVersion string
	CommitHash    string
	// Localversion is "<localversion_base>-<suffix>"
	Localversion string

	// Timestamp is the YYYYMMDD-HHMM packaging time shared by archive and release
	Timestamp       string
	ArchiveName     string
	ArchivePath     string
	ArchiveChecksum string
	ArchiveSize     int64

	StorageKey string
	ReleaseTag string
	ReleaseURL string
}

// Path joins elements onto the working directory
func (sc *StageContext) Path(elem ...string) string {
	return filepath.Join(append([]string{sc.WorkDir}, elem...)...)
}

// SourcePath joins elements onto the kernel source tree
func (sc *StageContext) SourcePath(elem ...string) string {
	return filepath.Join(append([]string{sc.SourceDir}, elem...)...)
}
