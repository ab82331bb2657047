package errors

// Common error codes used across domains
const (
	CodeNotFound     Code = "not_found"
	CodeInvalid      Code = "invalid_value"
	CodeExitNonZero  Code = "exit_nonzero"
	CodeUnavailable  Code = "unavailable"
	CodeInternal     Code = "internal_error"
	CodeUploadFailed Code = "upload_failed"
)

// ============================================================================
// Configuration Errors
// ============================================================================

var (
	// ErrProjectNotFound is returned when no profile matches the requested key
	ErrProjectNotFound = New(DomainConfig, CodeNotFound, ExitConfig,
		"Project not found")

	// ErrSourceTreeMissing is returned when ./kernel_source does not exist
	ErrSourceTreeMissing = New(DomainConfig, "missing_source", ExitConfig,
		"Kernel source not found")

	// ErrRegistryUnreadable is returned when the profile registry cannot be loaded
	ErrRegistryUnreadable = New(DomainConfig, "registry_unreadable", ExitConfig,
		"Project registry could not be read")

	// ErrInvalidProfile is returned when a profile misses a required field
	ErrInvalidProfile = New(DomainConfig, "invalid_profile", ExitConfig,
		"Invalid project profile")

	// ErrInsecureURL is returned when a setup script would be fetched without TLS
	ErrInsecureURL = New(DomainConfig, "insecure_url", ExitConfig,
		"Refusing to fetch over an insecure connection")

	// ErrInvalidSetting is returned when a configuration value is not recognized
	ErrInvalidSetting = New(DomainConfig, CodeInvalid, ExitConfig,
		"Invalid configuration value")
)

// ============================================================================
// External Process Errors
// ============================================================================

var (
	// ErrProcessFailed is returned when an invoked tool exits non-zero
	ErrProcessFailed = New(DomainProcess, CodeExitNonZero, ExitProcess,
		"External process failed")

	// ErrDownloadFailed is returned when a fetch does not complete
	ErrDownloadFailed = New(DomainProcess, "download_failed", ExitProcess,
		"Download failed")

	// ErrCloneFailed is returned when a repository clone fails
	ErrCloneFailed = New(DomainProcess, "clone_failed", ExitProcess,
		"Repository clone failed")

	// ErrExtractFailed is returned when a toolchain archive cannot be unpacked
	ErrExtractFailed = New(DomainProcess, "extract_failed", ExitProcess,
		"Archive extraction failed")

	// ErrPatchFailed is returned when a unified diff does not apply
	ErrPatchFailed = New(DomainProcess, "patch_failed", ExitProcess,
		"Patch application failed")

	// ErrPackagingFailed is returned when the flashable archive cannot be written
	ErrPackagingFailed = New(DomainProcess, "packaging_failed", ExitProcess,
		"Packaging failed")
)

// ============================================================================
// Missing Artifact Errors
// ============================================================================

var (
	// ErrArtifactMissing is returned when a stage's expected input or output file is absent
	ErrArtifactMissing = New(DomainArtifact, CodeNotFound, ExitArtifact,
		"Expected artifact not found")

	// ErrArchiveMissing is returned when the final archive is absent before release
	ErrArchiveMissing = New(DomainArtifact, "archive_missing", ExitArtifact,
		"Final zip not found")
)

// ============================================================================
// Structural Patch Errors
// ============================================================================

var (
	// ErrAnchorNotFound is returned when a structural edit's anchor line is absent
	ErrAnchorNotFound = New(DomainPatch, "anchor_not_found", ExitPatch,
		"Structural patch anchor not found")
)

// ============================================================================
// Publication Errors
// ============================================================================

var (
	// ErrStorageUploadFailed is returned when an artifact upload fails
	ErrStorageUploadFailed = New(DomainStorage, CodeUploadFailed, ExitGeneric,
		"Failed to upload artifact to storage")

	// ErrStorageUnavailable is returned when the storage backend is unreachable
	ErrStorageUnavailable = New(DomainStorage, CodeUnavailable, ExitGeneric,
		"Storage backend unavailable")

	// ErrReleaseFailed is returned when the release cannot be published
	ErrReleaseFailed = New(DomainRelease, "publish_failed", ExitGeneric,
		"Release publication failed")

	// ErrReleaseToken is returned when no forge token is configured
	ErrReleaseToken = New(DomainRelease, "missing_token", ExitConfig,
		"No release token configured")

	// ErrNotifyFailed is returned when a notification cannot be delivered
	ErrNotifyFailed = New(DomainNotify, "delivery_failed", ExitGeneric,
		"Notification delivery failed")
)

// ============================================================================
// History & Internal Errors
// ============================================================================

var (
	// ErrHistoryUnavailable is returned when the build history database cannot be used
	ErrHistoryUnavailable = New(DomainHistory, CodeUnavailable, ExitGeneric,
		"Build history unavailable")

	// ErrInternal is a generic internal error
	ErrInternal = New(DomainInternal, CodeInternal, ExitGeneric,
		"Internal error")
)
