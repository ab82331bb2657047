package errors

import (
	"fmt"
	"testing"
)

func TestError_Is(t *testing.T) {
	decorated := ErrProjectNotFound.WithMessagef("Project %q not found", "s25_sun")

	if !Is(decorated, ErrProjectNotFound) {
		t.Error("decorated copy should match its sentinel")
	}
	if Is(decorated, ErrSourceTreeMissing) {
		t.Error("different codes in the same domain must not match")
	}

	wrapped := fmt.Errorf("stage failed: %w", decorated)
	if !Is(wrapped, ErrProjectNotFound) {
		t.Error("sentinel should be found through fmt wrapping")
	}
}

func TestError_WithCauseDoesNotMutateSentinel(t *testing.T) {
	cause := fmt.Errorf("exit status 2")
	e := ErrProcessFailed.WithCause(cause)

	if ErrProcessFailed.Unwrap() != nil {
		t.Fatal("sentinel gained a cause")
	}
	if e.Unwrap() != cause {
		t.Errorf("Unwrap() = %v, want %v", e.Unwrap(), cause)
	}
	want := "process.exit_nonzero: External process failed: exit status 2"
	if e.Error() != want {
		t.Errorf("Error() = %q, want %q", e.Error(), want)
	}
}

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, 0},
		{"plain error", fmt.Errorf("boom"), ExitGeneric},
		{"config", ErrProjectNotFound, ExitConfig},
		{"process", ErrPatchFailed.WithCause(fmt.Errorf("hunk failed")), ExitProcess},
		{"artifact", fmt.Errorf("release: %w", ErrArchiveMissing), ExitArtifact},
		{"structural patch", ErrAnchorNotFound, ExitPatch},
		{"storage", ErrStorageUploadFailed, ExitGeneric},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetExitCode(tt.err); got != tt.want {
				t.Errorf("GetExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestGetCodeAndDomain(t *testing.T) {
	err := fmt.Errorf("wrap: %w", ErrAnchorNotFound)
	if GetCode(err) != "anchor_not_found" {
		t.Errorf("GetCode() = %q", GetCode(err))
	}
	if GetDomain(err) != DomainPatch {
		t.Errorf("GetDomain() = %q", GetDomain(err))
	}
	if GetCode(fmt.Errorf("plain")) != "" {
		t.Error("plain errors have no code")
	}
}

func TestNewReport(t *testing.T) {
	r := NewReport(ErrArchiveMissing)
	if r.Error != "artifact.archive_missing" {
		t.Errorf("Error = %q", r.Error)
	}
	if r.Message != "Final zip not found" {
		t.Errorf("Message = %q", r.Message)
	}
	if r.ExitCode != ExitArtifact {
		t.Errorf("ExitCode = %d", r.ExitCode)
	}

	r = NewReport(fmt.Errorf("something odd"))
	if r.Error != "internal.internal_error" || r.ExitCode != ExitGeneric {
		t.Errorf("unexpected report for plain error: %+v", r)
	}

	r = NewReport(ErrCloneFailed.WithCause(fmt.Errorf("repository not found")))
	if r.Cause != "repository not found" {
		t.Errorf("Cause = %q", r.Cause)
	}
}
