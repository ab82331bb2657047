package build

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/bitswalk/akb/src/common/errors"
)

func TestStructuralPatch_Transform(t *testing.T) {
	p := StructuralPatch{
		Path:             "a.c",
		DeleteContaining: []string{"drop"},
		Anchor:           "x = 1;",
		Append:           " y = 2;",
	}

	tests := []struct {
		name    string
		in      string
		want    string
		deleted int
		wantErr bool
	}{
		{
			name:    "delete and append",
			in:      "a\ndrop me\nx = 1;\nb",
			want:    "a\nx = 1; y = 2;\nb",
			deleted: 1,
		},
		{
			name: "append after first occurrence on each line",
			in:   "x = 1; x = 1;\nx = 1;",
			want: "x = 1; y = 2; x = 1;\nx = 1; y = 2;",
		},
		{
			name:    "anchor only on a deleted line",
			in:      "drop x = 1;\nother",
			deleted: 1,
			wantErr: true,
		},
		{
			name:    "no anchor",
			in:      "nothing here",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, deleted, err := p.Transform(tt.in)
			if tt.wantErr {
				if !errors.Is(err, errors.ErrAnchorNotFound) {
					t.Fatalf("Transform() error = %v, want ErrAnchorNotFound", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Transform() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Transform() = %q, want %q", got, tt.want)
			}
			if deleted != tt.deleted {
				t.Errorf("deleted = %d, want %d", deleted, tt.deleted)
			}
		})
	}
}

func TestNamespaceHookFix_Apply(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(root, "fs", "namespace.c")
	writeFile(t, target, namespaceSource)
	os.Chmod(target, 0600)

	if err := NamespaceHookFix.Apply(root); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if got := readFile(t, target); got != namespacePatched {
		t.Errorf("namespace.c =\n%s", got)
	}
	info, _ := os.Stat(target)
	if info.Mode().Perm() != 0600 {
		t.Errorf("mode = %v, want 0600", info.Mode().Perm())
	}
}

func TestNamespaceHookFix_MissingAnchorLeavesFile(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(root, "fs", "namespace.c")
	original := "if (flags & CLONE_NEWNS)\n\tcopy_flags |= CL_COPY_MNT_NS;\n"
	writeFile(t, target, original)

	err := NamespaceHookFix.Apply(root)
	if !errors.Is(err, errors.ErrAnchorNotFound) {
		t.Fatalf("Apply() error = %v, want ErrAnchorNotFound", err)
	}
	if errors.GetExitCode(err) != errors.ExitPatch {
		t.Errorf("exit code = %d, want %d", errors.GetExitCode(err), errors.ExitPatch)
	}
	if got := readFile(t, target); got != original {
		t.Errorf("file modified: %q", got)
	}
}

func TestNamespaceHookFix_MissingFile(t *testing.T) {
	if err := NamespaceHookFix.Apply(t.TempDir()); !errors.Is(err, errors.ErrAnchorNotFound) {
		t.Errorf("Apply() error = %v, want ErrAnchorNotFound", err)
	}
}
