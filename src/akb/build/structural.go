package build

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/bitswalk/akb/src/common/errors"
)

// StructuralPatch is a line-level source edit: every line containing one
// of DeleteContaining is removed, then Append is inserted right after the
// first occurrence of Anchor on each line that contains it.
//
// Precondition: after the deletions, Anchor must still occur in the file.
// Otherwise the file is left untouched and patch.anchor_not_found is
// returned.
type StructuralPatch struct {
	Name             string
	Path             string
	DeleteContaining []string
	Anchor           string
	Append           string
}

// NamespaceHookFix moves the manual-hook mount namespace check, which the
// hook patch drops into the wrong function, into copy_mnt_ns where
// copy_flags is in scope.
var NamespaceHookFix = StructuralPatch{
	Name: "relocate manual hook into copy_mnt_ns",
	Path: "fs/namespace.c",
	DeleteContaining: []string{
		"if (flags & CLONE_NEWNS)",
		"copy_flags |= CL_COPY_MNT_NS",
	},
	Anchor: "copy_flags = CL_COPY_UNBINDABLE | CL_EXPIRE;",
	Append: " if (flags & CLONE_NEWNS) copy_flags |= CL_COPY_MNT_NS;",
}

// Transform applies the patch to content, returning the new content and
// the number of deleted lines.
func (p StructuralPatch) Transform(content string) (string, int, error) {
	lines := strings.Split(content, "\n")

	kept := make([]string, 0, len(lines))
	deleted := 0
	for _, line := range lines {
		if p.matchesDelete(line) {
			deleted++
			continue
		}
		kept = append(kept, line)
	}

	anchored := 0
	for i, line := range kept {
		if idx := strings.Index(line, p.Anchor); idx >= 0 {
			end := idx + len(p.Anchor)
			kept[i] = line[:end] + p.Append + line[end:]
			anchored++
		}
	}
	if anchored == 0 {
		return "", deleted, errors.ErrAnchorNotFound.WithMessagef("Anchor %q not found in %s", p.Anchor, p.Path)
	}

	return strings.Join(kept, "\n"), deleted, nil
}

func (p StructuralPatch) matchesDelete(line string) bool {
	for _, d := range p.DeleteContaining {
		if strings.Contains(line, d) {
			return true
		}
	}
	return false
}

// Apply edits Path below root in place
func (p StructuralPatch) Apply(root string) error {
	target := filepath.Join(root, p.Path)

	info, err := os.Stat(target)
	if err != nil {
		return errors.ErrAnchorNotFound.WithMessagef("Cannot apply %q: %s is missing", p.Name, p.Path).WithCause(err)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		return errors.ErrPatchFailed.WithMessagef("Failed to read %s", p.Path).WithCause(err)
	}

	out, deleted, err := p.Transform(string(data))
	if err != nil {
		return err
	}
	if deleted == 0 {
		log.Warn("Structural patch deleted no lines", "patch", p.Name, "file", p.Path)
	}

	if err := os.WriteFile(target, []byte(out), info.Mode().Perm()); err != nil {
		return errors.ErrPatchFailed.WithMessagef("Failed to write %s", p.Path).WithCause(err)
	}

	log.Info("Structural patch applied", "patch", p.Name, "file", p.Path, "deleted_lines", deleted)
	return nil
}
