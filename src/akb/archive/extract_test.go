package archive

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ulikunitz/xz"
)

func tarBytes(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	for name, content := range files {
		hdr := &tar.Header{Name: name, Mode: 0755, Size: int64(len(content)), Typeflag: tar.TypeReg}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatal(err)
		}
		if _, err := tw.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func gzipBytes(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	gw.Write(data)
	if err := gw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestExtractConcatenated_Split(t *testing.T) {
	src := t.TempDir()
	dest := t.TempDir()

	stream := gzipBytes(t, tarBytes(t, map[string]string{
		"clang-r498229b/bin/clang": "#!/bin/sh\n",
	}))
	third := len(stream) / 3
	chunks := [][]byte{stream[:third], stream[third : 2*third], stream[2*third:]}

	var names []string
	for i, c := range chunks {
		name := filepath.Join(src, "clang.tar.gz."+string(rune('1'+i)))
		if err := os.WriteFile(name, c, 0644); err != nil {
			t.Fatal(err)
		}
		names = append(names, name)
	}

	if err := ExtractConcatenated(context.Background(), names, Gzip, dest); err != nil {
		t.Fatalf("ExtractConcatenated() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dest, "clang-r498229b", "bin", "clang"))
	if err != nil {
		t.Fatalf("extracted file missing: %v", err)
	}
	if string(data) != "#!/bin/sh\n" {
		t.Errorf("content = %q", data)
	}
}

func TestExtractPlan(t *testing.T) {
	src := t.TempDir()
	dest := t.TempDir()

	os.WriteFile(filepath.Join(src, "gcc.tar.gz"), gzipBytes(t, tarBytes(t, map[string]string{"gcc/VERSION": "4.9"})), 0644)
	os.WriteFile(filepath.Join(src, "clang.tar.gz"), gzipBytes(t, tarBytes(t, map[string]string{"clang/VERSION": "17"})), 0644)

	entries, _ := os.ReadDir(src)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}

	plan := Detect(names)
	if err := ExtractPlan(context.Background(), plan, src, dest); err != nil {
		t.Fatalf("ExtractPlan() error = %v", err)
	}

	for _, rel := range []string{"gcc/VERSION", "clang/VERSION"} {
		if _, err := os.Stat(filepath.Join(dest, rel)); err != nil {
			t.Errorf("%s not extracted: %v", rel, err)
		}
	}
}

func TestExtractFile_XZ(t *testing.T) {
	dir := t.TempDir()
	var buf bytes.Buffer
	xw, err := xz.NewWriter(&buf)
	if err != nil {
		t.Fatal(err)
	}
	xw.Write(tarBytes(t, map[string]string{"kernel-build-tools/linux-x86/lib64/libc++.so": "elf"}))
	if err := xw.Close(); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(dir, "build-tools.tar.xz")
	os.WriteFile(path, buf.Bytes(), 0644)

	dest := filepath.Join(dir, "out")
	if err := ExtractFile(context.Background(), path, dest); err != nil {
		t.Fatalf("ExtractFile() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dest, "kernel-build-tools/linux-x86/lib64/libc++.so")); err != nil {
		t.Errorf("xz content not extracted: %v", err)
	}
}

func TestExtract_RejectsTraversal(t *testing.T) {
	dest := t.TempDir()
	stream := gzipBytes(t, tarBytes(t, map[string]string{"../escape": "x"}))

	err := Extract(context.Background(), bytes.NewReader(stream), Gzip, dest)
	if err == nil {
		t.Fatal("expected traversal error")
	}
	if _, statErr := os.Stat(filepath.Join(filepath.Dir(dest), "escape")); statErr == nil {
		t.Error("file written outside destination")
	}
}

func TestExtract_CorruptStream(t *testing.T) {
	err := Extract(context.Background(), bytes.NewReader([]byte("not gzip")), Gzip, t.TempDir())
	if err == nil {
		t.Fatal("expected error for corrupt stream")
	}
}

func TestExtract_SymlinkCannotRedirectWrites(t *testing.T) {
	dest := t.TempDir()
	outside := t.TempDir()

	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	if err := tw.WriteHeader(&tar.Header{Name: "lib", Typeflag: tar.TypeSymlink, Linkname: outside, Mode: 0777}); err != nil {
		t.Fatal(err)
	}
	if err := tw.WriteHeader(&tar.Header{Name: "lib/evil", Typeflag: tar.TypeReg, Mode: 0644, Size: 1}); err != nil {
		t.Fatal(err)
	}
	tw.Write([]byte("x"))
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}

	if err := Extract(context.Background(), bytes.NewReader(gzipBytes(t, buf.Bytes())), Gzip, dest); err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(outside, "evil")); err == nil {
		t.Error("file written through symlink outside destination")
	}
}

func TestExtract_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stream := gzipBytes(t, tarBytes(t, map[string]string{"a": "x"}))
	if err := Extract(ctx, bytes.NewReader(stream), Gzip, t.TempDir()); err != context.Canceled {
		t.Errorf("Extract() error = %v, want context.Canceled", err)
	}
}

type entry struct {
	name     string
	typeflag byte
	linkname string
	body     string
}

func tarEntries(t *testing.T, entries []entry) []byte {
	t.Helper()
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	for _, e := range entries {
		hdr := &tar.Header{Name: e.name, Typeflag: e.typeflag, Linkname: e.linkname, Mode: 0755, Size: int64(len(e.body))}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatal(err)
		}
		if _, err := tw.Write([]byte(e.body)); err != nil {
			t.Fatal(err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	return gzipBytes(t, buf.Bytes())
}

func TestExtract_Repeated(t *testing.T) {
	tests := []struct {
		name    string
		entries []entry
		files   map[string]string
		links   map[string]string
	}{
		{
			name: "versioned binary behind symlink",
			entries: []entry{
				{name: "tc/bin/clang-17", typeflag: tar.TypeReg, body: "real-binary"},
				{name: "tc/bin/clang", typeflag: tar.TypeSymlink, linkname: "clang-17"},
			},
			files: map[string]string{"tc/bin/clang-17": "real-binary"},
			links: map[string]string{"tc/bin/clang": "clang-17"},
		},
		{
			name: "symlink listed before its target",
			entries: []entry{
				{name: "tc/lib/libLLVM.so", typeflag: tar.TypeSymlink, linkname: "libLLVM.so.17"},
				{name: "tc/lib/libLLVM.so.17", typeflag: tar.TypeReg, body: "llvm"},
			},
			files: map[string]string{"tc/lib/libLLVM.so.17": "llvm"},
			links: map[string]string{"tc/lib/libLLVM.so": "libLLVM.so.17"},
		},
		{
			name: "hard link",
			entries: []entry{
				{name: "tc/bin/ld.lld", typeflag: tar.TypeReg, body: "lld"},
				{name: "tc/bin/lld", typeflag: tar.TypeLink, linkname: "tc/bin/ld.lld"},
			},
			files: map[string]string{"tc/bin/ld.lld": "lld", "tc/bin/lld": "lld"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dest := t.TempDir()
			stream := tarEntries(t, tt.entries)

			for i := 0; i < 2; i++ {
				if err := Extract(context.Background(), bytes.NewReader(stream), Gzip, dest); err != nil {
					t.Fatalf("Extract() pass %d error = %v", i+1, err)
				}
			}

			for name, want := range tt.files {
				path := filepath.Join(dest, filepath.FromSlash(name))
				fi, err := os.Lstat(path)
				if err != nil {
					t.Fatalf("Lstat(%s) error = %v", name, err)
				}
				if !fi.Mode().IsRegular() {
					t.Errorf("%s mode = %v, want regular file", name, fi.Mode())
				}
				got, err := os.ReadFile(path)
				if err != nil {
					t.Fatal(err)
				}
				if string(got) != want {
					t.Errorf("%s = %q, want %q", name, got, want)
				}
			}
			for name, want := range tt.links {
				got, err := os.Readlink(filepath.Join(dest, filepath.FromSlash(name)))
				if err != nil {
					t.Fatalf("Readlink(%s) error = %v", name, err)
				}
				if got != want {
					t.Errorf("%s -> %q, want %q", name, got, want)
				}
			}
		})
	}
}

func TestExtract_FileReplacesExistingSymlink(t *testing.T) {
	dest := t.TempDir()
	outside := filepath.Join(t.TempDir(), "victim")
	if err := os.WriteFile(outside, []byte("keep"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(outside, filepath.Join(dest, "clang")); err != nil {
		t.Fatal(err)
	}

	stream := tarEntries(t, []entry{{name: "clang", typeflag: tar.TypeReg, body: "new"}})
	if err := Extract(context.Background(), bytes.NewReader(stream), Gzip, dest); err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	if got, _ := os.ReadFile(outside); string(got) != "keep" {
		t.Errorf("file behind old symlink = %q, want untouched", got)
	}
	fi, err := os.Lstat(filepath.Join(dest, "clang"))
	if err != nil {
		t.Fatal(err)
	}
	if !fi.Mode().IsRegular() {
		t.Errorf("clang mode = %v, want regular file", fi.Mode())
	}
}
