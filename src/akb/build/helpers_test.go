package build

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/bitswalk/akb/src/akb/db"
	"github.com/bitswalk/akb/src/akb/download"
	"github.com/bitswalk/akb/src/akb/forge"
	"github.com/bitswalk/akb/src/akb/gitrepo"
	"github.com/bitswalk/akb/src/akb/notify"
	"github.com/bitswalk/akb/src/akb/profile"
	"github.com/bitswalk/akb/src/akb/runner"
	"github.com/bitswalk/akb/src/common/errors"
)

var fixedNow = time.Date(2025, 1, 2, 3, 4, 0, 0, time.UTC)

const fixedStamp = "20250102-0304"

// call is one recorded runner invocation with its stdin drained
type call struct {
	Cmd   runner.Cmd
	Stdin string
}

type fakeRunner struct {
	calls   []call
	tools   map[string]bool
	handler func(c call) (string, error)
}

func (f *fakeRunner) Run(_ context.Context, c runner.Cmd) (string, error) {
	rec := call{Cmd: c}
	if c.Stdin != nil {
		b, _ := io.ReadAll(c.Stdin)
		rec.Stdin = string(b)
	}
	env := make(map[string]string, len(c.Env))
	for k, v := range c.Env {
		env[k] = v
	}
	rec.Cmd.Env = env
	rec.Cmd.Args = append([]string{}, c.Args...)
	f.calls = append(f.calls, rec)

	if f.handler != nil {
		return f.handler(rec)
	}
	return "", nil
}

func (f *fakeRunner) LookPath(name string) (string, error) {
	if f.tools[name] {
		return "/usr/bin/" + name, nil
	}
	return "", exec.ErrNotFound
}

func (f *fakeRunner) lines() []string {
	out := make([]string, len(f.calls))
	for i, c := range f.calls {
		out[i] = c.Cmd.String()
	}
	return out
}

func (f *fakeRunner) named(name string) []call {
	var out []call
	for _, c := range f.calls {
		if c.Cmd.Name == name {
			out = append(out, c)
		}
	}
	return out
}

type fakeFetcher struct {
	files     map[string]string
	downloads []string
	fetches   []string
}

func (f *fakeFetcher) Download(ctx context.Context, url, destDir string) (*download.Result, error) {
	name, err := download.FileName(url)
	if err != nil {
		return nil, err
	}
	return f.DownloadTo(ctx, url, filepath.Join(destDir, name))
}

func (f *fakeFetcher) DownloadTo(_ context.Context, url, dest string) (*download.Result, error) {
	body, ok := f.files[url]
	if !ok {
		return nil, errors.ErrDownloadFailed.WithMessagef("Download of %s failed", url)
	}
	if err := os.WriteFile(dest, []byte(body), 0644); err != nil {
		return nil, err
	}
	f.downloads = append(f.downloads, url)
	return &download.Result{Path: dest, Size: int64(len(body))}, nil
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) ([]byte, error) {
	f.fetches = append(f.fetches, url)
	body, ok := f.files[url]
	if !ok {
		return nil, errors.ErrDownloadFailed.WithMessagef("Download of %s failed", url)
	}
	return []byte(body), nil
}

type fakeGit struct {
	repos  map[string]map[string]string
	clones []gitrepo.CloneOptions
	head   string
}

func (g *fakeGit) Clone(_ context.Context, opts gitrepo.CloneOptions) error {
	g.clones = append(g.clones, opts)
	files, ok := g.repos[opts.URL]
	if !ok {
		return errors.ErrCloneFailed.WithMessagef("Clone of %s failed", opts.URL)
	}
	if err := os.MkdirAll(opts.Dest, 0755); err != nil {
		return err
	}
	for rel, content := range files {
		p := filepath.Join(opts.Dest, rel)
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			return err
		}
		if err := os.WriteFile(p, []byte(content), 0644); err != nil {
			return err
		}
	}
	return nil
}

func (g *fakeGit) ShortHead(string) (string, error) {
	if g.head == "" {
		return "", fmt.Errorf("repository does not exist")
	}
	return g.head, nil
}

type fakePublisher struct {
	releases []forge.Release
	url      string
	err      error
}

func (p *fakePublisher) Publish(_ context.Context, r forge.Release) (*forge.Published, error) {
	p.releases = append(p.releases, r)
	if p.err != nil {
		return nil, p.err
	}
	return &forge.Published{Tag: r.Tag, URL: p.url}, nil
}

type fakeNotifier struct {
	messages []notify.Message
	err      error
}

func (n *fakeNotifier) Notify(_ context.Context, m notify.Message) error {
	n.messages = append(n.messages, m)
	return n.err
}

type fakeRecorder struct {
	run    *db.BuildRun
	events []string
	result *db.RunResult
}

func (r *fakeRecorder) Create(run *db.BuildRun) error {
	r.run = run
	return nil
}

func (r *fakeRecorder) MarkStageStarted(_, stage string) error {
	r.events = append(r.events, "start:"+stage)
	return nil
}

func (r *fakeRecorder) MarkStageCompleted(_, stage string, _ int64) error {
	r.events = append(r.events, "done:"+stage)
	return nil
}

func (r *fakeRecorder) MarkStageFailed(_, stage, _ string) error {
	r.events = append(r.events, "fail:"+stage)
	return nil
}

func (r *fakeRecorder) MarkCompleted(_ string, res db.RunResult) error {
	r.run.Status = db.BuildStatusCompleted
	r.result = &res
	return nil
}

func (r *fakeRecorder) MarkFailed(_, stage, msg string) error {
	r.run.Status = db.BuildStatusFailed
	r.run.ErrorStage = stage
	r.run.ErrorMessage = msg
	return nil
}

func noProgress(int, string) {}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}

func testProfile() *profile.Profile {
	return &profile.Profile{
		Key:              "s25_sun",
		Defconfig:        "s25_defconfig",
		LocalversionBase: "-android15-8-Yuzaki",
		Repo:             "org/kernel",
	}
}

// newTestContext returns a context rooted in a fresh working directory
// with an empty kernel_source.
func newTestContext(t *testing.T, p *profile.Profile, branch string) *StageContext {
	t.Helper()
	wd := t.TempDir()
	src := filepath.Join(wd, SourceDirName)
	if err := os.MkdirAll(src, 0755); err != nil {
		t.Fatal(err)
	}
	return &StageContext{
		RunID:     "test-run",
		Project:   p,
		Branch:    branch,
		Variant:   ParseVariant(branch),
		WorkDir:   wd,
		SourceDir: src,
		Env:       map[string]string{},
	}
}
