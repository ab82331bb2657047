// Package runner executes the external tools a kernel build depends on
// (make, bash, patch, ccache, scripts/config) on the host.
package runner

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"

	"github.com/bitswalk/akb/src/common/errors"
	"github.com/bitswalk/akb/src/common/logs"
)

var log = logs.NewDefault()

// SetLogger sets the logger for the runner package
func SetLogger(l *logs.Logger) {
	if l != nil {
		log = l
	}
}

// stderrTail bounds how much captured stderr is kept in error messages
const stderrTail = 4096

// Cmd describes one external process invocation
type Cmd struct {
	Name string
	Args []string
	// Dir is the working directory; empty means the current directory
	Dir string
	// Env is overlaid on the inherited process environment
	Env map[string]string
	// Stdin, when set, is fed to the process
	Stdin io.Reader
	// Capture returns stdout instead of streaming it to the terminal
	Capture bool
}

// String renders the command line for logs and error messages
func (c Cmd) String() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	return c.Name + " " + strings.Join(c.Args, " ")
}

// Runner runs external processes
type Runner interface {
	// Run executes the command and returns its trimmed stdout when captured.
	// A non-zero exit is an error of domain process.
	Run(ctx context.Context, c Cmd) (string, error)

	// LookPath reports whether a tool is on the search path
	LookPath(name string) (string, error)
}

// Exec is the host Runner. Tool output is passed through uninterpreted.
type Exec struct {
	Stdout io.Writer
	Stderr io.Writer
}

// NewExec creates a Runner writing tool output to the process streams
func NewExec() *Exec {
	return &Exec{
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

// Environ returns the inherited environment with the overlay applied.
// Overlay keys replace inherited entries of the same name.
func Environ(base []string, overlay map[string]string) []string {
	if len(overlay) == 0 {
		return base
	}

	env := make([]string, 0, len(base)+len(overlay))
	for _, kv := range base {
		k, _, _ := strings.Cut(kv, "=")
		if _, ok := overlay[k]; ok {
			continue
		}
		env = append(env, kv)
	}

	keys := make([]string, 0, len(overlay))
	for k := range overlay {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		env = append(env, fmt.Sprintf("%s=%s", k, overlay[k]))
	}
	return env
}

// Run executes c on the host
func (e *Exec) Run(ctx context.Context, c Cmd) (string, error) {
	if c.Name == "" {
		return "", errors.ErrInternal.WithMessage("no command specified")
	}

	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	cmd.Env = Environ(os.Environ(), c.Env)
	cmd.Stdin = c.Stdin

	var stdout bytes.Buffer
	stderr := &tailWriter{max: stderrTail}
	switch {
	case c.Capture:
		cmd.Stdout = &stdout
	case e.Stdout != nil:
		cmd.Stdout = e.Stdout
	}

	if e.Stderr != nil {
		cmd.Stderr = io.MultiWriter(stderr, e.Stderr)
	} else {
		cmd.Stderr = stderr
	}

	log.Debug("Running command", "cmd", c.String(), "dir", c.Dir)

	if err := cmd.Run(); err != nil {
		return "", errors.ErrProcessFailed.
			WithMessagef("%s failed", c.String()).
			WithCause(fmt.Errorf("%w\nstderr: %s", err, tail(stderr.String())))
	}

	return strings.TrimSpace(stdout.String()), nil
}

// LookPath searches for an executable on the inherited PATH
func (e *Exec) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}

// tailWriter retains the last max bytes written to it
type tailWriter struct {
	max       int
	buf       []byte
	truncated bool
}

func (w *tailWriter) Write(p []byte) (int, error) {
	w.buf = append(w.buf, p...)
	if over := len(w.buf) - w.max; over > 0 {
		w.buf = append(w.buf[:0], w.buf[over:]...)
		w.truncated = true
	}
	return len(p), nil
}

func (w *tailWriter) String() string {
	if w.truncated {
		return "..." + string(w.buf)
	}
	return string(w.buf)
}

func tail(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > stderrTail {
		s = "..." + s[len(s)-stderrTail:]
	}
	return s
}
