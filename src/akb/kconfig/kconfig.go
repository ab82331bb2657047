// Package kconfig reads and edits kernel .config files in place, with the
// same semantics as the kernel's scripts/config helper.
package kconfig

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"regexp"
	"strings"
)

var (
	setRegex   = regexp.MustCompile(`^(CONFIG_[A-Za-z0-9_]+)=(.*)$`)
	unsetRegex = regexp.MustCompile(`^# (CONFIG_[A-Za-z0-9_]+) is not set$`)
)

// Name returns the canonical CONFIG_-prefixed option name
func Name(option string) string {
	if strings.HasPrefix(option, "CONFIG_") {
		return option
	}
	return "CONFIG_" + option
}

// Op is a scripts/config operation
type Op int

const (
	OpEnable Op = iota
	OpDisable
)

func (o Op) String() string {
	if o == OpEnable {
		return "enable"
	}
	return "disable"
}

// Directive is one option edit
type Directive struct {
	Op     Op
	Option string
}

// Enable returns enable directives for the options, in order
func Enable(options ...string) []Directive {
	return directives(OpEnable, options)
}

// Disable returns disable directives for the options, in order
func Disable(options ...string) []Directive {
	return directives(OpDisable, options)
}

func directives(op Op, options []string) []Directive {
	out := make([]Directive, len(options))
	for i, o := range options {
		out[i] = Directive{Op: op, Option: o}
	}
	return out
}

// Args renders directives as scripts/config arguments
func Args(ds []Directive) []string {
	args := make([]string, 0, 2*len(ds))
	for _, d := range ds {
		args = append(args, "--"+d.Op.String(), d.Option)
	}
	return args
}

// File is a .config held in memory with line order preserved
type File struct {
	path  string
	lines []string
	index map[string]int
}

// Load reads the .config at path
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	f := &File{path: path, index: make(map[string]int)}
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if name := optionName(strings.TrimSpace(line)); name != "" {
			f.index[name] = len(f.lines)
		}
		f.lines = append(f.lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return f, nil
}

func optionName(line string) string {
	if m := setRegex.FindStringSubmatch(line); m != nil {
		return m[1]
	}
	if m := unsetRegex.FindStringSubmatch(line); m != nil {
		return m[1]
	}
	return ""
}

// Value returns the option's value, "n" for an unset option, and whether
// the option appears in the file at all.
func (f *File) Value(option string) (string, bool) {
	i, ok := f.index[Name(option)]
	if !ok {
		return "", false
	}
	line := strings.TrimSpace(f.lines[i])
	if m := setRegex.FindStringSubmatch(line); m != nil {
		return strings.Trim(m[2], `"`), true
	}
	return "n", true
}

// Enabled reports whether the option is set to y
func (f *File) Enabled(option string) bool {
	v, _ := f.Value(option)
	return v == "y"
}

// Set assigns a raw value; present options are replaced in place and
// absent ones are appended.
func (f *File) Set(option, value string) {
	f.put(Name(option), fmt.Sprintf("%s=%s", Name(option), value))
}

// Unset marks the option as not set
func (f *File) Unset(option string) {
	f.put(Name(option), fmt.Sprintf("# %s is not set", Name(option)))
}

func (f *File) put(name, line string) {
	if i, ok := f.index[name]; ok {
		f.lines[i] = line
		return
	}
	f.index[name] = len(f.lines)
	f.lines = append(f.lines, line)
}

// Apply runs the directives in order
func (f *File) Apply(ds ...Directive) {
	for _, d := range ds {
		switch d.Op {
		case OpEnable:
			f.Set(d.Option, "y")
		case OpDisable:
			f.Unset(d.Option)
		}
	}
}

// Save writes the file back to its path
func (f *File) Save() error {
	var buf bytes.Buffer
	for _, l := range f.lines {
		buf.WriteString(l)
		buf.WriteByte('\n')
	}
	if err := os.WriteFile(f.path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// ParseFile parses a .config or defconfig into a map of option values.
// Options marked "is not set" map to "n"; string values are unquoted.
func ParseFile(path string) (map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	options := make(map[string]string)
	scanner := bufio.NewScanner(file)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if matches := setRegex.FindStringSubmatch(line); matches != nil {
			value := matches[2]
			if strings.HasPrefix(value, "\"") && strings.HasSuffix(value, "\"") && len(value) >= 2 {
				value = value[1 : len(value)-1]
			}
			options[matches[1]] = value
		} else if matches := unsetRegex.FindStringSubmatch(line); matches != nil {
			options[matches[1]] = "n"
		}
	}

	return options, scanner.Err()
}

// Option is a name/value pair of a config fragment
type Option struct {
	Name  string
	Value string
}

// AppendFragment appends CONFIG_X=v lines to an existing file, in order
func AppendFragment(path string, options ...Option) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}

	w := bufio.NewWriter(f)
	for _, o := range options {
		fmt.Fprintf(w, "%s=%s\n", Name(o.Name), o.Value)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("failed to append to %s: %w", path, err)
	}
	return f.Close()
}
