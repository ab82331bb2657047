package profile

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/bitswalk/akb/src/common/errors"
	"github.com/bitswalk/akb/src/common/logs"
)

var log = logs.NewDefault()

// SetLogger sets the logger for the profile package
func SetLogger(l *logs.Logger) {
	if l != nil {
		log = l
	}
}

// Registry holds every profile of a registry file.
// Keys are matched exactly and case-sensitively.
type Registry struct {
	path     string
	profiles map[string]*Profile
}

// Load reads a registry document. JSON is accepted as a subset of YAML.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.ErrRegistryUnreadable.
			WithMessagef("Project registry %s could not be read", path).
			WithCause(err)
	}

	reg, err := Parse(data)
	if err != nil {
		return nil, err
	}
	reg.path = path

	log.Debug("Loaded project registry", "path", path, "projects", len(reg.profiles))
	return reg, nil
}

// Parse decodes a registry document held in memory
func Parse(data []byte) (*Registry, error) {
	raw := make(map[string]*Profile)
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, errors.ErrRegistryUnreadable.WithCause(err)
	}

	profiles := make(map[string]*Profile, len(raw))
	for key, p := range raw {
		if p == nil {
			p = &Profile{}
		}
		p.Key = key
		profiles[key] = p
	}

	return &Registry{profiles: profiles}, nil
}

// Path returns the file the registry was loaded from
func (r *Registry) Path() string {
	return r.path
}

// Lookup returns the profile for key
func (r *Registry) Lookup(key string) (*Profile, error) {
	if key == "" {
		return nil, errors.ErrProjectNotFound.WithMessage("Project key must not be empty")
	}
	p, ok := r.profiles[key]
	if !ok {
		return nil, errors.ErrProjectNotFound.WithMessagef("Project not found: %s", key)
	}
	return p, nil
}

// Keys returns all project keys, sorted
func (r *Registry) Keys() []string {
	keys := make([]string, 0, len(r.profiles))
	for k := range r.profiles {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Profiles returns all profiles ordered by key
func (r *Registry) Profiles() []*Profile {
	keys := r.Keys()
	out := make([]*Profile, 0, len(keys))
	for _, k := range keys {
		out = append(out, r.profiles[k])
	}
	return out
}

// Validate checks the fields a build cannot proceed without.
// Recoverable oddities are returned as warnings.
func Validate(p *Profile) (warnings []string, err error) {
	if p.Key == "" {
		return nil, errors.ErrInvalidProfile.WithMessage("Project key must not be empty")
	}
	if p.Defconfig == "" {
		return nil, errors.ErrInvalidProfile.WithMessagef("Project %s has no defconfig", p.Key)
	}

	if p.LTO != "" && p.LTOMode() == LTONone {
		warnings = append(warnings, fmt.Sprintf("unknown lto mode %q is ignored", p.LTO))
	}
	if p.VersionMethodRaw != "" && VersionMethod(p.VersionMethodRaw) != p.VersionMethod() {
		warnings = append(warnings, fmt.Sprintf("unknown version_method %q, using param", p.VersionMethodRaw))
	}
	if p.Repo == "" {
		warnings = append(warnings, "no release repository configured")
	}
	return warnings, nil
}
