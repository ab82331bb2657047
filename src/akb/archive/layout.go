// Package archive unpacks toolchain archives, including split archives
// published in numeric or alphabetic parts, and writes flashable zips.
package archive

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Convention identifies how a set of downloaded files forms archives
type Convention string

const (
	// ConventionNone means no recognizable archive was downloaded
	ConventionNone Convention = "none"
	// ConventionNumericSplit is *.tar.gz.1, *.tar.gz.2, ...
	ConventionNumericSplit Convention = "numeric-split"
	// ConventionAlphaSplit is the *part_aa, *_aa.tar.gz, *.tar.gz.aa and
	// *_aa families
	ConventionAlphaSplit Convention = "alpha-split"
	// ConventionIndependent is one or more standalone tarballs
	ConventionIndependent Convention = "independent"
)

// Plan lists the archive streams to extract. Each group is one stream:
// its members are concatenated in order before decompression.
type Plan struct {
	Convention Convention
	Groups     [][]string
}

var numericSplit = regexp.MustCompile(`^(.*\.tar\.gz)\.([0-9]+)$`)

// alphaMarkers are the first-part spellings that select the alphabetic
// convention. The "aa" in each marker is the part counter. A bare "_aa"
// only counts at the end of a name.
var alphaMarkers = []string{"part_aa", "_aa.tar.gz", ".tar.gz.aa", "_aa"}

// Detect picks the first matching convention for the given file names
func Detect(names []string) Plan {
	if groups := numericGroups(names); len(groups) > 0 {
		return Plan{Convention: ConventionNumericSplit, Groups: groups}
	}
	if groups := alphaGroups(names); len(groups) > 0 {
		return Plan{Convention: ConventionAlphaSplit, Groups: groups}
	}

	var groups [][]string
	for _, name := range sorted(names) {
		if IsTarball(name) {
			groups = append(groups, []string{name})
		}
	}
	if len(groups) > 0 {
		return Plan{Convention: ConventionIndependent, Groups: groups}
	}
	return Plan{Convention: ConventionNone}
}

// IsTarball reports whether name is a standalone compressed tarball
func IsTarball(name string) bool {
	return strings.HasSuffix(name, ".tar.gz") ||
		strings.HasSuffix(name, ".tgz") ||
		strings.HasSuffix(name, ".tar.xz") ||
		strings.HasSuffix(name, ".txz")
}

// numericGroups groups numeric splits by base name and sorts each group by
// part number, so .10 follows .9.
func numericGroups(names []string) [][]string {
	type part struct {
		name string
		n    int
	}
	byBase := make(map[string][]part)
	for _, name := range names {
		m := numericSplit.FindStringSubmatch(name)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[2])
		if err != nil {
			continue
		}
		byBase[m[1]] = append(byBase[m[1]], part{name: name, n: n})
	}

	bases := make([]string, 0, len(byBase))
	for b := range byBase {
		bases = append(bases, b)
	}
	sort.Strings(bases)

	var groups [][]string
	for _, b := range bases {
		parts := byBase[b]
		sort.Slice(parts, func(i, j int) bool { return parts[i].n < parts[j].n })
		group := make([]string, len(parts))
		for i, p := range parts {
			group[i] = p.name
		}
		groups = append(groups, group)
	}
	return groups
}

// alphaGroups finds every first part ("aa") and collects the parts that
// differ from it only in the two-letter counter, in lexical order.
func alphaGroups(names []string) [][]string {
	var groups [][]string
	seen := make(map[string]bool)

	for _, first := range sorted(names) {
		for _, marker := range alphaMarkers {
			idx := strings.LastIndex(first, marker)
			if idx < 0 || (marker == "_aa" && !strings.HasSuffix(first, marker)) {
				continue
			}
			counter := idx + strings.Index(marker, "aa")
			prefix, suffix := first[:counter], first[counter+2:]
			if seen[prefix+"\x00"+suffix] {
				break
			}
			seen[prefix+"\x00"+suffix] = true

			var group []string
			for _, name := range sorted(names) {
				if isAlphaPart(name, prefix, suffix) {
					group = append(group, name)
				}
			}
			groups = append(groups, group)
			break
		}
	}
	return groups
}

func isAlphaPart(name, prefix, suffix string) bool {
	if len(name) != len(prefix)+2+len(suffix) {
		return false
	}
	if !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, suffix) {
		return false
	}
	c := name[len(prefix) : len(prefix)+2]
	return c[0] >= 'a' && c[0] <= 'z' && c[1] >= 'a' && c[1] <= 'z'
}

func sorted(names []string) []string {
	out := append([]string(nil), names...)
	sort.Strings(out)
	return out
}
