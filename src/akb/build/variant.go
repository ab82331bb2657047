package build

import "strings"

// VariantKind is the closed set of privilege-elevation integrations
type VariantKind string

const (
	VariantNone     VariantKind = "none"
	VariantKSU      VariantKind = "ksu"
	VariantMKSU     VariantKind = "mksu"
	VariantReSukiSU VariantKind = "resukisu"
	VariantWildKSU  VariantKind = "wildksu"
	VariantLKM      VariantKind = "lkm"
)

// DefaultBranch is the branch label used when none is given
const DefaultBranch = "main"

// Variant is a branch label resolved to its kind
type Variant struct {
	Kind   VariantKind
	Branch string
	suffix string
}

// Suffix returns the label used in the localversion, archive and release names
func (v Variant) Suffix() string {
	return v.suffix
}

// BranchMapping is one row of the branch table
type BranchMapping struct {
	Branch string      `json:"branch" yaml:"branch"`
	Kind   VariantKind `json:"kind" yaml:"kind"`
	Suffix string      `json:"suffix" yaml:"suffix"`
}

var branchTable = []BranchMapping{
	{Branch: "main", Kind: VariantLKM, Suffix: "LKM"},
	{Branch: "lkm", Kind: VariantLKM, Suffix: "LKM"},
	{Branch: "ksu", Kind: VariantKSU, Suffix: "KSU"},
	{Branch: "mksu", Kind: VariantMKSU, Suffix: "MKSU"},
	{Branch: "resukisu", Kind: VariantReSukiSU, Suffix: "ReSuki"},
	{Branch: "sukisuultra", Kind: VariantReSukiSU, Suffix: "ReSuki"},
	{Branch: "wildksu", Kind: VariantWildKSU, Suffix: "WildKSU"},
}

// Branches returns the known branch labels in table order
func Branches() []BranchMapping {
	out := make([]BranchMapping, len(branchTable))
	copy(out, branchTable)
	return out
}

// ParseVariant resolves a branch label. Unknown labels are kind none with
// the upper-cased label as suffix.
func ParseVariant(branch string) Variant {
	for _, m := range branchTable {
		if m.Branch == branch {
			return Variant{Kind: m.Kind, Branch: branch, suffix: m.Suffix}
		}
	}
	return Variant{Kind: VariantNone, Branch: branch, suffix: strings.ToUpper(branch)}
}
