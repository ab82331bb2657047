package build

import "testing"

func TestParseVariant(t *testing.T) {
	tests := []struct {
		branch string
		kind   VariantKind
		suffix string
	}{
		{"main", VariantLKM, "LKM"},
		{"lkm", VariantLKM, "LKM"},
		{"ksu", VariantKSU, "KSU"},
		{"mksu", VariantMKSU, "MKSU"},
		{"resukisu", VariantReSukiSU, "ReSuki"},
		{"sukisuultra", VariantReSukiSU, "ReSuki"},
		{"wildksu", VariantWildKSU, "WildKSU"},
		{"experimental", VariantNone, "EXPERIMENTAL"},
		{"KSU", VariantNone, "KSU"},
	}

	for _, tt := range tests {
		t.Run(tt.branch, func(t *testing.T) {
			v := ParseVariant(tt.branch)
			if v.Kind != tt.kind {
				t.Errorf("Kind = %q, want %q", v.Kind, tt.kind)
			}
			if v.Suffix() != tt.suffix {
				t.Errorf("Suffix() = %q, want %q", v.Suffix(), tt.suffix)
			}
			if v.Branch != tt.branch {
				t.Errorf("Branch = %q", v.Branch)
			}
		})
	}
}

func TestIntegrationsCoverEveryKind(t *testing.T) {
	kinds := []VariantKind{VariantNone, VariantKSU, VariantMKSU, VariantReSukiSU, VariantWildKSU, VariantLKM}
	for _, k := range kinds {
		if _, ok := integrations[k]; !ok {
			t.Errorf("no integration for %q", k)
		}
	}
	for _, m := range Branches() {
		if _, ok := integrations[m.Kind]; !ok {
			t.Errorf("branch %q maps to unregistered kind %q", m.Branch, m.Kind)
		}
	}
}

func TestIdentifier(t *testing.T) {
	got := Identifier("-android15-8-Yuzaki", ParseVariant("mksu"))
	if got != "-android15-8-Yuzaki-MKSU" {
		t.Errorf("Identifier() = %q", got)
	}
}

func TestBranches_ReturnsCopy(t *testing.T) {
	b := Branches()
	b[0].Suffix = "changed"
	if ParseVariant(b[0].Branch).Suffix() == "changed" {
		t.Error("Branches() must not expose the table")
	}
}
