package build

import "fmt"

// Default integration sources
const (
	DefaultKSUSetupURL      = "https://raw.githubusercontent.com/tiann/KernelSU/main/kernel/setup.sh"
	DefaultMKSUSetupURL     = "https://raw.githubusercontent.com/5ec1cff/KernelSU/main/kernel/setup.sh"
	DefaultReSukiSUSetupURL = "https://raw.githubusercontent.com/ReSukiSU/ReSukiSU/main/kernel/setup.sh"
	DefaultWildKSUSetupURL  = "https://raw.githubusercontent.com/WildKernels/Wild_KSU/wild/kernel/setup.sh"

	DefaultSusfsRepo   = "https://gitlab.com/simonpunk/susfs4ksu.git"
	DefaultSusfsBranch = "gki-android13-5.15"

	DefaultManualHookURL = "https://github.com/SukiSU-Ultra/SukiSU_patch/raw/83aa64b7548890bb1f2eff6c990c03a1802df27b/hooks/scope_min_manual_hooks_v1.6.patch"
)

// SetupScript is a remote installer run as "bash -s <Arg>" in the source tree
type SetupScript struct {
	URL string `mapstructure:"url"`
	Arg string `mapstructure:"arg"`
}

// IntegrationSources holds every URL, branch and patch name used by the
// variant integrations.
type IntegrationSources struct {
	KSU      SetupScript `mapstructure:"ksu"`
	MKSU     SetupScript `mapstructure:"mksu"`
	ReSukiSU SetupScript `mapstructure:"resukisu"`
	WildKSU  SetupScript `mapstructure:"wildksu"`

	SusfsRepo     string `mapstructure:"susfs_repo"`
	SusfsBranch   string `mapstructure:"susfs_branch"`
	ManualHookURL string `mapstructure:"manual_hook_url"`
}

// DefaultSources returns the stock integration sources
func DefaultSources() IntegrationSources {
	return IntegrationSources{
		KSU:           SetupScript{URL: DefaultKSUSetupURL, Arg: "-"},
		MKSU:          SetupScript{URL: DefaultMKSUSetupURL, Arg: "-"},
		ReSukiSU:      SetupScript{URL: DefaultReSukiSUSetupURL, Arg: "builtin"},
		WildKSU:       SetupScript{URL: DefaultWildKSUSetupURL, Arg: "wild"},
		SusfsRepo:     DefaultSusfsRepo,
		SusfsBranch:   DefaultSusfsBranch,
		ManualHookURL: DefaultManualHookURL,
	}
}

// SusfsPatchName returns the susfs kernel patch for the configured branch
func (s IntegrationSources) SusfsPatchName() string {
	return fmt.Sprintf("50_add_susfs_in_%s.patch", s.SusfsBranch)
}

// withDefaults fills empty fields from DefaultSources
func (s IntegrationSources) withDefaults() IntegrationSources {
	d := DefaultSources()
	fill := func(dst *SetupScript, def SetupScript) {
		if dst.URL == "" {
			dst.URL = def.URL
		}
		if dst.Arg == "" {
			dst.Arg = def.Arg
		}
	}
	fill(&s.KSU, d.KSU)
	fill(&s.MKSU, d.MKSU)
	fill(&s.ReSukiSU, d.ReSukiSU)
	fill(&s.WildKSU, d.WildKSU)
	if s.SusfsRepo == "" {
		s.SusfsRepo = d.SusfsRepo
	}
	if s.SusfsBranch == "" {
		s.SusfsBranch = d.SusfsBranch
	}
	if s.ManualHookURL == "" {
		s.ManualHookURL = d.ManualHookURL
	}
	return s
}
