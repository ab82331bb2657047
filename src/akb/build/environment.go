package build

import (
	"context"
	"path/filepath"

	"github.com/bitswalk/akb/src/akb/profile"
	"github.com/bitswalk/akb/src/akb/runner"
)

// Cross-compilation settings shared by every arm64 build
const (
	targetArch         = "arm64"
	clangTriple        = "aarch64-linux-gnu-"
	crossCompile       = "aarch64-linux-gnu-"
	crossCompileCompat = "arm-linux-gnueabi-"
	ccacheMaxSize      = "5G"
)

// Host toolchain layout below the toolchain root, used by extra_host_env
const (
	kernelBuildToolsDir = "kernel-build-tools/linux-x86"
	hostSysrootDir      = "gcc/linux-x86/host/x86_64-linux-glibc2.17-4.8/sysroot"
)

// ComposeEnvironment derives the make environment of a profile.
// getenv reads the inherited environment; the result only holds the
// variables that are overlaid on it.
func ComposeEnvironment(p *profile.Profile, workDir string, getenv func(string) string) map[string]string {
	root := filepath.Join(workDir, p.ToolchainPathPrefix)

	path := getenv("PATH")
	if exports, ok := p.PathExports(); ok {
		for _, e := range exports {
			path = filepath.Join(root, e) + ":" + path
		}
	} else if p.ToolchainPathPrefix != "" {
		path = filepath.Join(root, "bin") + ":" + path
	}

	env := map[string]string{
		"PATH":                 path,
		"ARCH":                 targetArch,
		"CLANG_TRIPLE":         clangTriple,
		"CROSS_COMPILE":        crossCompile,
		"CROSS_COMPILE_COMPAT": crossCompileCompat,
	}

	if p.ExtraHostEnv {
		kbt := filepath.Join(root, kernelBuildToolsDir)
		sysroot := "--sysroot=" + filepath.Join(root, hostSysrootDir) + " "

		env["LD_LIBRARY_PATH"] = getenv("LD_LIBRARY_PATH") + ":" + kbt + "/lib64"
		env["HOSTCFLAGS"] = sysroot + "-I" + kbt + "/include "
		env["HOSTLDFLAGS"] = sysroot + "-L " + kbt + "/lib64 -fuse-ld=lld --rtlib=compiler-rt"
	}

	return env
}

// BaseMakeArgs returns the make arguments every invocation starts with
func BaseMakeArgs(p *profile.Profile) []string {
	return []string{
		"O=out",
		"ARCH=" + targetArch,
		"LLVM=1",
		"LLVM_IAS=1",
		"TARGET_SOC=" + p.TargetSoC(),
	}
}

// EnvironmentStage composes the build environment and base make arguments,
// enabling ccache when it is installed.
//
// Reads: Project, WorkDir. Writes: Env, MakeArgs.
type EnvironmentStage struct {
	runner runner.Runner
	getenv func(string) string
}

// NewEnvironmentStage creates a new environment stage
func NewEnvironmentStage(r runner.Runner, getenv func(string) string) *EnvironmentStage {
	return &EnvironmentStage{runner: r, getenv: getenv}
}

// Name returns the stage name
func (s *EnvironmentStage) Name() StageName {
	return StageEnvironment
}

// Validate checks whether this stage can run
func (s *EnvironmentStage) Validate(ctx context.Context, sc *StageContext) error {
	return nil
}

// Execute composes the environment
func (s *EnvironmentStage) Execute(ctx context.Context, sc *StageContext, progress ProgressFunc) error {
	sc.Env = ComposeEnvironment(sc.Project, sc.WorkDir, s.getenv)
	sc.MakeArgs = BaseMakeArgs(sc.Project)

	if _, err := s.runner.LookPath("ccache"); err != nil {
		sc.MakeArgs = append(sc.MakeArgs, "CC=clang")
		log.Info("Build environment ready", "path", sc.Env["PATH"], "ccache", false)
		progress(100, "Environment composed")
		return nil
	}

	sc.Env["CC"] = "ccache clang"
	sc.Env["CXX"] = "ccache clang++"
	sc.Env["CCACHE_DIR"] = sc.Path(CCacheDirName)

	if _, err := s.runner.Run(ctx, runner.Cmd{
		Name: "ccache",
		Args: []string{"-M", ccacheMaxSize},
		Env:  map[string]string{"CCACHE_DIR": sc.Env["CCACHE_DIR"]},
	}); err != nil {
		return err
	}
	sc.MakeArgs = append(sc.MakeArgs, "CC=ccache clang")

	log.Info("Build environment ready", "path", sc.Env["PATH"], "ccache", true, "ccache_dir", sc.Env["CCACHE_DIR"])
	progress(100, "Environment composed")
	return nil
}
