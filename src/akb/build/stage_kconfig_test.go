package build

import (
	"context"
	"reflect"
	"strings"
	"testing"

	"github.com/bitswalk/akb/src/akb/kconfig"
	"github.com/bitswalk/akb/src/common/errors"
)

func TestConfigSteps(t *testing.T) {
	baseline := strings.Join(baselineDisables, ",")

	tests := []struct {
		name   string
		branch string
		lto    string
		secure []string
		want   []string
	}{
		{
			name:   "baseline only",
			branch: "ksu",
			want:   []string{"disable:" + baseline},
		},
		{
			name:   "profile security options follow baseline",
			branch: "main",
			secure: []string{"SAMSUNG_FREECESS"},
			want:   []string{"disable:" + baseline + ",SAMSUNG_FREECESS"},
		},
		{
			name:   "wildksu enables come first",
			branch: "wildksu",
			want: []string{
				"enable:CONFIG_KSU_MANUAL_HOOK",
				"enable:CONFIG_SUSFS",
				"disable:" + baseline + ",KSU_KPROBES_HOOK,KSU_SUSFS_SUS_SU",
			},
		},
		{
			name:   "thin lto",
			branch: "ksu",
			lto:    "thin",
			want:   []string{"disable:" + baseline, "enable:LTO_CLANG_THIN,disable:LTO_CLANG_FULL"},
		},
		{
			name:   "full lto",
			branch: "ksu",
			lto:    "full",
			want:   []string{"disable:" + baseline, "enable:LTO_CLANG_FULL,disable:LTO_CLANG_THIN"},
		},
		{
			name:   "unknown lto is ignored",
			branch: "ksu",
			lto:    "fat",
			want:   []string{"disable:" + baseline},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := testProfile()
			p.LTO = tt.lto
			p.DisableSecurity = tt.secure

			var got []string
			for _, step := range ConfigSteps(p, ParseVariant(tt.branch)) {
				got = append(got, renderStep(step))
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ConfigSteps() =\n%v\nwant\n%v", got, tt.want)
			}
		})
	}
}

// renderStep groups consecutive directives of one op: "enable:A,B,disable:C"
func renderStep(ds []kconfig.Directive) string {
	var b strings.Builder
	for i, d := range ds {
		switch {
		case i == 0:
			b.WriteString(d.Op.String() + ":")
		case d.Op != ds[i-1].Op:
			b.WriteString("," + d.Op.String() + ":")
		default:
			b.WriteString(",")
		}
		b.WriteString(d.Option)
	}
	return b.String()
}

func TestKconfigStage_ScriptsConfig(t *testing.T) {
	p := testProfile()
	p.LTO = "thin"
	sc := newTestContext(t, p, "wildksu")
	writeFile(t, sc.SourcePath(KernelConfigPath), "CONFIG_UH=y\n")
	writeFile(t, sc.SourcePath(ScriptsConfigPath), "#!/bin/sh\n")
	r := &fakeRunner{}

	stage := NewKconfigStage(r)
	if err := stage.Validate(context.Background(), sc); err != nil {
		t.Fatal(err)
	}
	if err := stage.Execute(context.Background(), sc, noProgress); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if len(r.calls) != 4 {
		t.Fatalf("calls = %d, want 4:\n%s", len(r.calls), strings.Join(r.lines(), "\n"))
	}
	for _, c := range r.calls {
		if c.Cmd.Name != sc.SourcePath(ScriptsConfigPath) || c.Cmd.Dir != sc.SourceDir {
			t.Errorf("call %s in %s", c.Cmd.Name, c.Cmd.Dir)
		}
		if !reflect.DeepEqual(c.Cmd.Args[:2], []string{"--file", "out/.config"}) {
			t.Errorf("args = %v", c.Cmd.Args)
		}
		if len(c.Cmd.Env) != 0 {
			t.Errorf("scripts/config must run without overlay, got %v", c.Cmd.Env)
		}
	}
	if got := r.calls[0].Cmd.Args[2:]; !reflect.DeepEqual(got, []string{"--enable", "CONFIG_KSU_MANUAL_HOOK"}) {
		t.Errorf("first step = %v", got)
	}
	if got := r.calls[3].Cmd.Args[2:]; !reflect.DeepEqual(got, []string{"--enable", "LTO_CLANG_THIN", "--disable", "LTO_CLANG_FULL"}) {
		t.Errorf("lto step = %v", got)
	}
}

func TestKconfigStage_Native(t *testing.T) {
	sc := newTestContext(t, testProfile(), "wildksu")
	writeFile(t, sc.SourcePath(KernelConfigPath), strings.Join([]string{
		"CONFIG_KSU=y",
		"CONFIG_KSU_KPROBES_HOOK=y",
		"# CONFIG_SUSFS is not set",
		"CONFIG_RKP=y",
		"CONFIG_HZ=250",
		"",
	}, "\n"))
	r := &fakeRunner{}

	if err := NewKconfigStage(r).Execute(context.Background(), sc, noProgress); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(r.calls) != 0 {
		t.Errorf("unexpected commands %v", r.lines())
	}

	cfg, err := kconfig.Load(sc.SourcePath(KernelConfigPath))
	if err != nil {
		t.Fatal(err)
	}
	for _, on := range []string{"KSU", "KSU_MANUAL_HOOK", "SUSFS"} {
		if !cfg.Enabled(on) {
			t.Errorf("%s should be enabled", on)
		}
	}
	for _, off := range []string{"KSU_KPROBES_HOOK", "KSU_SUSFS_SUS_SU", "RKP", "UH"} {
		if cfg.Enabled(off) {
			t.Errorf("%s should be disabled", off)
		}
	}
	if v, _ := cfg.Value("HZ"); v != "250" {
		t.Errorf("HZ = %q", v)
	}
}

func TestKconfigStage_MissingConfig(t *testing.T) {
	sc := newTestContext(t, testProfile(), "ksu")
	err := NewKconfigStage(&fakeRunner{}).Validate(context.Background(), sc)
	if !errors.Is(err, errors.ErrArtifactMissing) {
		t.Errorf("Validate() error = %v, want ErrArtifactMissing", err)
	}
}

func TestKconfigStage_ScriptFailureStops(t *testing.T) {
	sc := newTestContext(t, testProfile(), "wildksu")
	writeFile(t, sc.SourcePath(KernelConfigPath), "")
	writeFile(t, sc.SourcePath(ScriptsConfigPath), "#!/bin/sh\n")
	r := &fakeRunner{handler: func(call) (string, error) { return "", errors.ErrProcessFailed }}

	if err := NewKconfigStage(r).Execute(context.Background(), sc, noProgress); !errors.Is(err, errors.ErrProcessFailed) {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(r.calls) != 1 {
		t.Errorf("calls = %d, want 1", len(r.calls))
	}
}
