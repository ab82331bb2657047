package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func TestInitConfig_File(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	path := filepath.Join(t.TempDir(), "akb.yaml")
	if err := os.WriteFile(path, []byte("release:\n  method: gh\nstorage:\n  type: local\n"), 0644); err != nil {
		t.Fatal(err)
	}

	opts := DefaultConfigOptions("akb", "AKBTEST")
	opts.ConfigFile = path
	if err := InitConfig(opts); err != nil {
		t.Fatalf("InitConfig() error = %v", err)
	}
	if viper.GetString("release.method") != "gh" || viper.GetString("storage.type") != "local" {
		t.Errorf("config not loaded: %v", viper.AllSettings())
	}

	t.Setenv("AKBTEST_STORAGE_TYPE", "s3")
	if got := viper.GetString("storage.type"); got != "s3" {
		t.Errorf("env override = %q, want s3", got)
	}
}

func TestInitConfig_NoFile(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	opts := DefaultConfigOptions("akb-missing", "AKBTEST")
	opts.SearchPaths = []string{t.TempDir()}
	if err := InitConfig(opts); err != nil {
		t.Errorf("missing config file should not fail: %v", err)
	}
}

func TestInitConfig_Invalid(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	path := filepath.Join(t.TempDir(), "akb.yaml")
	if err := os.WriteFile(path, []byte("release: [unterminated\n"), 0644); err != nil {
		t.Fatal(err)
	}
	opts := DefaultConfigOptions("akb", "AKBTEST")
	opts.ConfigFile = path
	if err := InitConfig(opts); err == nil {
		t.Error("expected error for malformed config")
	}
}

func TestGetFirstString(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	t.Setenv("AKBTEST_FALLBACK", "")
	t.Setenv("AKBTEST_TOKEN", "from-env")

	if got := GetFirstString("release.token", "AKBTEST_FALLBACK", "AKBTEST_TOKEN"); got != "from-env" {
		t.Errorf("GetFirstString() = %q, want from-env", got)
	}

	viper.Set("release.token", "from-config")
	if got := GetFirstString("release.token", "AKBTEST_TOKEN"); got != "from-config" {
		t.Errorf("GetFirstString() = %q, want from-config", got)
	}

	if got := GetFirstString("nothing.here"); got != "" {
		t.Errorf("GetFirstString() = %q, want empty", got)
	}
}

func TestRegisterLogFlags(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	cmd := &cobra.Command{Use: "x", RunE: func(*cobra.Command, []string) error { return nil }}
	RegisterLogFlags(cmd)
	cmd.SetArgs([]string{"--log-level", "debug", "--log-format", "json"})
	if err := cmd.Execute(); err != nil {
		t.Fatal(err)
	}

	if viper.GetString("log.level") != "debug" || viper.GetString("log.format") != "json" {
		t.Errorf("flags not bound: level=%q format=%q", viper.GetString("log.level"), viper.GetString("log.format"))
	}
	if viper.GetString("log.output") != "stderr" {
		t.Errorf("log.output default = %q", viper.GetString("log.output"))
	}

	l := InitLogger("akb")
	if l.Output() != "stderr" {
		t.Errorf("Output() = %q", l.Output())
	}
}

func TestGetExpandedString(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	t.Setenv("AKBTEST_DIR", "/srv/akb")
	viper.Set("projects.file", "$AKBTEST_DIR/projects.json")
	if got := GetExpandedString("projects.file"); got != "/srv/akb/projects.json" {
		t.Errorf("GetExpandedString() = %q", got)
	}
}
