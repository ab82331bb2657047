// Package core provides the akb command tree.
package core

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bitswalk/akb/src/akb/archive"
	"github.com/bitswalk/akb/src/akb/build"
	"github.com/bitswalk/akb/src/akb/db/migrations"
	"github.com/bitswalk/akb/src/akb/download"
	"github.com/bitswalk/akb/src/akb/forge"
	"github.com/bitswalk/akb/src/akb/gitrepo"
	"github.com/bitswalk/akb/src/akb/notify"
	"github.com/bitswalk/akb/src/akb/output"
	"github.com/bitswalk/akb/src/akb/profile"
	"github.com/bitswalk/akb/src/akb/runner"
	"github.com/bitswalk/akb/src/common/cli"
	"github.com/bitswalk/akb/src/common/errors"
	"github.com/bitswalk/akb/src/common/logs"
	"github.com/bitswalk/akb/src/common/version"
)

var (
	// VersionInfo holds version information - set at build time via ldflags
	VersionInfo = version.New()

	// Global logger instance
	log = logs.NewDefault()

	// Configuration file path
	cfgFile string

	// Output format (table, json or yaml)
	outputFormat string
)

// Linker variables - set via ldflags at build time
var (
	Version        = "dev"
	ReleaseVersion = "0.0.0"
	BuildDate      = "unknown"
	GitCommit      = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "akb",
	Short: "Android kernel build orchestrator",
	Long: `akb builds Android kernels from a prepared kernel_source tree.

It provisions the toolchain, integrates the root solution selected by the
branch label, configures and compiles the kernel, packages the image into
an AnyKernel3 flashable zip and optionally publishes a release.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if !output.ValidFormat(outputFormat) {
			return errors.ErrInvalidSetting.WithMessagef("Unknown output format %q (table, json, yaml)", outputFormat)
		}
		return initConfig()
	},
}

// Execute runs the root command and exits with the error's exit code
func Execute() {
	VersionInfo.Version = Version
	VersionInfo.ReleaseVersion = ReleaseVersion
	VersionInfo.BuildDate = BuildDate
	VersionInfo.GitCommit = GitCommit
	VersionInfo.FillFromBuildInfo()
	download.UserAgent = VersionInfo.UserAgent()

	err := rootCmd.Execute()
	_ = log.Close()
	if err != nil {
		output.PrintFailure(outputFormat, err)
		os.Exit(errors.GetExitCode(err))
	}
}

func init() {
	cli.RegisterConfigFlag(rootCmd, &cfgFile, "~/.akb/akb.yaml")

	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", output.FormatTable, "Output format: table, json, yaml")
	rootCmd.PersistentFlags().StringP("workdir", "w", ".", "Working directory holding kernel_source")
	rootCmd.PersistentFlags().String("projects", "projects.json", "Project registry file")

	cli.RegisterLogFlags(rootCmd)

	_ = cli.BindPersistentFlag(rootCmd, "workdir", "workdir")
	_ = cli.BindPersistentFlag(rootCmd, "projects", "projects.file")

	viper.SetDefault("workdir", ".")
	viper.SetDefault("projects.file", "projects.json")

	viper.SetDefault("storage.type", "none")
	viper.SetDefault("storage.local.path", "~/.akb/artifacts")
	viper.SetDefault("storage.s3.region", "us-east-1")
	viper.SetDefault("storage.s3.path_style", true)

	viper.SetDefault("release.method", releaseMethodAPI)

	viper.SetDefault("notify.type", string(notify.TypeLog))
	viper.SetDefault("notify.timeout", "30s")

	viper.SetDefault("history.enabled", true)
	viper.SetDefault("history.path", "~/.akb/history.db")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(projectsCmd)
	rootCmd.AddCommand(variantsCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(notifyCmd)

	_ = rootCmd.RegisterFlagCompletionFunc("output", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{output.FormatTable, output.FormatJSON, output.FormatYAML}, cobra.ShellCompDirectiveNoFileComp
	})
}

// initConfig reads in config file and ENV variables if set
func initConfig() error {
	opts := cli.DefaultConfigOptions("akb", "AKB")
	opts.ConfigFile = cfgFile

	if err := cli.InitConfig(opts); err != nil {
		return errors.ErrInvalidSetting.WithMessage("Failed to load configuration").WithCause(err)
	}

	_ = log.Close()
	log = cli.InitLogger("akb")
	setLoggers(log)

	if used := viper.ConfigFileUsed(); used != "" {
		log.Debug("Loaded configuration", "file", used)
	}

	return nil
}

// setLoggers hands the configured logger to every package that logs
func setLoggers(l *logs.Logger) {
	archive.SetLogger(l)
	build.SetLogger(l)
	download.SetLogger(l)
	forge.SetLogger(l)
	gitrepo.SetLogger(l)
	migrations.SetLogger(l)
	notify.SetLogger(l)
	profile.SetLogger(l)
	runner.SetLogger(l)
}

// getOutputFormat returns the current output format
func getOutputFormat() string {
	return outputFormat
}
