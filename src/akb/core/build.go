package core

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bitswalk/akb/src/akb/build"
	"github.com/bitswalk/akb/src/akb/output"
	"github.com/bitswalk/akb/src/akb/profile"
)

// BuildSummary is printed after a successful build
type BuildSummary struct {
	RunID           string `json:"run_id"`
	Project         string `json:"project"`
	Branch          string `json:"branch"`
	Variant         string `json:"variant"`
	KernelVersion   string `json:"kernel_version"`
	Commit          string `json:"commit"`
	Localversion    string `json:"localversion"`
	Archive         string `json:"archive"`
	ArchiveChecksum string `json:"archive_sha256"`
	ArchiveSize     int64  `json:"archive_size"`
	StorageKey      string `json:"storage_key,omitempty"`
	ReleaseTag      string `json:"release_tag,omitempty"`
	ReleaseURL      string `json:"release_url,omitempty"`
}

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build a kernel for a project",
	Long: `Builds the kernel in <workdir>/kernel_source for the given project.

The branch label selects the root solution: main/lkm, ksu, mksu,
resukisu/sukisuultra or wildksu. Any other label builds without one.
With --release the archive is published as a GitHub release.`,
	Args: cobra.NoArgs,
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().StringP("project", "p", "", "Project key in the registry")
	buildCmd.Flags().StringP("branch", "b", build.DefaultBranch, "Variant branch label")
	buildCmd.Flags().Bool("release", false, "Publish a release and send a notification")
	_ = buildCmd.MarkFlagRequired("project")

	_ = buildCmd.RegisterFlagCompletionFunc("branch", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		var labels []string
		for _, m := range build.Branches() {
			labels = append(labels, m.Branch)
		}
		return labels, cobra.ShellCompDirectiveNoFileComp
	})
}

func runBuild(cmd *cobra.Command, args []string) error {
	key, _ := cmd.Flags().GetString("project")
	branch, _ := cmd.Flags().GetString("branch")
	release, _ := cmd.Flags().GetBool("release")

	reg, err := loadRegistry()
	if err != nil {
		return err
	}
	p, err := reg.Lookup(key)
	if err != nil {
		return err
	}
	warnings, err := profile.Validate(p)
	if err != nil {
		return err
	}
	for _, w := range warnings {
		log.Warn("Project profile", "project", p.Key, "warning", w)
	}

	deps, closeDeps, err := pipelineDeps()
	if err != nil {
		return err
	}
	defer closeDeps()

	pipeline, err := build.NewPipeline(deps)
	if err != nil {
		return err
	}

	sc, err := pipeline.Run(cmd.Context(), build.Request{
		Project: p,
		Branch:  branch,
		Release: release,
		WorkDir: viper.GetString("workdir"),
	})
	if err != nil {
		return err
	}

	summary := BuildSummary{
		RunID:           sc.RunID,
		Project:         sc.Project.Key,
		Branch:          sc.Branch,
		Variant:         sc.Variant.Suffix(),
		KernelVersion:   sc.KernelVersion,
		Commit:          sc.CommitHash,
		Localversion:    sc.Localversion,
		Archive:         sc.ArchivePath,
		ArchiveChecksum: sc.ArchiveChecksum,
		ArchiveSize:     sc.ArchiveSize,
		StorageKey:      sc.StorageKey,
		ReleaseTag:      sc.ReleaseTag,
		ReleaseURL:      sc.ReleaseURL,
	}

	switch getOutputFormat() {
	case output.FormatJSON:
		return output.PrintJSON(summary)
	case output.FormatYAML:
		return output.PrintYAML(summary)
	default:
		rows := [][]string{
			{"Run ID", summary.RunID},
			{"Project", summary.Project},
			{"Variant", fmt.Sprintf("%s (%s)", summary.Variant, summary.Branch)},
			{"Kernel", summary.KernelVersion},
			{"Commit", summary.Commit},
			{"Localversion", summary.Localversion},
			{"Archive", summary.Archive},
			{"SHA256", summary.ArchiveChecksum},
			{"Size", fmt.Sprintf("%d", summary.ArchiveSize)},
		}
		if summary.StorageKey != "" {
			rows = append(rows, []string{"Stored As", summary.StorageKey})
		}
		if summary.ReleaseTag != "" {
			rows = append(rows, []string{"Release", summary.ReleaseTag}, []string{"Release URL", summary.ReleaseURL})
		}
		output.PrintTable([]string{"FIELD", "VALUE"}, rows)
		return nil
	}
}
