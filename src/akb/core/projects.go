package core

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/bitswalk/akb/src/akb/output"
	"github.com/bitswalk/akb/src/akb/profile"
)

var projectsCmd = &cobra.Command{
	Use:     "projects [key]",
	Aliases: []string{"project"},
	Short:   "List the projects of the registry",
	Args:    cobra.MaximumNArgs(1),
	RunE:    runProjects,
}

func runProjects(cmd *cobra.Command, args []string) error {
	reg, err := loadRegistry()
	if err != nil {
		return err
	}

	if len(args) == 1 {
		p, err := reg.Lookup(args[0])
		if err != nil {
			return err
		}
		return printProject(p)
	}

	profiles := reg.Profiles()
	return output.Print(getOutputFormat(), profiles, func() {
		if len(profiles) == 0 {
			output.PrintMessage("No projects found.")
			return
		}
		rows := make([][]string, len(profiles))
		for i, p := range profiles {
			rows[i] = []string{p.Key, p.Defconfig, p.TargetSoC(), string(p.LTOMode()), string(p.VersionMethod()), p.Repo}
		}
		output.PrintTable([]string{"KEY", "DEFCONFIG", "SOC", "LTO", "VERSION", "REPO"}, rows)
	})
}

func printProject(p *profile.Profile) error {
	return output.Print(getOutputFormat(), p, func() {
		exports := "-"
		if e, ok := p.PathExports(); ok {
			exports = strings.Join(e, ":")
		}
		output.PrintTable(
			[]string{"FIELD", "VALUE"},
			[][]string{
				{"Key", p.Key},
				{"Defconfig", p.Defconfig},
				{"Target SoC", p.TargetSoC()},
				{"Toolchain URLs", strings.Join(p.ToolchainURLs, ", ")},
				{"Toolchain Prefix", p.ToolchainPathPrefix},
				{"Path Exports", exports},
				{"Disable Security", strings.Join(p.DisableSecurity, ", ")},
				{"LTO", string(p.LTOMode())},
				{"Localversion Base", p.LocalversionBase},
				{"Version Method", string(p.VersionMethod())},
				{"AnyKernel3", p.AnyKernelRepo() + " (" + p.AnyKernelBranch() + ")"},
				{"Zip Prefix", p.ZipPrefix()},
				{"Repo", p.Repo},
			},
		)
	})
}
