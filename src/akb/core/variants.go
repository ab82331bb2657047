package core

import (
	"github.com/spf13/cobra"

	"github.com/bitswalk/akb/src/akb/build"
	"github.com/bitswalk/akb/src/akb/output"
)

var variantsCmd = &cobra.Command{
	Use:   "variants",
	Short: "List the branch labels and the variants they select",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		branches := build.Branches()
		return output.Print(getOutputFormat(), branches, func() {
			rows := make([][]string, len(branches))
			for i, b := range branches {
				rows[i] = []string{b.Branch, string(b.Kind), b.Suffix}
			}
			output.PrintTable([]string{"BRANCH", "KIND", "SUFFIX"}, rows)
		})
	},
}
