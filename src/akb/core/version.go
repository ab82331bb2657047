package core

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bitswalk/akb/src/akb/output"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		switch getOutputFormat() {
		case output.FormatJSON:
			return output.PrintJSON(VersionInfo.Map())
		case output.FormatYAML:
			return output.PrintYAML(VersionInfo.Map())
		default:
			fmt.Println(VersionInfo.Full())
			return nil
		}
	},
}
