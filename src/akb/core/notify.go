package core

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bitswalk/akb/src/akb/notify"
	"github.com/bitswalk/akb/src/akb/output"
)

var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Send a release notification",
	Long: `Sends the notification a release build sends after publishing,
through the notifier configured under notify.*.`,
	Args: cobra.NoArgs,
	RunE: runNotify,
}

func init() {
	notifyCmd.Flags().String("tag", "", "Release tag to announce")
	notifyCmd.Flags().String("project", "", "Project key")
	notifyCmd.Flags().String("variant", "", "Variant suffix")
	notifyCmd.Flags().String("url", "", "Release URL")
	_ = notifyCmd.MarkFlagRequired("tag")
}

func runNotify(cmd *cobra.Command, args []string) error {
	msg := notify.Message{}
	msg.Tag, _ = cmd.Flags().GetString("tag")
	msg.Project, _ = cmd.Flags().GetString("project")
	msg.Variant, _ = cmd.Flags().GetString("variant")
	msg.ReleaseURL, _ = cmd.Flags().GetString("url")

	d, err := notify.New(notifyConfig())
	if err != nil {
		return err
	}
	if err := d.Notify(cmd.Context(), msg); err != nil {
		return err
	}

	switch getOutputFormat() {
	case output.FormatJSON:
		return output.PrintJSON(map[string]string{"message": "Notification sent", "tag": msg.Tag, "via": string(d.Type())})
	case output.FormatYAML:
		return output.PrintYAML(map[string]string{"message": "Notification sent", "tag": msg.Tag, "via": string(d.Type())})
	default:
		output.PrintMessage(fmt.Sprintf("Notification for %s sent via %s.", msg.Tag, d.Type()))
		return nil
	}
}
