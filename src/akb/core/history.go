package core

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/bitswalk/akb/src/akb/db"
	"github.com/bitswalk/akb/src/akb/output"
	"github.com/bitswalk/akb/src/common/errors"
)

// RunDetail is a build run with its stages
type RunDetail struct {
	*db.BuildRun
	Stages []db.StageRun `json:"stages"`
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent builds",
	Args:  cobra.NoArgs,
	RunE:  runHistoryList,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show a build and its stages",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

func init() {
	historyCmd.AddCommand(historyShowCmd)

	historyCmd.Flags().IntP("limit", "n", 20, "Maximum number of builds (0 for all)")
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")

	database, err := openHistory()
	if err != nil {
		return err
	}
	defer database.Close()

	runs, err := db.NewBuildRunRepository(database).List(limit)
	if err != nil {
		return errors.ErrHistoryUnavailable.WithCause(err)
	}
	if runs == nil {
		runs = []db.BuildRun{}
	}

	switch getOutputFormat() {
	case output.FormatJSON:
		return output.PrintJSON(runs)
	case output.FormatYAML:
		return output.PrintYAML(runs)
	default:
		if len(runs) == 0 {
			output.PrintMessage("No builds found.")
			return nil
		}

		rows := make([][]string, len(runs))
		for i, r := range runs {
			stage := r.CurrentStage
			if r.Status == db.BuildStatusFailed && r.ErrorStage != "" {
				stage = r.ErrorStage
			}
			rows[i] = []string{r.ID, r.Project, r.Variant, string(r.Status), stage, r.ArchiveName, formatTime(&r.CreatedAt)}
		}
		output.PrintTable([]string{"ID", "PROJECT", "VARIANT", "STATUS", "STAGE", "ARCHIVE", "CREATED"}, rows)
		return nil
	}
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	database, err := openHistory()
	if err != nil {
		return err
	}
	defer database.Close()

	repo := db.NewBuildRunRepository(database)
	run, err := repo.GetByID(args[0])
	if err != nil {
		return errors.ErrHistoryUnavailable.WithMessagef("Build %s not found", args[0]).WithCause(err)
	}
	stages, err := repo.GetStages(run.ID)
	if err != nil {
		return errors.ErrHistoryUnavailable.WithCause(err)
	}

	detail := RunDetail{BuildRun: run, Stages: stages}

	switch getOutputFormat() {
	case output.FormatJSON:
		return output.PrintJSON(detail)
	case output.FormatYAML:
		return output.PrintYAML(detail)
	default:
		output.PrintTable(
			[]string{"FIELD", "VALUE"},
			[][]string{
				{"ID", run.ID},
				{"Project", run.Project},
				{"Branch", run.Branch},
				{"Variant", run.Variant},
				{"Release", fmt.Sprintf("%t", run.Release)},
				{"Status", string(run.Status)},
				{"Error Stage", run.ErrorStage},
				{"Error", run.ErrorMessage},
				{"Archive", run.ArchiveName},
				{"SHA256", run.ArchiveChecksum},
				{"Stored As", run.StorageKey},
				{"Release Tag", run.ReleaseTag},
				{"Release URL", run.ReleaseURL},
				{"Created", formatTime(&run.CreatedAt)},
				{"Completed", formatTime(run.CompletedAt)},
			},
		)

		if len(stages) > 0 {
			fmt.Println()
			output.PrintMessage("Stages:")
			rows := make([][]string, len(stages))
			for i, s := range stages {
				duration := ""
				if s.DurationMs > 0 {
					duration = fmt.Sprintf("%dms", s.DurationMs)
				}
				rows[i] = []string{s.Name, string(s.Status), duration, s.ErrorMessage}
			}
			output.PrintTable([]string{"STAGE", "STATUS", "DURATION", "ERROR"}, rows)
		}
		return nil
	}
}
