package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/law-makers/expowait/internal/config"
	"github.com/law-makers/expowait/internal/pipeline"
	"github.com/law-makers/expowait/internal/source"
	"github.com/law-makers/expowait/internal/ui"
	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Fetch the current wait times and append them to the CSV log",
		Long: `Fetch the current wait times once and append one row per attraction.

Failures are logged and the command still exits 0, so a wrapper loop keeps
running. Nothing is written when no rows are found.`,
		Example: `  # Read the static listing page into wait_times.csv
  expowait run

  # Render the page in Chrome and keep a dump of what was seen
  expowait run --source browser --diagnostics

  # Read the spreadsheet, falling back to the page if it is unavailable
  expowait run --source sheet --fallback html -o data/waits.csv`,
		Args: cobra.NoArgs,
		RunE: runRun,
	}
	config.RegisterRunFlags(cmd)
	return cmd
}

func runRun(cmd *cobra.Command, args []string) error {
	a := GetApp(cmd)
	if a == nil {
		return fmt.Errorf("application not initialized")
	}

	runner, err := a.Runner()
	if err != nil {
		return err
	}

	res := runner.Run(cmd.Context())

	if err := a.Metrics.WriteTextfile(a.Config.MetricsFile); err != nil {
		a.Logger.Warn().Err(err).Str("file", a.Config.MetricsFile).Msg("Failed to write metrics textfile")
	}

	if a.Config.LogLevel != "error" {
		writeSummary(cmd.OutOrStdout(), res, a.Sink.Path())
	}
	return nil
}

func writeSummary(w io.Writer, res pipeline.Result, path string) {
	if !res.OK() {
		fmt.Fprintf(w, "%s failed while %s [%s]: %v\n",
			ui.Error("✗"), res.FailedAt, source.CodeOf(res.Err), res.Err)
		return
	}
	if res.Appended == 0 {
		fmt.Fprintf(w, "%s no rows found, %s left unchanged (%s)\n",
			ui.Warn("!"), path, res.Duration.Round(time.Millisecond))
		return
	}
	fmt.Fprintf(w, "%s appended %d rows to %s (%d skipped, %s)\n",
		ui.Success("✓"), res.Appended, path, res.Fetched-res.Extracted, res.Duration.Round(time.Millisecond))
}
