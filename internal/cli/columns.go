package cli

import (
	"fmt"
	"io"

	"github.com/law-makers/expowait/internal/ui"
	"github.com/spf13/cobra"
)

func newColumnsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "columns",
		Short: "List the spreadsheet's column labels with their indexes",
		Long: `List the column labels of the published spreadsheet with their zero-based
indexes. Use it to pick --min-cells and --posted-col for the sheet source.`,
		Example: `  expowait columns --sheet-id 14R9px2COU6-9UIgib2xY7ICh5sI-FDzcfC14iQXFj3U`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := GetApp(cmd)
			if a == nil {
				return fmt.Errorf("application not initialized")
			}
			labels, err := a.SheetReader().Columns(cmd.Context())
			if err != nil {
				a.Logger.Error().Err(err).Msg("Failed to read spreadsheet columns")
				return err
			}
			printColumns(cmd.OutOrStdout(), labels)
			return nil
		},
	}
}

func printColumns(w io.Writer, labels []string) {
	for i, label := range labels {
		if label == "" {
			label = ui.Paint(ui.ColorDim, "(no label)")
		}
		fmt.Fprintf(w, "%s: %s\n", ui.Paint(ui.ColorCyan, fmt.Sprint(i)), label)
	}
}
