// internal/cli/root.go
package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/law-makers/expowait/internal/app"
	"github.com/law-makers/expowait/internal/config"
	"github.com/law-makers/expowait/internal/ui"
)

// Version is stamped at build time with -ldflags "-X ...cli.Version=..."
var Version = "0.1.0"

// rootCmd represents the base command when called without any subcommands
var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "expowait",
		Short: "Record pavilion wait times to a CSV log",
		Long: `Expowait reads the current pavilion wait times from the listing page or its
published spreadsheet and appends one row per attraction to a CSV file.

Run it from cron or a loop to build a time series; each run appends one batch.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	config.RegisterFlags(cmd)
	cmd.CompletionOptions.DisableDefaultCmd = true
	cmd.SetHelpFunc(func(c *cobra.Command, _ []string) { printHelp(c.OutOrStdout(), c, true) })
	cmd.SetUsageFunc(func(c *cobra.Command) error {
		printHelp(c.ErrOrStderr(), c, false)
		return nil
	})

	// The application is built lazily so -h and --version never touch config
	cmd.PersistentPreRunE = func(c *cobra.Command, args []string) error {
		if GetApp(c) != nil {
			return nil
		}
		cfg, err := config.Load(c)
		if err != nil {
			return err
		}
		a, err := app.New(c.Context(), cfg)
		if err != nil {
			return err
		}
		SetApp(c, a)
		return nil
	}
	cmd.PersistentPostRunE = func(c *cobra.Command, args []string) error {
		a := GetApp(c)
		if a == nil {
			return nil
		}
		ctx, cancel := context.WithTimeout(context.Background(), a.Config.HTTPTimeout)
		defer cancel()
		return a.Close(ctx)
	}

	cmd.AddCommand(newRunCmd(), newColumnsCmd())
	return cmd
}

// Execute runs the root command with ctx and returns the process exit code.
func Execute(ctx context.Context) int {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		return 1
	}
	return 0
}

// printHelp renders colorized help. Usage output omits the long description and examples.
func printHelp(w io.Writer, cmd *cobra.Command, full bool) {
	section := func(title string) {
		fmt.Fprintf(w, "\n%s\n", ui.Bold(title))
	}

	if full {
		fmt.Fprintf(w, "\n%s\n", ui.Paint(ui.ColorBold+ui.ColorCyan, strings.ToUpper(cmd.Name())))
		if cmd.Short != "" {
			fmt.Fprintln(w, cmd.Short)
		}
		if cmd.Long != "" && cmd.Long != cmd.Short {
			fmt.Fprintf(w, "\n%s\n", cmd.Long)
		}
	}

	section("Usage")
	if cmd.Runnable() {
		fmt.Fprintf(w, "  %s\n", ui.Paint(ui.ColorCyan, cmd.UseLine()))
	}
	if cmd.HasAvailableSubCommands() {
		fmt.Fprintf(w, "  %s %s %s\n", ui.Paint(ui.ColorCyan, cmd.CommandPath()),
			ui.Paint(ui.ColorYellow, "<command>"), ui.Paint(ui.ColorDim, "[flags]"))
	}

	if full && cmd.HasExample() {
		section("Examples")
		for _, line := range strings.Split(cmd.Example, "\n") {
			line = strings.TrimSpace(line)
			switch {
			case line == "":
			case strings.HasPrefix(line, "#"):
				fmt.Fprintf(w, "  %s\n", ui.Paint(ui.ColorDim, line))
			default:
				fmt.Fprintf(w, "  %s\n", ui.Paint(ui.ColorGreen, "$ "+line))
			}
		}
	}

	if cmd.HasAvailableSubCommands() {
		section("Commands")
		width := 0
		for _, c := range cmd.Commands() {
			if c.IsAvailableCommand() && len(c.Name()) > width {
				width = len(c.Name())
			}
		}
		for _, c := range cmd.Commands() {
			if !c.IsAvailableCommand() || c.Name() == "help" {
				continue
			}
			fmt.Fprintf(w, "  %s%s%s\n", ui.Paint(ui.ColorCyan, c.Name()),
				strings.Repeat(" ", width-len(c.Name())+2), ui.Paint(ui.ColorDim, c.Short))
		}
	}

	if cmd.HasAvailableLocalFlags() {
		section("Flags")
		printFlags(w, cmd.LocalFlags().FlagUsages())
	}
	if full && cmd.HasAvailableInheritedFlags() {
		section("Global Flags")
		printFlags(w, cmd.InheritedFlags().FlagUsages())
	}

	fmt.Fprintf(w, "\n%s\n\n", ui.Paint(ui.ColorDim, fmt.Sprintf("Use \"%s --help\" for more information.", cmd.CommandPath())))
}

// printFlags colors pflag's pre-aligned usage lines
func printFlags(w io.Writer, usages string) {
	for _, line := range strings.Split(usages, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		trimmed := strings.TrimLeft(line, " ")
		if !strings.HasPrefix(trimmed, "-") {
			fmt.Fprintf(w, "%s\n", ui.Paint(ui.ColorDim, line))
			continue
		}
		flag, desc, ok := strings.Cut(trimmed, "  ")
		if !ok {
			fmt.Fprintf(w, "  %s\n", ui.Paint(ui.ColorGreen, trimmed))
			continue
		}
		pad := len(trimmed) - len(flag) - len(strings.TrimLeft(desc, " "))
		fmt.Fprintf(w, "  %s%s%s\n", ui.Paint(ui.ColorGreen, flag),
			strings.Repeat(" ", pad), ui.Paint(ui.ColorDim, strings.TrimSpace(desc)))
	}
}
